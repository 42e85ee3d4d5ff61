package notifications

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const DefaultServer = "https://ntfy.sh"

// Notifier pushes short messages to an ntfy topic.
type Notifier struct {
	client *http.Client
	server string
	topic  string
}

// New returns nil when topic is empty; a nil *Notifier drops every message.
func New(topic string) *Notifier {
	if topic == "" {
		log.Warn().Msg("Ntfy topic not configured - notifications disabled")
		return nil
	}

	log.Info().
		Str("topic", topic).
		Msg("Ntfy notifications initialized")

	return &Notifier{
		client: &http.Client{Timeout: 10 * time.Second},
		server: DefaultServer,
		topic:  topic,
	}
}

// WithServer points the notifier at a self-hosted ntfy instance.
func (n *Notifier) WithServer(server string) *Notifier {
	if n != nil {
		n.server = server
	}
	return n
}

// Send sends a notification to ntfy.
func (n *Notifier) Send(title, message string) error {
	if n == nil {
		return nil
	}

	payload := map[string]interface{}{
		"topic":   n.topic,
		"title":   title,
		"message": message,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	// ntfy accepts JSON publishes on the server root
	req, err := http.NewRequest(http.MethodPost, n.server, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ntfy returned non-success status: %d", resp.StatusCode)
	}

	log.Debug().
		Str("title", title).
		Int("status", resp.StatusCode).
		Msg("Notification sent successfully")

	return nil
}
