// Package mqtt publishes machine state and events with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/thatsimonsguy/senseo-controller/internal/model"
)

const (
	EventPowerOn  = "POWER_ON"
	EventPowerOff = "POWER_OFF"
	EventBrew     = "BREW"
)

// Publisher publishes machine updates to MQTT.
type Publisher interface {
	// PublishState sends a retained status snapshot.
	PublishState(st model.Status, at time.Time) error

	// PublishEvent sends an actuation event. Size is only set for BREW.
	PublishEvent(event Event) error

	// Close disconnects from the broker.
	Close() error
}

type Event struct {
	Timestamp time.Time
	Type      string
	Size      int
}

// Availability payloads. The broker publishes AvailabilityOffline as the
// last will when the daemon drops off.
const (
	AvailabilityOnline  = "online"
	AvailabilityOffline = "offline"
)

// Topics derives the state, event and availability topics from a prefix.
type Topics struct {
	State        string
	Events       string
	Availability string
}

func NewTopics(prefix string) Topics {
	return Topics{
		State:        prefix + "/state",
		Events:       prefix + "/events",
		Availability: prefix + "/availability",
	}
}

type statePayload struct {
	PoweredOn bool   `json:"is_powered_on"`
	Ready     bool   `json:"is_ready"`
	Timestamp string `json:"timestamp"`
}

type eventPayload struct {
	Event     string `json:"event"`
	Size      int    `json:"size,omitempty"`
	Timestamp string `json:"timestamp"`
}

func FormatState(st model.Status, at time.Time) ([]byte, error) {
	return json.Marshal(statePayload{
		PoweredOn: st.PoweredOn,
		Ready:     st.Ready,
		Timestamp: at.UTC().Format(time.RFC3339),
	})
}

func FormatEvent(event Event) ([]byte, error) {
	return json.Marshal(eventPayload{
		Event:     event.Type,
		Size:      event.Size,
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
	})
}

// PowerEvent maps a power change to its event type; ok is false for no change.
func PowerEvent(change model.PowerChange) (string, bool) {
	switch change {
	case model.PowerChangeOn:
		return EventPowerOn, true
	case model.PowerChangeOff:
		return EventPowerOff, true
	default:
		return "", false
	}
}
