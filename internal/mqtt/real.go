package mqtt

import (
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/thatsimonsguy/senseo-controller/internal/model"
)

// RealPublisher publishes to an actual MQTT broker.
type RealPublisher struct {
	client paho.Client
	topics Topics
}

// NewRealPublisher connects to broker. The client keeps reconnecting in the
// background after the first successful connect.
func NewRealPublisher(broker, clientID, prefix string) (*RealPublisher, error) {
	topics := NewTopics(prefix)

	client := paho.NewClient(clientOptions(broker, clientID, topics))
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return &RealPublisher{client: client, topics: topics}, nil
}

// clientOptions marks the daemon online on every (re)connect and lets the
// broker flip availability to offline if the connection is lost.
func clientOptions(broker, clientID string, topics Topics) *paho.ClientOptions {
	return paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(topics.Availability, AvailabilityOffline, 1, true).
		SetOnConnectHandler(func(c paho.Client) {
			c.Publish(topics.Availability, 1, true, AvailabilityOnline)
		})
}

func (p *RealPublisher) publish(topic string, qos byte, retained bool, payload []byte) error {
	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish %s timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// PublishState sends the retained status snapshot at QoS 1.
func (p *RealPublisher) PublishState(st model.Status, at time.Time) error {
	payload, err := FormatState(st, at)
	if err != nil {
		return fmt.Errorf("format state payload: %w", err)
	}
	return p.publish(p.topics.State, 1, true, payload)
}

// PublishEvent sends an actuation event at QoS 0, not retained.
func (p *RealPublisher) PublishEvent(event Event) error {
	payload, err := FormatEvent(event)
	if err != nil {
		return fmt.Errorf("format event payload: %w", err)
	}
	return p.publish(p.topics.Events, 0, false, payload)
}

// IsConnected reports whether the broker connection is currently up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close marks the daemon offline, then disconnects.
func (p *RealPublisher) Close() error {
	var err error
	if p.IsConnected() {
		err = p.publish(p.topics.Availability, 1, true, []byte(AvailabilityOffline))
	}
	p.client.Disconnect(1000) // 1 second timeout
	return err
}
