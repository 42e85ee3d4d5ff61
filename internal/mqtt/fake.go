package mqtt

import (
	"sync"
	"time"

	"github.com/thatsimonsguy/senseo-controller/internal/model"
)

// FakePublisher records everything it is asked to publish.
type FakePublisher struct {
	mu     sync.Mutex
	states []model.Status
	events []Event
	closed bool

	// PublishError, if set, is returned by every publish.
	PublishError error
}

func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

func (f *FakePublisher) PublishState(st model.Status, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	f.states = append(f.states, st)
	return nil
}

func (f *FakePublisher) PublishEvent(event Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	f.events = append(f.events, event)
	return nil
}

func (f *FakePublisher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *FakePublisher) States() []model.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Status(nil), f.states...)
}

func (f *FakePublisher) Events() []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Event(nil), f.events...)
}

func (f *FakePublisher) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// NoopPublisher is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishState(model.Status, time.Time) error { return nil }
func (NoopPublisher) PublishEvent(Event) error                   { return nil }
func (NoopPublisher) Close() error                               { return nil }
