package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/senseo-controller/internal/model"
	"github.com/thatsimonsguy/senseo-controller/internal/mqtt"
)

type stubSource struct {
	mu    sync.Mutex
	calls int
	st    model.Status
	err   error
}

func (s *stubSource) Status(ctx context.Context) (model.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.st, s.err
}

func (s *stubSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestSample_PublishesState(t *testing.T) {
	source := &stubSource{st: model.Status{PoweredOn: true, Ready: false}}
	publisher := mqtt.NewFakePublisher()

	sample(context.Background(), source, publisher)

	assert.Equal(t, []model.Status{{PoweredOn: true}}, publisher.States())
}

func TestSample_ErrorSkipsPublish(t *testing.T) {
	source := &stubSource{err: errors.New("gpio busy")}
	publisher := mqtt.NewFakePublisher()

	sample(context.Background(), source, publisher)

	assert.Empty(t, publisher.States())
	assert.Equal(t, 1, source.Calls())
}

func TestSample_PublishErrorIsSwallowed(t *testing.T) {
	source := &stubSource{st: model.Status{PoweredOn: true, Ready: true}}
	publisher := mqtt.NewFakePublisher()
	publisher.PublishError = errors.New("broker down")

	assert.NotPanics(t, func() {
		sample(context.Background(), source, publisher)
	})
}

func TestRunMonitor_SamplesUntilCancelled(t *testing.T) {
	source := &stubSource{st: model.Status{PoweredOn: true, Ready: true}}
	publisher := mqtt.NewFakePublisher()

	ctx, cancel := context.WithCancel(context.Background())
	done := RunMonitor(ctx, source, publisher, 5*time.Millisecond)

	require.Eventually(t, func() bool { return source.Calls() >= 3 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop after cancel")
	}

	calls := source.Calls()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, calls, source.Calls())
	assert.GreaterOrEqual(t, len(publisher.States()), 3)
}

func TestStart_DisabledReturnsClosedChannel(t *testing.T) {
	source := &stubSource{}

	done := Start(context.Background(), source, mqtt.NewFakePublisher(), 0)

	select {
	case <-done:
	default:
		t.Fatal("disabled monitor should report done immediately")
	}
	assert.Equal(t, 0, source.Calls())
}

func TestStart_EnabledRunsUntilCancelled(t *testing.T) {
	source := &stubSource{st: model.Status{PoweredOn: true}}

	ctx, cancel := context.WithCancel(context.Background())
	done := Start(ctx, source, mqtt.NewFakePublisher(), 5*time.Millisecond)

	require.Eventually(t, func() bool { return source.Calls() >= 1 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop after cancel")
	}
}
