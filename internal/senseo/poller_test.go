package senseo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scripted(values ...bool) (func() (bool, error), *int) {
	calls := 0
	return func() (bool, error) {
		v := values[calls]
		calls++
		return v, nil
	}, &calls
}

func TestPollerUntil(t *testing.T) {
	clock := &fakeClock{}
	p := Poller{Attempts: 3, Interval: 20 * time.Millisecond, Sleep: clock.Sleep}

	read, calls := scripted(false, true, false)
	found, err := p.Until(context.Background(), read, true)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 2, *calls)
	assert.Equal(t, []time.Duration{20 * time.Millisecond}, clock.Sleeps())
}

func TestPollerUntil_Exhausted(t *testing.T) {
	clock := &fakeClock{}
	p := Poller{Attempts: 3, Interval: time.Millisecond, Sleep: clock.Sleep}

	read, calls := scripted(false, false, false)
	found, err := p.Until(context.Background(), read, true)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 3, *calls)
	assert.Len(t, clock.Sleeps(), 2, "no sleep after the last read")
}

func TestPollerUntil_ZeroAttemptsReadsOnce(t *testing.T) {
	read, calls := scripted(true)
	found, err := Poller{}.Until(context.Background(), read, true)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1, *calls)
}

func TestPollerUntil_ReadError(t *testing.T) {
	p := Poller{Attempts: 5, Sleep: (&fakeClock{}).Sleep}
	boom := errors.New("boom")

	_, err := p.Until(context.Background(), func() (bool, error) { return false, boom }, true)
	assert.ErrorIs(t, err, boom)
}

func TestPollerUntil_SleepCancelled(t *testing.T) {
	p := Poller{Attempts: 5, Sleep: func(context.Context, time.Duration) error { return context.DeadlineExceeded }}

	read, calls := scripted(false, false, false, false, false)
	_, err := p.Until(context.Background(), read, true)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, *calls)
}

func TestContextSleep(t *testing.T) {
	require.NoError(t, ContextSleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, ContextSleep(ctx, time.Hour), context.Canceled)
}

func TestDefaultPoller(t *testing.T) {
	p := DefaultPoller()
	assert.Equal(t, 10, p.Attempts)
	assert.Equal(t, 500*time.Millisecond, p.Interval)
	assert.NotNil(t, p.Sleep)
}
