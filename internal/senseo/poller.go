package senseo

import (
	"context"
	"time"
)

const (
	DefaultPollAttempts  = 10
	DefaultPollInterval  = 500 * time.Millisecond
	DefaultPressDuration = time.Second
)

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// ContextSleep is the SleepFunc used outside of tests.
func ContextSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Poller reads a signal a fixed number of times with a fixed delay between reads.
// There is no backoff and no jitter.
type Poller struct {
	Attempts int
	Interval time.Duration
	Sleep    SleepFunc
}

func DefaultPoller() Poller {
	return Poller{
		Attempts: DefaultPollAttempts,
		Interval: DefaultPollInterval,
		Sleep:    ContextSleep,
	}
}

// Until reads up to Attempts times and reports whether any read returned want.
// It stops at the first matching read. A read error ends the poll immediately.
func (p Poller) Until(ctx context.Context, read func() (bool, error), want bool) (bool, error) {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = ContextSleep
	}

	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		value, err := read()
		if err != nil {
			return false, err
		}
		if value == want {
			return true, nil
		}

		if i < attempts-1 {
			if err := sleep(ctx, p.Interval); err != nil {
				return false, err
			}
		}
	}
	return false, nil
}
