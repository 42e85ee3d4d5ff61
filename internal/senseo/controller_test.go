package senseo

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/senseo-controller/internal/gpio"
	"github.com/thatsimonsguy/senseo-controller/internal/model"
)

var testPins = model.PinConfig{
	PowerButton:  17,
	OneMugButton: 27,
	TwoMugButton: 22,
	LED:          4,
}

type fakeClock struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (f *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	f.sleeps = append(f.sleeps, d)
	return nil
}

func (f *fakeClock) Sleeps() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.sleeps...)
}

func newTestController(t *testing.T, led ...bool) (*Controller, *gpio.FakeDriver, *fakeClock) {
	t.Helper()
	driver := gpio.NewFakeDriver()
	clock := &fakeClock{}

	c, err := New(testPins, driver, WithSleep(clock.Sleep))
	require.NoError(t, err)

	if len(led) > 0 {
		driver.Script(testPins.LED, led...)
	}
	return c, driver, clock
}

func repeat(v bool, n int) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestNew_ConfiguresPins(t *testing.T) {
	_, driver, _ := newTestController(t)

	for _, pin := range []int{17, 27, 22} {
		initial, ok := driver.Output(pin)
		assert.True(t, ok, "pin %d should be an output", pin)
		assert.False(t, initial, "pin %d should start low", pin)
	}

	bias, ok := driver.Input(4)
	assert.True(t, ok)
	assert.Equal(t, gpio.PullUp, bias)
	assert.Empty(t, driver.Writes())
}

func TestNew_InvalidPins(t *testing.T) {
	tests := []struct {
		name string
		pins model.PinConfig
	}{
		{"negative pin", model.PinConfig{PowerButton: -1, OneMugButton: 27, TwoMugButton: 22, LED: 4}},
		{"beyond header", model.PinConfig{PowerButton: 17, OneMugButton: 27, TwoMugButton: 22, LED: 40}},
		{"shared pin", model.PinConfig{PowerButton: 17, OneMugButton: 17, TwoMugButton: 22, LED: 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			driver := gpio.NewFakeDriver()
			_, err := New(tt.pins, driver)

			var cfgErr *ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, KindConfiguration, KindOf(err))
			_, configured := driver.Output(17)
			assert.False(t, configured, "no pin should be touched on invalid config")
		})
	}
}

func TestNew_DriverFailure(t *testing.T) {
	_, err := New(testPins, failingConfigDriver{gpio.NewFakeDriver()})
	assert.ErrorContains(t, err, "setup button pin")
	assert.Equal(t, KindUnexpected, KindOf(err))
}

type failingConfigDriver struct {
	*gpio.FakeDriver
}

func (failingConfigDriver) ConfigureOutput(int, bool) error {
	return errors.New("permission denied")
}

func TestIsLEDOn_SingleRead(t *testing.T) {
	c, driver, clock := newTestController(t, true, false)

	on, err := c.IsLEDOn(context.Background())
	require.NoError(t, err)
	assert.True(t, on)
	assert.Equal(t, 1, driver.Reads(4))
	assert.Empty(t, clock.Sleeps())
}

func TestIsPoweredOn_AllDark(t *testing.T) {
	c, driver, clock := newTestController(t, repeat(false, 10)...)

	on, err := c.IsPoweredOn(context.Background())
	require.NoError(t, err)
	assert.False(t, on)
	assert.Equal(t, 10, driver.Reads(4))
	assert.Len(t, clock.Sleeps(), 9)
	for _, d := range clock.Sleeps() {
		assert.Equal(t, 500*time.Millisecond, d)
	}
}

func TestIsPoweredOn_ShortCircuits(t *testing.T) {
	c, driver, clock := newTestController(t, true)

	on, err := c.IsPoweredOn(context.Background())
	require.NoError(t, err)
	assert.True(t, on)
	assert.Equal(t, 1, driver.Reads(4))
	assert.Empty(t, clock.Sleeps())
}

func TestIsPoweredOn_CatchesBlink(t *testing.T) {
	c, driver, _ := newTestController(t, false, false, false, true)

	on, err := c.IsPoweredOn(context.Background())
	require.NoError(t, err)
	assert.True(t, on)
	assert.Equal(t, 4, driver.Reads(4))
}

func TestIsReady_ShortCircuits(t *testing.T) {
	c, driver, clock := newTestController(t, false)

	ready, err := c.IsReady(context.Background())
	require.NoError(t, err)
	assert.False(t, ready)
	assert.Equal(t, 1, driver.Reads(4))
	assert.Empty(t, clock.Sleeps())
}

func TestIsReady_RequiresSteadyLED(t *testing.T) {
	c, driver, _ := newTestController(t, append(repeat(true, 9), false)...)

	ready, err := c.IsReady(context.Background())
	require.NoError(t, err)
	assert.False(t, ready, "a dark tenth read means still heating")
	assert.Equal(t, 10, driver.Reads(4))
}

func TestIsReady_AllDark(t *testing.T) {
	c, _, _ := newTestController(t, repeat(false, 10)...)

	ready, err := c.IsReady(context.Background())
	require.NoError(t, err)
	assert.False(t, ready)
}

func TestPolling_ReadError(t *testing.T) {
	c, driver, _ := newTestController(t)
	driver.ReadError = errors.New("gpio busy")

	_, err := c.IsPoweredOn(context.Background())
	assert.ErrorContains(t, err, "gpio busy")
	assert.Equal(t, KindUnexpected, KindOf(err))
}

func TestPolling_Cancelled(t *testing.T) {
	c, driver, _ := newTestController(t, repeat(false, 10)...)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.IsPoweredOn(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, driver.Reads(4))
}

func TestSinglePress(t *testing.T) {
	c, driver, clock := newTestController(t)

	require.NoError(t, c.SinglePress(context.Background(), 17))

	assert.Equal(t, []gpio.Write{{Pin: 17, Level: true}, {Pin: 17, Level: false}}, driver.Writes())
	assert.Equal(t, []time.Duration{time.Second}, clock.Sleeps())
}

func TestSinglePress_RejectsLED(t *testing.T) {
	c, driver, _ := newTestController(t)

	assert.Error(t, c.SinglePress(context.Background(), 4))
	assert.Empty(t, driver.Writes())
}

func TestSinglePress_ReleasesWhenCancelled(t *testing.T) {
	driver := gpio.NewFakeDriver()
	ctx, cancel := context.WithCancel(context.Background())
	c, err := New(testPins, driver, WithSleep(func(context.Context, time.Duration) error {
		cancel()
		return context.Canceled
	}))
	require.NoError(t, err)

	err = c.SinglePress(ctx, 17)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []gpio.Write{{Pin: 17, Level: true}, {Pin: 17, Level: false}}, driver.Writes())
}

func TestSinglePress_CustomDuration(t *testing.T) {
	driver := gpio.NewFakeDriver()
	clock := &fakeClock{}
	c, err := New(testPins, driver, WithSleep(clock.Sleep), WithPressDuration(250*time.Millisecond))
	require.NoError(t, err)

	require.NoError(t, c.SinglePress(context.Background(), 22))
	assert.Equal(t, []time.Duration{250 * time.Millisecond}, clock.Sleeps())
}

func TestStart(t *testing.T) {
	t.Run("presses power when off", func(t *testing.T) {
		c, driver, _ := newTestController(t, repeat(false, 10)...)

		require.NoError(t, c.Start(context.Background()))
		assert.Equal(t, []gpio.Write{{Pin: 17, Level: true}, {Pin: 17, Level: false}}, driver.Writes())
	})

	t.Run("no-op when on", func(t *testing.T) {
		c, driver, _ := newTestController(t, true)

		require.NoError(t, c.Start(context.Background()))
		require.NoError(t, c.Start(context.Background()))
		assert.Empty(t, driver.Writes())
	})
}

func TestStop(t *testing.T) {
	t.Run("presses power when on", func(t *testing.T) {
		c, driver, _ := newTestController(t, true)

		require.NoError(t, c.Stop(context.Background()))
		assert.Equal(t, []gpio.Write{{Pin: 17, Level: true}, {Pin: 17, Level: false}}, driver.Writes())
	})

	t.Run("no-op when off", func(t *testing.T) {
		c, driver, _ := newTestController(t, repeat(false, 10)...)

		require.NoError(t, c.Stop(context.Background()))
		assert.Empty(t, driver.Writes())
	})
}

func TestSetPower(t *testing.T) {
	tests := []struct {
		name     string
		led      bool
		request  bool
		expected model.PowerChange
		presses  int
	}{
		{"on while off", false, true, model.PowerChangeOn, 1},
		{"off while on", true, false, model.PowerChangeOff, 1},
		{"on while on", true, true, model.PowerChangeNone, 0},
		{"off while off", false, false, model.PowerChangeNone, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, driver, _ := newTestController(t, tt.led)

			change, err := c.SetPower(context.Background(), tt.request)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, change)
			assert.Len(t, driver.WritesTo(17), 2*tt.presses)
		})
	}
}

func TestBrew_InvalidSize(t *testing.T) {
	for _, size := range []int{-1, 0, 3, 42} {
		c, driver, _ := newTestController(t, true)

		err := c.Brew(context.Background(), size)

		var sizeErr *InvalidSizeError
		require.ErrorAs(t, err, &sizeErr)
		assert.Equal(t, size, sizeErr.Size)
		assert.Equal(t, KindInvalidSize, KindOf(err))
		assert.Empty(t, driver.Writes())
		assert.Equal(t, 0, driver.Reads(4), "size is checked before polling")
	}
}

func TestBrew_NotPoweredOn(t *testing.T) {
	c, driver, _ := newTestController(t, repeat(false, 10)...)

	err := c.Brew(context.Background(), 1)

	var preErr *PreconditionError
	require.ErrorAs(t, err, &preErr)
	assert.Equal(t, ReasonNotPoweredOn, preErr.Reason)
	assert.Contains(t, err.Error(), "not powered on")
	assert.Equal(t, KindPrecondition, KindOf(err))
	assert.Empty(t, driver.Writes())
}

func TestBrew_NotReady(t *testing.T) {
	// lit for the power check, then blinking
	c, driver, _ := newTestController(t, true, true, false)

	err := c.Brew(context.Background(), 2)

	var preErr *PreconditionError
	require.ErrorAs(t, err, &preErr)
	assert.Equal(t, ReasonNotReady, preErr.Reason)
	assert.Empty(t, driver.Writes())
}

func TestBrew_PressesMatchingButton(t *testing.T) {
	tests := []struct {
		size  int
		pin   int
		other int
	}{
		{1, 27, 22},
		{2, 22, 27},
	}

	for _, tt := range tests {
		c, driver, _ := newTestController(t, repeat(true, 11)...)

		require.NoError(t, c.Brew(context.Background(), tt.size))

		assert.Equal(t, []gpio.Write{{Pin: tt.pin, Level: true}, {Pin: tt.pin, Level: false}}, driver.WritesTo(tt.pin))
		assert.Empty(t, driver.WritesTo(tt.other))
		assert.Empty(t, driver.WritesTo(17))
	}
}

func TestScenario_ReadyThenBrewTwoMugs(t *testing.T) {
	c, driver, clock := newTestController(t, repeat(true, 10)...)
	ctx := context.Background()

	on, err := c.IsPoweredOn(ctx)
	require.NoError(t, err)
	assert.True(t, on)

	ready, err := c.IsReady(ctx)
	require.NoError(t, err)
	assert.True(t, ready)

	require.NoError(t, c.Brew(ctx, 2))

	assert.Equal(t, []gpio.Write{{Pin: 22, Level: true}, {Pin: 22, Level: false}}, driver.Writes())
	assert.Empty(t, driver.WritesTo(27))

	sleeps := clock.Sleeps()
	assert.Equal(t, time.Second, sleeps[len(sleeps)-1], "press is held for one second")
}

func TestStatus(t *testing.T) {
	t.Run("off skips readiness poll", func(t *testing.T) {
		c, driver, _ := newTestController(t, repeat(false, 10)...)

		st, err := c.Status(context.Background())
		require.NoError(t, err)
		assert.Equal(t, model.Status{PoweredOn: false, Ready: false}, st)
		assert.Equal(t, 10, driver.Reads(4))
	})

	t.Run("heating", func(t *testing.T) {
		c, _, _ := newTestController(t, true, true, false)

		st, err := c.Status(context.Background())
		require.NoError(t, err)
		assert.Equal(t, model.Status{PoweredOn: true, Ready: false}, st)
	})

	t.Run("ready", func(t *testing.T) {
		c, _, _ := newTestController(t, true)

		st, err := c.Status(context.Background())
		require.NoError(t, err)
		assert.Equal(t, model.Status{PoweredOn: true, Ready: true}, st)
	})
}

func TestBrew_ConcurrentCallsSerialize(t *testing.T) {
	c, driver, _ := newTestController(t, true)

	var mu sync.Mutex
	high := 0
	maxHigh := 0
	driver.OnWrite = func(w gpio.Write) {
		mu.Lock()
		defer mu.Unlock()
		if w.Level {
			high++
		} else {
			high--
		}
		if high > maxHigh {
			maxHigh = high
		}
	}

	var wg sync.WaitGroup
	for _, size := range []int{1, 2, 1, 2} {
		wg.Add(1)
		go func(size int) {
			defer wg.Done()
			assert.NoError(t, c.Brew(context.Background(), size))
		}(size)
	}
	wg.Wait()

	assert.Equal(t, 1, maxHigh, "two buttons must never be held at once")
	assert.Len(t, driver.Writes(), 8)
}

func TestClose_ParksButtons(t *testing.T) {
	c, driver, _ := newTestController(t)

	require.NoError(t, c.Close())
	assert.Equal(t, []gpio.Write{{Pin: 17}, {Pin: 27}, {Pin: 22}}, driver.Writes())
	assert.True(t, driver.Closed())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNone, KindOf(nil))
	assert.Equal(t, KindPrecondition, KindOf(&PreconditionError{Reason: ReasonNotReady}))
	assert.Equal(t, KindInvalidSize, KindOf(&InvalidSizeError{Size: 3}))
	assert.Equal(t, KindConfiguration, KindOf(&ConfigurationError{Reason: "x"}))
	assert.Equal(t, KindUnexpected, KindOf(errors.New("boom")))
	assert.Equal(t, "precondition", KindPrecondition.String())
}

func TestWithPoller_DefaultsSleep(t *testing.T) {
	c, err := New(testPins, gpio.NewFakeDriver(), WithPoller(Poller{Attempts: 3, Interval: time.Millisecond}))
	require.NoError(t, err)
	assert.Equal(t, 3, c.poller.Attempts)
	assert.NotNil(t, c.poller.Sleep)
}
