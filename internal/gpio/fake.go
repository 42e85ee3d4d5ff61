package gpio

import (
	"errors"
	"fmt"
	"sync"
)

// Write records a single level change issued through FakeDriver.
type Write struct {
	Pin   int
	Level bool
}

// FakeDriver is a test double with scripted reads and a log of writes.
type FakeDriver struct {
	mu sync.Mutex

	// Samples holds scripted levels per input pin. Each Read consumes the next
	// sample; once exhausted the last sample repeats.
	Samples map[int][]bool

	// ReadError and WriteError, if set, are returned by Read and Write.
	ReadError  error
	WriteError error

	// OnWrite, if set, is called after every recorded write.
	OnWrite func(Write)

	outputs map[int]bool
	inputs  map[int]Bias
	levels  map[int]bool
	index   map[int]int
	reads   map[int]int
	writes  []Write
	closed  bool
}

func NewFakeDriver() *FakeDriver {
	return &FakeDriver{
		Samples: make(map[int][]bool),
		outputs: make(map[int]bool),
		inputs:  make(map[int]Bias),
		levels:  make(map[int]bool),
		index:   make(map[int]int),
		reads:   make(map[int]int),
	}
}

// Script replaces the scripted samples of pin and rewinds it.
func (f *FakeDriver) Script(pin int, samples ...bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Samples[pin] = samples
	f.index[pin] = 0
}

func (f *FakeDriver) ConfigureOutput(pin int, initial bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outputs[pin] = initial
	f.levels[pin] = initial
	delete(f.inputs, pin)
	return nil
}

func (f *FakeDriver) ConfigureInput(pin int, bias Bias) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs[pin] = bias
	delete(f.outputs, pin)
	return nil
}

func (f *FakeDriver) Read(pin int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ReadError != nil {
		return false, f.ReadError
	}
	f.reads[pin]++

	samples, ok := f.Samples[pin]
	if !ok {
		return f.levels[pin], nil
	}
	if len(samples) == 0 {
		return false, errors.New("no samples configured")
	}

	i := f.index[pin]
	if i < len(samples)-1 {
		f.index[pin] = i + 1
	}
	return samples[i], nil
}

func (f *FakeDriver) Write(pin int, level bool) error {
	f.mu.Lock()
	if f.WriteError != nil {
		f.mu.Unlock()
		return f.WriteError
	}
	if _, ok := f.outputs[pin]; !ok {
		f.mu.Unlock()
		return fmt.Errorf("pin %d is not configured as output", pin)
	}
	w := Write{Pin: pin, Level: level}
	f.levels[pin] = level
	f.writes = append(f.writes, w)
	onWrite := f.OnWrite
	f.mu.Unlock()

	if onWrite != nil {
		onWrite(w)
	}
	return nil
}

func (f *FakeDriver) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Writes returns a copy of every write so far.
func (f *FakeDriver) Writes() []Write {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Write(nil), f.writes...)
}

// WritesTo returns the writes issued to pin.
func (f *FakeDriver) WritesTo(pin int) []Write {
	var out []Write
	for _, w := range f.Writes() {
		if w.Pin == pin {
			out = append(out, w)
		}
	}
	return out
}

// Reads returns how many times pin has been read.
func (f *FakeDriver) Reads(pin int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads[pin]
}

func (f *FakeDriver) Output(pin int) (initial bool, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	initial, ok = f.outputs[pin]
	return initial, ok
}

func (f *FakeDriver) Input(pin int) (bias Bias, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	bias, ok = f.inputs[pin]
	return bias, ok
}

func (f *FakeDriver) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
