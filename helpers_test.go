package main

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"
)

// fakeEcho answers Pulse with whatever scene the test set up.  It is safe to
// change the scene while the control loop is running.
type fakeEcho struct {
	mu       sync.Mutex
	width    time.Duration
	ok       bool
	calls    int
	timeouts []time.Duration
}

// place puts an object at cm.
func (f *fakeEcho) place(cm float64) { f.set(echoWidth(cm), true) }

// clear removes every object so no echo returns.
func (f *fakeEcho) clear() { f.set(0, false) }

func (f *fakeEcho) set(width time.Duration, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.width, f.ok = width, ok
}

func (f *fakeEcho) Pulse(timeout time.Duration) (time.Duration, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.timeouts = append(f.timeouts, timeout)
	return f.width, f.ok
}

func (f *fakeEcho) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeLevel struct {
	mu   sync.Mutex
	high bool
}

func (f *fakeLevel) set(high bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.high = high
}

func (f *fakeLevel) Read() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.high
}

// fakePulseWriter records every servo pulse width.
type fakePulseWriter struct {
	mu     sync.Mutex
	pulses []time.Duration
	err    error
}

func (f *fakePulseWriter) SetPulse(width time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pulses = append(f.pulses, width)
	return f.err
}

func (f *fakePulseWriter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pulses)
}

// fakeRanger returns a fixed distance.
type fakeRanger struct {
	cm float64
}

func (f fakeRanger) Measure() float64 { return f.cm }

func discardLogger() *EventLogger { return NewEventLoggerTo(io.Discard) }

// rig is a fully wired controller on fake hardware.  The gate's settle wait
// is a no-op and background sampling is effectively off unless the test
// asks for a shorter interval.
type rig struct {
	cfg   Config
	echo  *fakeEcho
	ir    *fakeLevel
	servo *fakePulseWriter
	gate  *Gate
	ctrl  *Controller
}

func newRig(t *testing.T, interval time.Duration) *rig {
	t.Helper()
	cfg := DefaultConfig()
	logger := discardLogger()
	r := &rig{
		cfg:   cfg,
		echo:  &fakeEcho{},
		ir:    &fakeLevel{high: true},
		servo: &fakePulseWriter{},
	}
	r.gate = NewGate(NewServo(r.servo, cfg.Gate.MinPulse, cfg.Gate.MaxPulse), cfg.Gate, logger)
	r.gate.sleep = func(time.Duration) {}
	sensor := NewEchoRangeSensor(r.echo, cfg.Range.EchoTimeout, cfg.Range.MaxRangeCM)
	classifier := NewClassifier(sensor, r.ir, cfg.Range.ThresholdCM, logger)
	r.ctrl = NewController(classifier, r.gate, interval, logger)
	return r
}

// start runs Init and the control loop until the test ends.
func (r *rig) start(t *testing.T) {
	t.Helper()
	r.ctrl.Init()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.ctrl.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}
