package main

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidAction is returned for gate actions other than open and close.
var ErrInvalidAction = errors.New("invalid action")

// spotState is everything the control loop owns.  Only the loop goroutine
// reads or writes it.
type spotState struct {
	reading    Reading
	sampled    bool      // reading holds at least one sample
	lastSample time.Time // last background sample
}

type job struct {
	run  func()
	done chan struct{}
}

// Controller runs the sense-decide-actuate loop.  All work, whether a
// background sample or a client request, executes one piece at a time on
// the goroutine that called Run, in the order it was submitted.
type Controller struct {
	classifier *Classifier
	gate       *Gate
	interval   time.Duration
	notifiers  []Notifier
	logger     *EventLogger
	now        func() time.Time

	jobs  chan job
	state spotState
}

// NewController wires the classifier and gate into a loop that samples
// every interval.
func NewController(classifier *Classifier, gate *Gate, interval time.Duration, logger *EventLogger) *Controller {
	return &Controller{
		classifier: classifier,
		gate:       gate,
		interval:   interval,
		logger:     logger,
		now:        time.Now,
		jobs:       make(chan job),
	}
}

// AddNotifier registers n for occupancy changes.  It must be called before
// Run.
func (c *Controller) AddNotifier(n ...Notifier) {
	c.notifiers = append(c.notifiers, n...)
}

// Init puts the system in its startup state: gate closed regardless of
// where the arm was at power on, and one background sample taken.  It must
// be called before Run.
func (c *Controller) Init() {
	c.gate.Close()
	c.backgroundSample(c.now())
}

// Run services submitted work and background sampling until ctx is done.
func (c *Controller) Run(ctx context.Context) error {
	timer := time.NewTimer(c.untilDue(c.now()))
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case j := <-c.jobs:
			j.run()
			close(j.done)
		case <-timer.C:
		}
		if now := c.now(); c.sampleDue(now) {
			c.backgroundSample(now)
		}
		timer.Reset(c.untilDue(c.now()))
	}
}

// do hands fn to the loop and waits for it to finish.  If ctx ends before
// the loop picks fn up, fn never runs.  Once started, fn always runs to
// completion, even if ctx ends meanwhile, and do reports success.
func (c *Controller) do(ctx context.Context, fn func()) error {
	j := job{run: fn, done: make(chan struct{})}
	select {
	case c.jobs <- j:
	case <-ctx.Done():
		return ctx.Err()
	}
	<-j.done
	return nil
}

// Status takes a fresh sample and returns it with the gate position.  The
// background sample clock is left alone.
func (c *Controller) Status(ctx context.Context) (Status, error) {
	var st Status
	err := c.do(ctx, func() {
		r := c.classifier.Refresh()
		c.record(sourceStatus, r)
		st = Status{
			IsOccupied:   r.Occupied,
			DistanceCM:   centimeters(r.DistanceCM),
			IRStatus:     r.IRLevel,
			IsGateOpen:   c.gate.IsOpen(),
			CurrentAngle: c.gate.Angle(),
		}
	})
	if err != nil {
		return Status{}, err
	}
	return st, nil
}

// Command moves the gate.  It returns once the gate has settled.  Unknown
// actions fail with ErrInvalidAction without touching the gate.
func (c *Controller) Command(ctx context.Context, action GateAction) error {
	var move func()
	switch action {
	case GateOpen:
		move = c.gate.Open
	case GateClose:
		move = c.gate.Close
	default:
		incInvalidCommand()
		return fmt.Errorf("%w %q", ErrInvalidAction, action)
	}
	return c.do(ctx, func() {
		start := time.Now()
		move()
		observeGateCommand(action, c.gate.IsOpen(), time.Since(start))
	})
}

func (c *Controller) sampleDue(now time.Time) bool {
	return now.Sub(c.state.lastSample) >= c.interval
}

func (c *Controller) untilDue(now time.Time) time.Duration {
	d := c.state.lastSample.Add(c.interval).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

func (c *Controller) backgroundSample(now time.Time) {
	c.record(sourceBackground, c.classifier.Refresh())
	c.state.lastSample = now
}

// record stores r as the current reading and notifies on a verdict change.
func (c *Controller) record(source string, r Reading) {
	prev, had := c.state.reading, c.state.sampled
	c.state.reading, c.state.sampled = r, true
	observeReading(source, r)
	if had && prev.Occupied != r.Occupied {
		incOccupancyChange()
		c.notify(OccupancyEvent{
			Occupied:   r.Occupied,
			DistanceCM: centimeters(r.DistanceCM),
			At:         r.At,
		})
	}
}

// notify runs every notifier.  Errors are logged but do not propagate.
func (c *Controller) notify(ev OccupancyEvent) {
	for _, n := range c.notifiers {
		if err := n.Notify(ev, c.logger); err != nil {
			incNotifyError(n.Name())
			c.logger.Log("notifier %s error: %v", n.Name(), err)
		}
	}
}
