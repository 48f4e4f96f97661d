package main

import (
	"time"
)

// servoPeriod is the frame length of a standard 50 Hz hobby servo signal.
const servoPeriod = 20 * time.Millisecond

func validAngle(a int) bool { return a >= 0 && a <= 180 }

// Servo positions a hobby servo by angle and remembers the last angle it
// was commanded to.  The hardware gives no position feedback, so Read
// reports that commanded angle.
type Servo struct {
	out      PulseWriter
	minPulse time.Duration
	maxPulse time.Duration
	angle    int
}

// NewServo wraps out.  minPulse and maxPulse are the pulse widths at 0 and
// 180 degrees.
func NewServo(out PulseWriter, minPulse, maxPulse time.Duration) *Servo {
	return &Servo{out: out, minPulse: minPulse, maxPulse: maxPulse}
}

// Write commands angle, clamped to [0, 180].  The angle is recorded even if
// the pin write fails so that Read reflects what was asked for.
func (s *Servo) Write(angle int) error {
	if angle < 0 {
		angle = 0
	} else if angle > 180 {
		angle = 180
	}
	s.angle = angle
	return s.out.SetPulse(s.pulseFor(angle))
}

// Read returns the last commanded angle.
func (s *Servo) Read() int { return s.angle }

func (s *Servo) pulseFor(angle int) time.Duration {
	return s.minPulse + (s.maxPulse-s.minPulse)*time.Duration(angle)/180
}

// Gate is the barrier driven by a servo.  It has exactly two positions and
// every command blocks until the arm has had time to arrive.
type Gate struct {
	servo       *Servo
	openAngle   int
	closedAngle int
	settle      time.Duration
	logger      *EventLogger
	sleep       func(time.Duration)
}

// NewGate builds a gate.  The position is undefined until the first
// command; callers close it at startup.
func NewGate(servo *Servo, cfg GateConfig, logger *EventLogger) *Gate {
	return &Gate{
		servo:       servo,
		openAngle:   cfg.OpenAngle,
		closedAngle: cfg.ClosedAngle,
		settle:      cfg.Settle,
		logger:      logger,
		sleep:       time.Sleep,
	}
}

// SetPosition moves the gate open or closed and waits out the settle time.
// A failed servo write is logged; the commanded position still stands.
func (g *Gate) SetPosition(open bool) {
	angle, name := g.closedAngle, "CLOSED"
	if open {
		angle, name = g.openAngle, "OPEN"
	}
	if err := g.servo.Write(angle); err != nil {
		g.logger.Log("gate: servo write %d failed: %v", angle, err)
	}
	g.logger.Log("Gate: %s", name)
	g.sleep(g.settle)
}

func (g *Gate) Open()  { g.SetPosition(true) }
func (g *Gate) Close() { g.SetPosition(false) }

// IsOpen reports whether the last command was open.
func (g *Gate) IsOpen() bool { return g.servo.Read() == g.openAngle }

// Angle is the servo's last commanded angle.
func (g *Gate) Angle() int { return g.servo.Read() }
