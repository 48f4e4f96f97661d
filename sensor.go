package main

import (
	"math"
	"time"
)

// soundCMPerMicrosecond is the speed of sound in air at about 20 C.
const soundCMPerMicrosecond = 0.0343

// RangeFinder measures the distance to the nearest object in centimetres.
// Implementations never fail: anything they cannot measure is reported as
// the maximum range, which reads as "nothing detected".
type RangeFinder interface {
	Measure() float64
}

// EchoRangeSensor is an ultrasonic trigger/echo sensor such as the HC-SR04.
type EchoRangeSensor struct {
	pulser   EchoPulser
	timeout  time.Duration
	maxRange float64
}

// NewEchoRangeSensor wraps pulser.  timeout bounds each echo wait and
// maxRange is both the clamp and the no-echo sentinel.
func NewEchoRangeSensor(pulser EchoPulser, timeout time.Duration, maxRange float64) *EchoRangeSensor {
	return &EchoRangeSensor{pulser: pulser, timeout: timeout, maxRange: maxRange}
}

// Measure fires the sensor once.  A missing or zero-length echo yields the
// maximum range.
func (s *EchoRangeSensor) Measure() float64 {
	width, ok := s.pulser.Pulse(s.timeout)
	if !ok || width <= 0 {
		return s.maxRange
	}
	return clampRange(echoDistance(width), s.maxRange)
}

// echoDistance converts a round-trip echo time to a one-way distance.
func echoDistance(width time.Duration) float64 {
	us := float64(width) / float64(time.Microsecond)
	return us * soundCMPerMicrosecond / 2
}

// echoWidth is the inverse of echoDistance.
func echoWidth(cm float64) time.Duration {
	return time.Duration(cm * 2 / soundCMPerMicrosecond * float64(time.Microsecond))
}

// clampRange maps anything outside [0, maxRange] to maxRange.
func clampRange(cm, maxRange float64) float64 {
	if math.IsNaN(cm) || cm < 0 || cm > maxRange {
		return maxRange
	}
	return cm
}
