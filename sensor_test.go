package main

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEchoRangeSensorMeasure(t *testing.T) {
	tests := []struct {
		name  string
		width time.Duration
		ok    bool
		want  float64
	}{
		{name: "no echo", ok: false, want: 400},
		{name: "zero width echo", width: 0, ok: true, want: 400},
		{name: "negative width", width: -time.Microsecond, ok: true, want: 400},
		{name: "object at 10cm", width: echoWidth(10), ok: true, want: 10},
		{name: "object at threshold", width: echoWidth(25), ok: true, want: 25},
		{name: "just beyond max range", width: echoWidth(400.5), ok: true, want: 400},
		{name: "far beyond max range", width: time.Second, ok: true, want: 400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			echo := &fakeEcho{}
			echo.set(tt.width, tt.ok)
			s := NewEchoRangeSensor(echo, 30*time.Millisecond, 400)
			assert.InDelta(t, tt.want, s.Measure(), 0.001)
		})
	}
}

func TestEchoRangeSensorPassesTimeout(t *testing.T) {
	echo := &fakeEcho{}
	s := NewEchoRangeSensor(echo, 25*time.Millisecond, 400)
	s.Measure()
	assert.Equal(t, []time.Duration{25 * time.Millisecond}, echo.timeouts)
}

func TestEchoDistance(t *testing.T) {
	// 583us round trip at 0.0343 cm/us is almost exactly 10cm.
	assert.InDelta(t, 10.0, echoDistance(583*time.Microsecond), 0.01)
	assert.InDelta(t, 0.0, echoDistance(0), 1e-9)
	for _, cm := range []float64{1, 25, 99.5, 400} {
		assert.InDelta(t, cm, echoDistance(echoWidth(cm)), 0.001)
	}
}

func TestClampRangeStaysInBounds(t *testing.T) {
	const maxRange = 400
	inputs := []float64{
		math.Inf(-1), -1e9, -0.0001, 0, 0.5, 24.99, 25, 399.99, 400, 400.0001, 1e9,
		math.Inf(1), math.NaN(),
	}
	for _, in := range inputs {
		got := clampRange(in, maxRange)
		assert.GreaterOrEqual(t, got, 0.0, "input %v", in)
		assert.LessOrEqual(t, got, float64(maxRange), "input %v", in)
		assert.False(t, math.IsNaN(got), "input %v", in)
		if in >= 0 && in <= maxRange {
			assert.Equal(t, in, got)
		} else {
			assert.Equal(t, float64(maxRange), got, "input %v", in)
		}
	}
}
