//go:build !linux || !(arm || arm64) || disablegpio

// This file provides a simulated HAL for builds without Raspberry Pi GPIO.
// The scene is static and comes from the sim section of the configuration,
// which is enough to exercise the web server and dashboard on a desktop.

package main

import "time"

// initHardware returns simulated pins.  It never fails.
func initHardware(cfg Config, logger *EventLogger) (*Hardware, error) {
	logger.Log("gpio unavailable, using simulated hardware (distance=%.2f cm, ir detected=%t)",
		cfg.Sim.DistanceCM, cfg.Sim.IRDetected)
	return &Hardware{
		Echo:  simEcho{distanceCM: cfg.Sim.DistanceCM},
		IR:    simLevel{high: !cfg.Sim.IRDetected},
		Servo: &simServo{},
	}, nil
}

// simEcho answers every trigger with the echo an object at distanceCM would
// produce.  A non-positive distance behaves like an empty scene: no echo.
type simEcho struct {
	distanceCM float64
}

func (s simEcho) Pulse(timeout time.Duration) (time.Duration, bool) {
	if s.distanceCM <= 0 {
		return 0, false
	}
	width := echoWidth(s.distanceCM)
	if width > timeout {
		return 0, false
	}
	return width, true
}

type simLevel struct {
	high bool
}

func (s simLevel) Read() bool { return s.high }

type simServo struct {
	width time.Duration
}

func (s *simServo) SetPulse(width time.Duration) error {
	s.width = width
	return nil
}
