package main

// This file defines the hardware abstraction layer (HAL) the drivers are
// written against.  hal_rpi.go implements it with periph.io on a Raspberry
// Pi; hal_sim.go provides a static simulated scene on every other build so
// the server can run on a desktop machine.

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// EchoPulser fires one trigger pulse and times the echo pulse that comes
// back.  ok is false when no complete echo arrived within timeout.
type EchoPulser interface {
	Pulse(timeout time.Duration) (width time.Duration, ok bool)
}

// LevelReader reads a digital input.  It returns true for a high level.
type LevelReader interface {
	Read() bool
}

// PulseWriter drives a 50 Hz servo signal with the given high time.
type PulseWriter interface {
	SetPulse(width time.Duration) error
}

// Hardware bundles the pins the controller needs.
type Hardware struct {
	Echo  EchoPulser
	IR    LevelReader
	Servo PulseWriter
}

// openRangeFinder builds the distance sensor selected by cfg.Range.Driver.
// The gpio driver uses hw.Echo; the serial driver opens its own UART.
func openRangeFinder(cfg Config, hw *Hardware, logger *EventLogger) (RangeFinder, error) {
	switch cfg.Range.Driver {
	case "serial":
		port, err := serial.Open(cfg.Range.SerialPort, &serial.Mode{BaudRate: cfg.Range.BaudRate})
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", cfg.Range.SerialPort, err)
		}
		if err := port.SetReadTimeout(cfg.Range.FrameTimeout); err != nil {
			port.Close()
			return nil, fmt.Errorf("set read timeout on %s: %w", cfg.Range.SerialPort, err)
		}
		logger.Log("range sensor: serial %s @ %d baud", cfg.Range.SerialPort, cfg.Range.BaudRate)
		return NewSerialRangeSensor(port, cfg.Range.MaxRangeCM, logger), nil
	default:
		logger.Log("range sensor: gpio trig=GPIO%d echo=GPIO%d", cfg.Pins.Trig, cfg.Pins.Echo)
		return NewEchoRangeSensor(hw.Echo, cfg.Range.EchoTimeout, cfg.Range.MaxRangeCM), nil
	}
}
