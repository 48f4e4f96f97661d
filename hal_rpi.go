//go:build linux && (arm || arm64) && !disablegpio

// This file provides a Raspberry Pi implementation of the HAL using the
// periph.io library.  When building for other platforms or when the build
// tag "disablegpio" is specified, hal_sim.go is used instead.

package main

import (
	"fmt"
	"time"

	// Use the new periph module layout.  See https://periph.io/news/2020/a_new_start/
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// initHardware initialises periph host state and configures every pin the
// controller uses.  Pins are addressed by their BCM numbers.  Returning an
// error here prevents the controller from starting.
func initHardware(cfg Config, logger *EventLogger) (*Hardware, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	trig, err := pinByNumber(cfg.Pins.Trig)
	if err != nil {
		return nil, err
	}
	echo, err := pinByNumber(cfg.Pins.Echo)
	if err != nil {
		return nil, err
	}
	ir, err := pinByNumber(cfg.Pins.IR)
	if err != nil {
		return nil, err
	}
	servo, err := pinByNumber(cfg.Pins.Servo)
	if err != nil {
		return nil, err
	}
	if err := trig.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("%s: %w", trig, err)
	}
	if err := echo.In(gpio.PullDown, gpio.BothEdges); err != nil {
		return nil, fmt.Errorf("%s: %w", echo, err)
	}
	// IR modules are open collector; pull up so an idle line reads clear.
	if err := ir.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("%s: %w", ir, err)
	}
	logger.Log("gpio ready: trig=%s echo=%s ir=%s servo=%s", trig, echo, ir, servo)
	return &Hardware{
		Echo:  &gpioEcho{trig: trig, echo: echo},
		IR:    gpioLevel{pin: ir},
		Servo: gpioServo{pin: servo},
	}, nil
}

func pinByNumber(n int) (gpio.PinIO, error) {
	p := gpioreg.ByName(fmt.Sprintf("GPIO%d", n))
	if p == nil {
		return nil, fmt.Errorf("unknown pin GPIO%d", n)
	}
	return p, nil
}

// gpioEcho drives an HC-SR04 style trigger/echo pair.
type gpioEcho struct {
	trig gpio.PinOut
	echo gpio.PinIn
}

// Pulse sends a 10us trigger and measures how long echo stays high.
func (e *gpioEcho) Pulse(timeout time.Duration) (time.Duration, bool) {
	// Drop edges left over from a previous measurement.
	for e.echo.WaitForEdge(0) {
	}
	if err := e.trig.Out(gpio.Low); err != nil {
		return 0, false
	}
	time.Sleep(2 * time.Microsecond)
	if err := e.trig.Out(gpio.High); err != nil {
		return 0, false
	}
	time.Sleep(10 * time.Microsecond)
	if err := e.trig.Out(gpio.Low); err != nil {
		return 0, false
	}

	deadline := time.Now().Add(timeout)
	if !e.waitFor(gpio.High, deadline) {
		return 0, false
	}
	start := time.Now()
	if !e.waitFor(gpio.Low, deadline) {
		return 0, false
	}
	return time.Since(start), true
}

// waitFor blocks until echo reads level or deadline passes.
func (e *gpioEcho) waitFor(level gpio.Level, deadline time.Time) bool {
	for e.echo.Read() != level {
		remaining := time.Until(deadline)
		// A negative timeout would make WaitForEdge block forever.
		if remaining <= 0 || !e.echo.WaitForEdge(remaining) {
			return false
		}
	}
	return true
}

type gpioLevel struct {
	pin gpio.PinIn
}

func (l gpioLevel) Read() bool {
	return l.pin.Read() == gpio.High
}

type gpioServo struct {
	pin gpio.PinOut
}

// SetPulse converts a high time into a duty cycle of the 20ms servo frame.
func (s gpioServo) SetPulse(width time.Duration) error {
	duty := gpio.Duty(int64(gpio.DutyMax) * int64(width) / int64(servoPeriod))
	return s.pin.PWM(duty, 50*physic.Hertz)
}
