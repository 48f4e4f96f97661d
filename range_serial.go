package main

import (
	"io"
	"time"
)

// serialFrameHeader starts every frame of A02YYUW style UART ultrasonic
// modules: 0xFF, distance high byte, distance low byte, checksum.  The
// distance is in millimetres and the checksum is the low byte of the sum of
// the first three bytes.
const serialFrameHeader = 0xFF

// maxFrameScan bounds how many bytes Measure reads while looking for a valid
// frame.  The module streams one frame every 100ms, so a few frames' worth is
// plenty to resynchronise after noise.
const maxFrameScan = 32

// serialFramePeriod is how often the module sends a frame.  The port's read
// timeout must exceed it, since Measure waits for the next frame after
// discarding buffered ones.
const serialFramePeriod = 100 * time.Millisecond

// serialPort is the subset of go.bug.st/serial.Port the sensor uses.  Reads
// must return (0, nil) on timeout.
type serialPort interface {
	io.Reader
	ResetInputBuffer() error
}

// SerialRangeSensor reads distances from a UART ultrasonic module.
type SerialRangeSensor struct {
	port     serialPort
	maxRange float64
	logger   *EventLogger
}

// NewSerialRangeSensor wraps an opened port.  The port's read timeout bounds
// each wait for a byte and must be longer than serialFramePeriod.
func NewSerialRangeSensor(port serialPort, maxRange float64, logger *EventLogger) *SerialRangeSensor {
	return &SerialRangeSensor{port: port, maxRange: maxRange, logger: logger}
}

// Measure discards buffered frames and decodes the next valid one.  Timeouts,
// read errors and checksum failures all yield the maximum range.
func (s *SerialRangeSensor) Measure() float64 {
	// Frames queued since the last sample are stale.
	if err := s.port.ResetInputBuffer(); err != nil {
		s.logger.Log("range sensor: reset input buffer: %v", err)
	}

	var frame [4]byte
	filled := 0
	buf := make([]byte, 1)
	for scanned := 0; scanned < maxFrameScan; scanned++ {
		n, err := s.port.Read(buf)
		if err != nil || n == 0 {
			return s.maxRange
		}
		b := buf[0]
		if filled == 0 && b != serialFrameHeader {
			continue
		}
		frame[filled] = b
		filled++
		if filled < len(frame) {
			continue
		}
		if cm, ok := decodeSerialFrame(frame); ok {
			if cm <= 0 {
				return s.maxRange
			}
			return clampRange(cm, s.maxRange)
		}
		// Bad checksum: a later byte may be the real header.
		filled = 0
		for i := 1; i < len(frame); i++ {
			if frame[i] == serialFrameHeader {
				filled = copy(frame[:], frame[i:])
				break
			}
		}
	}
	return s.maxRange
}

// decodeSerialFrame validates a frame and returns its distance in cm.  The
// module reports zero when it saw nothing.
func decodeSerialFrame(f [4]byte) (float64, bool) {
	if f[0] != serialFrameHeader {
		return 0, false
	}
	if byte(int(f[0])+int(f[1])+int(f[2])) != f[3] {
		return 0, false
	}
	mm := int(f[1])<<8 | int(f[2])
	return float64(mm) / 10, true
}
