package main

import (
	"strconv"
	"time"
)

// Pins holds the BCM GPIO numbers the controller is wired to.
type Pins struct {
	Trig  int `yaml:"trig"`  // ultrasonic trigger output
	Echo  int `yaml:"echo"`  // ultrasonic echo input
	Servo int `yaml:"servo"` // gate servo signal (hardware PWM capable pin)
	IR    int `yaml:"ir"`    // IR detector digital output, active low
}

// RangeConfig selects and tunes the distance sensor.
type RangeConfig struct {
	Driver       string        `yaml:"driver"`        // "gpio" (trigger/echo) or "serial" (UART module)
	SerialPort   string        `yaml:"serial_port"`   // e.g. /dev/serial0, serial driver only
	BaudRate     int           `yaml:"baud_rate"`     // serial driver only
	EchoTimeout  time.Duration `yaml:"echo_timeout"`  // longest echo wait before giving up, gpio driver only
	FrameTimeout time.Duration `yaml:"frame_timeout"` // UART read timeout, serial driver only
	ThresholdCM  float64       `yaml:"threshold_cm"`  // below this the spot is occupied
	MaxRangeCM   float64       `yaml:"max_range_cm"`  // clamp and "nothing detected" sentinel
}

// GateConfig describes the servo barrier.
type GateConfig struct {
	OpenAngle   int           `yaml:"open_angle"`
	ClosedAngle int           `yaml:"closed_angle"`
	Settle      time.Duration `yaml:"settle"`    // wait after each command for full travel
	MinPulse    time.Duration `yaml:"min_pulse"` // pulse width at 0 degrees
	MaxPulse    time.Duration `yaml:"max_pulse"` // pulse width at 180 degrees
}

// NetworkConfig controls the startup wait for connectivity.
type NetworkConfig struct {
	Interface string        `yaml:"interface"` // empty means any interface
	Retry     time.Duration `yaml:"retry"`
}

// MQTTConfig enables publishing occupancy changes.  Leaving Broker empty
// disables the MQTT notifier.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	QueueLen int    `yaml:"queue_len"`
}

// SimConfig describes the static scene used when no GPIO hardware is
// available.  A zero distance means no echo comes back.
type SimConfig struct {
	DistanceCM float64 `yaml:"distance_cm"`
	IRDetected bool    `yaml:"ir_detected"`
}

// Config is the top-level structure read from parkgate.yaml.  Every field has
// a compiled-in default; the file only overrides them once at startup.
type Config struct {
	HTTPPort       int           `yaml:"http_port"`
	LogFile        string        `yaml:"log_file"` // empty logs to stderr
	SampleInterval time.Duration `yaml:"sample_interval"`
	Pins           Pins          `yaml:"pins"`
	Range          RangeConfig   `yaml:"range"`
	Gate           GateConfig    `yaml:"gate"`
	Network        NetworkConfig `yaml:"network"`
	MQTT           MQTTConfig    `yaml:"mqtt"`
	Sim            SimConfig     `yaml:"sim"`
}

// Reading is one classifier decision: the range sample, the verdict derived
// from it and the IR level read alongside.  The three are always produced
// together by Classifier.Refresh.
type Reading struct {
	DistanceCM float64
	Occupied   bool
	IRLevel    int // 0 = object detected, 1 = clear
	At         time.Time
}

// centimeters encodes as a JSON number with exactly two decimals.
type centimeters float64

func (c centimeters) MarshalJSON() ([]byte, error) {
	return strconv.AppendFloat(nil, float64(c), 'f', 2, 64), nil
}

// Status is the /status response body.
type Status struct {
	IsOccupied   bool        `json:"is_occupied"`
	DistanceCM   centimeters `json:"distance_cm"`
	IRStatus     int         `json:"ir_status"`
	IsGateOpen   bool        `json:"is_gate_open"`
	CurrentAngle int         `json:"current_angle"`
}

// GateAction is a command accepted by the /gate route.
type GateAction string

const (
	GateOpen  GateAction = "open"
	GateClose GateAction = "close"
)
