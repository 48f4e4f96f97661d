package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// configPath is the default filename for the optional configuration file.
const configPath = "parkgate.yaml"

// minFrameTimeout is the shortest UART read timeout that still spans one
// full frame period of a serial range module plus slack.
const minFrameTimeout = 150 * time.Millisecond

// DefaultConfig returns the compiled-in configuration.  Pin numbers follow
// the BCM layout of a Raspberry Pi with the servo on GPIO18 (PWM0).
func DefaultConfig() Config {
	return Config{
		HTTPPort:       80,
		SampleInterval: 500 * time.Millisecond,
		Pins: Pins{
			Trig:  23,
			Echo:  24,
			Servo: 18,
			IR:    17,
		},
		Range: RangeConfig{
			Driver:       "gpio",
			SerialPort:   "/dev/serial0",
			BaudRate:     9600,
			EchoTimeout:  30 * time.Millisecond,
			FrameTimeout: 250 * time.Millisecond,
			ThresholdCM:  25,
			MaxRangeCM:   400,
		},
		Gate: GateConfig{
			OpenAngle:   90,
			ClosedAngle: 0,
			Settle:      500 * time.Millisecond,
			MinPulse:    544 * time.Microsecond,
			MaxPulse:    2400 * time.Microsecond,
		},
		Network: NetworkConfig{
			Interface: "wlan0",
			Retry:     500 * time.Millisecond,
		},
		MQTT: MQTTConfig{
			ClientID: "parkgate",
			Topic:    "parkgate/spot",
			QueueLen: 16,
		},
	}
}

// LoadConfig builds the configuration from defaults, the YAML file at path
// and PARKGATE_* environment variables, in that order.  A missing file is not
// an error.  A .env file in the working directory is loaded first when
// present.
func LoadConfig(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	if path == "" {
		path = os.Getenv("PARKGATE_CONFIG")
	}
	if path == "" {
		path = configPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("unable to read config: %w", err)
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv copies secrets and deployment specific values from the
// environment.  Only non-empty variables override.
func applyEnv(cfg *Config) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&cfg.MQTT.Broker, "PARKGATE_MQTT_BROKER")
	set(&cfg.MQTT.Username, "PARKGATE_MQTT_USERNAME")
	set(&cfg.MQTT.Password, "PARKGATE_MQTT_PASSWORD")
	set(&cfg.Network.Interface, "PARKGATE_INTERFACE")
	set(&cfg.LogFile, "PARKGATE_LOG_FILE")
}

// Validate rejects configurations the controller cannot honour.
func (c Config) Validate() error {
	var errs []error
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("http_port %d out of range", c.HTTPPort))
	}
	if c.SampleInterval <= 0 {
		errs = append(errs, errors.New("sample_interval must be positive"))
	}
	if c.Range.MaxRangeCM <= 0 {
		errs = append(errs, errors.New("range.max_range_cm must be positive"))
	}
	if c.Range.ThresholdCM <= 0 || c.Range.ThresholdCM > c.Range.MaxRangeCM {
		errs = append(errs, fmt.Errorf("range.threshold_cm %.2f must be in (0, max_range_cm]", c.Range.ThresholdCM))
	}
	if c.Range.EchoTimeout <= 0 {
		errs = append(errs, errors.New("range.echo_timeout must be positive"))
	}
	switch c.Range.Driver {
	case "gpio":
	case "serial":
		if c.Range.SerialPort == "" || c.Range.BaudRate <= 0 {
			errs = append(errs, errors.New("range.serial_port and range.baud_rate are required for the serial driver"))
		}
		if c.Range.FrameTimeout < minFrameTimeout {
			errs = append(errs, fmt.Errorf("range.frame_timeout %s must be at least %s", c.Range.FrameTimeout, minFrameTimeout))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown range.driver %q", c.Range.Driver))
	}
	if !validAngle(c.Gate.OpenAngle) {
		errs = append(errs, fmt.Errorf("gate.open_angle %d out of [0, 180]", c.Gate.OpenAngle))
	}
	if !validAngle(c.Gate.ClosedAngle) {
		errs = append(errs, fmt.Errorf("gate.closed_angle %d out of [0, 180]", c.Gate.ClosedAngle))
	}
	if c.Gate.OpenAngle == c.Gate.ClosedAngle {
		errs = append(errs, errors.New("gate.open_angle and gate.closed_angle must differ"))
	}
	if c.Gate.Settle < 0 {
		errs = append(errs, errors.New("gate.settle must not be negative"))
	}
	if c.Gate.MinPulse <= 0 || c.Gate.MaxPulse <= c.Gate.MinPulse || c.Gate.MaxPulse >= servoPeriod {
		errs = append(errs, errors.New("gate pulse widths must satisfy 0 < min_pulse < max_pulse < 20ms"))
	}
	if c.Network.Retry <= 0 {
		errs = append(errs, errors.New("network.retry must be positive"))
	}
	if c.MQTT.Broker != "" && c.MQTT.Topic == "" {
		errs = append(errs, errors.New("mqtt.topic is required when mqtt.broker is set"))
	}
	return errors.Join(errs...)
}
