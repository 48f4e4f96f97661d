package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 80, cfg.HTTPPort)
	assert.Equal(t, 25.0, cfg.Range.ThresholdCM)
	assert.Equal(t, 400.0, cfg.Range.MaxRangeCM)
	assert.Equal(t, 90, cfg.Gate.OpenAngle)
	assert.Equal(t, 0, cfg.Gate.ClosedAngle)
	assert.Equal(t, 500*time.Millisecond, cfg.SampleInterval)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parkgate.yaml")
	data := `
http_port: 8080
sample_interval: 250ms
pins:
  servo: 13
range:
  threshold_cm: 30
  echo_timeout: 40ms
  frame_timeout: 300ms
gate:
  open_angle: 120
  settle: 1s
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, 250*time.Millisecond, cfg.SampleInterval)
	assert.Equal(t, 13, cfg.Pins.Servo)
	assert.Equal(t, 24, cfg.Pins.Echo, "unset fields keep their defaults")
	assert.Equal(t, 30.0, cfg.Range.ThresholdCM)
	assert.Equal(t, 40*time.Millisecond, cfg.Range.EchoTimeout)
	assert.Equal(t, 300*time.Millisecond, cfg.Range.FrameTimeout)
	assert.Equal(t, 120, cfg.Gate.OpenAngle)
	assert.Equal(t, time.Second, cfg.Gate.Settle)
}

func TestLoadConfigEnvironment(t *testing.T) {
	t.Setenv("PARKGATE_MQTT_BROKER", "tcp://broker.local:1883")
	t.Setenv("PARKGATE_MQTT_PASSWORD", "s3cret")
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "tcp://broker.local:1883", cfg.MQTT.Broker)
	assert.Equal(t, "s3cret", cfg.MQTT.Password)
}

func TestLoadConfigRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()

	garbled := filepath.Join(dir, "garbled.yaml")
	require.NoError(t, os.WriteFile(garbled, []byte("http_port: [not a number"), 0600))
	_, err := LoadConfig(garbled)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("gate:\n  open_angle: 0\n"), 0600))
	_, err = LoadConfig(invalid)
	assert.ErrorContains(t, err, "must differ")
}

func TestConfigValidateFrameTimeoutOnlyForSerial(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Range.FrameTimeout = 0
	assert.NoError(t, cfg.Validate(), "gpio driver ignores frame_timeout")

	cfg = DefaultConfig()
	cfg.Range.Driver = "serial"
	assert.NoError(t, cfg.Validate(), "default frame_timeout suits the serial driver")
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "port", mutate: func(c *Config) { c.HTTPPort = 0 }, want: "http_port"},
		{name: "interval", mutate: func(c *Config) { c.SampleInterval = 0 }, want: "sample_interval"},
		{name: "threshold above max", mutate: func(c *Config) { c.Range.ThresholdCM = 500 }, want: "threshold_cm"},
		{name: "echo timeout", mutate: func(c *Config) { c.Range.EchoTimeout = 0 }, want: "echo_timeout"},
		{name: "driver", mutate: func(c *Config) { c.Range.Driver = "laser" }, want: "unknown range.driver"},
		{name: "serial port", mutate: func(c *Config) { c.Range.Driver = "serial"; c.Range.SerialPort = "" }, want: "serial_port"},
		{name: "serial frame timeout", mutate: func(c *Config) {
			c.Range.Driver = "serial"
			c.Range.FrameTimeout = c.Range.EchoTimeout
		}, want: "range.frame_timeout 30ms must be at least 150ms"},
		{name: "open angle", mutate: func(c *Config) { c.Gate.OpenAngle = 200 }, want: "open_angle"},
		{name: "closed angle", mutate: func(c *Config) { c.Gate.ClosedAngle = -1 }, want: "closed_angle"},
		{name: "same angles", mutate: func(c *Config) { c.Gate.OpenAngle = 0 }, want: "must differ"},
		{name: "pulse order", mutate: func(c *Config) { c.Gate.MaxPulse = c.Gate.MinPulse }, want: "pulse widths"},
		{name: "retry", mutate: func(c *Config) { c.Network.Retry = 0 }, want: "network.retry"},
		{name: "mqtt topic", mutate: func(c *Config) { c.MQTT.Broker = "tcp://x:1883"; c.MQTT.Topic = "" }, want: "mqtt.topic"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}
