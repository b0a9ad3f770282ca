// Package config loads the wwvb-sensor daemon configuration from YAML.
// Command-line flags override individual fields after loading.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/wwvb-sensor/internal/sample"
	"github.com/sweeney/wwvb-sensor/internal/wwvb"
)

// Config is the daemon configuration.
type Config struct {
	Decoder   DecoderConfig `yaml:"decoder"`
	Source    SourceConfig  `yaml:"source"`
	MQTT      MQTTConfig    `yaml:"mqtt"`
	HTTP      HTTPConfig    `yaml:"http"`
	Steer     SteerConfig   `yaml:"steer"`
	Display   DisplayConfig `yaml:"display"`
	Heartbeat string        `yaml:"heartbeat"` // Go duration, "0" disables
}

// DecoderConfig sizes the decoder.
type DecoderConfig struct {
	TicksPerSecond int     `yaml:"ticks_per_second"`
	Symbols        int     `yaml:"symbols"`
	HistorySeconds int     `yaml:"history_seconds"`
	HealthPercent  float64 `yaml:"health_percent"`
}

// SourceConfig selects where samples come from.
type SourceConfig struct {
	Type   string       `yaml:"type"` // gpio, serial or stdin
	GPIO   GPIOConfig   `yaml:"gpio"`
	Serial SerialConfig `yaml:"serial"`
}

// GPIOConfig configures the receiver pin.
type GPIOConfig struct {
	Pin    int  `yaml:"pin"` // BCM numbering
	Invert bool `yaml:"invert"`
}

// SerialConfig configures a serial-attached receiver.
type SerialConfig struct {
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
}

// MQTTConfig configures the broker connection.
type MQTTConfig struct {
	Broker         string `yaml:"broker"`
	ClientID       string `yaml:"client_id"`
	PublishSymbols bool   `yaml:"publish_symbols"` // per-second telemetry, noisy
}

// HTTPConfig configures the status server.
type HTTPConfig struct {
	Addr string `yaml:"addr"` // empty disables the server
}

// SteerConfig configures the clock steering loop.
type SteerConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Kp          float64 `yaml:"kp"`
	Ki          float64 `yaml:"ki"`
	MaxPPM      float64 `yaml:"max_ppm"`
	AdjustClock bool    `yaml:"adjust_clock"` // also slew the kernel clock (Linux only)
}

// DisplayConfig configures local time rendering.
type DisplayConfig struct {
	ZoneHours  int  `yaml:"zone_hours"` // hours west of UTC; 7 is mountain time
	ObserveDST bool `yaml:"observe_dst"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Decoder: DecoderConfig{
			TicksPerSecond: wwvb.DefaultTicksPerSecond,
			Symbols:        wwvb.DefaultSymbols,
			HistorySeconds: wwvb.DefaultHistorySeconds,
			HealthPercent:  wwvb.DefaultHealthPercent,
		},
		Source: SourceConfig{
			Type: "gpio",
			GPIO: GPIOConfig{Pin: sample.DefaultGPIOPin},
			Serial: SerialConfig{
				Device: "/dev/ttyACM0",
				Baud:   sample.DefaultSerialBaud,
			},
		},
		MQTT: MQTTConfig{
			Broker:   "tcp://192.168.1.200:1883",
			ClientID: "wwvb-sensor",
		},
		HTTP:      HTTPConfig{Addr: ":80"},
		Steer:     SteerConfig{Kp: 20, Ki: 0.5, MaxPPM: 250},
		Display:   DisplayConfig{ZoneHours: 7, ObserveDST: true},
		Heartbeat: "15m",
	}
}

// Load reads a YAML config file. Fields left unset keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(c)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

// applyDefaults fills fields an explicit YAML document may have zeroed.
func applyDefaults(c *Config) {
	d := Default()
	if c.Decoder.TicksPerSecond == 0 {
		c.Decoder.TicksPerSecond = d.Decoder.TicksPerSecond
	}
	if c.Decoder.Symbols == 0 {
		c.Decoder.Symbols = d.Decoder.Symbols
	}
	if c.Decoder.HistorySeconds == 0 {
		c.Decoder.HistorySeconds = d.Decoder.HistorySeconds
	}
	if c.Decoder.HealthPercent == 0 {
		c.Decoder.HealthPercent = d.Decoder.HealthPercent
	}
	if c.Source.Type == "" {
		c.Source.Type = d.Source.Type
	}
	if c.Source.Serial.Device == "" {
		c.Source.Serial.Device = d.Source.Serial.Device
	}
	if c.Source.Serial.Baud == 0 {
		c.Source.Serial.Baud = d.Source.Serial.Baud
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = d.MQTT.ClientID
	}
	if c.Steer.Kp == 0 {
		c.Steer.Kp = d.Steer.Kp
	}
	if c.Steer.Ki == 0 {
		c.Steer.Ki = d.Steer.Ki
	}
	if c.Steer.MaxPPM == 0 {
		c.Steer.MaxPPM = d.Steer.MaxPPM
	}
	if c.Heartbeat == "" {
		c.Heartbeat = d.Heartbeat
	}
}

// Validate rejects configurations the daemon cannot run with.
func (c *Config) Validate() error {
	dec := wwvb.Config{
		TicksPerSecond: c.Decoder.TicksPerSecond,
		Symbols:        c.Decoder.Symbols,
		HistorySeconds: c.Decoder.HistorySeconds,
		HealthPercent:  c.Decoder.HealthPercent,
	}
	if err := dec.Validate(); err != nil {
		return fmt.Errorf("decoder: %w", err)
	}

	switch c.Source.Type {
	case "gpio", "serial", "stdin":
	default:
		return fmt.Errorf("source.type %q: want gpio, serial or stdin", c.Source.Type)
	}
	if c.Source.GPIO.Pin < 0 {
		return fmt.Errorf("source.gpio.pin %d: must not be negative", c.Source.GPIO.Pin)
	}
	if c.Source.Serial.Baud <= 0 {
		return fmt.Errorf("source.serial.baud %d: must be positive", c.Source.Serial.Baud)
	}

	if c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker: must be set")
	}

	if c.Steer.Kp < 0 || c.Steer.Ki < 0 || c.Steer.MaxPPM < 0 {
		return fmt.Errorf("steer gains must not be negative")
	}

	if c.Display.ZoneHours < -14 || c.Display.ZoneHours > 14 {
		return fmt.Errorf("display.zone_hours %d: out of range", c.Display.ZoneHours)
	}

	if _, err := c.HeartbeatInterval(); err != nil {
		return err
	}
	return nil
}

// HeartbeatInterval parses the heartbeat setting. Zero disables.
func (c *Config) HeartbeatInterval() (time.Duration, error) {
	hb, err := time.ParseDuration(c.Heartbeat)
	if err != nil {
		return 0, fmt.Errorf("heartbeat %q: %w", c.Heartbeat, err)
	}
	if hb < 0 {
		return 0, fmt.Errorf("heartbeat %q: must not be negative", c.Heartbeat)
	}
	return hb, nil
}

// DecoderSettings returns the decoder sizing for wwvb.New.
func (c *Config) DecoderSettings() wwvb.Config {
	return wwvb.Config{
		TicksPerSecond: c.Decoder.TicksPerSecond,
		Symbols:        c.Decoder.Symbols,
		HistorySeconds: c.Decoder.HistorySeconds,
		HealthPercent:  c.Decoder.HealthPercent,
	}
}

// TickPeriod returns the nominal sample period.
func (c *Config) TickPeriod() time.Duration {
	return time.Second / time.Duration(c.Decoder.TicksPerSecond)
}
