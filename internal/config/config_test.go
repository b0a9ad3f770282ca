package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wwvb.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	c := Default()

	if got := c.Decoder.TicksPerSecond; got != 50 {
		t.Errorf("default ticks_per_second = %d, want 50", got)
	}
	if got := c.Decoder.HealthPercent; got != 97.0 {
		t.Errorf("default health_percent = %v, want 97", got)
	}
	if got := c.Source.Type; got != "gpio" {
		t.Errorf("default source type = %q, want gpio", got)
	}
	if got := c.MQTT.ClientID; got != "wwvb-sensor" {
		t.Errorf("default client_id = %q, want wwvb-sensor", got)
	}
	if got := c.Display.ZoneHours; got != 7 {
		t.Errorf("default zone_hours = %d, want 7", got)
	}
	if got := c.Heartbeat; got != "15m" {
		t.Errorf("default heartbeat = %q, want 15m", got)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("default config failed validation: %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := writeFile(t, `
decoder:
  ticks_per_second: 100
  health_percent: 95
source:
  type: serial
  serial:
    device: /dev/ttyUSB3
mqtt:
  broker: tcp://broker.local:1883
  publish_symbols: true
http:
  addr: ":8080"
steer:
  enabled: true
  adjust_clock: true
display:
  zone_hours: 5
  observe_dst: true
heartbeat: 5m
`)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := c.Decoder.TicksPerSecond; got != 100 {
		t.Errorf("ticks_per_second = %d, want 100", got)
	}
	if got := c.Decoder.Symbols; got != 61 {
		t.Errorf("symbols = %d, want default 61", got)
	}
	if got := c.Source.Type; got != "serial" {
		t.Errorf("source type = %q, want serial", got)
	}
	if got := c.Source.Serial.Device; got != "/dev/ttyUSB3" {
		t.Errorf("serial device = %q, want /dev/ttyUSB3", got)
	}
	if got := c.Source.Serial.Baud; got != 115200 {
		t.Errorf("serial baud = %d, want default 115200", got)
	}
	if got := c.MQTT.Broker; got != "tcp://broker.local:1883" {
		t.Errorf("broker = %q, want tcp://broker.local:1883", got)
	}
	if !c.MQTT.PublishSymbols {
		t.Error("publish_symbols = false, want true")
	}
	if got := c.HTTP.Addr; got != ":8080" {
		t.Errorf("http addr = %q, want :8080", got)
	}
	if !c.Steer.Enabled || !c.Steer.AdjustClock {
		t.Errorf("steer = %+v, want enabled with adjust_clock", c.Steer)
	}
	if got := c.Steer.Kp; got != 20 {
		t.Errorf("steer kp = %v, want default 20", got)
	}
	if got := c.Display.ZoneHours; got != 5 {
		t.Errorf("zone_hours = %d, want 5", got)
	}
	if got := c.Heartbeat; got != "5m" {
		t.Errorf("heartbeat = %q, want 5m", got)
	}
}

func TestLoadKeepsDefaultsForUnsetSections(t *testing.T) {
	path := writeFile(t, "mqtt:\n  broker: tcp://10.0.0.5:1883\n")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := c.MQTT.Broker; got != "tcp://10.0.0.5:1883" {
		t.Errorf("broker = %q, want tcp://10.0.0.5:1883", got)
	}
	if got := c.Decoder.TicksPerSecond; got != 50 {
		t.Errorf("ticks_per_second = %d, want default 50", got)
	}
	if got := c.HTTP.Addr; got != ":80" {
		t.Errorf("http addr = %q, want default :80", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("Load of missing file succeeded, want error")
	}
	if !strings.Contains(err.Error(), "read config") {
		t.Errorf("error = %q, want read config wrapping", err)
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := writeFile(t, "decoder: [not a mapping")

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load of malformed file succeeded, want error")
	}
	if !strings.Contains(err.Error(), "parse config") {
		t.Errorf("error = %q, want parse config wrapping", err)
	}
}

func TestLoadInvalidConfig(t *testing.T) {
	path := writeFile(t, "source:\n  type: carrier-pigeon\n")

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load of invalid config succeeded, want error")
	}
	if !strings.Contains(err.Error(), "source.type") {
		t.Errorf("error = %q, want source.type complaint", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad source type", func(c *Config) { c.Source.Type = "radio" }},
		{"negative gpio pin", func(c *Config) { c.Source.GPIO.Pin = -1 }},
		{"zero baud", func(c *Config) { c.Source.Serial.Baud = 0 }},
		{"empty broker", func(c *Config) { c.MQTT.Broker = "" }},
		{"negative kp", func(c *Config) { c.Steer.Kp = -1 }},
		{"zone out of range", func(c *Config) { c.Display.ZoneHours = 15 }},
		{"unparseable heartbeat", func(c *Config) { c.Heartbeat = "soon" }},
		{"negative heartbeat", func(c *Config) { c.Heartbeat = "-1m" }},
		{"decoder ticks too low", func(c *Config) { c.Decoder.TicksPerSecond = 3 }},
	}

	for _, tt := range tests {
		c := Default()
		tt.mutate(c)
		if err := c.Validate(); err == nil {
			t.Errorf("%s: Validate passed, want error", tt.name)
		}
	}
}

func TestHeartbeatInterval(t *testing.T) {
	c := Default()

	hb, err := c.HeartbeatInterval()
	if err != nil {
		t.Fatalf("HeartbeatInterval: %v", err)
	}
	if hb != 15*time.Minute {
		t.Errorf("heartbeat = %v, want 15m", hb)
	}

	c.Heartbeat = "0"
	hb, err = c.HeartbeatInterval()
	if err != nil {
		t.Fatalf("HeartbeatInterval(0): %v", err)
	}
	if hb != 0 {
		t.Errorf("heartbeat = %v, want 0", hb)
	}
}

func TestTickPeriod(t *testing.T) {
	c := Default()
	if got := c.TickPeriod(); got != 20*time.Millisecond {
		t.Errorf("TickPeriod = %v, want 20ms", got)
	}

	c.Decoder.TicksPerSecond = 100
	if got := c.TickPeriod(); got != 10*time.Millisecond {
		t.Errorf("TickPeriod at 100 Hz = %v, want 10ms", got)
	}
}

func TestDecoderSettings(t *testing.T) {
	c := Default()
	c.Decoder.TicksPerSecond = 25
	c.Decoder.HealthPercent = 90

	s := c.DecoderSettings()
	if got := s.TicksPerSecond; got != 25 {
		t.Errorf("TicksPerSecond = %d, want 25", got)
	}
	if got := s.HealthPercent; got != 90.0 {
		t.Errorf("HealthPercent = %v, want 90", got)
	}
	if got := s.Symbols; got != 61 {
		t.Errorf("Symbols = %d, want 61", got)
	}
}
