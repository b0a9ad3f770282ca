// Package status provides a thread-safe status tracker for the wwvb-sensor
// daemon. It is read by HTTP handlers and serialized into MQTT system events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/wwvb-sensor/internal/wwvb"
	"github.com/sweeney/wwvb-sensor/internal/wwvbtime"
)

// Config contains daemon configuration for display.
type Config struct {
	TicksPerSecond int
	HealthPercent  float64
	HeartbeatMs    int64
	Source         string // "gpio", "serial" or "stdin"
	Broker         string
	HTTPAddr       string
	ZoneHours      int // hours west of UTC for local rendering
	ObserveDST     bool
}

// Counters accumulate over the life of the process.
type Counters struct {
	Samples  uint64
	Symbols  uint64
	Attempts uint64 // frame decodes tried at a mark
	Minutes  uint64 // frames that decoded cleanly
}

// Snapshot is a point-in-time view of daemon state. It is a value type,
// safe to use after the lock is released.
type Snapshot struct {
	Symbol        wwvb.Symbol // most recent symbol; meaningful once Counters.Symbols > 0
	HealthPercent float64
	Healthy       bool
	StartOfSecond int
	Counters      Counters
	Minute        *wwvbtime.Time // last decoded minute, nil until the first decode
	MinuteAt      time.Time      // wall clock when Minute arrived
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// MinuteAge returns how long ago the last minute was decoded, or zero
// when no minute has been decoded yet.
func (s Snapshot) MinuteAge() time.Duration {
	if s.Minute == nil {
		return 0
	}
	return s.Now.Sub(s.MinuteAt)
}

// SymbolString renders the last symbol, or "NONE" before the first
// symbol boundary.
func (s Snapshot) SymbolString() string {
	if s.Counters.Symbols == 0 {
		return "NONE"
	}
	return s.Symbol.String()
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets the signal fields and counters. Called from the run loop
// on every symbol boundary.
func (t *Tracker) Update(sym wwvb.Symbol, healthPercent float64, healthy bool, sos int, c Counters) {
	t.mu.Lock()
	t.snap.Symbol = sym
	t.snap.HealthPercent = healthPercent
	t.snap.Healthy = healthy
	t.snap.StartOfSecond = sos
	t.snap.Counters = c
	t.mu.Unlock()
}

// RecordMinute stores the most recent decoded minute and its arrival time.
func (t *Tracker) RecordMinute(tm wwvbtime.Time, at time.Time) {
	t.mu.Lock()
	t.snap.Minute = &tm
	t.snap.MinuteAt = at
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
