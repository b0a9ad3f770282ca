package status

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/wwvb-sensor/internal/wwvb"
	"github.com/sweeney/wwvb-sensor/internal/wwvbtime"
)

func TestNewTracker(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := Config{
		TicksPerSecond: 50,
		HealthPercent:  97.0,
		Broker:         "tcp://localhost:1883",
		HTTPAddr:       ":8080",
	}
	tr := NewTracker(start, cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.Config.TicksPerSecond != 50 {
		t.Errorf("Config.TicksPerSecond: got %d, want 50", snap.Config.TicksPerSecond)
	}
	if snap.Config.HTTPAddr != ":8080" {
		t.Errorf("Config.HTTPAddr: got %q, want %q", snap.Config.HTTPAddr, ":8080")
	}
	if snap.Healthy {
		t.Error("expected Healthy=false initially")
	}
	if snap.Minute != nil {
		t.Error("expected nil Minute initially")
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false initially")
	}
}

func TestUpdateAndSnapshot(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.Update(wwvb.Mark, 99.2, true, 7, Counters{Samples: 3000, Symbols: 60, Attempts: 7, Minutes: 1})

	snap := tr.Snapshot()
	if snap.Symbol != wwvb.Mark {
		t.Errorf("Symbol: got %v, want Mark", snap.Symbol)
	}
	if snap.HealthPercent != 99.2 {
		t.Errorf("HealthPercent: got %v, want 99.2", snap.HealthPercent)
	}
	if !snap.Healthy {
		t.Error("expected Healthy=true")
	}
	if snap.StartOfSecond != 7 {
		t.Errorf("StartOfSecond: got %d, want 7", snap.StartOfSecond)
	}
	if snap.Counters.Samples != 3000 {
		t.Errorf("Counters.Samples: got %d, want 3000", snap.Counters.Samples)
	}
	if snap.Counters.Minutes != 1 {
		t.Errorf("Counters.Minutes: got %d, want 1", snap.Counters.Minutes)
	}
}

func TestRecordMinute(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tm := wwvbtime.Time{Year: 21, YDay: 275, Hour: 18, Minute: 23, DST: wwvbtime.DSTDaylight, DUT1: -2}
	at := time.Date(2021, 10, 2, 18, 24, 0, 0, time.UTC)
	tr.RecordMinute(tm, at)

	snap := tr.Snapshot()
	if snap.Minute == nil {
		t.Fatal("expected non-nil Minute")
	}
	if snap.Minute.Hour != 18 || snap.Minute.Minute != 23 {
		t.Errorf("Minute: got %v, want 18:23", snap.Minute)
	}
	if !snap.MinuteAt.Equal(at) {
		t.Errorf("MinuteAt: got %v, want %v", snap.MinuteAt, at)
	}
}

func TestSetMQTTConnected(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.SetMQTTConnected(true)
	if !tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}

	tr.SetMQTTConnected(false)
	if tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=false")
	}
}

func TestSnapshotUptime(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		StartTime: start,
		Now:       start.Add(15 * time.Minute),
	}

	if snap.Uptime() != 15*time.Minute {
		t.Errorf("Uptime: got %v, want 15m", snap.Uptime())
	}
}

func TestSnapshotMinuteAge(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 5, 0, 0, time.UTC)
	snap := Snapshot{Now: now}

	if snap.MinuteAge() != 0 {
		t.Errorf("MinuteAge without a minute: got %v, want 0", snap.MinuteAge())
	}

	snap.Minute = &wwvbtime.Time{YDay: 1}
	snap.MinuteAt = now.Add(-90 * time.Second)
	if snap.MinuteAge() != 90*time.Second {
		t.Errorf("MinuteAge: got %v, want 90s", snap.MinuteAge())
	}
}

func TestSymbolStringBeforeFirstSymbol(t *testing.T) {
	snap := Snapshot{}
	if snap.SymbolString() != "NONE" {
		t.Errorf("SymbolString: got %q, want NONE", snap.SymbolString())
	}

	snap.Symbol = wwvb.Mark
	snap.Counters.Symbols = 1
	if snap.SymbolString() != "M" {
		t.Errorf("SymbolString: got %q, want M", snap.SymbolString())
	}
}

func TestSnapshotNowIsSet(t *testing.T) {
	tr := NewTracker(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Config{})

	before := time.Now()
	snap := tr.Snapshot()
	after := time.Now()

	if snap.Now.Before(before) || snap.Now.After(after) {
		t.Errorf("Now (%v) not between %v and %v", snap.Now, before, after)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.Update(wwvb.One, 98.0, true, 3, Counters{Symbols: 10})

	snap1 := tr.Snapshot()

	tr.Update(wwvb.Zero, 42.0, false, 9, Counters{Symbols: 11})

	// snap1 should still reflect old state
	if snap1.Symbol != wwvb.One {
		t.Error("snapshot should be a copy; Symbol was modified")
	}
	if snap1.StartOfSecond != 3 {
		t.Error("snapshot should be a copy; StartOfSecond was modified")
	}
}

func TestFormatJSON(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	minute := wwvbtime.Time{Year: 21, YDay: 275, Hour: 18, Minute: 23, DST: wwvbtime.DSTDaylight, DUT1: -2}
	snap := Snapshot{
		Symbol:        wwvb.Mark,
		HealthPercent: 99.5,
		Healthy:       true,
		StartOfSecond: 12,
		Counters:      Counters{Samples: 3000, Symbols: 60, Attempts: 7, Minutes: 1},
		Minute:        &minute,
		MinuteAt:      start.Add(14 * time.Minute),
		StartTime:     start,
		Now:           start.Add(15 * time.Minute),
		MQTTConnected: true,
		Config: Config{
			TicksPerSecond: 50,
			HealthPercent:  97.0,
			HeartbeatMs:    900000,
			Source:         "gpio",
			Broker:         "tcp://localhost:1883",
			HTTPAddr:       ":8080",
			ZoneHours:      7,
			ObserveDST:     true,
		},
	}

	data := FormatJSON(snap)

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Symbol != "M" {
		t.Errorf("Symbol: got %q, want M", parsed.Status.Symbol)
	}
	if parsed.Status.HealthPercent != 99.5 {
		t.Errorf("HealthPercent: got %v, want 99.5", parsed.Status.HealthPercent)
	}
	if !parsed.Status.Healthy {
		t.Error("expected Healthy=true")
	}
	if parsed.Status.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", parsed.Status.UptimeSeconds)
	}
	if !parsed.Status.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if parsed.Status.Counts.Symbols != 60 {
		t.Errorf("Counts.Symbols: got %d, want 60", parsed.Status.Counts.Symbols)
	}
	if parsed.Status.Minute == nil {
		t.Fatal("expected Minute in JSON")
	}
	if parsed.Status.Minute.UTC != "2021-10-02T18:23:00Z" {
		t.Errorf("Minute.UTC: got %q, want 2021-10-02T18:23:00Z", parsed.Status.Minute.UTC)
	}
	if parsed.Status.Minute.Broadcast != "2021-275 18:23:00" {
		t.Errorf("Minute.Broadcast: got %q", parsed.Status.Minute.Broadcast)
	}
	if parsed.Status.Minute.DST != "daylight" {
		t.Errorf("Minute.DST: got %q, want daylight", parsed.Status.Minute.DST)
	}
	if parsed.Status.Minute.DUT1Tenths != -2 {
		t.Errorf("Minute.DUT1Tenths: got %d, want -2", parsed.Status.Minute.DUT1Tenths)
	}
	if parsed.Status.Minute.AgeSeconds != 60 {
		t.Errorf("Minute.AgeSeconds: got %d, want 60", parsed.Status.Minute.AgeSeconds)
	}
	if parsed.Status.Config.Source != "gpio" {
		t.Errorf("Config.Source: got %q, want gpio", parsed.Status.Config.Source)
	}
	// Event and Reason should be omitted
	if parsed.Status.Event != "" {
		t.Errorf("expected empty Event for web format, got %q", parsed.Status.Event)
	}
	if parsed.Status.Reason != "" {
		t.Errorf("expected empty Reason for web format, got %q", parsed.Status.Reason)
	}
}

func TestFormatJSONBeforeFirstSymbol(t *testing.T) {
	snap := Snapshot{
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC),
	}

	data := FormatJSON(snap)

	var parsed StatusJSON
	json.Unmarshal(data, &parsed)

	if parsed.Status.Symbol != "NONE" {
		t.Errorf("Symbol: got %q, want NONE", parsed.Status.Symbol)
	}
	if parsed.Status.Minute != nil {
		t.Error("expected no minute before the first decode")
	}
}

func TestFormatStatusEvent(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Symbol:        wwvb.Zero,
		HealthPercent: 98.1,
		Healthy:       true,
		Counters:      Counters{Symbols: 120, Minutes: 2},
		StartTime:     start,
		Now:           start.Add(15 * time.Minute),
		MQTTConnected: true,
		Config:        Config{TicksPerSecond: 50, Broker: "tcp://localhost:1883"},
	}

	data := FormatStatusEvent(snap, "HEARTBEAT", "")

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Event != "HEARTBEAT" {
		t.Errorf("Event: got %q, want HEARTBEAT", parsed.Status.Event)
	}
	if parsed.Status.Reason != "" {
		t.Errorf("Reason: got %q, want empty", parsed.Status.Reason)
	}
	if parsed.Status.Symbol != "0" {
		t.Errorf("Symbol: got %q, want 0", parsed.Status.Symbol)
	}
	if parsed.Status.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", parsed.Status.UptimeSeconds)
	}
}

func TestFormatStatusEventShutdown(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Counters:  Counters{Symbols: 1800},
		StartTime: start,
		Now:       start.Add(30 * time.Minute),
		Config:    Config{Broker: "tcp://localhost:1883"},
	}

	data := FormatStatusEvent(snap, "SHUTDOWN", "SIGTERM")

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Event != "SHUTDOWN" {
		t.Errorf("Event: got %q, want SHUTDOWN", parsed.Status.Event)
	}
	if parsed.Status.Reason != "SIGTERM" {
		t.Errorf("Reason: got %q, want SIGTERM", parsed.Status.Reason)
	}
}

func TestFormatStatusEventOmitsReasonWhenEmpty(t *testing.T) {
	snap := Snapshot{
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC),
	}

	data := FormatStatusEvent(snap, "STARTUP", "")

	// Verify "reason" is not in the raw JSON output
	var raw map[string]interface{}
	json.Unmarshal(data, &raw)
	status := raw["status"].(map[string]interface{})
	if _, exists := status["reason"]; exists {
		t.Error("reason should be omitted when empty")
	}
	if status["event"] != "STARTUP" {
		t.Errorf("event: got %v, want STARTUP", status["event"])
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	var wg sync.WaitGroup

	// Writer
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			tr.Update(wwvb.One, 50.0, false, i%50, Counters{Symbols: uint64(i)})
			tr.SetMQTTConnected(i%2 == 0)
			tr.RecordMinute(wwvbtime.Time{YDay: 1}, time.Now())
		}
	}()

	// Reader
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			snap := tr.Snapshot()
			_ = snap.Uptime()
			_ = FormatJSON(snap)
		}
	}()

	wg.Wait()
}
