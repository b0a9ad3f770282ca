package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string      `json:"event,omitempty"`
	Reason        string      `json:"reason,omitempty"`
	Symbol        string      `json:"symbol"`
	HealthPercent float64     `json:"health_percent"`
	Healthy       bool        `json:"healthy"`
	StartOfSecond int         `json:"start_of_second"`
	UptimeSeconds int64       `json:"uptime_seconds"`
	StartTime     string      `json:"start_time"`
	Timestamp     string      `json:"timestamp"`
	MQTT          MQTTStatus  `json:"mqtt"`
	Counts        CountsJSON  `json:"counts"`
	Minute        *MinuteJSON `json:"minute,omitempty"`
	Config        ConfigJSON  `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of the counters.
type CountsJSON struct {
	Samples  uint64 `json:"samples"`
	Symbols  uint64 `json:"symbols"`
	Attempts uint64 `json:"frame_attempts"`
	Minutes  uint64 `json:"minutes"`
}

// MinuteJSON is the JSON representation of the last decoded minute.
type MinuteJSON struct {
	UTC        string `json:"utc"`
	Broadcast  string `json:"broadcast"`
	LeapYear   bool   `json:"leap_year"`
	LeapSecond bool   `json:"leap_second"`
	DST        string `json:"dst"`
	DUT1Tenths int    `json:"dut1_tenths"`
	ReceivedAt string `json:"received_at"`
	AgeSeconds int64  `json:"age_seconds"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	TicksPerSecond int     `json:"ticks_per_second"`
	HealthPercent  float64 `json:"health_percent"`
	HeartbeatMs    int64   `json:"heartbeat_ms"`
	Source         string  `json:"source"`
	Broker         string  `json:"broker"`
	HTTPAddr       string  `json:"http_addr"`
	ZoneHours      int     `json:"zone_hours"`
	ObserveDST     bool    `json:"observe_dst"`
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Symbol:        snap.SymbolString(),
		HealthPercent: snap.HealthPercent,
		Healthy:       snap.Healthy,
		StartOfSecond: snap.StartOfSecond,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Samples:  snap.Counters.Samples,
			Symbols:  snap.Counters.Symbols,
			Attempts: snap.Counters.Attempts,
			Minutes:  snap.Counters.Minutes,
		},
		Config: ConfigJSON{
			TicksPerSecond: snap.Config.TicksPerSecond,
			HealthPercent:  snap.Config.HealthPercent,
			HeartbeatMs:    snap.Config.HeartbeatMs,
			Source:         snap.Config.Source,
			Broker:         snap.Config.Broker,
			HTTPAddr:       snap.Config.HTTPAddr,
			ZoneHours:      snap.Config.ZoneHours,
			ObserveDST:     snap.Config.ObserveDST,
		},
	}

	if snap.Minute != nil {
		inner.Minute = &MinuteJSON{
			UTC:        snap.Minute.UTC().Format(time.RFC3339),
			Broadcast:  snap.Minute.String(),
			LeapYear:   snap.Minute.LeapYear,
			LeapSecond: snap.Minute.LeapSecond,
			DST:        snap.Minute.DST.String(),
			DUT1Tenths: int(snap.Minute.DUT1),
			ReceivedAt: snap.MinuteAt.UTC().Format(time.RFC3339),
			AgeSeconds: int64(snap.MinuteAge().Truncate(time.Second).Seconds()),
		}
	}

	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
