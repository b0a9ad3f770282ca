// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/wwvb-sensor/internal/wwvbtime"
)

// TopicMinutes carries one retained message per decoded broadcast minute.
const TopicMinutes = "wwvb/sensor/minutes"

// TopicSymbols carries one message per classified symbol. High rate;
// publishing is off by default.
const TopicSymbols = "wwvb/sensor/symbols"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "wwvb/sensor/system"

// Publisher publishes decoder output to MQTT.
type Publisher interface {
	// PublishMinute sends a decoded minute to the broker.
	// Returns error if publishing fails (should not crash the process).
	PublishMinute(event MinuteEvent) error

	// PublishSymbol sends a single classified symbol to the broker.
	PublishSymbol(event SymbolEvent) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// MinuteEvent is a decoded broadcast minute ready for publication.
type MinuteEvent struct {
	Time          wwvbtime.Time
	ReceivedAt    time.Time // wall clock when the closing mark landed
	HealthPercent float64
}

// SymbolEvent is a single classified symbol.
type SymbolEvent struct {
	Timestamp     time.Time
	Symbol        string // "0", "1", "M" or "?"
	HealthPercent float64
	StartOfSecond int
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the minute message payload structure.
type Payload struct {
	Minute MinutePayload `json:"minute"`
}

// MinutePayload contains the decoded minute details.
type MinutePayload struct {
	Timestamp     string  `json:"timestamp"` // reception wall clock
	UTC           string  `json:"utc"`       // broadcast minute
	Broadcast     string  `json:"broadcast"` // year and ordinal day form
	Year          int     `json:"year"`
	YDay          int     `json:"yday"`
	Hour          int     `json:"hour"`
	Minute        int     `json:"minute"`
	LeapYear      bool    `json:"leap_year"`
	LeapSecond    bool    `json:"leap_second"`
	DST           string  `json:"dst"`
	DUT1Tenths    int     `json:"dut1_tenths"`
	HealthPercent float64 `json:"health_percent"`
}

// FormatMinutePayload creates the JSON payload for a decoded minute.
func FormatMinutePayload(event MinuteEvent) ([]byte, error) {
	tm := event.Time
	payload := Payload{
		Minute: MinutePayload{
			Timestamp:     event.ReceivedAt.UTC().Format(time.RFC3339),
			UTC:           tm.UTC().Format(time.RFC3339),
			Broadcast:     tm.String(),
			Year:          2000 + tm.Year,
			YDay:          tm.YDay,
			Hour:          tm.Hour,
			Minute:        tm.Minute,
			LeapYear:      tm.LeapYear,
			LeapSecond:    tm.LeapSecond,
			DST:           tm.DST.String(),
			DUT1Tenths:    int(tm.DUT1),
			HealthPercent: event.HealthPercent,
		},
	}
	return json.Marshal(payload)
}

// SymbolMessage represents the symbol message payload structure.
type SymbolMessage struct {
	Symbol SymbolPayload `json:"symbol"`
}

// SymbolPayload contains the classified symbol details.
type SymbolPayload struct {
	Timestamp     string  `json:"timestamp"`
	Value         string  `json:"value"`
	HealthPercent float64 `json:"health_percent"`
	StartOfSecond int     `json:"start_of_second"`
}

// FormatSymbolPayload creates the JSON payload for a classified symbol.
func FormatSymbolPayload(event SymbolEvent) ([]byte, error) {
	payload := SymbolMessage{
		Symbol: SymbolPayload{
			Timestamp:     event.Timestamp.UTC().Format(time.RFC3339),
			Value:         event.Symbol,
			HealthPercent: event.HealthPercent,
			StartOfSecond: event.StartOfSecond,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
