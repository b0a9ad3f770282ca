package mqtt

// FakePublisher records published events for test assertions.
type FakePublisher struct {
	// Minutes contains all minute events that were published.
	Minutes []MinuteEvent

	// MinutePayloads contains the JSON payloads for minute events.
	MinutePayloads [][]byte

	// Symbols contains all symbol events that were published.
	Symbols []SymbolEvent

	// SymbolPayloads contains the JSON payloads for symbol events.
	SymbolPayloads [][]byte

	// SystemEvents contains all system events that were published.
	SystemEvents []SystemEvent

	// SystemPayloads contains the JSON payloads for system events.
	SystemPayloads [][]byte

	// PublishError, if set, will be returned by PublishMinute and PublishSymbol.
	PublishError error

	// PublishSystemError, if set, will be returned by PublishSystem.
	PublishSystemError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// PublishMinute records the minute event.
func (f *FakePublisher) PublishMinute(event MinuteEvent) error {
	if f.PublishError != nil {
		return f.PublishError
	}

	f.Minutes = append(f.Minutes, event)

	payload, err := FormatMinutePayload(event)
	if err != nil {
		return err
	}
	f.MinutePayloads = append(f.MinutePayloads, payload)

	return nil
}

// PublishSymbol records the symbol event.
func (f *FakePublisher) PublishSymbol(event SymbolEvent) error {
	if f.PublishError != nil {
		return f.PublishError
	}

	f.Symbols = append(f.Symbols, event)

	payload, err := FormatSymbolPayload(event)
	if err != nil {
		return err
	}
	f.SymbolPayloads = append(f.SymbolPayloads, payload)

	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}

	f.SystemEvents = append(f.SystemEvents, event)

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemPayloads = append(f.SystemPayloads, payload)

	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Reset clears recorded events.
func (f *FakePublisher) Reset() {
	f.Minutes = nil
	f.MinutePayloads = nil
	f.Symbols = nil
	f.SymbolPayloads = nil
	f.SystemEvents = nil
	f.SystemPayloads = nil
	f.Closed = false
	f.PublishError = nil
	f.PublishSystemError = nil
	f.Connected = false
}
