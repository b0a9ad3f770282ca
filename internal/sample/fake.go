package sample

import "io"

// FakeSource is a test double that returns scripted samples.
type FakeSource struct {
	// Samples contains scripted values to return. Each call to
	// ReadSample consumes the next one; exhaustion returns io.EOF.
	Samples []bool

	// index tracks current position in Samples
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by ReadSample()
	ReadError error
}

// NewFake creates a FakeSource with the given samples.
func NewFake(samples []bool) *FakeSource {
	return &FakeSource{Samples: samples}
}

// ReadSample returns the next scripted sample.
func (f *FakeSource) ReadSample() (bool, error) {
	if f.ReadError != nil {
		return false, f.ReadError
	}
	if f.index >= len(f.Samples) {
		return false, io.EOF
	}
	s := f.Samples[f.index]
	f.index++
	return s, nil
}

// Close marks the source as closed.
func (f *FakeSource) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds the source to the beginning of its samples.
func (f *FakeSource) Reset() {
	f.index = 0
	f.Closed = false
}
