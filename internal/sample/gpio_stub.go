//go:build !linux

package sample

import "errors"

// GPIOSource is not available on non-Linux platforms.
type GPIOSource struct{}

// NewGPIO returns an error on non-Linux platforms.
func NewGPIO(pin int, invert bool) (*GPIOSource, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// ReadSample is not implemented on non-Linux platforms.
func (g *GPIOSource) ReadSample() (bool, error) {
	return false, errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (g *GPIOSource) Close() error {
	return nil
}
