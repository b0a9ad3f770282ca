//go:build !linux

package steer

import "errors"

// SetFrequency is not available on non-Linux platforms.
func SetFrequency(ppm float64) error {
	return errors.New("clock adjustment: not supported on this platform (requires Linux)")
}

// Frequency is not available on non-Linux platforms.
func Frequency() (float64, error) {
	return 0, errors.New("clock adjustment: not supported on this platform (requires Linux)")
}
