//go:build linux

package steer

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// frequency scaling used by adjtimex: 16-bit fractional ppm.
const ppmScale = 65536

// SetFrequency sets the kernel clock frequency offset in parts per
// million. Positive values speed the clock up. Requires CAP_SYS_TIME.
func SetFrequency(ppm float64) error {
	tx := unix.Timex{
		Modes: unix.ADJ_FREQUENCY,
		Freq:  int64(ppm * ppmScale),
	}
	if _, err := unix.Adjtimex(&tx); err != nil {
		return fmt.Errorf("adjtimex: %w", err)
	}
	return nil
}

// Frequency reads the current kernel clock frequency offset in parts
// per million.
func Frequency() (float64, error) {
	var tx unix.Timex
	if _, err := unix.Adjtimex(&tx); err != nil {
		return 0, fmt.Errorf("adjtimex: %w", err)
	}
	return float64(tx.Freq) / ppmScale, nil
}
