// Package sample provides the receiver sample stream with hardware
// abstraction. A sample is one boolean per decoder tick, true while
// the radio reports reduced carrier. The real implementations read a
// Linux GPIO line or a serial-attached receiver; the text and fake
// implementations allow testing and offline decoding without
// hardware.
package sample

import "bufio"

// Defaults for source construction.
const (
	DefaultGPIOPin    = 17 // BCM numbering, receiver AM output
	DefaultSerialBaud = 115200
)

// Source produces receiver samples, one per call.
type Source interface {
	// ReadSample returns the next sample: true means reduced carrier.
	ReadSample() (bool, error)

	// Close releases the underlying device.
	Close() error
}

// readMarked consumes bytes until one encodes a sample: '_' is reduced
// carrier, '#' is full carrier. Every other byte (newlines, debug
// chatter from a receiver board) is skipped.
func readMarked(br *bufio.Reader) (bool, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return false, err
		}
		switch b {
		case '_':
			return true, nil
		case '#':
			return false, nil
		}
	}
}
