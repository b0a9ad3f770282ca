package sample

import (
	"bufio"
	"fmt"

	"github.com/tarm/serial"
)

// SerialSource reads samples from a serial-attached receiver board
// that forwards its carrier detector in the text encoding, one byte
// per tick.
type SerialSource struct {
	port *serial.Port
	br   *bufio.Reader
}

// NewSerial opens the serial device.
func NewSerial(device string, baud int) (*SerialSource, error) {
	if baud == 0 {
		baud = DefaultSerialBaud
	}
	p, err := serial.OpenPort(&serial.Config{Name: device, Baud: baud})
	if err != nil {
		return nil, fmt.Errorf("serial open %s: %w", device, err)
	}
	return &SerialSource{port: p, br: bufio.NewReader(p)}, nil
}

// ReadSample blocks until the receiver sends the next sample byte.
func (s *SerialSource) ReadSample() (bool, error) {
	return readMarked(s.br)
}

// Close closes the port.
func (s *SerialSource) Close() error {
	if s.port == nil {
		return nil
	}
	return s.port.Close()
}
