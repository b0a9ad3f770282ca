package sample

import (
	"bufio"
	"io"
)

// TextSource reads the reference text encoding of a sample stream
// from r: '_' means reduced carrier, '#' full carrier, anything else
// is ignored. It reports io.EOF when r is exhausted, which a driving
// loop should treat as end of input rather than failure.
type TextSource struct {
	br *bufio.Reader
}

// NewText wraps r as a sample source.
func NewText(r io.Reader) *TextSource {
	return &TextSource{br: bufio.NewReader(r)}
}

// ReadSample returns the next encoded sample.
func (t *TextSource) ReadSample() (bool, error) {
	return readMarked(t.br)
}

// Close is a no-op; the caller owns the underlying reader.
func (t *TextSource) Close() error { return nil }
