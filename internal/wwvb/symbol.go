package wwvb

// Symbol is one decoded broadcast second. The station keys each second
// by how long it holds the carrier at reduced power: 200 ms for a data
// zero, 500 ms for a data one, 800 ms for a frame marker.
type Symbol uint8

const (
	Zero Symbol = iota
	One
	Mark
	// Invalid records a second whose power profile contradicted itself,
	// such as reduced carrier late in the second without the sustained
	// midsection a marker requires.
	Invalid
)

// symbolBits is the storage width of a Symbol in the symbol ring.
const symbolBits = 2

func (s Symbol) String() string {
	switch s {
	case Zero:
		return "0"
	case One:
		return "1"
	case Mark:
		return "M"
	default:
		return "?"
	}
}

// IsData reports whether s carries a frame bit value.
func (s Symbol) IsData() bool { return s == Zero || s == One }

// Bit returns the frame bit a data symbol encodes, and 0 otherwise.
func (s Symbol) Bit() int {
	if s == One {
		return 1
	}
	return 0
}
