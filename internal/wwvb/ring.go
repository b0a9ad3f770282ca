package wwvb

// BitRing is a fixed-capacity circular buffer of single bits backed by
// packed 32-bit words. It stores the sampled carrier signal and is the
// basis of SymbolRing. Capacity is fixed at construction; all storage is
// allocated up front so the sampling path never allocates.
type BitRing struct {
	words []uint32
	size  int
	shift int // physical index of the oldest bit, i.e. the next write position
}

// NewBitRing returns a BitRing holding size bits.
func NewBitRing(size int) *BitRing {
	if size <= 0 {
		panic("wwvb: bit ring size must be positive")
	}
	return &BitRing{
		words: make([]uint32, (size+31)/32),
		size:  size,
	}
}

// Size returns the fixed capacity in bits.
func (r *BitRing) Size() int { return r.size }

// At returns the bit at logical index i, where index 0 is the oldest
// retained bit and Size()-1 the newest. Logical indices shift by one on
// every Put. Out-of-range indices are a caller bug and panic.
func (r *BitRing) At(i int) bool {
	if i < 0 || i >= r.size {
		panic("wwvb: bit ring index out of range")
	}
	i += r.shift
	if i >= r.size {
		i -= r.size
	}
	return r.words[i/32]&(1<<(i%32)) != 0
}

// Put inserts b as the newest bit and returns the evicted bit: the value
// that occupied the same slot Size() insertions ago.
func (r *BitRing) Put(b bool) bool {
	w, mask := r.shift/32, uint32(1)<<(r.shift%32)
	old := r.words[w]&mask != 0
	if b {
		r.words[w] |= mask
	} else {
		r.words[w] &^= mask
	}
	r.shift++
	if r.shift == r.size {
		r.shift = 0
	}
	return old
}

// SymbolRing is a fixed-capacity circular buffer of small fixed-width
// integers, stored by decomposing each value MSB-first into a BitRing of
// width*size bits. It holds the decoded symbol stream.
type SymbolRing struct {
	bits  *BitRing
	size  int
	width int
}

// NewSymbolRing returns a SymbolRing holding size values of the given
// bit width.
func NewSymbolRing(size, width int) *SymbolRing {
	if size <= 0 || width <= 0 {
		panic("wwvb: symbol ring size and width must be positive")
	}
	return &SymbolRing{
		bits:  NewBitRing(size * width),
		size:  size,
		width: width,
	}
}

// Size returns the fixed capacity in values.
func (r *SymbolRing) Size() int { return r.size }

// At returns the value at logical index i, oldest first.
func (r *SymbolRing) At(i int) int {
	if i < 0 || i >= r.size {
		panic("wwvb: symbol ring index out of range")
	}
	v := 0
	for j := 0; j < r.width; j++ {
		v <<= 1
		if r.bits.At(i*r.width + j) {
			v |= 1
		}
	}
	return v
}

// Put inserts v as the newest value and returns the evicted value
// reassembled from its bits. Only the low width bits of v are stored.
func (r *SymbolRing) Put(v int) int {
	old := 0
	for j := r.width - 1; j >= 0; j-- {
		old <<= 1
		if r.bits.Put(v&(1<<j) != 0) {
			old |= 1
		}
	}
	return old
}
