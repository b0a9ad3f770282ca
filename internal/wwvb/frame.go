package wwvb

import "github.com/sweeney/wwvb-sensor/internal/wwvbtime"

// A minute frame is 60 symbols. Position 0 and every position ending
// in 9 carry markers; the rest carry data bits, several of which are
// always zero. Numeric fields are BCD digits scattered across fixed
// positions.

// isMarkPosition reports whether frame position i must hold a marker.
func isMarkPosition(i int) bool {
	return i == 0 || i%10 == 9
}

// isZeroPosition reports whether frame position i is a reserved bit
// that must decode as zero.
func isZeroPosition(i int) bool {
	if i%10 == 4 {
		return true
	}
	switch i {
	case 10, 11, 20, 21, 35:
		return true
	}
	return false
}

// bcdBit names one frame position and its binary weight within a
// decimal digit.
type bcdBit struct {
	pos    int
	weight int
}

// Digit groups for each numeric field, most significant digit first.
var (
	minuteDigits = [][]bcdBit{
		{{1, 4}, {2, 2}, {3, 1}},
		{{5, 8}, {6, 4}, {7, 2}, {8, 1}},
	}
	hourDigits = [][]bcdBit{
		{{12, 2}, {13, 1}},
		{{15, 8}, {16, 4}, {17, 2}, {18, 1}},
	}
	ydayDigits = [][]bcdBit{
		{{22, 2}, {23, 1}},
		{{25, 8}, {26, 4}, {27, 2}, {28, 1}},
		{{30, 8}, {31, 4}, {32, 2}, {33, 1}},
	}
	yearDigits = [][]bcdBit{
		{{45, 8}, {46, 4}, {47, 2}, {48, 1}},
		{{50, 8}, {51, 4}, {52, 2}, {53, 1}},
	}
	dut1Digits = [][]bcdBit{
		{{40, 8}, {41, 4}, {42, 2}, {43, 1}},
	}
	dstDigits = [][]bcdBit{
		{{57, 2}, {58, 1}},
	}
)

// decodeDigits folds digit groups into a decimal value. A digit group
// summing past 9 is not valid BCD and spoils the whole frame.
func decodeDigits(at func(int) Symbol, groups [][]bcdBit) (int, bool) {
	v := 0
	for _, g := range groups {
		digit := 0
		for _, b := range g {
			digit += at(b.pos).Bit() * b.weight
		}
		if digit > 9 {
			return 0, false
		}
		v = v*10 + digit
	}
	return v, true
}

// decodeFrame validates the frame presented by at, which maps frame
// positions 0..59 to symbols, and extracts its timestamp. It reports
// false if the frame is structurally wrong or any field is not valid
// BCD; a single bad digit rejects the whole minute.
func decodeFrame(at func(int) Symbol) (wwvbtime.Time, bool) {
	for i := 0; i < 60; i++ {
		sym := at(i)
		if mark := isMarkPosition(i); mark != (sym == Mark) {
			return wwvbtime.Time{}, false
		} else if !mark && !sym.IsData() {
			return wwvbtime.Time{}, false
		}
		if isZeroPosition(i) && sym != Zero {
			return wwvbtime.Time{}, false
		}
	}

	minute, ok := decodeDigits(at, minuteDigits)
	if !ok {
		return wwvbtime.Time{}, false
	}
	hour, ok := decodeDigits(at, hourDigits)
	if !ok {
		return wwvbtime.Time{}, false
	}
	yday, ok := decodeDigits(at, ydayDigits)
	if !ok {
		return wwvbtime.Time{}, false
	}
	year, ok := decodeDigits(at, yearDigits)
	if !ok {
		return wwvbtime.Time{}, false
	}
	dut1, ok := decodeDigits(at, dut1Digits)
	if !ok {
		return wwvbtime.Time{}, false
	}
	dst, _ := decodeDigits(at, dstDigits) // two bits, cannot overflow

	// DUT1 sign is one-hot across positions 36..38: +0.1 s steps when
	// 36 and 38 are set, -0.1 s steps when only 37 is. Anything else
	// is corruption.
	switch at(36).Bit()<<2 | at(37).Bit()<<1 | at(38).Bit() {
	case 0b101:
		// positive
	case 0b010:
		dut1 = -dut1
	default:
		return wwvbtime.Time{}, false
	}

	return wwvbtime.Time{
		Year:       year,
		YDay:       yday,
		Hour:       hour,
		Minute:     minute,
		LeapYear:   at(55) == One,
		LeapSecond: at(56) == One,
		DST:        wwvbtime.DST(dst),
		DUT1:       int8(dut1),
	}, true
}

// DecodeMinute attempts to decode the most recent 60 symbols as a
// minute frame. It only succeeds when the newest symbol is the frame's
// closing marker and the whole frame validates, so callers typically
// try it whenever Update completes a Mark.
func (d *Decoder) DecodeMinute() (wwvbtime.Time, bool) {
	base := d.cfg.Symbols - 60
	return decodeFrame(func(i int) Symbol {
		return Symbol(d.symbols.At(base + i))
	})
}
