package wwvb

import (
	"testing"

	"github.com/sweeney/wwvb-sensor/internal/wwvbtime"
)

// encodeMinute renders tm as the 60 symbols its broadcast frame would
// carry. It is the inverse of decodeFrame for well-formed timestamps.
func encodeMinute(tm wwvbtime.Time) []Symbol {
	syms := make([]Symbol, 60)
	for i := range syms {
		if isMarkPosition(i) {
			syms[i] = Mark
		}
	}
	setDigits := func(groups [][]bcdBit, value int) {
		for gi := len(groups) - 1; gi >= 0; gi-- {
			digit := value % 10
			value /= 10
			for _, b := range groups[gi] {
				if digit&b.weight != 0 {
					syms[b.pos] = One
				}
			}
		}
	}
	setDigits(minuteDigits, tm.Minute)
	setDigits(hourDigits, tm.Hour)
	setDigits(ydayDigits, tm.YDay)
	setDigits(yearDigits, tm.Year)
	setDigits(dstDigits, int(tm.DST))

	mag := int(tm.DUT1)
	signBits := []int{36, 38} // positive sign code
	if mag < 0 {
		mag = -mag
		signBits = []int{37} // negative sign code
	}
	setDigits(dut1Digits, mag)
	for _, p := range signBits {
		syms[p] = One
	}

	if tm.LeapYear {
		syms[55] = One
	}
	if tm.LeapSecond {
		syms[56] = One
	}
	return syms
}

// loadSymbols pushes syms into the decoder's symbol history so the
// last element is the newest symbol.
func loadSymbols(d *Decoder, syms []Symbol) {
	for _, s := range syms {
		d.symbols.Put(int(s))
	}
}

func TestDecodeMinuteRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		tm   wwvbtime.Time
	}{
		{
			"autumn afternoon",
			wwvbtime.Time{Year: 21, YDay: 275, Hour: 18, Minute: 23, DST: wwvbtime.DSTDaylight, DUT1: -2},
		},
		{
			"new year midnight",
			wwvbtime.Time{Year: 22, YDay: 1, Hour: 0, Minute: 0, DUT1: 1},
		},
		{
			"leap second pending",
			wwvbtime.Time{Year: 16, YDay: 366, Hour: 23, Minute: 59, LeapYear: true, LeapSecond: true, DUT1: -4},
		},
		{
			"dst ends today",
			wwvbtime.Time{Year: 21, YDay: 311, Hour: 8, Minute: 59, DST: wwvbtime.DSTEnding, DUT1: -1},
		},
	}
	for _, tt := range tests {
		d := New(Config{})
		loadSymbols(d, encodeMinute(tt.tm))
		got, ok := d.DecodeMinute()
		if !ok {
			t.Fatalf("%s: decode failed", tt.name)
		}
		if got != tt.tm {
			t.Errorf("%s: decoded %+v, want %+v", tt.name, got, tt.tm)
		}
	}
}

func TestDecodeMinuteRejections(t *testing.T) {
	base := wwvbtime.Time{Year: 21, YDay: 100, Hour: 12, Minute: 30, DUT1: 3}
	tests := []struct {
		name   string
		mutate func([]Symbol)
	}{
		{"missing leading mark", func(s []Symbol) { s[0] = Zero }},
		{"mark in a data position", func(s []Symbol) { s[17] = Mark }},
		{"missing interior mark", func(s []Symbol) { s[29] = Zero }},
		{"reserved bit set", func(s []Symbol) { s[14] = One }},
		{"invalid symbol in the frame", func(s []Symbol) { s[25] = Invalid }},
		{"bcd digit overflow", func(s []Symbol) { s[5], s[6], s[7], s[8] = One, One, One, One }},
		{"dut1 sign code all ones", func(s []Symbol) { s[36], s[37], s[38] = One, One, One }},
		{"dut1 sign code empty", func(s []Symbol) { s[36], s[37], s[38] = Zero, Zero, Zero }},
	}
	for _, tt := range tests {
		d := New(Config{})
		syms := encodeMinute(base)
		tt.mutate(syms)
		loadSymbols(d, syms)
		if _, ok := d.DecodeMinute(); ok {
			t.Errorf("%s: expected frame to be rejected", tt.name)
		}
	}
}

func TestDecodeMinuteMisalignedWindow(t *testing.T) {
	d := New(Config{})
	loadSymbols(d, encodeMinute(wwvbtime.Time{Year: 21, YDay: 100, Hour: 12, Minute: 30}))

	// A correctly framed minute decodes only while its closing marker
	// is the newest symbol; one more symbol shifts the window off the
	// frame.
	if _, ok := d.DecodeMinute(); !ok {
		t.Fatal("aligned frame should decode")
	}
	d.symbols.Put(int(Zero))
	if _, ok := d.DecodeMinute(); ok {
		t.Error("expected misaligned window to be rejected")
	}
}

func TestEndToEndMinuteDecode(t *testing.T) {
	// Drive the whole pipeline sample by sample: a full broadcast
	// minute arrives as 60 keyed seconds and must decode on its
	// closing marker.
	want := wwvbtime.Time{Year: 21, YDay: 275, Hour: 18, Minute: 23, DST: wwvbtime.DSTDaylight, DUT1: -2}
	d := New(Config{})

	var decoded []wwvbtime.Time
	for _, sym := range encodeMinute(want) {
		for _, sample := range secondTicks(d, sym) {
			if !d.Update(sample) {
				continue
			}
			if d.LastSymbol() != Mark {
				continue
			}
			if tm, ok := d.DecodeMinute(); ok {
				decoded = append(decoded, tm)
			}
		}
	}
	if len(decoded) != 1 {
		t.Fatalf("expected exactly one decoded minute, got %d", len(decoded))
	}
	if decoded[0] != want {
		t.Errorf("decoded %+v, want %+v", decoded[0], want)
	}
}
