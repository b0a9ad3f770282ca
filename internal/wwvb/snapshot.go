package wwvb

import "github.com/sweeney/wwvb-sensor/internal/wwvbtime"

// Snapshot is a self-consistent copy of a Decoder's state, safe to
// inspect while the decoder keeps running. Slices are oldest-first and
// sized by the decoder's Config.
type Snapshot struct {
	Config Config

	Counts  []int16
	Edges   []int16
	Symbols []Symbol
	Scores  []uint8

	Subsec int
	SoS    int
	TSS    int
	Health int

	Samples     uint64
	SymbolCount uint64
}

// Snapshot copies the decoder state into s, reusing its slices when
// already sized. The sample counter ticks before any mutation in
// Update, so the copy is retried until the counter is observed
// unchanged across it; with one producer the loop terminates as soon
// as the copy outpaces the sample cadence, which it does by orders of
// magnitude.
func (d *Decoder) Snapshot(s *Snapshot) {
	s.Config = d.cfg
	n := d.cfg.TicksPerSecond
	if cap(s.Counts) < n {
		s.Counts = make([]int16, n)
		s.Edges = make([]int16, n)
	}
	s.Counts = s.Counts[:n]
	s.Edges = s.Edges[:n]
	m := d.cfg.Symbols
	if cap(s.Symbols) < m {
		s.Symbols = make([]Symbol, m)
		s.Scores = make([]uint8, m)
	}
	s.Symbols = s.Symbols[:m]
	s.Scores = s.Scores[:m]

	for {
		gen := d.samples.Load()

		copy(s.Counts, d.counts)
		copy(s.Edges, d.edges)
		for i := 0; i < m; i++ {
			s.Symbols[i] = Symbol(d.symbols.At(i))
			p := d.healthPos + i
			if p >= m {
				p -= m
			}
			s.Scores[i] = d.healthHist[p]
		}
		s.Subsec = d.subsec
		s.SoS = d.sos
		s.TSS = d.tss
		s.Health = d.health
		s.Samples = gen
		s.SymbolCount = d.symbolCount.Load()

		if d.samples.Load() == gen {
			return
		}
	}
}

// LastSymbol returns the newest symbol in the snapshot.
func (s *Snapshot) LastSymbol() Symbol {
	return s.Symbols[len(s.Symbols)-1]
}

// Health accessors mirror the Decoder's.

func (s *Snapshot) MaxHealth() int { return s.Config.Symbols * s.Config.TicksPerSecond }

func (s *Snapshot) HealthPercent() float64 {
	return 100 * float64(s.Health) / float64(s.MaxHealth())
}

func (s *Snapshot) Healthy() bool {
	return s.Health >= int(s.Config.HealthPercent/100*float64(s.MaxHealth()))
}

// PhaseError returns the signed circular distance from ref to the
// snapshot's start-of-second bucket.
func (s *Snapshot) PhaseError(ref int) int {
	return modDiff(s.SoS, ref, s.Config.TicksPerSecond)
}

// DecodeMinute attempts to decode the snapshot's most recent 60
// symbols as a minute frame.
func (s *Snapshot) DecodeMinute() (wwvbtime.Time, bool) {
	base := len(s.Symbols) - 60
	return decodeFrame(func(i int) Symbol {
		return s.Symbols[base+i]
	})
}
