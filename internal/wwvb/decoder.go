// Package wwvb decodes the 60 kHz NIST time broadcast from a stream of
// carrier-level samples. A receiver feeds one boolean per tick (true
// while the carrier is at reduced power) into Decoder.Update, which
// tracks the start-of-second phase statistically, classifies each
// completed second as a zero, one or frame marker, and keeps enough
// symbol history to validate and decode whole minute frames.
//
// The decoder is sized at construction and never allocates afterwards,
// so Update is safe to drive from a tight sampling loop or timer
// callback. A concurrent reader obtains consistent state through
// Decoder.Snapshot.
package wwvb

import (
	"errors"
	"sync/atomic"
)

// Defaults for Config fields left zero.
const (
	DefaultTicksPerSecond = 50
	DefaultSymbols        = 61
	DefaultHistorySeconds = 40

	// DefaultHealthPercent is the share of the maximum health score a
	// signal must sustain before decoded frames are worth trusting.
	DefaultHealthPercent = 97.0
)

// Config sizes a Decoder. The zero value selects the defaults above.
type Config struct {
	// TicksPerSecond is the sample rate. Must divide the broadcast's
	// 200 ms keying granularity reasonably; 10..255.
	TicksPerSecond int

	// Symbols is the symbol history length. Minute decoding needs the
	// most recent 60, so this must be at least 61 to retain a full
	// frame while the next second is in flight.
	Symbols int

	// HistorySeconds is how many seconds of raw signal back the phase
	// statistics. Larger rides through fades more smoothly but
	// converges more slowly after a phase step.
	HistorySeconds int

	// HealthPercent is the Healthy threshold as a percentage of the
	// maximum health score.
	HealthPercent float64
}

func (c Config) withDefaults() Config {
	if c.TicksPerSecond == 0 {
		c.TicksPerSecond = DefaultTicksPerSecond
	}
	if c.Symbols == 0 {
		c.Symbols = DefaultSymbols
	}
	if c.HistorySeconds == 0 {
		c.HistorySeconds = DefaultHistorySeconds
	}
	if c.HealthPercent == 0 {
		c.HealthPercent = DefaultHealthPercent
	}
	return c
}

// Validate reports whether the configuration can size a working
// decoder.
func (c Config) Validate() error {
	c = c.withDefaults()
	if c.TicksPerSecond < 10 || c.TicksPerSecond > 255 {
		return errors.New("wwvb: ticks per second must be within 10..255")
	}
	if c.Symbols < 61 {
		return errors.New("wwvb: symbol history must hold at least 61 symbols")
	}
	if c.HistorySeconds < 2 {
		return errors.New("wwvb: history must span at least 2 seconds")
	}
	if c.HealthPercent < 0 || c.HealthPercent > 100 {
		return errors.New("wwvb: health percent must be within 0..100")
	}
	return nil
}

// Decoder consumes carrier samples and produces symbols and minute
// frames. Methods other than Snapshot must be called from a single
// goroutine.
type Decoder struct {
	cfg    Config
	buffer int // signal capacity: TicksPerSecond * HistorySeconds

	// Classification interval boundaries in ticks from the start of a
	// second: 200, 500 and 800 ms scaled to the tick rate.
	o200, o500, o800 int

	threshold int // Healthy floor, derived from cfg.HealthPercent

	signal *BitRing // raw carrier history, newest last
	counts []int16  // per-phase occupancy of reduced-carrier samples
	edges  []int16  // counts[i+1 mod n] - counts[i]
	subsec int      // phase of the next sample, 0..TicksPerSecond-1
	sos    int      // phase judged to start a second
	osos   int      // previous sos, tolerated during boundary checks
	tss    int      // ticks since the last declared boundary

	symbols    *SymbolRing
	healthHist []uint8 // per-symbol score ring, parallel to symbols
	healthPos  int
	health     int // running sum of healthHist

	// samples doubles as the snapshot generation counter: it is
	// incremented before any state mutation in Update, so a reader
	// that observes the same value before and after copying saw a
	// quiescent decoder.
	samples     atomic.Uint64
	symbolCount atomic.Uint64
}

// New returns a Decoder sized by cfg. Invalid configurations panic;
// validate user-supplied settings with Config.Validate first.
func New(cfg Config) *Decoder {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		panic(err.Error())
	}
	s := cfg.TicksPerSecond
	d := &Decoder{
		cfg:        cfg,
		buffer:     s * cfg.HistorySeconds,
		o200:       scaleMillis(200, s),
		o500:       scaleMillis(500, s),
		o800:       scaleMillis(800, s),
		counts:     make([]int16, s),
		edges:      make([]int16, s),
		symbols:    NewSymbolRing(cfg.Symbols, symbolBits),
		healthHist: make([]uint8, cfg.Symbols),
	}
	d.signal = NewBitRing(d.buffer)
	d.threshold = int(cfg.HealthPercent / 100 * float64(d.MaxHealth()))
	return d
}

// scaleMillis converts a millisecond offset within a second to ticks,
// rounding to nearest.
func scaleMillis(ms, ticksPerSecond int) int {
	return (ms*ticksPerSecond + 500) / 1000
}

// Config returns the sizing in effect, with defaults filled in.
func (d *Decoder) Config() Config { return d.cfg }

// Update consumes one carrier sample, true meaning reduced power. It
// returns true when the sample completed a second, at which point the
// newest entry of the symbol history is the freshly classified symbol.
func (d *Decoder) Update(sample bool) bool {
	d.samples.Add(1)

	// Maintain per-phase occupancy incrementally: the evicted sample
	// left the same phase bucket the new one enters.
	evicted := d.signal.Put(sample)
	if sample && !evicted {
		d.counts[d.subsec]++
	} else if !sample && evicted {
		d.counts[d.subsec]--
	}

	next := d.subsec + 1
	if next == d.cfg.TicksPerSecond {
		next = 0
	}
	d.edges[d.subsec] = d.counts[next] - d.counts[d.subsec]

	// The second starts in the bucket just after the sharpest rise in
	// occupancy. Ties keep the earliest bucket; an edgeless buffer
	// keeps bucket 1 by virtue of the zero initials.
	bi := 0
	best := int16(0)
	for i, e := range d.edges {
		if e > best {
			bi, best = i, e
		}
	}
	d.osos = d.sos
	d.sos = bi + 1
	if d.sos == d.cfg.TicksPerSecond {
		d.sos = 0
	}

	d.subsec = next

	// Declare a boundary once a plausible second has elapsed and the
	// phase agrees with the tracker, or unconditionally once waiting
	// any longer would mean skipping a symbol.
	boundary := false
	if d.tss > d.cfg.TicksPerSecond {
		boundary = true
	} else if d.tss > d.cfg.TicksPerSecond/2 {
		boundary = d.subsec == d.sos || d.subsec == d.osos
	}
	if !boundary {
		d.tss++
		return false
	}
	d.tss = 0
	sym, score := d.classifySecond()
	d.pushSymbol(sym, score)
	return true
}

// countReduced counts reduced-carrier samples in the logical signal
// range [i, j).
func (d *Decoder) countReduced(i, j int) int {
	n := 0
	for ; i < j; i++ {
		if d.signal.At(i) {
			n++
		}
	}
	return n
}

// classifySecond grades the just-completed second: the newest
// TicksPerSecond samples, of which the newest is the second's final
// tick.
//
// The second splits into four intervals by reduced-carrier duration:
//
//	A [0,200ms)    reduced for every symbol
//	B [200,500ms)  reduced for one and marker
//	C [500,800ms)  reduced for marker only
//	D [800ms,1s)   restored for every symbol
//
// Majority occupancy of C and B picks the symbol; the health score is
// the number of samples that agree with the chosen symbol's profile,
// at most one per tick.
func (d *Decoder) classifySecond() (Symbol, int) {
	s := d.cfg.TicksPerSecond
	base := d.buffer - s
	countA := d.countReduced(base, base+d.o200)
	countB := d.countReduced(base+d.o200, base+d.o500)
	countC := d.countReduced(base+d.o500, base+d.o800)
	countD := d.countReduced(base+d.o800, base+s)
	lb := d.o500 - d.o200
	lc := d.o800 - d.o500

	var sym Symbol
	switch {
	case countC > lc/2:
		if countB > lb/2 {
			sym = Mark
		} else {
			sym = Invalid
		}
	case countB > lb/2:
		sym = One
	default:
		sym = Zero
	}
	if sym == Invalid {
		return sym, 0
	}

	score := countA
	if sym == Zero {
		score += lb - countB
	} else {
		score += countB
	}
	if sym == Mark {
		score += countC
	} else {
		score += lc - countC
	}
	score += (s - d.o800) - countD
	return sym, score
}

// pushSymbol records a classified symbol and folds its score into the
// rolling health sum.
func (d *Decoder) pushSymbol(sym Symbol, score int) {
	d.symbols.Put(int(sym))
	d.symbolCount.Add(1)
	d.health += score - int(d.healthHist[d.healthPos])
	d.healthHist[d.healthPos] = uint8(score)
	d.healthPos++
	if d.healthPos == len(d.healthHist) {
		d.healthPos = 0
	}
}

// LastSymbol returns the newest classified symbol.
func (d *Decoder) LastSymbol() Symbol {
	return Symbol(d.symbols.At(d.cfg.Symbols - 1))
}

// Health returns the rolling signal quality score: the sum of the most
// recent per-symbol scores, at most MaxHealth.
func (d *Decoder) Health() int { return d.health }

// MaxHealth returns the best possible Health value.
func (d *Decoder) MaxHealth() int { return d.cfg.Symbols * d.cfg.TicksPerSecond }

// HealthPercent returns Health scaled to 0..100.
func (d *Decoder) HealthPercent() float64 {
	return 100 * float64(d.health) / float64(d.MaxHealth())
}

// Healthy reports whether reception quality clears the configured
// threshold.
func (d *Decoder) Healthy() bool { return d.health >= d.threshold }

// StartOfSecond returns the phase bucket currently judged to begin a
// second.
func (d *Decoder) StartOfSecond() int { return d.sos }

// TicksSinceSecond returns how many ticks have elapsed since the last
// declared second boundary.
func (d *Decoder) TicksSinceSecond() int { return d.tss }

// PhaseError returns the signed circular distance from ref to the
// current start-of-second bucket, in ticks. A steering loop can drive
// this toward zero by trimming its sample clock.
func (d *Decoder) PhaseError(ref int) int {
	return modDiff(d.sos, ref, d.cfg.TicksPerSecond)
}

// Samples returns the total number of samples consumed.
func (d *Decoder) Samples() uint64 { return d.samples.Load() }

// SymbolCount returns the total number of symbols classified.
func (d *Decoder) SymbolCount() uint64 { return d.symbolCount.Load() }

// modDiff returns a-b wrapped into (-n/2, n/2].
func modDiff(a, b, n int) int {
	c := a - b
	if c > n/2 {
		c -= n
	}
	if c < -(n / 2) {
		c += n
	}
	return c
}
