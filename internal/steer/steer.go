// Package steer turns the decoder's phase measurements into a sample
// clock correction. The local tick source free-runs against the
// broadcast; a PI loop converts the observed start-of-second drift into
// a rate trim in parts per million, which the daemon applies to its
// ticker and optionally to the kernel clock.
package steer

import "time"

const (
	// DefaultKp is the proportional gain in ppm per tick of phase error.
	DefaultKp = 20.0
	// DefaultKi is the integral gain in ppm per accumulated tick-second.
	DefaultKi = 0.5
	// DefaultMaxPPM clamps the correction. NTP's conventional slew
	// ceiling is 500 ppm; stay under it.
	DefaultMaxPPM = 250.0
	// DefaultMaxIntegral is the anti-windup clamp on the accumulated
	// error sum.
	DefaultMaxIntegral = 400.0
	// DefaultResetAfter is how many consecutive unhealthy updates are
	// tolerated before the loop state is discarded.
	DefaultResetAfter = 120
)

// Config holds the servo gains and clamps. Zero values select the
// defaults above.
type Config struct {
	Kp          float64
	Ki          float64
	MaxPPM      float64
	MaxIntegral float64
	ResetAfter  int
}

func (c Config) withDefaults() Config {
	if c.Kp == 0 {
		c.Kp = DefaultKp
	}
	if c.Ki == 0 {
		c.Ki = DefaultKi
	}
	if c.MaxPPM == 0 {
		c.MaxPPM = DefaultMaxPPM
	}
	if c.MaxIntegral == 0 {
		c.MaxIntegral = DefaultMaxIntegral
	}
	if c.ResetAfter == 0 {
		c.ResetAfter = DefaultResetAfter
	}
	return c
}

// Servo is a proportional-integral controller over the phase error.
// Positive output means the tick period should be stretched (the local
// clock is running fast). Not safe for concurrent use; the run loop
// owns it.
type Servo struct {
	cfg       Config
	integral  float64
	unhealthy int
	ppm       float64
}

// New creates a Servo with the given gains.
func New(cfg Config) *Servo {
	return &Servo{cfg: cfg.withDefaults()}
}

// Update folds one phase observation into the loop and returns the rate
// correction in ppm. phaseTicks is the signed distance of the tracked
// start-of-second from its reference, in ticks; dt is the time since
// the previous observation.
//
// While the decoder is unhealthy the loop holds its last correction
// (holdover) and reports active=false. After ResetAfter consecutive
// unhealthy updates all state is dropped, so a stale drift estimate
// cannot kick a recovering clock.
func (s *Servo) Update(phaseTicks int, healthy bool, dt time.Duration) (ppm float64, active bool) {
	if !healthy {
		s.unhealthy++
		if s.unhealthy >= s.cfg.ResetAfter {
			s.Reset()
		}
		return s.ppm, false
	}
	s.unhealthy = 0

	seconds := dt.Seconds()
	if seconds <= 0 {
		seconds = 1
	}

	err := float64(phaseTicks)
	s.integral = clamp(s.integral+err*seconds, s.cfg.MaxIntegral)
	s.ppm = clamp(s.cfg.Kp*err+s.cfg.Ki*s.integral, s.cfg.MaxPPM)
	return s.ppm, true
}

// PPM returns the most recent correction.
func (s *Servo) PPM() float64 { return s.ppm }

// Reset discards all accumulated state.
func (s *Servo) Reset() {
	s.integral = 0
	s.unhealthy = 0
	s.ppm = 0
}

func clamp(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}
