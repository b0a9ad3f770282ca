//go:build linux

package sample

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// GPIOSource reads receiver samples from a Linux GPIO character
// device line wired to the receiver module's demodulated output.
type GPIOSource struct {
	chip   *gpiocdev.Chip
	line   *gpiocdev.Line
	invert bool
}

// NewGPIO requests pin (BCM numbering) on gpiochip0 as an input.
// Receiver modules with an active-low output should set invert.
func NewGPIO(pin int, invert bool) (*GPIOSource, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	// Pull-down matches Pi boot defaults, so an unplugged receiver
	// reads as full carrier rather than floating.
	line, err := chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullDown)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request receiver pin %d: %w", pin, err)
	}

	return &GPIOSource{chip: chip, line: line, invert: invert}, nil
}

// ReadSample reads the line level once.
func (g *GPIOSource) ReadSample() (bool, error) {
	raw, err := g.line.Value()
	if err != nil {
		return false, fmt.Errorf("read receiver pin: %w", err)
	}
	reduced := raw != 0
	if g.invert {
		reduced = !reduced
	}
	return reduced, nil
}

// Close releases GPIO resources, reconfiguring the pin back to the Pi
// boot default (input with pull-down) first.
func (g *GPIOSource) Close() error {
	var errs []error
	if g.line != nil {
		if err := g.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure receiver pin: %w", err))
		}
		if err := g.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close receiver pin: %w", err))
		}
	}
	if g.chip != nil {
		if err := g.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
