// Package strip puts whole frames onto a physical or simulated LED string.
package strip

import (
	"fmt"

	"github.com/coreman2200/ledsync/hal"
	"github.com/coreman2200/ledsync/model"
	"github.com/coreman2200/ledsync/ws2812"
)

// Strip shows one frame at a time.
type Strip interface {
	// Show sends f in strip order and latches it.
	Show(f model.Frame) error
	// Halt turns every LED off.
	Halt() error
	String() string
}

// Symbol sends frames through the ws2812 symbol encoder.
type Symbol struct {
	drv  *ws2812.Driver
	hw   hal.Hardware
	leds int
}

// NewSymbol wraps an initialized driver. hw is the hardware drv was built on;
// if it defers transfer errors, Show reports them.
func NewSymbol(drv *ws2812.Driver, hw hal.Hardware, leds int) *Symbol {
	return &Symbol{drv: drv, hw: hw, leds: leds}
}

func (s *Symbol) Show(f model.Frame) error {
	fr, err := s.drv.Begin()
	if err != nil {
		return err
	}
	for _, c := range f {
		r, g, b := c.RGB()
		fr.WriteColor(r, g, b)
	}
	fr.Latch()
	if e, ok := s.hw.(hal.Errer); ok {
		return e.Err()
	}
	return nil
}

func (s *Symbol) Halt() error {
	return s.Show(model.NewFrame(s.leds))
}

func (s *Symbol) String() string {
	if st, ok := s.hw.(fmt.Stringer); ok {
		return "ws2812{" + st.String() + "}"
	}
	return "ws2812"
}
