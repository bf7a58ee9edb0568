package ws2812

import (
	"fmt"
	"math"
	"time"

	"github.com/coreman2200/ledsync/hal"
	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/physic"
)

// Reference configuration: 24 MHz peripheral clock, bit clock / 5.
const (
	DefaultClockFrequency = 24 * physic.MegaHertz
	DefaultDivisor        = 5
	DefaultLatchHold      = 100 * time.Microsecond
	DefaultReadyPolls     = 1 << 16
)

// WS2812 tolerance, loose enough for WS2811 and WS2812B parts.
const (
	maxZeroHigh  = 500 * time.Nanosecond
	minOneHigh   = 625 * time.Nanosecond
	minLatchHold = 50 * time.Microsecond
)

// Config holds the board constants the encoder is calibrated against. Zero
// fields take the reference defaults.
type Config struct {
	// ClockFrequency is the serial peripheral clock source.
	ClockFrequency physic.Frequency
	// Divisor divides ClockFrequency down to the serial bit rate.
	Divisor uint16
	// LatchHold is how long Latch holds the line low. It is converted to
	// cycles of ClockFrequency, so it is wrong if the clock changes later.
	LatchHold time.Duration
	// ReadyPolls bounds the transmitter-ready wait in InitSerial and Begin.
	// It never applies inside WriteColor.
	ReadyPolls int
	// Logger receives init-time diagnostics only.
	Logger zerolog.Logger
}

func (c Config) withDefaults() Config {
	if c.ClockFrequency == 0 {
		c.ClockFrequency = DefaultClockFrequency
	}
	if c.Divisor == 0 {
		c.Divisor = DefaultDivisor
	}
	if c.LatchHold == 0 {
		c.LatchHold = DefaultLatchHold
	}
	if c.ReadyPolls == 0 {
		c.ReadyPolls = DefaultReadyPolls
	}
	return c
}

func (c Config) validate() error {
	if c.ClockFrequency < physic.Hertz {
		return fmt.Errorf("ws2812: clock frequency %s: %w", c.ClockFrequency, hal.ErrClock)
	}
	if c.LatchHold < 0 {
		return fmt.Errorf("ws2812: negative latch hold %s: %w", c.LatchHold, hal.ErrClock)
	}
	if c.ReadyPolls < 0 {
		return fmt.Errorf("ws2812: negative ready polls %d: %w", c.ReadyPolls, hal.ErrSerial)
	}
	if physic.Frequency(c.Divisor) > c.ClockFrequency/physic.Hertz {
		return fmt.Errorf("ws2812: divisor %d above clock %s: %w", c.Divisor, c.ClockFrequency, hal.ErrSerial)
	}
	return nil
}

// Timing is the waveform a Config produces.
type Timing struct {
	BitRate  physic.Frequency
	Bit      time.Duration
	Symbol   time.Duration
	ZeroHigh time.Duration
	OneHigh  time.Duration
}

// Timing derives pulse widths from the clock and divisor.
func (c Config) Timing() Timing {
	c = c.withDefaults()
	hz := uint64(c.ClockFrequency / physic.Hertz)
	if hz == 0 {
		return Timing{}
	}
	bit := time.Duration(uint64(time.Second) * uint64(c.Divisor) / hz)
	return Timing{
		BitRate:  c.ClockFrequency / physic.Frequency(c.Divisor),
		Bit:      bit,
		Symbol:   8 * bit,
		ZeroHigh: time.Duration(highBits(SymbolZero)) * bit,
		OneHigh:  time.Duration(highBits(SymbolOne)) * bit,
	}
}

// LatchCycles is LatchHold expressed in cycles of ClockFrequency.
func (c Config) LatchCycles() uint32 {
	c = c.withDefaults()
	hz := uint64(c.ClockFrequency / physic.Hertz)
	n := hz * uint64(c.LatchHold) / uint64(time.Second)
	if n > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(n)
}

func (c Config) logTiming(t Timing, cycles uint32) {
	c.Logger.Info().
		Str("clock", c.ClockFrequency.String()).
		Uint16("divisor", c.Divisor).
		Str("bit_rate", t.BitRate.String()).
		Dur("zero_high", t.ZeroHigh).
		Dur("one_high", t.OneHigh).
		Dur("symbol", t.Symbol).
		Dur("latch", c.LatchHold).
		Uint32("latch_cycles", cycles).
		Msg("ws2812 timing")
	if t.ZeroHigh > maxZeroHigh || t.OneHigh < minOneHigh {
		c.Logger.Warn().
			Dur("zero_high", t.ZeroHigh).
			Dur("one_high", t.OneHigh).
			Msg("pulse widths outside WS2812 tolerance; LEDs may misread bits")
	}
	if c.LatchHold < minLatchHold {
		c.Logger.Warn().Dur("latch", c.LatchHold).Msg("latch hold below WS2812 reset time")
	}
}
