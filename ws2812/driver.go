package ws2812

import (
	"errors"
	"fmt"

	"github.com/coreman2200/ledsync/hal"
)

// ErrFrameActive is returned by Begin while a frame has not been latched.
var ErrFrameActive = errors.New("ws2812: frame already open")

// Clock is a board whose peripheral clock has been fixed. It is the only way
// to reach InitSerial.
type Clock struct {
	hw  hal.Hardware
	cfg Config
}

// InitClock fixes the peripheral clock at cfg.ClockFrequency.
func InitClock(hw hal.Hardware, cfg Config) (*Clock, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := hw.SetFrequency(cfg.ClockFrequency); err != nil {
		return nil, wrap(hal.ErrClock, "set clock to "+cfg.ClockFrequency.String(), err)
	}
	return &Clock{hw: hw, cfg: cfg}, nil
}

// InitSerial configures the transmitter as a synchronous master, MSB first
// with the clock idling high, and routes it to the data pin.
func (c *Clock) InitSerial() (*Driver, error) {
	sc := hal.SerialConfig{
		Divisor:  c.cfg.Divisor,
		Polarity: hal.IdleHigh,
		Order:    hal.MSBFirst,
	}
	if err := c.hw.Configure(sc); err != nil {
		return nil, wrap(hal.ErrSerial, "configure serial", err)
	}
	c.hw.SetMode(hal.PinSerial)
	if !waitReady(c.hw, c.cfg.ReadyPolls) {
		return nil, fmt.Errorf("ws2812: transmitter not ready after %d polls: %w", c.cfg.ReadyPolls, hal.ErrTimeout)
	}

	d := &Driver{
		hw:          c.hw,
		cfg:         c.cfg,
		timing:      c.cfg.Timing(),
		latchCycles: c.cfg.LatchCycles(),
	}
	c.cfg.logTiming(d.timing, d.latchCycles)
	return d, nil
}

// Init runs InitClock then InitSerial.
func Init(hw hal.Hardware, cfg Config) (*Driver, error) {
	c, err := InitClock(hw, cfg)
	if err != nil {
		return nil, err
	}
	return c.InitSerial()
}

// Driver is an initialized transmitter between frames.
type Driver struct {
	hw          hal.Hardware
	cfg         Config
	timing      Timing
	latchCycles uint32
	open        *Frame
}

// Config returns the configuration with defaults applied.
func (d *Driver) Config() Config { return d.cfg }

// Timing returns the derived waveform timing.
func (d *Driver) Timing() Timing { return d.timing }

// LatchCycles returns the cycle count Latch waits for.
func (d *Driver) LatchCycles() uint32 { return d.latchCycles }

// Begin re-arms the serial function on the data pin and opens a frame.
//
// Latch leaves the pin as a plain output, so every frame starts here.
func (d *Driver) Begin() (*Frame, error) {
	if d.open != nil {
		return nil, ErrFrameActive
	}
	d.hw.SetMode(hal.PinSerial)
	if !waitReady(d.hw, d.cfg.ReadyPolls) {
		return nil, fmt.Errorf("ws2812: transmitter not ready after %d polls: %w", d.cfg.ReadyPolls, hal.ErrTimeout)
	}
	f := &Frame{d: d, hw: d.hw}
	d.open = f
	return f, nil
}

func waitReady(s hal.Serial, polls int) bool {
	for i := 0; i < polls; i++ {
		if s.Ready() {
			return true
		}
	}
	return false
}

func wrap(kind error, msg string, err error) error {
	if errors.Is(err, kind) {
		return fmt.Errorf("ws2812: %s: %w", msg, err)
	}
	return fmt.Errorf("ws2812: %s: %w: %w", msg, kind, err)
}
