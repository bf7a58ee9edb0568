// Package periphhal implements hal.Hardware on top of periph.io, for driving a
// strip from a Linux host's SPI controller.
//
// The kernel owns the transmit FIFO, so Ready reports true once the port is
// connected and Send only queues. Queued symbols leave in a single transfer
// when the data pin is switched to plain output for the latch, which keeps
// every frame one uninterrupted burst on the wire.
//
// When the latch pin is the MOSI line itself, driving it low takes it away
// from the SPI controller. The next switch back to the serial function hands
// it back through pin.PinFunc.
package periphhal

import (
	"fmt"
	"time"

	"github.com/coreman2200/ledsync/hal"
	"github.com/coreman2200/ledsync/ws2812"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/pin"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/host/v3/cpu"
)

// Hardware adapts a periph SPI port and an optional GPIO line.
//
// pin may be nil when the MOSI line already idles low between transfers.
type Hardware struct {
	port spi.Port
	pin  gpio.PinOut

	conn  spi.Conn
	freq  physic.Frequency
	mode  hal.PinMode
	maxTx int
	buf   []byte
	err   error

	serialFunc pin.Func // restored on the pin after a latch drove it
	driven     bool
}

// New returns hardware that is not yet clocked or connected.
func New(port spi.Port, pin gpio.PinOut) *Hardware {
	return &Hardware{port: port, pin: pin, mode: hal.PinOutput}
}

// SetFrequency records the nominal clock the SPI bit rate is derived from.
func (h *Hardware) SetFrequency(f physic.Frequency) error {
	if f < physic.Hertz {
		return fmt.Errorf("periphhal: frequency %s: %w", f, hal.ErrClock)
	}
	h.freq = f
	return nil
}

// Configure connects the port at the divided clock.
func (h *Hardware) Configure(c hal.SerialConfig) error {
	if h.freq == 0 {
		return fmt.Errorf("periphhal: configure before clock: %w", hal.ErrSerial)
	}
	if c.Divisor == 0 {
		return fmt.Errorf("periphhal: zero divisor: %w", hal.ErrSerial)
	}
	sc, err := h.port.Connect(h.freq/physic.Frequency(c.Divisor), c.Mode(), 8)
	if err != nil {
		return fmt.Errorf("periphhal: connect %s: %w: %w", h.port, hal.ErrSerial, err)
	}
	h.conn = sc
	h.maxTx = 0
	if l, ok := sc.(conn.Limits); ok {
		h.maxTx = l.MaxTxSize()
	}
	h.serialFunc = spi.MOSI
	if pf, ok := h.pin.(pin.PinFunc); ok && pf.Func().Generalize() == spi.MOSI {
		h.serialFunc = pf.Func()
	}
	return nil
}

// MaxTxSize is the largest single transfer the port accepts; 0 means no
// limit. Valid after Configure.
func (h *Hardware) MaxTxSize() int { return h.maxTx }

// CheckFrame reports whether a frame of leds fits in one transfer.
func (h *Hardware) CheckFrame(leds int) error {
	n := leds * ws2812.SymbolsPerLED
	if h.maxTx > 0 && n > h.maxTx {
		return fmt.Errorf("periphhal: %d LEDs need %d bytes per transfer, %s allows %d: %w",
			leds, n, h.port, h.maxTx, hal.ErrSerial)
	}
	return nil
}

func (h *Hardware) Ready() bool { return h.conn != nil }

func (h *Hardware) Send(b byte) { h.buf = append(h.buf, b) }

// SetMode flushes queued symbols when the pin leaves the serial function and
// returns a latch-driven pin to the SPI controller when it comes back.
func (h *Hardware) SetMode(m hal.PinMode) {
	switch {
	case m == hal.PinOutput && h.mode == hal.PinSerial:
		h.flush()
	case m == hal.PinSerial && h.driven:
		h.rearm()
	}
	h.mode = m
}

func (h *Hardware) SetLevel(l gpio.Level) {
	if h.pin == nil {
		return
	}
	if err := h.pin.Out(l); err != nil {
		h.setErr(fmt.Errorf("periphhal: %s out %s: %w", h.pin, l, err))
		return
	}
	h.driven = true
}

// BusyWait holds for cycles of the recorded frequency.
func (h *Hardware) BusyWait(cycles uint32) {
	hz := uint64(h.freq / physic.Hertz)
	if hz == 0 || cycles == 0 {
		return
	}
	cpu.Nanospin(time.Duration(uint64(cycles) * uint64(time.Second) / hz))
}

// Err returns and clears the first transfer or pin error.
func (h *Hardware) Err() error {
	err := h.err
	h.err = nil
	return err
}

// Pending is the number of queued, unsent bytes.
func (h *Hardware) Pending() int { return len(h.buf) }

func (h *Hardware) String() string {
	if h.conn != nil {
		return "periphhal{" + h.conn.String() + "}"
	}
	return fmt.Sprintf("periphhal{%s}", h.port)
}

func (h *Hardware) flush() {
	if len(h.buf) == 0 || h.conn == nil {
		return
	}
	if err := h.conn.Tx(h.buf, nil); err != nil {
		h.setErr(fmt.Errorf("periphhal: tx %d bytes: %w", len(h.buf), err))
	}
	h.buf = h.buf[:0]
}

func (h *Hardware) rearm() {
	h.driven = false
	pf, ok := h.pin.(pin.PinFunc)
	if !ok {
		return
	}
	if err := pf.SetFunc(h.serialFunc); err != nil {
		h.setErr(fmt.Errorf("periphhal: %s back to %s: %w", h.pin, h.serialFunc, err))
	}
}

func (h *Hardware) setErr(err error) {
	if h.err == nil {
		h.err = err
	}
}

var (
	_ hal.Hardware = (*Hardware)(nil)
	_ hal.Errer    = (*Hardware)(nil)
)
