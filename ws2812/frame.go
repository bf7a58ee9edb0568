package ws2812

import (
	"github.com/coreman2200/ledsync/hal"
	"periph.io/x/conn/v3/gpio"
)

// Frame is an open frame. WriteColor once per LED in strip order, then Latch.
type Frame struct {
	d    *Driver
	hw   hal.Hardware
	leds int
	done bool
}

// WriteColor transmits one LED. The strip wants green first, so the bytes go
// out G, R, B. It returns once the transmitter is ready for the next LED.
func (f *Frame) WriteColor(r, g, b byte) {
	if f.done {
		panic("ws2812: WriteColor after Latch")
	}
	f.encodeByte(g)
	f.encodeByte(r)
	f.encodeByte(b)
	for !f.hw.Ready() {
	}
	f.leds++
}

// encodeByte sends b MSB first, one symbol per bit, then one idle symbol.
// Nothing but the ready wait may run between symbols.
func (f *Frame) encodeByte(b byte) {
	hw := f.hw
	for i := 0; i < 8; i++ {
		for !hw.Ready() {
		}
		hw.Send(symbols[b>>7])
		b <<= 1
	}
	for !hw.Ready() {
	}
	hw.Send(SymbolIdle)
}

// Len is the number of LEDs written so far.
func (f *Frame) Len() int { return f.leds }

// Latch takes the pin away from the serial peripheral, drives it low and
// holds it for the latch time so the strip applies the frame. It does not
// re-arm the serial function; the next Begin does. Latching twice is a no-op.
func (f *Frame) Latch() {
	if f.done {
		return
	}
	f.hw.SetMode(hal.PinOutput)
	f.hw.SetLevel(gpio.Low)
	f.hw.BusyWait(f.d.latchCycles)
	f.done = true
	f.d.open = nil
}
