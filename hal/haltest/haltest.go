// Package haltest provides a recording hal.Hardware for tests.
package haltest

import (
	"fmt"

	"github.com/coreman2200/ledsync/hal"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// Kind tags a recorded hardware call.
type Kind uint8

const (
	Send Kind = iota
	Mode
	Level
	Wait
)

func (k Kind) String() string {
	switch k {
	case Send:
		return "send"
	case Mode:
		return "mode"
	case Level:
		return "level"
	default:
		return "wait"
	}
}

// Event is one recorded call, in call order.
type Event struct {
	Kind   Kind
	Byte   byte
	Mode   hal.PinMode
	Level  gpio.Level
	Cycles uint32
}

func (e Event) String() string {
	switch e.Kind {
	case Send:
		return fmt.Sprintf("send(%#02x)", e.Byte)
	case Mode:
		return "mode(" + e.Mode.String() + ")"
	case Level:
		return "level(" + e.Level.String() + ")"
	default:
		return fmt.Sprintf("wait(%d)", e.Cycles)
	}
}

// Hardware records every call made through hal.Hardware.
//
// After each Send the transmitter reports busy for BusyPolls calls to Ready,
// so an encoder that skips the ready wait shows up in Overruns.
type Hardware struct {
	// Inputs.
	BusyPolls int
	Stuck     bool
	ClockErr  error
	SerialErr error

	// Observed state.
	Frequency  physic.Frequency
	Serial     hal.SerialConfig
	Configured bool
	Mode       hal.PinMode
	Level      gpio.Level
	Sent       []byte
	Events     []Event
	Overruns   int
	ReadyCalls int

	pending int
}

// New returns hardware with the data line in plain output mode, driven low,
// as it is at reset.
func New() *Hardware {
	return &Hardware{Mode: hal.PinOutput, Level: gpio.Low}
}

func (h *Hardware) SetFrequency(f physic.Frequency) error {
	if h.ClockErr != nil {
		return h.ClockErr
	}
	h.Frequency = f
	return nil
}

func (h *Hardware) Configure(c hal.SerialConfig) error {
	if h.SerialErr != nil {
		return h.SerialErr
	}
	h.Serial = c
	h.Configured = true
	return nil
}

func (h *Hardware) Ready() bool {
	h.ReadyCalls++
	if h.Stuck {
		return false
	}
	if h.pending > 0 {
		h.pending--
		return false
	}
	return true
}

func (h *Hardware) Send(b byte) {
	if h.pending > 0 || h.Stuck {
		h.Overruns++
	}
	h.pending = h.BusyPolls
	h.Sent = append(h.Sent, b)
	h.Events = append(h.Events, Event{Kind: Send, Byte: b})
}

func (h *Hardware) SetMode(m hal.PinMode) {
	h.Mode = m
	h.Events = append(h.Events, Event{Kind: Mode, Mode: m})
}

func (h *Hardware) SetLevel(l gpio.Level) {
	h.Level = l
	h.Events = append(h.Events, Event{Kind: Level, Level: l})
}

func (h *Hardware) BusyWait(cycles uint32) {
	h.Events = append(h.Events, Event{Kind: Wait, Cycles: cycles})
}

// Reset forgets recorded traffic but keeps configuration and pin state.
func (h *Hardware) Reset() {
	h.Sent = nil
	h.Events = nil
	h.Overruns = 0
	h.ReadyCalls = 0
}

var _ hal.Hardware = (*Hardware)(nil)
