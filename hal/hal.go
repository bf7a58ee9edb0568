// Package hal is the narrow hardware interface the ws2812 encoder drives.
//
// Implementations sit on whatever register access the target has (memory
// mapped peripherals on a microcontroller, spidev on a Linux host). Nothing
// above this package knows a register address.
package hal

import (
	"errors"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

var (
	// ErrClock reports that the peripheral clock could not be fixed.
	ErrClock = errors.New("hal: clock configuration failed")
	// ErrSerial reports that the serial peripheral could not be configured.
	ErrSerial = errors.New("hal: serial initialization failed")
	// ErrTimeout reports that the transmitter never became ready.
	ErrTimeout = errors.New("hal: transmitter ready timeout")
)

// Polarity is the idle level of the serial clock.
type Polarity uint8

const (
	// IdleLow holds the clock low between bits (CPOL=0).
	IdleLow Polarity = iota
	// IdleHigh holds the clock high between bits (CPOL=1), as the strip
	// reference setup uses.
	IdleHigh
)

// String returns the constant's name.
func (p Polarity) String() string {
	if p == IdleHigh {
		return "IdleHigh"
	}
	return "IdleLow"
}

// BitOrder is the order bits leave the shift register.
type BitOrder uint8

const (
	// MSBFirst shifts bit 7 out first; the symbol table assumes it.
	MSBFirst BitOrder = iota
	// LSBFirst shifts bit 0 out first.
	LSBFirst
)

// String returns the constant's name.
func (o BitOrder) String() string {
	if o == LSBFirst {
		return "LSBFirst"
	}
	return "MSBFirst"
}

// SerialConfig describes a synchronous master transmitter.
type SerialConfig struct {
	// Divisor divides the peripheral clock down to the bit clock.
	Divisor  uint16
	Polarity Polarity
	Order    BitOrder
}

// Mode maps the configuration onto periph's SPI mode bits. Data is always
// sampled on the first clock edge.
func (c SerialConfig) Mode() spi.Mode {
	m := spi.Mode0
	if c.Polarity == IdleHigh {
		m = spi.Mode2
	}
	if c.Order == LSBFirst {
		m |= spi.LSBFirst
	}
	return m
}

// PinMode selects what drives the data line.
type PinMode uint8

const (
	// PinSerial routes the serial peripheral output to the pin.
	PinSerial PinMode = iota
	// PinOutput makes the pin a plain digital output.
	PinOutput
)

// String returns "Serial" or "Output".
func (m PinMode) String() string {
	if m == PinOutput {
		return "Output"
	}
	return "Serial"
}

// Clock fixes the frequency the serial peripheral and the delay loop run at.
type Clock interface {
	SetFrequency(f physic.Frequency) error
}

// Serial is a clocked shift register with a transmit-buffer-empty flag.
//
// Send must only be called after Ready returned true.
type Serial interface {
	Configure(c SerialConfig) error
	Ready() bool
	Send(b byte)
}

// Pin is the single data line.
type Pin interface {
	SetMode(m PinMode)
	SetLevel(l gpio.Level)
}

// Delayer spins for a number of peripheral clock cycles.
type Delayer interface {
	BusyWait(cycles uint32)
}

// Hardware is everything the encoder needs from the board.
type Hardware interface {
	Clock
	Serial
	Pin
	Delayer
}

// Errer is implemented by hardware that defers transfer errors out of the
// hot path. Err returns and clears the first error seen.
type Errer interface {
	Err() error
}
