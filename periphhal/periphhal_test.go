package periphhal

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/coreman2200/ledsync/hal"
	"github.com/coreman2200/ledsync/ws2812"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/pin"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spitest"
)

// fakePort records Connect arguments and can fail transfers.
type fakePort struct {
	f     physic.Frequency
	mode  spi.Mode
	bits  int
	maxTx int
	txErr error
	tx    [][]byte
}

func (p *fakePort) String() string { return "fake" }

func (p *fakePort) Connect(f physic.Frequency, mode spi.Mode, bits int) (spi.Conn, error) {
	p.f, p.mode, p.bits = f, mode, bits
	return p, nil
}

func (p *fakePort) Tx(w, r []byte) error {
	if p.txErr != nil {
		return p.txErr
	}
	p.tx = append(p.tx, append([]byte(nil), w...))
	return nil
}

func (p *fakePort) TxPackets(pkts []spi.Packet) error { return errors.New("fake: not implemented") }

func (p *fakePort) Duplex() conn.Duplex { return conn.Half }

func (p *fakePort) MaxTxSize() int { return p.maxTx }

// muxPin behaves like a SoC pin shared with the SPI controller: Out takes it
// over as a GPIO output, SetFunc hands it back.
type muxPin struct {
	gpiotest.Pin
	fn    pin.Func
	calls []string
}

func (p *muxPin) Func() pin.Func { return p.fn }

func (p *muxPin) SetFunc(f pin.Func) error {
	p.calls = append(p.calls, "SetFunc "+string(f))
	p.fn = f
	return nil
}

func (p *muxPin) Out(l gpio.Level) error {
	p.calls = append(p.calls, "Out "+l.String())
	p.fn = gpio.OUT
	return p.Pin.Out(l)
}

func TestConnectsAtDividedClock(t *testing.T) {
	port := &fakePort{}
	_, err := ws2812.Init(New(port, nil), ws2812.Config{})
	require.NoError(t, err)

	assert.Equal(t, 4800*physic.KiloHertz, port.f)
	assert.Equal(t, spi.Mode2, port.mode)
	assert.Equal(t, 8, port.bits)
}

func TestFrameLeavesInOneTransfer(t *testing.T) {
	var buf bytes.Buffer
	pin := &gpiotest.Pin{N: "GPIO10", Num: 10, L: gpio.High}
	hw := New(spitest.NewRecordRaw(&buf), pin)
	drv, err := ws2812.Init(hw, ws2812.Config{LatchHold: 10 * time.Microsecond})
	require.NoError(t, err)

	f, err := drv.Begin()
	require.NoError(t, err)
	f.WriteColor(0x12, 0x34, 0x56)
	f.WriteColor(0xFF, 0x00, 0x80)

	assert.Zero(t, buf.Len(), "nothing leaves before the latch")
	assert.Equal(t, 2*ws2812.SymbolsPerLED, hw.Pending())

	f.Latch()

	want := ws2812.AppendColor(nil, 0x12, 0x34, 0x56)
	want = ws2812.AppendColor(want, 0xFF, 0x00, 0x80)
	assert.Equal(t, want, buf.Bytes())
	assert.Zero(t, hw.Pending())
	assert.Equal(t, gpio.Low, pin.L)
	assert.NoError(t, hw.Err())
}

func TestFramesDoNotMerge(t *testing.T) {
	port := &fakePort{}
	hw := New(port, nil)
	drv, err := ws2812.Init(hw, ws2812.Config{LatchHold: time.Microsecond})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		f, err := drv.Begin()
		require.NoError(t, err)
		f.WriteColor(byte(i), 0, 0)
		f.Latch()
	}

	require.Len(t, port.tx, 2)
	assert.Equal(t, ws2812.AppendColor(nil, 0, 0, 0), port.tx[0])
	assert.Equal(t, ws2812.AppendColor(nil, 1, 0, 0), port.tx[1])
}

func TestTransferErrorIsDeferred(t *testing.T) {
	boom := errors.New("boom")
	port := &fakePort{txErr: boom}
	hw := New(port, nil)
	drv, err := ws2812.Init(hw, ws2812.Config{LatchHold: time.Microsecond})
	require.NoError(t, err)

	f, err := drv.Begin()
	require.NoError(t, err)
	f.WriteColor(1, 2, 3)
	f.Latch()

	err = hw.Err()
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, hw.Err(), "Err clears")
}

func TestInitBoundaryErrors(t *testing.T) {
	hw := New(&fakePort{}, nil)
	assert.ErrorIs(t, hw.SetFrequency(0), hal.ErrClock)
	assert.ErrorIs(t, hw.Configure(hal.SerialConfig{Divisor: 5}), hal.ErrSerial)
	assert.False(t, hw.Ready())

	var buf bytes.Buffer
	hw = New(spitest.NewRecordRaw(&buf), nil)
	require.NoError(t, hw.SetFrequency(24*physic.MegaHertz))
	require.NoError(t, hw.Configure(hal.SerialConfig{Divisor: 5}))
	// spitest only allows a single Connect.
	assert.ErrorIs(t, hw.Configure(hal.SerialConfig{Divisor: 5}), hal.ErrSerial)
}

func TestBusyWaitUsesClock(t *testing.T) {
	hw := New(&fakePort{}, nil)
	require.NoError(t, hw.SetFrequency(24*physic.MegaHertz))

	start := time.Now()
	hw.BusyWait(2400)
	assert.GreaterOrEqual(t, int64(time.Since(start)), int64(100*time.Microsecond))
}

func TestBeginReturnsMOSIToController(t *testing.T) {
	port := &fakePort{}
	p := &muxPin{Pin: gpiotest.Pin{N: "GPIO10", Num: 10}, fn: "SPI0_MOSI"}
	hw := New(port, p)
	drv, err := ws2812.Init(hw, ws2812.Config{LatchHold: time.Microsecond})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		f, err := drv.Begin()
		require.NoError(t, err)
		assert.Equal(t, pin.Func("SPI0_MOSI"), p.fn, "frame %d starts on the SPI function", i)
		f.WriteColor(byte(i), 0, 0)
		f.Latch()
		assert.Equal(t, gpio.OUT, p.fn)
	}

	assert.Equal(t, []string{
		"Out Low",
		"SetFunc SPI0_MOSI", "Out Low",
		"SetFunc SPI0_MOSI", "Out Low",
	}, p.calls)
	assert.Len(t, port.tx, 3)
	assert.NoError(t, hw.Err())
}

func TestRearmDefaultsToGenericMOSI(t *testing.T) {
	p := &muxPin{Pin: gpiotest.Pin{N: "D0"}}
	hw := New(&fakePort{}, p)
	drv, err := ws2812.Init(hw, ws2812.Config{LatchHold: time.Microsecond})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		f, err := drv.Begin()
		require.NoError(t, err)
		f.Latch()
	}
	assert.Contains(t, p.calls, "SetFunc "+string(spi.MOSI))
}

func TestRearmFailureIsDeferred(t *testing.T) {
	// gpiotest.Pin refuses every SetFunc.
	p := &gpiotest.Pin{N: "GPIO10", Num: 10}
	hw := New(&fakePort{}, p)
	drv, err := ws2812.Init(hw, ws2812.Config{LatchHold: time.Microsecond})
	require.NoError(t, err)

	f, err := drv.Begin()
	require.NoError(t, err)
	f.Latch()
	require.NoError(t, hw.Err())

	_, err = drv.Begin()
	require.NoError(t, err)
	err = hw.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "back to")
}

func TestFrameMustFitOneTransfer(t *testing.T) {
	port := &fakePort{maxTx: 4096}
	hw := New(port, nil)
	_, err := ws2812.Init(hw, ws2812.Config{})
	require.NoError(t, err)

	assert.Equal(t, 4096, hw.MaxTxSize())
	assert.NoError(t, hw.CheckFrame(151))
	err = hw.CheckFrame(152)
	assert.ErrorIs(t, err, hal.ErrSerial)
	assert.Contains(t, err.Error(), "4104")

	unlimited := New(&fakePort{}, nil)
	_, err = ws2812.Init(unlimited, ws2812.Config{})
	require.NoError(t, err)
	assert.NoError(t, unlimited.CheckFrame(10000))
}
