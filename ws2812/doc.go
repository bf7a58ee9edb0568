// Package ws2812 drives WS2811/WS2812 LED strings from a synchronous serial
// transmitter.
//
// Every protocol bit is sent as one serial byte. With the peripheral clock at
// 24 MHz divided by 5, a serial bit lasts about 208ns, so SymbolOne (0xF8)
// holds the line high for ~1.04us and SymbolZero (0x80) for ~0.21us inside a
// ~1.67us symbol. Each color byte is followed by one SymbolIdle.
//
// Use:
//
//	drv, err := ws2812.Init(hw, ws2812.Config{})
//	if err != nil {
//		log.Fatal(err)
//	}
//	f, err := drv.Begin()
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, c := range colors {
//		f.WriteColor(c.R, c.G, c.B)
//	}
//	f.Latch()
//
// # Latch timing
//
// Latch holds the line low for Config.LatchHold, converted to peripheral
// clock cycles using Config.ClockFrequency. The conversion is only as correct
// as that frequency: if the board clock is changed after InitClock, the hold
// shrinks or grows with it and the strip may not latch. Re-run InitClock with
// the new frequency whenever the clock setup changes.
//
// A Driver and its Frames are not safe for concurrent use. The caller owns
// the serial peripheral for the whole frame; any other traffic between Begin
// and Latch, or a pause longer than the reset time between WriteColor calls,
// ends the frame early on the strip.
package ws2812
