package ws2812

import "math/bits"

// Serial bytes that make up the waveform.
const (
	SymbolZero byte = 0x80
	SymbolOne  byte = 0xF8
	SymbolIdle byte = 0x00
)

const (
	// SymbolsPerByte is eight bit symbols plus the trailing idle symbol.
	SymbolsPerByte = 9
	// SymbolsPerLED covers the three color bytes of one LED.
	SymbolsPerLED = 3 * SymbolsPerByte
)

// symbols is indexed by bit value.
var symbols = [2]byte{SymbolZero, SymbolOne}

// AppendByte appends the symbols encoding b, MSB first, to dst.
func AppendByte(dst []byte, b byte) []byte {
	for i := 0; i < 8; i++ {
		dst = append(dst, symbols[b>>7])
		b <<= 1
	}
	return append(dst, SymbolIdle)
}

// AppendColor appends the symbols for one LED in wire order (G, R, B).
func AppendColor(dst []byte, r, g, b byte) []byte {
	dst = AppendByte(dst, g)
	dst = AppendByte(dst, r)
	return AppendByte(dst, b)
}

// highBits is the length of the leading run of ones in a symbol.
func highBits(s byte) int {
	return bits.LeadingZeros8(^s)
}
