package model

import (
	"fmt"
	"image/color"
	"strings"
)

// Colors are packed in wire order, 0xAAGGRRBB. Alpha scales the other three
// channels when the color is sent to a strip.
const (
	ALPHA_OFFSET uint8 = 0x18
	GREEN_OFFSET uint8 = 0x10
	RED_OFFSET   uint8 = 0x08
	BLUE_OFFSET  uint8 = 0x0
)

const DFLT_COLOR_INIT uint32 = 0xFF000000

// MaxBrightness caps alpha when channels are scaled for the wire. 255 leaves
// colors untouched; lower it to bound the strip's peak draw.
var MaxBrightness uint8 = 255

type Color struct {
	val uint32
}

func NewColor(c uint32) Color {
	return Color{val: c}
}

// RGB returns an opaque color.
func RGB(r, g, b uint8) Color {
	c := NewColor(DFLT_COLOR_INIT)
	c.SetR(r)
	c.SetG(g)
	c.SetB(b)
	return c
}

// ParseHex reads "#RRGGBB" or "#RRGGBBAA". The leading '#' is optional.
func ParseHex(s string) (Color, error) {
	h := strings.TrimPrefix(s, "#")
	var r, g, b, a uint8
	switch len(h) {
	case 6:
		if _, err := fmt.Sscanf(h, "%02x%02x%02x", &r, &g, &b); err != nil {
			return Color{}, fmt.Errorf("model: parse color %q: %w", s, err)
		}
		a = 0xFF
	case 8:
		if _, err := fmt.Sscanf(h, "%02x%02x%02x%02x", &r, &g, &b, &a); err != nil {
			return Color{}, fmt.Errorf("model: parse color %q: %w", s, err)
		}
	default:
		return Color{}, fmt.Errorf("model: parse color %q: want #RRGGBB or #RRGGBBAA", s)
	}
	c := RGB(r, g, b)
	c.SetA(a)
	return c, nil
}

func (c Color) Color() uint32 {
	return c.val
}

func (c Color) String() string {
	return fmt.Sprintf("#%02X%02X%02X%02X", c.GetR(), c.GetG(), c.GetB(), c.GetA())
}

// RGB returns the channels scaled by alpha, capped at MaxBrightness, ready
// for the wire.
func (c Color) RGB() (r, g, b uint8) {
	a := c.GetA()
	if a > MaxBrightness {
		a = MaxBrightness
	}
	return scale(c.GetR(), a), scale(c.GetG(), a), scale(c.GetB(), a)
}

func (c Color) ToNRGBA() color.NRGBA {
	r, g, b := c.RGB()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

// Dim multiplies alpha by f, clamped to 0..1.
func (c Color) Dim(f float64) Color {
	if f >= 1 {
		return c
	}
	if f < 0 {
		f = 0
	}
	c.SetA(uint8(float64(c.GetA())*f + 0.5))
	return c
}

func scale(v, a uint8) uint8 {
	return uint8((uint32(v)*uint32(a) + 127) / 255)
}

// with replaces the channel at off.
func (c Color) with(off uint8, n uint8) Color {
	c.val = c.val&^(0xFF<<off) | uint32(n)<<off
	return c
}

func (c Color) at(off uint8) uint8 {
	return uint8(c.val >> off)
}

func (c *Color) SetR(r uint8) { *c = c.with(RED_OFFSET, r) }
func (c *Color) SetG(g uint8) { *c = c.with(GREEN_OFFSET, g) }
func (c *Color) SetB(b uint8) { *c = c.with(BLUE_OFFSET, b) }
func (c *Color) SetA(a uint8) { *c = c.with(ALPHA_OFFSET, a) }

func (c Color) GetR() uint8 { return c.at(RED_OFFSET) }
func (c Color) GetG() uint8 { return c.at(GREEN_OFFSET) }
func (c Color) GetB() uint8 { return c.at(BLUE_OFFSET) }
func (c Color) GetA() uint8 { return c.at(ALPHA_OFFSET) }

// Off is an unlit LED.
var Off = NewColor(0)
