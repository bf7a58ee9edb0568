package model_test

import (
	"strconv"
	"testing"

	. "github.com/coreman2200/ledsync/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Wire layout is 0xAAGGRRBB.
var packedLayoutCases = []struct {
	A, R, G, B uint8
	Packed     uint32
}{
	{0xFF, 0x00, 0x00, 0x00, 0xFF000000},
	{0xFF, 0x12, 0x34, 0x56, 0xFF341256},
	{0x80, 0xFF, 0x00, 0x00, 0x8000FF00},
	{0x01, 0x00, 0xFF, 0x00, 0x01FF0000},
	{0x00, 0x00, 0x00, 0xFF, 0x000000FF},
}

func TestPackedLayout(t *testing.T) {
	for i, v := range packedLayoutCases {
		t.Run("case"+strconv.Itoa(i), func(t *testing.T) {
			col := NewColor(0)
			col.SetA(v.A)
			col.SetR(v.R)
			col.SetG(v.G)
			col.SetB(v.B)
			assert.Equal(t, v.Packed, col.Color())

			back := NewColor(v.Packed)
			assert.Equal(t, []uint8{v.A, v.R, v.G, v.B}, []uint8{back.GetA(), back.GetR(), back.GetG(), back.GetB()})
		})
	}
}

func TestSetLeavesOtherChannels(t *testing.T) {
	col := NewColor(0xAABBCCDD)
	col.SetR(0x11)
	assert.Equal(t, uint32(0xAABB11DD), col.Color())
	col.SetA(0x00)
	assert.Equal(t, uint32(0x00BB11DD), col.Color())
}

// Channels are scaled by alpha with rounding.
var alphaScaleCases = []struct {
	C       uint32
	R, G, B uint8
}{
	{0xFF341256, 0x12, 0x34, 0x56},
	{0x00341256, 0, 0, 0},
	{0x80FFFFFF, 0x80, 0x80, 0x80},
	{0x40C86432, 0x19, 0x32, 0x0D},
}

func TestRGBScalesByAlpha(t *testing.T) {
	for i, v := range alphaScaleCases {
		t.Run("case"+strconv.Itoa(i), func(t *testing.T) {
			r, g, b := NewColor(v.C).RGB()
			assert.Equal(t, []uint8{v.R, v.G, v.B}, []uint8{r, g, b})
		})
	}
}

func TestRGBCapsAtMaxBrightness(t *testing.T) {
	old := MaxBrightness
	t.Cleanup(func() { MaxBrightness = old })
	MaxBrightness = 200

	r, g, b := RGB(255, 255, 255).RGB()
	assert.Equal(t, []uint8{200, 200, 200}, []uint8{r, g, b})

	// alpha already under the cap is unchanged
	r, g, b = NewColor(0x80FFFFFF).RGB()
	assert.Equal(t, []uint8{0x80, 0x80, 0x80}, []uint8{r, g, b})

	assert.Equal(t, uint8(0xFF), RGB(255, 255, 255).GetA(), "cap applies on the wire only")
}

func TestParseHex(t *testing.T) {
	c, err := ParseHex("#FF8800")
	require.NoError(t, err)
	assert.Equal(t, uint32(0xFF88FF00), c.Color())
	assert.Equal(t, "#FF8800FF", c.String())

	c, err = ParseHex("10203080")
	require.NoError(t, err)
	assert.Equal(t, uint8(0x80), c.GetA())

	for _, bad := range []string{"", "#123", "#GG0000", "#1234567"} {
		_, err := ParseHex(bad)
		assert.Error(t, err, bad)
	}
}

func TestAlphaScalesChannels(t *testing.T) {
	c := RGB(0xFF, 0x80, 0x00)
	r, g, b := c.RGB()
	assert.Equal(t, []uint8{0xFF, 0x80, 0x00}, []uint8{r, g, b})

	r, g, b = c.Dim(0.5).RGB()
	assert.Equal(t, []uint8{0x80, 0x40, 0x00}, []uint8{r, g, b})

	r, g, b = c.Dim(-1).RGB()
	assert.Equal(t, []uint8{0, 0, 0}, []uint8{r, g, b})
}

func TestFrameSerializeIsGRB(t *testing.T) {
	f := NewFrame(2)
	f[0] = RGB(1, 2, 3)
	f[1] = RGB(4, 5, 6)
	assert.Equal(t, []byte{2, 1, 3, 5, 4, 6}, f.Serialize())
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, f.RGB())

	f.Clear()
	assert.Equal(t, make([]byte, 6), f.Serialize())
}
