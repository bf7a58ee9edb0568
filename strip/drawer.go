package strip

import (
	"fmt"
	"image"

	"github.com/coreman2200/ledsync/model"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/extra/devices/screen"
)

// Drawer shows frames on any periph display.Drawer one pixel high.
type Drawer struct {
	drawer display.Drawer
	leds   int
}

func NewDrawer(d display.Drawer, leds int) *Drawer {
	return &Drawer{drawer: d, leds: leds}
}

// NewNRZ drives the strip with periph's own NRZ encoder over SPI.
func NewNRZ(port spi.Port, leds int, freq physic.Frequency) (*Drawer, error) {
	o := nrzled.Opts{
		NumPixels: leds,
		Channels:  3,
		Freq:      freq,
	}
	d, err := nrzled.NewSPI(port, &o)
	if err != nil {
		return nil, fmt.Errorf("strip: nrzled on %s: %w", port, err)
	}
	return NewDrawer(d, leds), nil
}

// NewConsole prints frames to the terminal.
func NewConsole(leds int) *Drawer {
	return NewDrawer(screen.New(leds), leds)
}

func (d *Drawer) Show(f model.Frame) error {
	return d.drawer.Draw(d.drawer.Bounds(), Image(f), image.Point{})
}

func (d *Drawer) Halt() error {
	return d.drawer.Halt()
}

func (d *Drawer) String() string {
	return d.drawer.String()
}

// Image lays a frame out as a 1-pixel-high image, LED i at x=i.
func Image(f model.Frame) *image.NRGBA {
	im := image.NewNRGBA(image.Rect(0, 0, len(f), 1))
	for x := 0; x < im.Rect.Max.X; x++ {
		im.SetNRGBA(x, 0, f[x].ToNRGBA())
	}
	return im
}
