package pattern

import (
	"math"

	"github.com/coreman2200/ledsync/model"
)

// DefaultChanMA is the current one WS2812 channel draws at full scale.
const DefaultChanMA = 20.0

const defaultKnee = 0.9

// Current estimates the frame's draw in mA with chanMA per channel at 255.
func Current(f model.Frame, chanMA float64) float64 {
	var total float64
	for _, c := range f {
		r, g, b := c.RGB()
		total += float64(int(r)+int(g)+int(b)) / 255.0 * chanMA
	}
	return total
}

// LimitCurrent compresses the frame's draw once it passes knee*budgetMA.
// Above the knee the output current rises with slope 1 at first and bends
// toward budgetMA without reaching it, so a frame never exceeds the budget
// and frames just over the knee are only dimmed a little. A budget <= 0
// disables the limiter; a knee outside (0,1) uses 0.9.
func LimitCurrent(f model.Frame, chanMA, budgetMA, knee float64) {
	if budgetMA <= 0 {
		return
	}
	if chanMA <= 0 {
		chanMA = DefaultChanMA
	}
	if knee <= 0 || knee >= 1 {
		knee = defaultKnee
	}
	total := Current(f, chanMA)
	start := knee * budgetMA
	if total <= start {
		return
	}

	room := budgetMA - start
	out := start + room*(1-math.Exp(-(total-start)/room))
	scaleFrame(f, out/total)
}

// scaleFrame truncates so the scaled frame never exceeds the target.
func scaleFrame(f model.Frame, s float64) {
	if s >= 1 {
		return
	}
	for i, c := range f {
		r, g, b := c.RGB()
		f[i] = model.RGB(byte(float64(r)*s), byte(float64(g)*s), byte(float64(b)*s))
	}
}
