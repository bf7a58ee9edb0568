// Package pattern generates test and demo frames for a strip.
package pattern

import (
	"fmt"
	"math"

	"github.com/coreman2200/ledsync/model"
)

type Kind string

const (
	None       Kind = ""
	Solid      Kind = "solid"
	IndexSweep Kind = "index_sweep"
	RGBTest    Kind = "rgb_channels"
	Rainbow    Kind = "rainbow"
)

// Kinds lists every pattern ParseKind accepts.
var Kinds = []Kind{Solid, IndexSweep, RGBTest, Rainbow}

func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return None, fmt.Errorf("pattern: unknown kind %q", s)
}

type Plan struct {
	Kind  Kind
	Color model.Color // Solid only
	Loop  bool        // IndexSweep restarts instead of ending
}

type Runner struct {
	plan  Plan
	step  int
	phase float64
}

func NewRunner(plan Plan) *Runner { return &Runner{plan: plan} }
func (r *Runner) Kind() Kind      { return r.plan.Kind }

// Step fills dst with the next frame; returns false when the pattern is
// complete and dst was left untouched.
func (r *Runner) Step(dst model.Frame) bool {
	n := len(dst)
	if n == 0 {
		return false
	}

	switch r.plan.Kind {
	case Solid:
		dst.Fill(r.plan.Color)
	case IndexSweep:
		if r.step >= n {
			if !r.plan.Loop {
				return false
			}
			r.step = 0
		}
		dst.Clear()
		dst[r.step] = model.RGB(255, 255, 255)
	case RGBTest:
		c := [3]model.Color{model.RGB(255, 0, 0), model.RGB(0, 255, 0), model.RGB(0, 0, 255)}
		dst.Fill(c[r.step%3])
	case Rainbow:
		for i := range dst {
			h := math.Mod(float64(i)/float64(n)+r.phase, 1.0)
			rr, gg, bb := hsvToRGB(h, 1.0, 1.0)
			dst[i] = model.RGB(byte(rr*255), byte(gg*255), byte(bb*255))
		}
		r.phase = math.Mod(r.phase+0.01, 1.0)
	default:
		return false
	}
	r.step++
	return true
}

// ApplyWhiteCap scales any LED whose r+g+b exceeds whiteCap*3*255 back down
// to that limit. A cap outside (0,1) disables it.
func ApplyWhiteCap(dst model.Frame, whiteCap float64) {
	if whiteCap <= 0 || whiteCap >= 1 {
		return
	}
	limit := whiteCap * 3.0 * 255.0
	for i, c := range dst {
		r, g, b := c.RGB()
		s := float64(r) + float64(g) + float64(b)
		if s > limit && s > 0 {
			k := limit / s
			dst[i] = model.RGB(byte(float64(r)*k), byte(float64(g)*k), byte(float64(b)*k))
		}
	}
}

// Dim scales every LED's alpha by brightness.
func Dim(dst model.Frame, brightness float64) {
	if brightness >= 1 {
		return
	}
	for i := range dst {
		dst[i] = dst[i].Dim(brightness)
	}
}

func hsvToRGB(h, s, v float64) (float64, float64, float64) {
	i := int(h * 6.0)
	f := h*6.0 - float64(i)
	p := v * (1.0 - s)
	q := v * (1.0 - f*s)
	t := v * (1.0 - (1.0-f)*s)
	switch i % 6 {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}
