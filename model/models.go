package model

// Frame is one color per LED in strip order.
type Frame []Color

func NewFrame(n int) Frame {
	return make(Frame, n)
}

// Fill sets every LED to c.
func (f Frame) Fill(c Color) {
	for i := range f {
		f[i] = c
	}
}

// Clear turns every LED off.
func (f Frame) Clear() {
	f.Fill(Off)
}

// Serialize returns the alpha-scaled channels in wire order, three bytes per
// LED: green, red, blue.
func (f Frame) Serialize() []byte {
	buf := make([]byte, 0, 3*len(f))
	for _, c := range f {
		r, g, b := c.RGB()
		buf = append(buf, g, r, b)
	}
	return buf
}

// RGB returns the alpha-scaled channels as red, green, blue per LED.
func (f Frame) RGB() []byte {
	buf := make([]byte, 0, 3*len(f))
	for _, c := range f {
		r, g, b := c.RGB()
		buf = append(buf, r, g, b)
	}
	return buf
}
