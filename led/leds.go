package led

import (
	"io"
	"unsafe"
)

// LEDs describes a strip of LEDs. It is a preallocated slice of RGBColor.
type LEDs []RGBColor

// NewLEDs creates a new strip of LEDs. Colors are initialized to black
// (off).
func NewLEDs(numLEDs int) LEDs {
	return make(LEDs, numLEDs)
}

// WriteTo implements io.WriterTo. It writes the LED strip to the given writer
// as a series of RGBColor values.
func (l LEDs) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(l.AsPixels())
	return int64(n), err
}

// AsPixels returns the LED strip as a slice of uint8 values. Each LED is
// represented by three values, one for each color channel. The returned slice
// aliases l.
func (l LEDs) AsPixels() []uint8 {
	if len(l) == 0 {
		return nil
	}
	return unsafe.Slice((*uint8)(unsafe.Pointer(&l[0])), 3*len(l))
}

// FromPixels copies packed RGB triples into l and returns the number of LEDs
// written.
func (l LEDs) FromPixels(pix []uint8) int {
	var i int
	for ; i < len(l) && 3*i+2 < len(pix); i++ {
		l[i] = RGBColor{pix[3*i], pix[3*i+1], pix[3*i+2]}
	}
	return i
}

// Fill sets the color of the LEDs in the inclusive range [first, last]. The
// caller is responsible for the bounds.
func (l LEDs) Fill(first, last int, c RGBColor) {
	for i := first; i <= last; i++ {
		l[i] = c
	}
}

// Clone returns a copy of l.
func (l LEDs) Clone() LEDs {
	return append(LEDs(nil), l...)
}
