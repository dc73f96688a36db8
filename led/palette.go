package led

import (
	"image"
	"image/color"
	"math/rand"

	"github.com/ericpauley/go-quantize/quantize"
)

// Palette16 is a table of 16 colours addressed by an 8-bit index. The upper
// four bits of the index select an entry, the lower four bits the position
// between that entry and the next one.
type Palette16 [16]RGBColor

// BlendMode selects how ColorFromPalette treats the lower four index bits.
type BlendMode uint8

const (
	// NoBlend returns the palette entry selected by the upper index bits.
	NoBlend BlendMode = iota
	// LinearBlend interpolates linearly between the selected entry and the
	// next one, wrapping from the last entry to the first.
	LinearBlend
)

// At returns the raw palette entry at index. Indices wrap modulo 16.
func (p *Palette16) At(index uint8) RGBColor {
	return p[index&0x0F]
}

// ColorFromPalette looks up index in p, blending according to mode, and
// scales the result by brightness/255.
func ColorFromPalette(p *Palette16, index uint8, brightness uint8, mode BlendMode) RGBColor {
	hi := index >> 4
	lo := index & 0x0F

	c := p[hi]
	if mode == LinearBlend && lo != 0 {
		next := p[(hi+1)&0x0F]
		c = fromColorful(toColorful(c).BlendRgb(toColorful(next), float64(lo)/16))
	}

	if brightness != 255 {
		c = c.Dim(brightness)
	}
	return c
}

// NewGradientPalette16 returns a palette that fades linearly from one colour
// to another over its 16 entries.
func NewGradientPalette16(from, to RGBColor) Palette16 {
	var p Palette16
	for i := range p {
		p[i] = fromColorful(toColorful(from).BlendRgb(toColorful(to), float64(i)/15))
	}
	return p
}

// RandomPalette16 returns a palette of 16 random fully saturated hues. A nil
// rnd uses the global source.
func RandomPalette16(rnd *rand.Rand) Palette16 {
	hue := rand.Float64
	if rnd != nil {
		hue = rnd.Float64
	}

	var p Palette16
	for i := range p {
		p[i] = HSVToRGB(HSV{Hue: hue() * 360, Saturation: 1, Value: 255})
	}
	return p
}

// PaletteFromImage reduces img to its 16 most representative colours using
// median cut quantization. When the image has fewer colours, the remaining
// entries repeat the palette from the start.
func PaletteFromImage(img image.Image) Palette16 {
	q := quantize.MedianCutQuantizer{}
	colors := q.Quantize(make(color.Palette, 0, len(Palette16{})), img)

	var p Palette16
	if len(colors) == 0 {
		return p
	}
	for i := range p {
		p[i] = colorToRGB(colors[i%len(colors)])
	}
	return p
}

func colorToRGB(c color.Color) RGBColor {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return RGBColor{n.R, n.G, n.B}
}
