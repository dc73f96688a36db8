package led

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// HSV is a hue-saturation-value triple. Hue is in degrees [0, 360),
// Saturation in [0, 1] and Value in [0, 255] so that it can be adjusted with
// the same arithmetic as a brightness.
type HSV struct {
	Hue        float64
	Saturation float64
	Value      uint8
}

// RGBToHSV converts c to HSV. The value channel is rounded to 8 bits, which
// makes the conversion approximate.
func RGBToHSV(c RGBColor) HSV {
	h, s, v := toColorful(c).Hsv()
	return HSV{
		Hue:        h,
		Saturation: s,
		Value:      uint8(math.Round(v * 255)),
	}
}

// HSVToRGB converts hsv back to an RGB colour.
func HSVToRGB(hsv HSV) RGBColor {
	return fromColorful(colorful.Hsv(math.Mod(hsv.Hue, 360), hsv.Saturation, float64(hsv.Value)/255))
}

// RGB converts hsv to an RGB colour.
func (hsv HSV) RGB() RGBColor {
	return HSVToRGB(hsv)
}

func toColorful(c RGBColor) colorful.Color {
	return colorful.Color{
		R: float64(c[0]) / 255,
		G: float64(c[1]) / 255,
		B: float64(c[2]) / 255,
	}
}

func fromColorful(c colorful.Color) RGBColor {
	r, g, b := c.Clamped().RGB255()
	return RGBColor{r, g, b}
}
