package led

import (
	"encoding"
	"strings"

	"github.com/pkg/errors"
)

// Correction is a colour correction profile compensating for the LEDs'
// uneven channel intensities.
type Correction RGBColor

// Common colour correction profiles.
var (
	TypicalLEDStrip    = Correction{0xFF, 0xB0, 0xF0}
	TypicalPixelString = Correction{0xFF, 0xE0, 0x8C}
	UncorrectedColor   = Correction{0xFF, 0xFF, 0xFF}
)

// Temperature is the colour of a white light source, used to tint the output.
type Temperature RGBColor

// Black body radiators and common light sources.
var (
	Candle                 = Temperature{0xFF, 0x93, 0x29}
	Tungsten40W            = Temperature{0xFF, 0xC5, 0x8F}
	Tungsten100W           = Temperature{0xFF, 0xD6, 0xAA}
	Halogen                = Temperature{0xFF, 0xF1, 0xE0}
	CarbonArc              = Temperature{0xFF, 0xFA, 0xF4}
	HighNoonSun            = Temperature{0xFF, 0xFF, 0xFB}
	DirectSunlight         = Temperature{0xFF, 0xFF, 0xFF}
	OvercastSky            = Temperature{0xC9, 0xE2, 0xFF}
	ClearBlueSky           = Temperature{0x40, 0x9C, 0xFF}
	UncorrectedTemperature = Temperature{0xFF, 0xFF, 0xFF}
)

var corrections = map[string]Correction{
	"typical-led-strip":    TypicalLEDStrip,
	"typical-pixel-string": TypicalPixelString,
	"uncorrected":          UncorrectedColor,
}

var temperatures = map[string]Temperature{
	"candle":          Candle,
	"tungsten-40w":    Tungsten40W,
	"tungsten-100w":   Tungsten100W,
	"halogen":         Halogen,
	"carbon-arc":      CarbonArc,
	"high-noon-sun":   HighNoonSun,
	"direct-sunlight": DirectSunlight,
	"overcast-sky":    OvercastSky,
	"clear-blue-sky":  ClearBlueSky,
	"uncorrected":     UncorrectedTemperature,
}

var (
	_ encoding.TextUnmarshaler = (*Correction)(nil)
	_ encoding.TextUnmarshaler = (*Temperature)(nil)
)

// UnmarshalText accepts either a profile name such as "typical-led-strip" or
// an explicit #rrggbb value.
func (c *Correction) UnmarshalText(text []byte) error {
	if v, ok := corrections[strings.ToLower(string(text))]; ok {
		*c = v
		return nil
	}
	rgb, err := ParseRGBColor(string(text))
	if err != nil {
		return errors.Wrapf(err, "unknown color correction %q", text)
	}
	*c = Correction(rgb)
	return nil
}

func (c Correction) MarshalText() ([]byte, error) {
	return RGBColor(c).MarshalText()
}

// UnmarshalText accepts either a light source name such as "tungsten-40w" or
// an explicit #rrggbb value.
func (t *Temperature) UnmarshalText(text []byte) error {
	if v, ok := temperatures[strings.ToLower(string(text))]; ok {
		*t = v
		return nil
	}
	rgb, err := ParseRGBColor(string(text))
	if err != nil {
		return errors.Wrapf(err, "unknown color temperature %q", text)
	}
	*t = Temperature(rgb)
	return nil
}

func (t Temperature) MarshalText() ([]byte, error) {
	return RGBColor(t).MarshalText()
}

// Adjustment combines a correction profile and a colour temperature into the
// per-channel scale applied by the device.
func Adjustment(c Correction, t Temperature) RGBColor {
	return RGBColor{
		uint8(uint16(c[0]) * uint16(t[0]) / 255),
		uint8(uint16(c[1]) * uint16(t[1]) / 255),
		uint8(uint16(c[2]) * uint16(t[2]) / 255),
	}
}

// Emitted returns the colour a device shows for c at the given global
// brightness and adjustment.
func Emitted(c RGBColor, brightness uint8, adj RGBColor) RGBColor {
	return c.Scale(adj.Dim(brightness))
}
