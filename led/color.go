// Package led contains the colour types shared by strip controllers and
// devices: RGB colours, HSV triples, 16-entry palettes and colour correction
// profiles.
package led

import (
	"encoding"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// RGBColor is a colour with 8 bits per channel, in R, G, B order.
type RGBColor [3]uint8

var (
	_ encoding.TextUnmarshaler = (*RGBColor)(nil)
	_ encoding.TextMarshaler   = (*RGBColor)(nil)
)

// Named colours.
var (
	Black   = RGBColor{0x00, 0x00, 0x00}
	White   = RGBColor{0xFF, 0xFF, 0xFF}
	Red     = RGBColor{0xFF, 0x00, 0x00}
	Green   = RGBColor{0x00, 0xFF, 0x00}
	Blue    = RGBColor{0x00, 0x00, 0xFF}
	Yellow  = RGBColor{0xFF, 0xFF, 0x00}
	Cyan    = RGBColor{0x00, 0xFF, 0xFF}
	Magenta = RGBColor{0xFF, 0x00, 0xFF}
)

// Off is the colour of an unlit LED.
var Off = Black

// RGB returns a colour from its three channels.
func RGB(r, g, b uint8) RGBColor {
	return RGBColor{r, g, b}
}

// R returns the red channel.
func (c RGBColor) R() uint8 { return c[0] }

// G returns the green channel.
func (c RGBColor) G() uint8 { return c[1] }

// B returns the blue channel.
func (c RGBColor) B() uint8 { return c[2] }

// Scale scales each channel of c by the matching channel of adj, treating
// 255 as 1.0.
func (c RGBColor) Scale(adj RGBColor) RGBColor {
	return RGBColor{
		scale8(c[0], adj[0]),
		scale8(c[1], adj[1]),
		scale8(c[2], adj[2]),
	}
}

// Dim scales all channels of c by brightness/255.
func (c RGBColor) Dim(brightness uint8) RGBColor {
	return c.Scale(RGBColor{brightness, brightness, brightness})
}

// String returns the colour as #rrggbb.
func (c RGBColor) String() string {
	return "#" + hex.EncodeToString(c[:])
}

// ParseRGBColor parses a colour in the form #rrggbb or rrggbb.
func ParseRGBColor(s string) (RGBColor, error) {
	var c RGBColor
	if err := c.UnmarshalText([]byte(s)); err != nil {
		return c, err
	}
	return c, nil
}

func (c *RGBColor) UnmarshalText(text []byte) error {
	s := strings.TrimPrefix(string(text), "#")
	if len(s) != 6 {
		return fmt.Errorf("invalid color %q: want #rrggbb", text)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return errors.Wrapf(err, "invalid color %q", text)
	}
	copy(c[:], b)
	return nil
}

func (c RGBColor) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// scale8 returns v*scale/256 with 255 treated as a no-op, the same rounding
// the device firmware uses.
func scale8(v, scale uint8) uint8 {
	return uint8((uint16(v) * (1 + uint16(scale))) >> 8)
}
