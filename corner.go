package ledmatrix

import (
	"encoding"
	"fmt"
)

// Corner is the corner of the matrix in which the strip begins. It combines
// two independent flags: whether the strip starts at the bottom and whether
// it starts on the right.
type Corner uint8

const (
	cornerRight Corner = 1 << iota
	cornerBottom
)

const (
	TopLeft     Corner = 0
	TopRight    Corner = cornerRight
	BottomLeft  Corner = cornerBottom
	BottomRight Corner = cornerBottom | cornerRight
)

var (
	_ encoding.TextUnmarshaler = (*Corner)(nil)
	_ encoding.TextMarshaler   = (*Corner)(nil)
)

// NewCorner returns the corner described by the two flags.
func NewCorner(bottom, right bool) Corner {
	var c Corner
	if bottom {
		c |= cornerBottom
	}
	if right {
		c |= cornerRight
	}
	return c
}

// Bottom reports whether the strip starts in the bottom row.
func (c Corner) Bottom() bool { return c&cornerBottom != 0 }

// Right reports whether the strip starts in the rightmost column.
func (c Corner) Right() bool { return c&cornerRight != 0 }

func (c Corner) String() string {
	switch c {
	case TopLeft:
		return "top-left"
	case TopRight:
		return "top-right"
	case BottomLeft:
		return "bottom-left"
	case BottomRight:
		return "bottom-right"
	default:
		return fmt.Sprintf("Corner(%d)", uint8(c))
	}
}

func (c *Corner) UnmarshalText(text []byte) error {
	for _, corner := range []Corner{TopLeft, TopRight, BottomLeft, BottomRight} {
		if corner.String() == string(text) {
			*c = corner
			return nil
		}
	}
	return fmt.Errorf("unknown corner %q", text)
}

func (c Corner) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}
