package ledmatrix

import (
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
	"libdb.so/ledmatrix/led"
)

// Dot is a position on the matrix. Coordinates are 0-based with the origin in
// the top-left corner, X growing to the right and Y growing downwards,
// regardless of where the strip is wired in.
type Dot struct {
	X int
	Y int
}

func (d Dot) String() string {
	return fmt.Sprintf("(%d, %d)", d.X, d.Y)
}

// Matrix is a grid of LEDs made from a single strip laid out in a serpentine
// pattern: the strip runs along one row, turns and runs back along the next.
type Matrix struct {
	strip  *Strip
	width  int
	height int
	corner Corner
}

// NewMatrix attaches a strip of cfg.Width * cfg.Height LEDs through drv and
// returns the matrix on top of it.
func NewMatrix(drv Driver, cfg MatrixConfig, logger *slog.Logger) (*Matrix, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid matrix configuration")
	}

	strip, err := NewStrip(drv, cfg.StripConfig(), logger)
	if err != nil {
		return nil, err
	}

	return &Matrix{
		strip:  strip,
		width:  cfg.Width,
		height: cfg.Height,
		corner: cfg.Start,
	}, nil
}

// Strip returns the underlying strip for direct pixel access.
func (m *Matrix) Strip() *Strip {
	return m.strip
}

// Width returns the number of dots per row.
func (m *Matrix) Width() int { return m.width }

// Height returns the number of rows.
func (m *Matrix) Height() int { return m.height }

// Corner returns the corner the strip starts in.
func (m *Matrix) Corner() Corner { return m.corner }

// Contains reports whether d lies on the matrix.
func (m *Matrix) Contains(d Dot) bool {
	return d.X >= 0 && d.X < m.width && d.Y >= 0 && d.Y < m.height
}

// IndexOf returns the strip index of the LED at d.
func (m *Matrix) IndexOf(d Dot) (int, error) {
	if !m.Contains(d) {
		return 0, errors.Wrapf(ErrDotOutOfBounds, "dot %s on %dx%d matrix", d, m.width, m.height)
	}
	return m.indexOf(d), nil
}

// indexOf maps d as seen from the top-left corner to the wiring's own
// coordinates, in which row 0 runs left to right.
func (m *Matrix) indexOf(d Dot) int {
	x, y := d.X, d.Y
	if m.corner.Right() {
		x = m.width - 1 - x
	}
	if m.corner.Bottom() {
		y = m.height - 1 - y
	}
	if y%2 == 1 {
		x = m.width - 1 - x
	}
	return y*m.width + x
}

// SetDot sets the LED at d to c.
func (m *Matrix) SetDot(d Dot, c led.RGBColor) error {
	i, err := m.IndexOf(d)
	if err != nil {
		return err
	}
	return m.strip.SetPixel(c, i)
}

// FillRow sets the dots fromX to toX (inclusive) of the given row to c. The
// span is clamped to the matrix; nothing is written if it lies outside. If
// show is true, the strip is shown afterwards.
func (m *Matrix) FillRow(row, fromX, toX int, c led.RGBColor, show bool) error {
	m.fillRow(row, fromX, toX, c)
	if show {
		return m.strip.Show()
	}
	return nil
}

// FillRect sets all dots of the rectangle spanned by topLeft and bottomRight
// (inclusive) to c, row by row. If show is true, the strip is shown once all
// rows are written.
func (m *Matrix) FillRect(topLeft, bottomRight Dot, c led.RGBColor, show bool) error {
	fromY, toY := topLeft.Y, bottomRight.Y
	if fromY > toY {
		fromY, toY = toY, fromY
	}
	fromY = max(fromY, 0)
	toY = min(toY, m.height-1)

	for y := fromY; y <= toY; y++ {
		m.fillRow(y, topLeft.X, bottomRight.X, c)
	}

	if show {
		return m.strip.Show()
	}
	return nil
}

// Fill sets every dot to c.
func (m *Matrix) Fill(c led.RGBColor) {
	m.strip.FillAll(c)
}

// Show pushes the matrix to the LEDs.
func (m *Matrix) Show() error {
	return m.strip.Show()
}

// Reset turns all dots off and shows the result.
func (m *Matrix) Reset() error {
	return m.strip.Reset()
}

// Close releases the underlying strip.
func (m *Matrix) Close() error {
	return m.strip.Close()
}

// A row is contiguous on the strip, so any span of it is a single range.
func (m *Matrix) fillRow(row, fromX, toX int, c led.RGBColor) {
	if row < 0 || row >= m.height {
		return
	}
	if fromX > toX {
		fromX, toX = toX, fromX
	}
	fromX = max(fromX, 0)
	toX = min(toX, m.width-1)
	if fromX > toX {
		return
	}

	r := Span(m.indexOf(Dot{fromX, row}), m.indexOf(Dot{toX, row}))
	m.strip.Fill(c, r)
}
