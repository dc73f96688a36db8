package ledmatrix_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"libdb.so/ledmatrix"
	"libdb.so/ledmatrix/internal/memdev"
	"libdb.so/ledmatrix/led"
)

func newTestStrip(t *testing.T, count int) (*ledmatrix.Strip, *memdev.Handle) {
	t.Helper()

	drv := memdev.New(nil)
	s, err := ledmatrix.NewStrip(drv, ledmatrix.StripConfig{Pin: 6, Count: count, Brightness: 255}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s, drv.Handle(6)
}

func litIndices(leds led.LEDs) []int {
	var lit []int
	for i, c := range leds {
		if c != led.Off {
			lit = append(lit, i)
		}
	}
	return lit
}

func TestNewStrip(t *testing.T) {
	drv := memdev.New(nil)
	s, err := ledmatrix.NewStrip(drv, ledmatrix.StripConfig{
		Pin:         3,
		Count:       10,
		Brightness:  64,
		Correction:  led.UncorrectedColor,
		Temperature: led.Candle,
	}, nil)
	require.NoError(t, err)

	h := drv.Handle(3)
	require.NotNil(t, h)
	assert.Equal(t, 10, s.Len())
	assert.Equal(t, uint8(64), s.Brightness())
	assert.Equal(t, uint8(64), h.Brightness())
	assert.Equal(t, led.RGBColor(led.Candle), h.Correction())
	assert.Equal(t, 1, h.Commits())
	assert.Equal(t, led.NewLEDs(10), h.Frame())

	_, err = ledmatrix.NewStrip(drv, ledmatrix.StripConfig{Pin: 3, Count: 10}, nil)
	assert.Error(t, err, "pin is already attached")

	require.NoError(t, s.Close())
	assert.True(t, h.Closed())
}

func TestNewStrip_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  ledmatrix.StripConfig
	}{
		{"no leds", ledmatrix.StripConfig{Count: 0}},
		{"too many leds", ledmatrix.StripConfig{Count: ledmatrix.MaxLEDs + 1}},
		{"negative pin", ledmatrix.StripConfig{Pin: -1, Count: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ledmatrix.NewStrip(memdev.New(nil), tt.cfg, nil)
			assert.Error(t, err)
		})
	}
}

func TestStrip_CheckRange(t *testing.T) {
	s, _ := newTestStrip(t, 10)

	tests := []struct {
		name   string
		input  ledmatrix.Range
		want   ledmatrix.Range
		wantOK bool
	}{
		{"ordered", ledmatrix.Span(2, 5), ledmatrix.Span(2, 5), true},
		{"reversed", ledmatrix.Span(5, 2), ledmatrix.Span(2, 5), true},
		{"single", ledmatrix.Single(4), ledmatrix.Span(4, 4), true},
		{"clamped", ledmatrix.Span(7, 20), ledmatrix.Span(7, 9), true},
		{"reversed and clamped", ledmatrix.Span(20, 7), ledmatrix.Span(7, 9), true},
		{"full", ledmatrix.Full, ledmatrix.Span(0, 9), true},
		{"negative", ledmatrix.Span(-3, 1), ledmatrix.Span(0, 1), true},
		{"past the end", ledmatrix.Span(12, 15), ledmatrix.Span(12, 9), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := s.CheckRange(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStrip_Fill_ReversedRangeMatchesSwapped(t *testing.T) {
	const n = 8
	for first := 0; first < n+2; first++ {
		for last := 0; last < first; last++ {
			s1, _ := newTestStrip(t, n)
			s1.Fill(led.Red, ledmatrix.Span(first, last))

			s2, _ := newTestStrip(t, n)
			s2.Fill(led.Red, ledmatrix.Span(last, first))

			assert.Equal(t, s2.LEDs(), s1.LEDs(), "range [%d, %d]", first, last)
		}
	}
}

func TestStrip_Fill(t *testing.T) {
	s, _ := newTestStrip(t, 12)

	s.Fill(led.Green, ledmatrix.Span(3, 5))
	assert.Equal(t, []int{3, 4, 5}, litIndices(s.LEDs()))

	s.FillAll(led.Blue)
	for i, c := range s.LEDs() {
		assert.Equal(t, led.Blue, c, "index %d", i)
	}
	assert.Len(t, s.LEDs(), 12)
}

func TestStrip_Fill_Degenerate(t *testing.T) {
	s, _ := newTestStrip(t, 5)

	s.Fill(led.White, ledmatrix.Span(5, 9))
	s.Fill(led.White, ledmatrix.Span(-4, -1))
	assert.Empty(t, litIndices(s.LEDs()))
}

func TestStrip_SetPixel(t *testing.T) {
	s, _ := newTestStrip(t, 5)

	require.NoError(t, s.SetPixel(led.Red, 4))
	c, err := s.Pixel(4)
	require.NoError(t, err)
	assert.Equal(t, led.Red, c)

	for _, i := range []int{-1, 5, 100} {
		err := s.SetPixel(led.Red, i)
		assert.True(t, errors.Is(err, ledmatrix.ErrIndexOutOfRange), "index %d: %v", i, err)
		_, err = s.Pixel(i)
		assert.ErrorIs(t, err, ledmatrix.ErrIndexOutOfRange)
	}
	assert.Equal(t, []int{4}, litIndices(s.LEDs()))
}

func TestStrip_FillFromPalette(t *testing.T) {
	var p led.Palette16
	p[0] = led.RGBColor{0, 0, 0}
	p[1] = led.RGBColor{200, 100, 0}
	p[8] = led.RGBColor{1, 2, 3}

	s, _ := newTestStrip(t, 6)

	require.NoError(t, s.SetPixelFromPalette(&p, 8, 0, false))
	require.NoError(t, s.SetPixelFromPalette(&p, 8, 1, true))
	require.NoError(t, s.SetPixelFromPalette(&p, 0x10, 2, true))
	assert.Equal(t, led.RGBColor{1, 2, 3}, s.LEDs()[0])
	assert.Equal(t, led.RGBColor{100, 50, 0}, s.LEDs()[1])
	assert.Equal(t, led.RGBColor{200, 100, 0}, s.LEDs()[2])

	err := s.SetPixelFromPalette(&p, 1, 6, false)
	assert.ErrorIs(t, err, ledmatrix.ErrIndexOutOfRange)

	s.FillFromPalette(&p, 1, ledmatrix.Span(5, 3), false)
	for i := 3; i <= 5; i++ {
		assert.Equal(t, p[1], s.LEDs()[i])
	}

	s.FillFromPalette(&p, 8, ledmatrix.Full, true)
	for i := range s.LEDs() {
		assert.Equal(t, led.ColorFromPalette(&p, 8, 255, led.LinearBlend), s.LEDs()[i])
	}
}

func TestStrip_SetPixelFromPaletteIndexing(t *testing.T) {
	var p led.Palette16
	p[0] = led.Red
	p[1] = led.Blue

	s, _ := newTestStrip(t, 3)

	// Unblended lookups use the low nibble, blended ones the high nibble.
	require.NoError(t, s.SetPixelFromPalette(&p, 0x10, 0, false))
	require.NoError(t, s.SetPixelFromPalette(&p, 0x10, 1, true))
	require.NoError(t, s.SetPixelFromPalette(&p, 0x01, 2, false))
	assert.Equal(t, led.Red, s.LEDs()[0])
	assert.Equal(t, led.Blue, s.LEDs()[1])
	assert.Equal(t, led.Blue, s.LEDs()[2])
}

func TestStrip_ShowAndReset(t *testing.T) {
	s, h := newTestStrip(t, 4)
	require.Equal(t, 1, h.Commits())

	s.Fill(led.Red, ledmatrix.Span(0, 1))
	assert.Equal(t, led.NewLEDs(4), h.Frame(), "nothing is shown before Show")

	require.NoError(t, s.Show())
	assert.Equal(t, 2, h.Commits())
	assert.Equal(t, led.LEDs{led.Red, led.Red, led.Off, led.Off}, h.Frame())

	require.NoError(t, s.SetBrightness(128))
	assert.Equal(t, led.LEDs{{128, 0, 0}, {128, 0, 0}, led.Off, led.Off}, h.Emitted())

	require.NoError(t, s.Reset())
	assert.Equal(t, 3, h.Commits())
	assert.Equal(t, led.NewLEDs(4), h.Frame())
}

func TestStrip_ShowAfterClose(t *testing.T) {
	s, _ := newTestStrip(t, 4)
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Show(), memdev.ErrClosed)
}
