package ledmatrix_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"libdb.so/ledmatrix"
	"libdb.so/ledmatrix/led"
)

func TestBrightnessAdopter_Disabled(t *testing.T) {
	s, _ := newTestStrip(t, 4)
	s.FillAll(led.RGBColor{100, 50, 25})
	before := s.LEDs().Clone()

	a := ledmatrix.NewBrightnessAdopter(s)
	assert.False(t, a.Enabled())

	assert.NoError(t, a.AdoptPixel(-50, 1))
	assert.NoError(t, a.AdoptPixel(-50, 99))
	a.Adopt(80, ledmatrix.Full)
	assert.Equal(t, before, s.LEDs())

	_, ok := a.Value(0)
	assert.False(t, ok)
}

func TestBrightnessAdopter_Clamps(t *testing.T) {
	s, _ := newTestStrip(t, 3)
	require.NoError(t, s.SetPixel(led.RGBColor{250, 0, 0}, 1))

	a := ledmatrix.NewBrightnessAdopter(s)
	a.Enable()
	require.True(t, a.Enabled())

	v, ok := a.Value(1)
	require.True(t, ok)
	require.Equal(t, uint8(250), v)

	require.NoError(t, a.AdoptPixel(50, 1))
	v, _ = a.Value(1)
	assert.Equal(t, uint8(255), v)
	assert.Equal(t, led.RGBColor{255, 0, 0}, s.LEDs()[1])

	require.NoError(t, a.AdoptPixel(-50, 1))
	v, _ = a.Value(1)
	assert.Equal(t, uint8(205), v, "clamping is not undone")
	assert.Equal(t, led.RGBColor{205, 0, 0}, s.LEDs()[1])

	require.NoError(t, a.AdoptPixel(-300, 1))
	v, _ = a.Value(1)
	assert.Equal(t, uint8(0), v)
	assert.Equal(t, led.Off, s.LEDs()[1])
}

func TestBrightnessAdopter_RoundTrip(t *testing.T) {
	s, _ := newTestStrip(t, 1)
	require.NoError(t, s.SetPixel(led.RGBColor{0, 200, 0}, 0))

	a := ledmatrix.NewBrightnessAdopter(s)
	a.Enable()

	require.NoError(t, a.AdoptPixel(-40, 0))
	assert.Equal(t, led.RGBColor{0, 160, 0}, s.LEDs()[0])
	require.NoError(t, a.AdoptPixel(40, 0))
	assert.Equal(t, led.RGBColor{0, 200, 0}, s.LEDs()[0])
}

func TestBrightnessAdopter_Range(t *testing.T) {
	s, _ := newTestStrip(t, 6)
	s.FillAll(led.RGBColor{0, 0, 200})

	a := ledmatrix.NewBrightnessAdopter(s)
	a.Enable()
	a.Adopt(-100, ledmatrix.Span(4, 2))

	want := led.LEDs{
		{0, 0, 200}, {0, 0, 200},
		{0, 0, 100}, {0, 0, 100}, {0, 0, 100},
		{0, 0, 200},
	}
	assert.Equal(t, want, s.LEDs())

	err := a.AdoptPixel(10, 6)
	assert.ErrorIs(t, err, ledmatrix.ErrIndexOutOfRange)
}

func TestBrightnessAdopter_Stale(t *testing.T) {
	s, _ := newTestStrip(t, 2)
	s.FillAll(led.RGBColor{100, 0, 0})

	a := ledmatrix.NewBrightnessAdopter(s)
	a.Enable()

	// The shadow still holds red after the strip was refilled directly.
	s.FillAll(led.RGBColor{0, 100, 0})
	require.NoError(t, a.AdoptPixel(0, 0))
	assert.Equal(t, led.RGBColor{100, 0, 0}, s.LEDs()[0])

	a.Enable()
	require.NoError(t, a.AdoptPixel(0, 1))
	assert.Equal(t, led.RGBColor{0, 100, 0}, s.LEDs()[1])
}
