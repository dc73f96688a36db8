package memdev

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"libdb.so/ledmatrix/led"
	"libdb.so/ledmatrix/ledserial"
)

func TestAttachInvalidOrder(t *testing.T) {
	_, err := New(nil).Attach(0, ledserial.ColorOrder(99), led.NewLEDs(1))
	assert.Error(t, err)
}

func TestHandleWireOrder(t *testing.T) {
	drv := New(nil)

	leds := led.LEDs{{0x11, 0x22, 0x33}}
	_, err := drv.Attach(0, ledserial.OrderBRG, leds)
	require.NoError(t, err)

	h := drv.Handle(0)
	require.NoError(t, h.Commit())
	assert.Equal(t, []uint8{0x33, 0x11, 0x22}, h.Wire())
}

func TestHandle(t *testing.T) {
	drv := New(nil)

	leds := led.NewLEDs(2)
	_, err := drv.Attach(3, ledserial.OrderRGB, leds)
	require.NoError(t, err)

	h := drv.Handle(3)
	require.NotNil(t, h)
	assert.Nil(t, drv.Handle(4))

	_, err = drv.Attach(3, ledserial.OrderRGB, led.NewLEDs(1))
	assert.Error(t, err, "pin 3 is taken")

	require.NoError(t, h.SetBrightness(128))
	require.NoError(t, h.SetCorrection(led.RGBColor{255, 255, 0}))

	leds[0] = led.White
	require.NoError(t, h.Commit())

	// The frame is a copy of the buffer at commit time.
	leds[1] = led.Red
	assert.Equal(t, led.LEDs{led.White, led.Black}, h.Frame())
	assert.Equal(t, led.LEDs{{128, 128, 0}, led.Black}, h.Emitted())
	assert.Equal(t, 1, h.Commits())
	assert.Equal(t, ledserial.OrderRGB, h.Order())
	assert.Equal(t, []uint8{128, 128, 0, 0, 0, 0}, h.Wire())
	assert.Equal(t, uint8(128), h.Brightness())
	assert.Equal(t, led.RGBColor{255, 255, 0}, h.Correction())

	require.NoError(t, h.Close())
	assert.True(t, h.Closed())
	assert.ErrorIs(t, h.Commit(), ErrClosed)
	assert.ErrorIs(t, h.SetBrightness(1), ErrClosed)

	_, err = drv.Attach(3, ledserial.OrderGRB, led.NewLEDs(1))
	assert.NoError(t, err, "pin 3 is free again")
}
