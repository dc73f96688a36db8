package ledmatrix

import (
	"libdb.so/ledmatrix/led"
	"libdb.so/ledmatrix/ledserial"
)

// Driver attaches a pixel buffer to a physical LED strip.
type Driver interface {
	// Attach binds leds to the strip connected to the given data pin. order
	// is the channel order the strip expects on the wire. The returned Handle
	// reads from leds on every Commit, so the buffer must not be replaced
	// afterwards.
	Attach(pin int, order ledserial.ColorOrder, leds led.LEDs) (Handle, error)
}

// Handle is an attached LED strip.
type Handle interface {
	// SetBrightness sets the global brightness applied by the device on the
	// next Commit.
	SetBrightness(brightness uint8) error
	// SetCorrection sets the per-channel scale applied by the device on the
	// next Commit.
	SetCorrection(adj led.RGBColor) error
	// Commit pushes the attached buffer to the LEDs. It blocks until the
	// transfer is complete.
	Commit() error
	// Close releases the strip.
	Close() error
}
