package ledmatrix

import (
	"log/slog"

	"github.com/pkg/errors"
	"libdb.so/ledmatrix/led"
)

// Strip controls a single LED strip through an in-memory pixel buffer.
// Changes to the buffer only become visible after Show.
//
// A Strip is not safe for concurrent use.
type Strip struct {
	leds       led.LEDs
	handle     Handle
	brightness uint8
	logger     *slog.Logger
}

// NewStrip attaches a strip of cfg.Count LEDs through drv. The colour
// correction and initial brightness are applied and the (blank) buffer is
// shown once before returning.
func NewStrip(drv Driver, cfg StripConfig, logger *slog.Logger) (*Strip, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid strip configuration")
	}
	if logger == nil {
		logger = slog.Default()
	}

	leds := led.NewLEDs(cfg.Count)

	handle, err := drv.Attach(cfg.Pin, cfg.Order, leds)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to attach strip on pin %d", cfg.Pin)
	}

	s := &Strip{
		leds:   leds,
		handle: handle,
		logger: logger,
	}

	adj := led.Adjustment(cfg.correction(), cfg.temperature())
	if err := handle.SetCorrection(adj); err != nil {
		handle.Close()
		return nil, errors.Wrap(err, "failed to set color correction")
	}

	if err := s.SetBrightness(cfg.Brightness); err != nil {
		handle.Close()
		return nil, err
	}

	if err := s.Show(); err != nil {
		handle.Close()
		return nil, err
	}

	logger.Debug(
		"strip attached",
		"pin", cfg.Pin,
		"count", cfg.Count,
		"brightness", cfg.Brightness,
		"order", cfg.Order,
		"correction", adj)

	return s, nil
}

// Len returns the number of LEDs in the strip.
func (s *Strip) Len() int {
	return len(s.leds)
}

// LEDs returns the live pixel buffer.
func (s *Strip) LEDs() led.LEDs {
	return s.leds
}

// Pixel returns the buffered colour of the LED at index i.
func (s *Strip) Pixel(i int) (led.RGBColor, error) {
	if err := s.checkIndex(i); err != nil {
		return led.RGBColor{}, err
	}
	return s.leds[i], nil
}

// CheckRange normalizes r against the strip: reversed ranges are swapped and
// the range is clamped to [0, Len()-1]. ok is false when no index remains.
func (s *Strip) CheckRange(r Range) (_ Range, ok bool) {
	return r.normalize(len(s.leds))
}

// SetPixel sets the LED at index i to c.
func (s *Strip) SetPixel(c led.RGBColor, i int) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}
	s.leds[i] = c
	return nil
}

// Fill sets every LED in r to c. Use Full for the whole strip.
func (s *Strip) Fill(c led.RGBColor, r Range) {
	checked, ok := s.CheckRange(r)
	if !ok {
		return
	}
	s.leds.Fill(checked.First, checked.Last, c)
}

// FillAll sets every LED to c.
func (s *Strip) FillAll(c led.RGBColor) {
	s.Fill(c, Full)
}

// SetPixelFromPalette sets the LED at index i to the palette colour at
// colorIndex.
//
// The two modes read colorIndex differently. With blend, the high nibble picks
// the palette entry and the low nibble blends toward the next one, so 0x10 is
// entry 1. Without blend, the low nibble is the entry itself and the high
// nibble is ignored, so 0x10 is entry 0 and 0x01 is entry 1.
func (s *Strip) SetPixelFromPalette(p *led.Palette16, colorIndex uint8, i int, blend bool) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}
	s.leds[i] = paletteColor(p, colorIndex, blend)
	return nil
}

// FillFromPalette sets every LED in r to the palette colour at colorIndex.
// See SetPixelFromPalette.
func (s *Strip) FillFromPalette(p *led.Palette16, colorIndex uint8, r Range, blend bool) {
	checked, ok := s.CheckRange(r)
	if !ok {
		return
	}
	s.leds.Fill(checked.First, checked.Last, paletteColor(p, colorIndex, blend))
}

// SetBrightness sets the global brightness used from the next Show on.
func (s *Strip) SetBrightness(brightness uint8) error {
	if err := s.handle.SetBrightness(brightness); err != nil {
		return errors.Wrap(err, "failed to set brightness")
	}
	s.brightness = brightness
	return nil
}

// Brightness returns the global brightness.
func (s *Strip) Brightness() uint8 {
	return s.brightness
}

// Show pushes the buffer to the LEDs. It blocks until the device has
// received the whole frame.
func (s *Strip) Show() error {
	if err := s.handle.Commit(); err != nil {
		return errors.Wrap(err, "failed to show LEDs")
	}
	return nil
}

// Reset turns all LEDs off and shows the result.
func (s *Strip) Reset() error {
	s.FillAll(led.Off)
	return s.Show()
}

// Close releases the underlying device handle.
func (s *Strip) Close() error {
	return s.handle.Close()
}

func (s *Strip) checkIndex(i int) error {
	if i < 0 || i >= len(s.leds) {
		return errors.Wrapf(ErrIndexOutOfRange, "index %d, strip has %d LEDs", i, len(s.leds))
	}
	return nil
}

func paletteColor(p *led.Palette16, colorIndex uint8, blend bool) led.RGBColor {
	if blend {
		return led.ColorFromPalette(p, colorIndex, 255, led.LinearBlend)
	}
	return p.At(colorIndex)
}
