package ledmatrix

import "libdb.so/ledmatrix/led"

// BrightnessAdopter dims or brightens single LEDs of a Strip while keeping
// their hue and saturation. It keeps an HSV shadow copy of the strip's
// buffer, which is only built by Enable.
//
// The shadow is not updated by fills on the Strip itself. Call Enable again
// after changing colours outside the adopter.
type BrightnessAdopter struct {
	strip  *Strip
	shadow []led.HSV
}

// NewBrightnessAdopter returns a disabled adopter for s.
func NewBrightnessAdopter(s *Strip) *BrightnessAdopter {
	return &BrightnessAdopter{strip: s}
}

// Enable (re)builds the HSV shadow from the strip's current colours. This
// converts every LED and should not be called per frame.
func (a *BrightnessAdopter) Enable() {
	leds := a.strip.LEDs()
	if cap(a.shadow) < len(leds) {
		a.shadow = make([]led.HSV, len(leds))
	}
	a.shadow = a.shadow[:len(leds)]
	for i, c := range leds {
		a.shadow[i] = led.RGBToHSV(c)
	}
	a.strip.logger.Debug("brightness adoption enabled", "leds", len(leds))
}

// Enabled reports whether Enable has been called.
func (a *BrightnessAdopter) Enabled() bool {
	return a.shadow != nil
}

// Value returns the shadow HSV value of the LED at index i. ok is false if
// the adopter is disabled or i is out of range.
func (a *BrightnessAdopter) Value(i int) (v uint8, ok bool) {
	if i < 0 || i >= len(a.shadow) {
		return 0, false
	}
	return a.shadow[i].Value, true
}

// AdoptPixel changes the brightness of the LED at index i by diff, clamped
// to [0, 255]. It does nothing if the adopter is not enabled.
func (a *BrightnessAdopter) AdoptPixel(diff int16, i int) error {
	if !a.Enabled() {
		return nil
	}
	if err := a.strip.checkIndex(i); err != nil {
		return err
	}
	a.adopt(diff, i)
	return nil
}

// Adopt changes the brightness of every LED in r by diff. It does nothing if
// the adopter is not enabled.
func (a *BrightnessAdopter) Adopt(diff int16, r Range) {
	if !a.Enabled() {
		return
	}
	checked, ok := a.strip.CheckRange(r)
	if !ok {
		return
	}
	for i := checked.First; i <= checked.Last; i++ {
		a.adopt(diff, i)
	}
}

func (a *BrightnessAdopter) adopt(diff int16, i int) {
	v := int(a.shadow[i].Value) + int(diff)
	a.shadow[i].Value = uint8(min(max(v, 0), 255))
	a.strip.leds[i] = a.shadow[i].RGB()
}
