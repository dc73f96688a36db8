package main

import (
	"image/color"
	"machine"

	"tinygo.org/x/drivers/ws2812"
)

// statusLED is the onboard NeoPixel of the XIAO RP2040. It is powered
// through GPIO11 and driven on GPIO12.
// https://wiki.seeedstudio.com/XIAO-RP2040-with-Arduino/
type statusLED struct {
	power       machine.Pin
	led         ws2812.Device
	initialized bool
}

var (
	statusReading = color.RGBA{R: 255, G: 255, B: 255}
	statusError   = color.RGBA{R: 255}
)

var status = statusLED{power: machine.GPIO11}

func (s *statusLED) init() {
	if s.initialized {
		return
	}

	s.power.Configure(machine.PinConfig{Mode: machine.PinOutput})
	s.power.Low()

	machine.GPIO12.Configure(machine.PinConfig{Mode: machine.PinOutput})
	s.led = ws2812.New(machine.GPIO12)
	s.initialized = true
}

func (s *statusLED) show(c color.RGBA) {
	s.init()
	s.power.High()
	s.led.WriteColors([]color.RGBA{c})
}

func (s *statusLED) off() {
	s.init()
	s.power.Low()
}
