package main

import (
	"fmt"
	"machine"

	"libdb.so/ledmatrix/ledserial"
	"tinygo.org/x/drivers/ws2812"
)

// Device stores the current state of the device.
type Device struct {
	serial SerialReadWriter
	led    ws2812.Device
	pin    machine.Pin

	numLEDs    uint16
	order      ledserial.ColorOrder
	pix        []byte
	wire       []byte
	brightness uint8
	correction [3]uint8
}

// NewDevice creates a new device. No strip is attached until the host sends
// an initialize packet.
func NewDevice(serial machine.Serialer) *Device {
	return &Device{
		serial:     WrapSerial(serial),
		pin:        machine.NoPin,
		brightness: 255,
		correction: [3]uint8{255, 255, 255},
	}
}

// Run runs the device loop forever.
func (d *Device) Run() {
	for {
		p, err := d.readPacket()
		if err != nil {
			d.logError(ledserial.TypeUnreadablePacket, err)
			continue
		}

		d.log(fmt.Sprintf("received packet: %s", p.Type()))

		if err := d.handlePacket(p); err != nil {
			d.logError(p.Type(), err)
		}
	}
}

func (d *Device) log(msg string) {
	d.sendPacket(ledserial.LogPacket{Message: msg})
}

// logError reports that handling a packet of type failed failed. The host
// treats this as the answer to that packet.
func (d *Device) logError(failed ledserial.IncomingPacketType, err error) {
	status.show(statusError)
	d.sendPacket(ledserial.ErrorPacket{
		IncomingPacketType: failed,
		Message:            err.Error(),
	})
}

func (d *Device) sendPacket(p ledserial.OutgoingPacket) {
	ledserial.WriteOutgoingPacket(d.serial, p)
}

func (d *Device) readPacket() (ledserial.IncomingPacket, error) {
	status.show(statusReading)

	p, err := ledserial.ReadIncomingPacket(d.serial, ledserial.ReadContext{
		NumLEDs: d.numLEDs,
		Pix:     d.pix,
	})

	status.off()
	return p, err
}

func (d *Device) handlePacket(p ledserial.IncomingPacket) error {
	switch p := p.(type) {
	case ledserial.InitializePacket:
		if p.NumLEDs < 1 {
			return fmt.Errorf("invalid number of LEDs: %d", p.NumLEDs)
		}
		if !p.Order.Valid() {
			return fmt.Errorf("invalid color order: %v", p.Order)
		}

		pin := machine.Pin(p.Pin)
		if pin != d.pin {
			pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
			d.led = ws2812.New(pin)
			d.pin = pin
		}

		d.numLEDs = p.NumLEDs
		d.order = p.Order
		d.pix = make([]byte, 3*int(p.NumLEDs))
		d.wire = make([]byte, 3*int(p.NumLEDs))
		d.clearLEDs(true)

	case ledserial.ClearPacket:
		if err := d.checkInitialized(); err != nil {
			return err
		}
		d.clearLEDs(false)

	case ledserial.SetPacket:
		if err := d.checkInitialized(); err != nil {
			return err
		}
		d.pix = p.Pix
		d.writePix()

	case ledserial.BrightnessPacket:
		d.brightness = p.Value

	case ledserial.CorrectionPacket:
		d.correction = p.Adjustment

	default:
		return fmt.Errorf("unknown packet type: %T", p)
	}

	d.sendPacket(ledserial.AckPacket{
		IncomingPacketType: p.Type(),
	})
	return nil
}

func (d *Device) checkInitialized() error {
	if d.numLEDs == 0 {
		return fmt.Errorf("LEDs not initialized")
	}
	return nil
}

// writePix writes the pixel buffer to the strip, scaled by the brightness and
// the color correction.
func (d *Device) writePix() {
	var adj [3]uint8
	for c := range adj {
		adj[c] = scale8(d.correction[c], d.brightness)
	}

	for i := 0; i < int(d.numLEDs); i++ {
		d.setWire(i, [3]uint8{
			scale8(d.pix[3*i+0], adj[0]),
			scale8(d.pix[3*i+1], adj[1]),
			scale8(d.pix[3*i+2], adj[2]),
		})
	}

	d.flush()
}

func (d *Device) clearLEDs(signalReady bool) {
	for i := range d.wire {
		d.wire[i] = 0
	}

	if signalReady {
		// Red at the start and blue at the end.
		d.setWire(0, [3]uint8{255, 0, 0})
		d.setWire(int(d.numLEDs)-1, [3]uint8{0, 0, 255})
	}

	d.flush()
}

// flush sends the wire buffer to the strip as is.
func (d *Device) flush() {
	for _, b := range d.wire {
		d.led.WriteByte(b)
	}
}

// setWire stores the R, G, B triple rgb for LED i in the strip's channel
// order.
func (d *Device) setWire(i int, rgb [3]uint8) {
	out := d.order.Permute(rgb)
	copy(d.wire[3*i:3*i+3], out[:])
}

func scale8(v, scale uint8) uint8 {
	return uint8((uint16(v) * (1 + uint16(scale))) >> 8)
}
