// Command ledserial is the firmware for a Seeed XIAO RP2040 driving a WS2812
// strip on behalf of a host running ledmatrix.
package main

import (
	"machine"
	"time"
)

func main() {
	// Give the host a moment to open the USB serial port.
	time.Sleep(time.Second)

	status.off()
	NewDevice(machine.Serial).Run()
}
