// Package memdev implements an LED driver that keeps committed frames in
// memory. It is used for dry runs and tests.
package memdev

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/pkg/errors"
	"libdb.so/ledmatrix"
	"libdb.so/ledmatrix/led"
	"libdb.so/ledmatrix/ledserial"
)

// ErrClosed is returned when using a closed handle.
var ErrClosed = errors.New("handle closed")

// Driver is an in-memory LED driver.
type Driver struct {
	mu      sync.Mutex
	handles map[int]*Handle
	logger  *slog.Logger
}

var _ ledmatrix.Driver = (*Driver)(nil)

// New creates a new in-memory driver. logger may be nil.
func New(logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{
		handles: make(map[int]*Handle),
		logger:  logger,
	}
}

// Attach implements ledmatrix.Driver. Only one strip may be attached per pin.
func (d *Driver) Attach(pin int, order ledserial.ColorOrder, leds led.LEDs) (ledmatrix.Handle, error) {
	if !order.Valid() {
		return nil, fmt.Errorf("invalid color order %v", order)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if h, ok := d.handles[pin]; ok && !h.closed {
		return nil, fmt.Errorf("pin %d already attached", pin)
	}

	h := &Handle{
		pin:        pin,
		order:      order,
		leds:       leds,
		brightness: 255,
		correction: led.RGBColor{255, 255, 255},
		logger:     d.logger.With("pin", pin),
	}
	d.handles[pin] = h
	return h, nil
}

// Handle returns the handle attached to pin, or nil.
func (d *Driver) Handle(pin int) *Handle {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.handles[pin]
}

// Handle is a strip attached to a Driver.
type Handle struct {
	mu         sync.Mutex
	pin        int
	order      ledserial.ColorOrder
	leds       led.LEDs
	brightness uint8
	correction led.RGBColor
	frame      led.LEDs
	commits    int
	closed     bool
	logger     *slog.Logger
}

var _ ledmatrix.Handle = (*Handle)(nil)

func (h *Handle) SetBrightness(brightness uint8) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	h.brightness = brightness
	return nil
}

func (h *Handle) SetCorrection(adj led.RGBColor) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	h.correction = adj
	return nil
}

// Commit copies the attached buffer into the handle's current frame.
func (h *Handle) Commit() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	h.frame = h.leds.Clone()
	h.commits++
	h.logger.Debug("frame committed", "commits", h.commits)
	return nil
}

func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

// Frame returns a copy of the last committed frame, or nil if nothing was
// committed yet.
func (h *Handle) Frame() led.LEDs {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.frame.Clone()
}

// Emitted returns the last committed frame as the LEDs would show it, with
// brightness and colour correction applied.
func (h *Handle) Emitted() led.LEDs {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(led.LEDs, len(h.frame))
	for i, c := range h.frame {
		out[i] = led.Emitted(c, h.brightness, h.correction)
	}
	return out
}

// Order returns the colour order given to Attach.
func (h *Handle) Order() ledserial.ColorOrder {
	return h.order
}

// Wire returns the emitted frame as the bytes a strip with the attached
// colour order receives.
func (h *Handle) Wire() []uint8 {
	emitted := h.Emitted()
	wire := make([]uint8, 0, 3*len(emitted))
	for _, c := range emitted {
		p := h.order.Permute(c)
		wire = append(wire, p[:]...)
	}
	return wire
}

// Commits returns the number of commits so far.
func (h *Handle) Commits() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.commits
}

// Brightness returns the global brightness.
func (h *Handle) Brightness() uint8 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.brightness
}

// Correction returns the colour adjustment.
func (h *Handle) Correction() led.RGBColor {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.correction
}

// Closed reports whether the handle was closed.
func (h *Handle) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}
