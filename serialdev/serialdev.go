// Package serialdev drives LED strips attached to a controller board on a
// serial port. The board runs the ledserial protocol; see the xiao firmware.
package serialdev

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.bug.st/serial"
	"golang.org/x/sync/errgroup"
	"libdb.so/ledmatrix"
	"libdb.so/ledmatrix/led"
	"libdb.so/ledmatrix/ledserial"
)

// ErrTimeout is returned when the board does not acknowledge a packet in
// time.
var ErrTimeout = errors.New("timed out waiting for acknowledgement")

// ErrClosed is returned when using a closed handle.
var ErrClosed = errors.New("handle closed")

// ErrDisconnected is returned when the board closes the connection.
var ErrDisconnected = errors.New("controller disconnected")

// DeviceError is an error reported by the board.
type DeviceError struct {
	// Packet is the type of the packet the board failed to handle. It is
	// unset for panics.
	Packet ledserial.IncomingPacketType
	// Message is the message sent by the board. It is empty for panics.
	Message string
	// Panic is true if the board panicked and must be reset.
	Panic bool
}

func (e *DeviceError) Error() string {
	if e.Panic {
		return "controller unrecoverably panicked"
	}
	return "controller reported error for " + e.Packet.String() + " packet: " + e.Message
}

// Config configures the serial connection.
type Config struct {
	// Device is the path to the serial device, usually /dev/ttyUSB0 or
	// /dev/ttyACM0.
	Device string
	// Baud is the baud rate.
	Baud int
	// AckTimeout is how long to wait for the board to acknowledge a packet.
	AckTimeout time.Duration
}

// Driver attaches strips through a controller board on a serial port.
type Driver struct {
	cfg    Config
	logger *slog.Logger
}

var _ ledmatrix.Driver = (*Driver)(nil)

// New creates a new serial driver.
func New(cfg Config, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{cfg: cfg, logger: logger}
}

// Attach opens the serial port and initializes the strip on the board.
func (d *Driver) Attach(pin int, order ledserial.ColorOrder, leds led.LEDs) (ledmatrix.Handle, error) {
	port, err := serial.Open(d.cfg.Device, &serial.Mode{
		BaudRate: d.cfg.Baud,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open serial port")
	}

	if err := port.SetReadTimeout(serial.NoTimeout); err != nil {
		port.Close()
		return nil, errors.Wrap(err, "failed to reset read timeout")
	}

	return Attach(port, pin, order, leds, d.cfg.AckTimeout, d.logger.With("device", d.cfg.Device))
}

// Handle is a strip attached through a board. Its methods may be called from
// multiple goroutines; requests are serialized.
type Handle struct {
	port       io.ReadWriteCloser
	leds       led.LEDs
	ackTimeout time.Duration
	logger     *slog.Logger

	reqMu   sync.Mutex
	replies chan ledserial.OutgoingPacket

	errg   *errgroup.Group
	cancel context.CancelFunc
	ctx    context.Context

	closeOnce sync.Once

	errMu   sync.Mutex
	readErr error
}

var _ ledmatrix.Handle = (*Handle)(nil)

// Attach initializes a strip of len(leds) LEDs with the given colour order on
// the given pin of the board connected through port. The handle takes
// ownership of port.
func Attach(port io.ReadWriteCloser, pin int, order ledserial.ColorOrder, leds led.LEDs, ackTimeout time.Duration, logger *slog.Logger) (*Handle, error) {
	if pin < 0 || pin > 255 {
		port.Close()
		return nil, fmt.Errorf("invalid pin %d", pin)
	}
	if !order.Valid() {
		port.Close()
		return nil, fmt.Errorf("invalid color order %v", order)
	}
	if len(leds) > ledmatrix.MaxLEDs {
		port.Close()
		return nil, fmt.Errorf("too many LEDs: %d", len(leds))
	}
	if ackTimeout <= 0 {
		ackTimeout = ledmatrix.DefaultAckTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	errg, ctx := errgroup.WithContext(ctx)

	h := &Handle{
		port:       port,
		leds:       leds,
		ackTimeout: ackTimeout,
		logger:     logger,
		replies:    make(chan ledserial.OutgoingPacket, 1),
		errg:       errg,
		cancel:     cancel,
		ctx:        ctx,
	}

	errg.Go(func() error {
		<-ctx.Done()
		h.logger.Debug("closing serial port")
		if err := port.Close(); err != nil {
			return errors.Wrap(err, "failed to close serial port")
		}
		return nil
	})
	errg.Go(func() error {
		return h.readPackets(ctx)
	})

	h.logger.Debug("sending initialize packet", "pin", pin, "order", order, "leds", len(leds))
	if err := h.request(ledserial.InitializePacket{
		NumLEDs: uint16(len(leds)),
		Pin:     uint8(pin),
		Order:   order,
	}); err != nil {
		h.Close()
		return nil, errors.Wrap(err, "failed to initialize LEDs")
	}

	return h, nil
}

// SetBrightness implements ledmatrix.Handle.
func (h *Handle) SetBrightness(brightness uint8) error {
	return h.request(ledserial.BrightnessPacket{Value: brightness})
}

// SetCorrection implements ledmatrix.Handle.
func (h *Handle) SetCorrection(adj led.RGBColor) error {
	return h.request(ledserial.CorrectionPacket{Adjustment: adj})
}

// Commit sends the attached buffer to the board and waits until the board
// has written it to the LEDs.
func (h *Handle) Commit() error {
	return h.request(ledserial.SetPacket{Pix: h.leds.AsPixels()})
}

// Clear turns off all LEDs on the board without touching the buffer.
func (h *Handle) Clear() error {
	return h.request(ledserial.ClearPacket{})
}

// Close stops the reader and closes the serial port.
func (h *Handle) Close() error {
	var err error
	h.closeOnce.Do(func() {
		h.cancel()
		err = h.errg.Wait()
	})
	return err
}

func (h *Handle) request(p ledserial.IncomingPacket) error {
	h.reqMu.Lock()
	defer h.reqMu.Unlock()

	if h.ctx.Err() != nil {
		return h.err()
	}

	// Drop replies left over from a previous request that timed out.
	select {
	case <-h.replies:
	default:
	}

	h.logger.Debug(
		"writing packet",
		"type", p.Type())

	if err := ledserial.WriteIncomingPacket(h.port, p); err != nil {
		return errors.Wrapf(err, "failed to write %s packet", p.Type())
	}

	timeout := time.NewTimer(h.ackTimeout)
	defer timeout.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return h.err()

		case <-timeout.C:
			return errors.Wrapf(ErrTimeout, "%s packet", p.Type())

		case reply := <-h.replies:
			switch reply := reply.(type) {
			case ledserial.AckPacket:
				if reply.IncomingPacketType != p.Type() {
					h.logger.Warn(
						"ignoring stale ack",
						"acked_for", reply.IncomingPacketType,
						"waiting_for", p.Type())
					continue
				}
				return nil

			case ledserial.ErrorPacket:
				if reply.IncomingPacketType != p.Type() {
					// Either a late error for a request that timed out, or
					// a packet the board could not read. Neither answers
					// this request.
					h.logger.Warn(
						"ignoring error for another packet",
						"failed", reply.IncomingPacketType,
						"waiting_for", p.Type(),
						"message", reply.Message)
					continue
				}
				return &DeviceError{
					Packet:  reply.IncomingPacketType,
					Message: reply.Message,
				}

			case ledserial.PanicPacket:
				return &DeviceError{Panic: true}
			}
		}
	}
}

func (h *Handle) setReadErr(err error) {
	h.errMu.Lock()
	h.readErr = err
	h.errMu.Unlock()
}

// err returns the reason the handle stopped working.
func (h *Handle) err() error {
	h.errMu.Lock()
	defer h.errMu.Unlock()

	if h.readErr != nil {
		return h.readErr
	}
	return ErrClosed
}

func (h *Handle) readPackets(ctx context.Context) error {
	for ctx.Err() == nil {
		p, err := ledserial.ReadOutgoingPacket(h.port)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				err = errors.Wrap(ErrDisconnected, "failed to read packet")
			} else {
				err = errors.Wrap(err, "failed to read packet")
			}
			h.setReadErr(err)
			return err
		}

		h.logger.Debug(
			"received packet from controller",
			"type", p.Type())

		switch p := p.(type) {
		case ledserial.LogPacket:
			h.logger.Info(
				"received log packet from controller",
				"message", p.Message)
			continue

		case ledserial.PanicPacket:
			h.logger.Error("controller unrecoverably panicked")

		case ledserial.ErrorPacket:
			h.logger.Warn(
				"received error packet from controller",
				"packet", p.IncomingPacketType,
				"message", p.Message)
		}

		select {
		case <-ctx.Done():
			return nil
		case h.replies <- p:
			// ok
		}
	}

	return nil
}
