// Package ledserial implements the LED serial protocol spoken between the
// host and an LED controller board.
//
// Every packet starts with a one-byte type, followed by the payload and a
// little-endian CRC32 (IEEE) of type and payload. The host sends incoming
// packets; the board answers each with an AckPacket or an ErrorPacket and may
// send log messages at any time.
package ledserial

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"math"
	"strings"
)

// Endianness defines the endianness of the protocol.
var Endianness = binary.LittleEndian

// ErrChecksum is returned when a packet's checksum does not match its
// contents.
var ErrChecksum = errors.New("packet checksum mismatch")

// MaxMessageLength is the maximum length of a message in an ErrorPacket or a
// LogPacket.
const MaxMessageLength = math.MaxUint16

// IncomingPacketType is a type of packet sent from the host to the board.
type IncomingPacketType uint8

const (
	TypeInitializePacket IncomingPacketType = iota
	TypeClearPacket
	TypeSetPacket
	TypeBrightnessPacket
	TypeCorrectionPacket

	// TypeUnreadablePacket marks an ErrorPacket for a packet the board could
	// not decode, so it cannot tell which packet it was.
	TypeUnreadablePacket IncomingPacketType = math.MaxUint8
)

// String returns a string representation of the packet type.
func (t IncomingPacketType) String() string {
	switch t {
	case TypeInitializePacket:
		return "initialize"
	case TypeClearPacket:
		return "clear"
	case TypeSetPacket:
		return "set"
	case TypeBrightnessPacket:
		return "brightness"
	case TypeCorrectionPacket:
		return "correction"
	case TypeUnreadablePacket:
		return "unreadable"
	default:
		return fmt.Sprintf("IncomingPacketType(%d)", t)
	}
}

// IncomingPacket is a packet sent over the wire.
type IncomingPacket interface {
	// Type returns the type of packet.
	Type() IncomingPacketType
}

// InitializePacket is a packet that initializes the LED strip.
type InitializePacket struct {
	NumLEDs uint16
	Pin     uint8
	Order   ColorOrder
}

// ClearPacket is a packet that turns off all LEDs.
type ClearPacket struct{}

// SetPacket is a packet that sets the LED strip to the given colors. Pix
// holds three bytes (R, G, B) per LED.
type SetPacket struct {
	Pix []uint8
}

// BrightnessPacket sets the global brightness applied to every LED.
type BrightnessPacket struct {
	Value uint8
}

// CorrectionPacket sets the per-channel scale applied to every LED.
type CorrectionPacket struct {
	Adjustment [3]uint8
}

func (p InitializePacket) Type() IncomingPacketType { return TypeInitializePacket }
func (p ClearPacket) Type() IncomingPacketType      { return TypeClearPacket }
func (p SetPacket) Type() IncomingPacketType        { return TypeSetPacket }
func (p BrightnessPacket) Type() IncomingPacketType { return TypeBrightnessPacket }
func (p CorrectionPacket) Type() IncomingPacketType { return TypeCorrectionPacket }

// OutgoingPacketType is a type of packet sent from the board to the host.
type OutgoingPacketType uint8

const (
	TypeErrorPacket OutgoingPacketType = iota
	TypePanicPacket
	TypeLogPacket
	TypeAckPacket
)

// String returns a string representation of the packet type.
func (t OutgoingPacketType) String() string {
	switch t {
	case TypeErrorPacket:
		return "error"
	case TypePanicPacket:
		return "panic"
	case TypeLogPacket:
		return "log"
	case TypeAckPacket:
		return "ack"
	default:
		return fmt.Sprintf("OutgoingPacketType(%d)", t)
	}
}

// OutgoingPacket is a packet sent over the wire.
type OutgoingPacket interface {
	// Type returns the type of packet.
	Type() OutgoingPacketType
}

// ErrorPacket is a packet that indicates an error occurred while handling an
// incoming packet. The board sends it instead of an AckPacket.
type ErrorPacket struct {
	// IncomingPacketType is the type of the packet that failed, or
	// TypeUnreadablePacket if the board could not read it.
	IncomingPacketType IncomingPacketType
	Message            string
}

// PanicPacket is a packet that indicates the program cannot recover.
type PanicPacket struct{}

// LogPacket is a packet that contains a log message.
type LogPacket struct {
	Message string
}

// AckPacket acknowledges that an incoming packet was handled.
type AckPacket struct {
	IncomingPacketType IncomingPacketType
}

// ColorOrder is the order in which a strip expects the colour channels on
// the wire. The zero value is GRB, the native order of WS2812 LEDs.
type ColorOrder uint8

const (
	OrderGRB ColorOrder = iota
	OrderRGB
	OrderBRG
	OrderRBG
	OrderGBR
	OrderBGR
)

var orderNames = [...]string{
	OrderGRB: "GRB",
	OrderRGB: "RGB",
	OrderBRG: "BRG",
	OrderRBG: "RBG",
	OrderGBR: "GBR",
	OrderBGR: "BGR",
}

// orderChannels holds, for each wire position, the index of the R, G or B
// channel sent there.
var orderChannels = [...][3]uint8{
	OrderGRB: {1, 0, 2},
	OrderRGB: {0, 1, 2},
	OrderBRG: {2, 0, 1},
	OrderRBG: {0, 2, 1},
	OrderGBR: {1, 2, 0},
	OrderBGR: {2, 1, 0},
}

// Valid reports whether o is a known colour order.
func (o ColorOrder) Valid() bool {
	return int(o) < len(orderNames)
}

func (o ColorOrder) String() string {
	if !o.Valid() {
		return fmt.Sprintf("ColorOrder(%d)", o)
	}
	return orderNames[o]
}

// UnmarshalText parses a colour order such as "GRB" or "rgb".
func (o *ColorOrder) UnmarshalText(text []byte) error {
	name := strings.ToUpper(string(text))
	for i, n := range orderNames {
		if n == name {
			*o = ColorOrder(i)
			return nil
		}
	}
	return fmt.Errorf("unknown color order %q", text)
}

func (o ColorOrder) MarshalText() ([]byte, error) {
	if !o.Valid() {
		return nil, fmt.Errorf("invalid color order %d", o)
	}
	return []byte(orderNames[o]), nil
}

// Permute returns the R, G, B triple rgb rearranged into wire order. Invalid
// orders leave rgb unchanged.
func (o ColorOrder) Permute(rgb [3]uint8) [3]uint8 {
	if !o.Valid() {
		return rgb
	}
	ch := orderChannels[o]
	return [3]uint8{rgb[ch[0]], rgb[ch[1]], rgb[ch[2]]}
}

func (p ErrorPacket) Type() OutgoingPacketType { return TypeErrorPacket }
func (p PanicPacket) Type() OutgoingPacketType { return TypePanicPacket }
func (p LogPacket) Type() OutgoingPacketType   { return TypeLogPacket }
func (p AckPacket) Type() OutgoingPacketType   { return TypeAckPacket }

// ReadContext is the state of the LED strip. Data in this structure are
// required for the device to read incoming packets.
type ReadContext struct {
	// NumLEDs is the number of LEDs in the strip.
	NumLEDs uint16
	// Pix, if large enough, is reused for the pixels of a SetPacket.
	Pix []uint8
}

// ReadIncomingPacket reads an incoming packet from the given reader.
func ReadIncomingPacket(r io.Reader, context ReadContext) (IncomingPacket, error) {
	hash := crc32.NewIEEE()
	r = io.TeeReader(r, hash)

	var packet IncomingPacket
	var ptypeBuf [1]byte
	if _, err := io.ReadFull(r, ptypeBuf[:]); err != nil {
		return nil, fmt.Errorf("failed to read incoming packet type: %w", err)
	}

	switch ptype := IncomingPacketType(ptypeBuf[0]); ptype {
	case TypeInitializePacket:
		var p InitializePacket
		if err := binary.Read(r, Endianness, &p); err != nil {
			return nil, fmt.Errorf("failed to read initialize packet: %w", err)
		}
		packet = p

	case TypeClearPacket:
		packet = ClearPacket{}

	case TypeSetPacket:
		var p SetPacket
		n := 3 * int(context.NumLEDs)
		if cap(context.Pix) >= n {
			p.Pix = context.Pix[:n]
		} else {
			p.Pix = make([]uint8, n)
		}
		if _, err := io.ReadFull(r, p.Pix); err != nil {
			return nil, fmt.Errorf("failed to read pixel data: %w", err)
		}
		packet = p

	case TypeBrightnessPacket:
		var p BrightnessPacket
		if err := binary.Read(r, Endianness, &p); err != nil {
			return nil, fmt.Errorf("failed to read brightness: %w", err)
		}
		packet = p

	case TypeCorrectionPacket:
		var p CorrectionPacket
		if err := binary.Read(r, Endianness, &p); err != nil {
			return nil, fmt.Errorf("failed to read correction: %w", err)
		}
		packet = p

	default:
		return nil, fmt.Errorf("unknown packet type: %s", ptype)
	}

	if err := readChecksum(r, hash.Sum32()); err != nil {
		return nil, err
	}

	return packet, nil
}

// WriteIncomingPacket writes an incoming packet to the given writer.
func WriteIncomingPacket(w io.Writer, p IncomingPacket) error {
	hash := crc32.NewIEEE()
	mw := io.MultiWriter(w, hash)

	if err := binary.Write(mw, Endianness, p.Type()); err != nil {
		return fmt.Errorf("failed to write packet type: %w", err)
	}

	switch p := p.(type) {
	case InitializePacket, BrightnessPacket, CorrectionPacket:
		if err := binary.Write(mw, Endianness, p); err != nil {
			return fmt.Errorf("failed to write packet: %w", err)
		}
	case ClearPacket:
	case SetPacket:
		if _, err := mw.Write(p.Pix); err != nil {
			return fmt.Errorf("failed to write packet: %w", err)
		}
	default:
		return fmt.Errorf("unknown packet type: %T", p)
	}

	if err := binary.Write(w, Endianness, hash.Sum32()); err != nil {
		return fmt.Errorf("failed to write packet checksum: %w", err)
	}

	return nil
}

// ReadOutgoingPacket reads an outgoing packet from the given reader.
func ReadOutgoingPacket(r io.Reader) (OutgoingPacket, error) {
	hash := crc32.NewIEEE()
	r = io.TeeReader(r, hash)

	var packet OutgoingPacket
	var ptypeBuf [1]byte
	if _, err := io.ReadFull(r, ptypeBuf[:]); err != nil {
		return nil, fmt.Errorf("failed to read outgoing packet type: %w", err)
	}

	switch ptype := OutgoingPacketType(ptypeBuf[0]); ptype {
	case TypeErrorPacket:
		var failed IncomingPacketType
		if err := binary.Read(r, Endianness, &failed); err != nil {
			return nil, fmt.Errorf("failed to read failed packet type: %w", err)
		}
		msg, err := readMessage(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read error message: %w", err)
		}
		packet = ErrorPacket{IncomingPacketType: failed, Message: msg}

	case TypePanicPacket:
		packet = PanicPacket{}

	case TypeLogPacket:
		msg, err := readMessage(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read log message: %w", err)
		}
		packet = LogPacket{Message: msg}

	case TypeAckPacket:
		var p AckPacket
		if err := binary.Read(r, Endianness, &p); err != nil {
			return nil, fmt.Errorf("failed to read acked packet type: %w", err)
		}
		packet = p

	default:
		return nil, fmt.Errorf("unknown packet type: %s", ptype)
	}

	if err := readChecksum(r, hash.Sum32()); err != nil {
		return nil, err
	}

	return packet, nil
}

// WriteOutgoingPacket writes an outgoing packet to the given writer.
// Messages longer than MaxMessageLength are truncated.
func WriteOutgoingPacket(w io.Writer, p OutgoingPacket) error {
	hash := crc32.NewIEEE()
	mw := io.MultiWriter(w, hash)

	if err := binary.Write(mw, Endianness, p.Type()); err != nil {
		return fmt.Errorf("failed to write packet type: %w", err)
	}

	switch p := p.(type) {
	case ErrorPacket:
		if err := binary.Write(mw, Endianness, p.IncomingPacketType); err != nil {
			return fmt.Errorf("failed to write failed packet type: %w", err)
		}
		if err := writeMessage(mw, p.Message); err != nil {
			return fmt.Errorf("failed to write error message: %w", err)
		}
	case PanicPacket:
	case LogPacket:
		if err := writeMessage(mw, p.Message); err != nil {
			return fmt.Errorf("failed to write log message: %w", err)
		}
	case AckPacket:
		if err := binary.Write(mw, Endianness, p); err != nil {
			return fmt.Errorf("failed to write acked packet type: %w", err)
		}
	default:
		return fmt.Errorf("unknown packet type: %T", p)
	}

	if err := binary.Write(w, Endianness, hash.Sum32()); err != nil {
		return fmt.Errorf("failed to write packet checksum: %w", err)
	}

	return nil
}

// readChecksum reads the checksum following a packet and compares it with
// want, the sum of everything read before it.
func readChecksum(r io.Reader, want uint32) error {
	var checksum uint32
	if err := binary.Read(r, Endianness, &checksum); err != nil {
		return fmt.Errorf("failed to read packet checksum: %w", err)
	}
	if checksum != want {
		return ErrChecksum
	}
	return nil
}

func readMessage(r io.Reader) (string, error) {
	var length uint16
	if err := binary.Read(r, Endianness, &length); err != nil {
		return "", err
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func writeMessage(w io.Writer, msg string) error {
	if len(msg) > MaxMessageLength {
		msg = msg[:MaxMessageLength]
	}
	if err := binary.Write(w, Endianness, uint16(len(msg))); err != nil {
		return err
	}
	_, err := io.WriteString(w, msg)
	return err
}
