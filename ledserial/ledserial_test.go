package ledserial

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncomingPackets(t *testing.T) {
	var buf bytes.Buffer
	packets := []IncomingPacket{
		InitializePacket{NumLEDs: 2, Pin: 6, Order: OrderBRG},
		BrightnessPacket{Value: 128},
		CorrectionPacket{Adjustment: [3]uint8{0xFF, 0xE0, 0x8C}},
		SetPacket{Pix: []uint8{1, 2, 3, 4, 5, 6}},
		ClearPacket{},
	}
	for _, p := range packets {
		require.NoError(t, WriteIncomingPacket(&buf, p))
	}

	ctx := ReadContext{NumLEDs: 2}
	for _, want := range packets {
		got, err := ReadIncomingPacket(&buf, ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ReadIncomingPacket(&buf, ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadIncomingPacket_ReusesBuffer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteIncomingPacket(&buf, SetPacket{Pix: []uint8{9, 8, 7}}))

	pix := make([]uint8, 0, 30)
	p, err := ReadIncomingPacket(&buf, ReadContext{NumLEDs: 1, Pix: pix})
	require.NoError(t, err)

	set := p.(SetPacket)
	assert.Equal(t, []uint8{9, 8, 7}, set.Pix)
	assert.Same(t, &pix[:1][0], &set.Pix[0])
}

func TestReadIncomingPacket_Checksum(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteIncomingPacket(&buf, BrightnessPacket{Value: 10}))

	b := buf.Bytes()
	b[1] = 11

	_, err := ReadIncomingPacket(bytes.NewReader(b), ReadContext{})
	assert.ErrorIs(t, err, ErrChecksum)
}

func TestReadIncomingPacket_UnknownType(t *testing.T) {
	_, err := ReadIncomingPacket(bytes.NewReader([]byte{0xFE, 0, 0, 0, 0}), ReadContext{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IncomingPacketType(254)")
}

func TestOutgoingPackets(t *testing.T) {
	var buf bytes.Buffer
	packets := []OutgoingPacket{
		AckPacket{IncomingPacketType: TypeSetPacket},
		LogPacket{Message: "hello"},
		ErrorPacket{IncomingPacketType: TypeInitializePacket, Message: "invalid number of LEDs: 0"},
		ErrorPacket{IncomingPacketType: TypeUnreadablePacket, Message: "packet checksum mismatch"},
		PanicPacket{},
	}
	for _, p := range packets {
		require.NoError(t, WriteOutgoingPacket(&buf, p))
	}

	for _, want := range packets {
		got, err := ReadOutgoingPacket(&buf)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestWriteOutgoingPacket_TruncatesMessage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteOutgoingPacket(&buf, LogPacket{Message: strings.Repeat("x", MaxMessageLength+10)}))

	p, err := ReadOutgoingPacket(&buf)
	require.NoError(t, err)
	assert.Len(t, p.(LogPacket).Message, MaxMessageLength)
}

func TestColorOrder(t *testing.T) {
	rgb := [3]uint8{0x11, 0x22, 0x33}

	tests := []struct {
		text    string
		order   ColorOrder
		wire    [3]uint8
		wantErr assert.ErrorAssertionFunc
	}{
		{"GRB", OrderGRB, [3]uint8{0x22, 0x11, 0x33}, assert.NoError},
		{"rgb", OrderRGB, [3]uint8{0x11, 0x22, 0x33}, assert.NoError},
		{"BRG", OrderBRG, [3]uint8{0x33, 0x11, 0x22}, assert.NoError},
		{"RBG", OrderRBG, [3]uint8{0x11, 0x33, 0x22}, assert.NoError},
		{"GBR", OrderGBR, [3]uint8{0x22, 0x33, 0x11}, assert.NoError},
		{"bgr", OrderBGR, [3]uint8{0x33, 0x22, 0x11}, assert.NoError},
		{"RGBW", 0, [3]uint8{}, assert.Error},
		{"", 0, [3]uint8{}, assert.Error},
	}

	for _, test := range tests {
		t.Run(test.text, func(t *testing.T) {
			var order ColorOrder
			err := order.UnmarshalText([]byte(test.text))
			if !test.wantErr(t, err) || err != nil {
				return
			}
			assert.Equal(t, test.order, order)
			assert.Equal(t, test.wire, order.Permute(rgb))

			text, err := order.MarshalText()
			require.NoError(t, err)
			assert.Equal(t, strings.ToUpper(test.text), string(text))
		})
	}

	invalid := ColorOrder(42)
	assert.False(t, invalid.Valid())
	assert.Equal(t, rgb, invalid.Permute(rgb))
	assert.Equal(t, "ColorOrder(42)", invalid.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestWritePacket_Error(t *testing.T) {
	assert.Error(t, WriteIncomingPacket(failingWriter{}, ClearPacket{}))
	assert.Error(t, WriteOutgoingPacket(failingWriter{}, PanicPacket{}))
}
