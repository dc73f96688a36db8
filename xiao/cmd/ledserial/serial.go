package main

import (
	"io"
	"machine"
	"runtime"
	"time"
)

// ByteReadWriter describes a device that can read and write bytes.
// Usually, machine.Serialer implements this interface.
type ByteReadWriter interface {
	ReadByte() (byte, error)
	WriteByte(byte) error
}

// SerialReadWriter combines the io.ReadWriter and machine.Serialer interfaces.
type SerialReadWriter interface {
	io.ReadWriter
	ByteReadWriter
	// Buffered returns the number of bytes currently buffered in the serial
	// device.
	Buffered() int
}

var _ ByteReadWriter = machine.Serialer(nil)

// blockingSerial turns a polling machine.Serialer into a blocking
// io.ReadWriter.
type blockingSerial struct {
	machine.Serialer
}

// WrapSerial wraps a machine.Serialer in an io.ReadWriter whose Read blocks
// until at least one byte is available.
func WrapSerial(serial machine.Serialer) SerialReadWriter {
	return blockingSerial{Serialer: serial}
}

func (s blockingSerial) Read(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}

	n := s.Buffered()
	for n == 0 {
		// Nothing buffered yet. Sleep to reduce CPU usage.
		time.Sleep(time.Millisecond)
		n = s.Buffered()
	}

	n = min(n, len(b))
	for i := 0; i < n; i++ {
		c, err := s.ReadByte()
		if err != nil {
			return i, err
		}
		b[i] = c
	}

	runtime.Gosched()
	return n, nil
}

func (s blockingSerial) Write(b []byte) (int, error) {
	for i, c := range b {
		if err := s.WriteByte(c); err != nil {
			return i, err
		}
	}
	runtime.Gosched()
	return len(b), nil
}
