package modem

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.bug.st/serial"
)

//go:generate go tool mockgen -source=transport.go -destination=mock_transport.go -package=modem

// DefaultBaudRate is the factory UART speed of the SMW_SX1262M0.
const DefaultBaudRate = 9600

// Transport represents an established, bidirectional byte stream to the
// LoRaWAN module.
//
// A Transport is assumed to be already connected and ready for use. Typical
// implementations include serial ports, TCP bridges to a remote UART, or
// in-memory fakes used for testing. The engine imposes all framing.
type Transport interface {
	io.ReadWriteCloser
}

// Dialer opens a Transport to the module.
//
// Dialer is used during modem construction only. Once a Transport is obtained,
// the Dialer is no longer needed.
type Dialer interface {
	// Dial creates and returns a connected Transport. It may block and should
	// respect cancellation provided by the context.
	Dial(ctx context.Context) (Transport, error)
}

// SerialDialer opens the module over a local serial port using go.bug.st/serial.
type SerialDialer struct {
	// PortName is the device path, e.g. "/dev/ttyUSB0" or "COM3".
	PortName string
	// BaudRate is used with 8N1 framing when Mode is nil. Zero means
	// DefaultBaudRate.
	BaudRate int
	// Mode overrides the complete port configuration.
	Mode *serial.Mode
}

func (d SerialDialer) mode() *serial.Mode {
	if d.Mode != nil {
		return d.Mode
	}
	baud := d.BaudRate
	if baud == 0 {
		baud = DefaultBaudRate
	}
	return &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

// Dial opens the serial port. Pending input is discarded so the first command
// does not read a stale boot banner.
func (d SerialDialer) Dial(ctx context.Context) (Transport, error) {
	if ctx == nil {
		return nil, errors.New("modem: context is nil")
	}
	if d.PortName == "" {
		return nil, ErrPortRequired
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	port, err := serial.Open(d.PortName, d.mode())
	if err != nil {
		return nil, fmt.Errorf("modem: open serial port %s: %w", d.PortName, err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		port.Close()
		return nil, fmt.Errorf("modem: reset input buffer: %w", err)
	}
	return port, nil
}

// DialerFunc adapts a function to a Dialer.
type DialerFunc func(ctx context.Context) (Transport, error)

func (f DialerFunc) Dial(ctx context.Context) (Transport, error) {
	return f(ctx)
}
