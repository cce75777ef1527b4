package modem

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"i4.energy/across/smwgw/at"
)

// Modem drives an SMW_SX1262M0 LoRaWAN module through its AT command set.
//
// Every operation is a synchronous command cycle: pending input is flushed,
// the command is written, and the response is collected until a fixed
// deadline. Operations are serialised by an internal mutex, so one Modem may
// be shared between goroutines, but a started cycle cannot be cancelled.
type Modem struct {
	mu sync.Mutex

	// transport is the connection returned by the Dialer
	transport Transport
	// stream is the non-blocking view the engine reads from
	stream Stream
	// config contains the modem configuration settings
	config Config
	// closed indicates if the modem has been shut down
	closed bool

	mirror *mirror
	logger *slog.Logger

	// raw accumulates the bytes of the current response
	raw []byte
	// payload is what remains of the last response once the status line is removed
	payload []byte
}

// New creates a new Modem with the given configuration. It establishes the
// transport connection; it does not talk to the module yet, callers usually
// follow up with Ping.
func New(ctx context.Context, config Config) (*Modem, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	config.setDefaults()

	transport, err := config.dialer.Dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("dial module: %w", err)
	}
	if transport == nil {
		return nil, ErrNotInitialized
	}

	stream, ok := transport.(Stream)
	if !ok {
		stream = NewPortStream(transport)
	}

	return &Modem{
		transport: transport,
		stream:    stream,
		config:    config,
		mirror:    newMirror(config.mirror),
		logger:    config.logger,
		raw:       make([]byte, 0, 128),
	}, nil
}

// Close shuts down the modem and closes the transport. After calling Close(),
// the modem cannot be reused.
func (m *Modem) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrAlreadyClosed
	}
	m.closed = true

	if m.transport != nil {
		return m.transport.Close()
	}
	return nil
}

// Buffer returns a copy of the payload left by the last command, that is the
// response without its status line.
func (m *Modem) Buffer() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.payload...)
}

// Flush discards every byte pending on the transport.
func (m *Modem) Flush() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flush()
}

// Exec runs a raw command cycle and returns its outcome. The payload is
// available through Buffer.
func (m *Modem) Exec(ctx context.Context, cmd at.Command, timeout time.Duration) (at.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.exec(ctx, cmd, timeout)
}

func (m *Modem) ready(ctx context.Context) error {
	if m.closed {
		return ErrAlreadyClosed
	}
	if m.stream == nil {
		return ErrNotInitialized
	}
	return ctx.Err()
}

// exec sends cmd and reads the response. Must be called with mu held.
func (m *Modem) exec(ctx context.Context, cmd at.Command, timeout time.Duration) (at.Outcome, error) {
	if err := m.ready(ctx); err != nil {
		return at.Error, err
	}
	if err := m.send(cmd); err != nil {
		return at.Error, err
	}
	res := m.readResponse(timeout)
	m.logger.Debug("command completed", "command", cmd.String(), "outcome", res, "payload_length", len(m.payload))
	return res, nil
}

func (m *Modem) flush() {
	for m.stream.Available() > 0 {
		if _, err := m.stream.NextByte(); err != nil {
			return
		}
	}
}

// send flushes the stream so a late reply to an earlier command cannot be
// mistaken for this one, then writes cmd.
func (m *Modem) send(cmd at.Command) error {
	line, err := cmd.Encode()
	if err != nil {
		return err
	}
	m.flush()
	m.mirror.command(line)
	if _, err := m.stream.Write(line); err != nil {
		return fmt.Errorf("write command %q: %w", cmd.String(), err)
	}
	return nil
}

// idle yields while waiting for input.
func (m *Modem) idle(d time.Duration) {
	time.Sleep(d)
}

// readResponse collects bytes until the deadline and classifies the status
// line. The deadline is not extended by incoming bytes.
func (m *Modem) readResponse(timeout time.Duration) at.Outcome {
	m.raw = m.raw[:0]
	m.payload = nil

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if m.stream.Available() == 0 {
			m.idle(m.config.pollInterval)
			continue
		}
		b, err := m.stream.NextByte()
		if err != nil {
			m.idle(m.config.pollInterval)
			continue
		}
		m.mirror.received(b)
		if at.IsPrintable(b) || b == at.CR || b == at.LF {
			m.raw = append(m.raw, b)
		}
	}

	res, payload := at.Parse(m.raw)
	m.payload = append([]byte(nil), payload...)
	return res
}
