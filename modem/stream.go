package modem

import (
	"io"
	"sync"
)

//go:generate go tool mockgen -source=stream.go -destination=mock_stream.go -package=modem

// Stream is the non-blocking view of a Transport the engine drives. None of
// its methods may block waiting for input.
type Stream interface {
	io.Writer
	// Available returns the number of bytes that can be read immediately.
	Available() int
	// NextByte removes and returns the next byte, or ErrNoData when nothing
	// is pending.
	NextByte() (byte, error)
	// PeekByte returns the next byte without removing it.
	PeekByte() (byte, error)
}

// PortStream adapts a blocking Transport to a Stream. A single pump goroutine
// reads the transport into an internal buffer until the first read error.
type PortStream struct {
	transport Transport

	mu   sync.Mutex
	buf  []byte
	err  error
	done chan struct{}
}

// NewPortStream starts pumping t. The pump stops when a read fails, which for
// a serial port happens once the port is closed.
func NewPortStream(t Transport) *PortStream {
	s := &PortStream{
		transport: t,
		done:      make(chan struct{}),
	}
	go s.pump()
	return s
}

func (s *PortStream) pump() {
	defer close(s.done)
	chunk := make([]byte, 256)
	for {
		n, err := s.transport.Read(chunk)
		s.mu.Lock()
		s.buf = append(s.buf, chunk[:n]...)
		if err != nil {
			s.err = err
		}
		s.mu.Unlock()
		if err != nil {
			return
		}
	}
}

func (s *PortStream) Write(p []byte) (int, error) {
	return s.transport.Write(p)
}

func (s *PortStream) Available() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buf)
}

func (s *PortStream) NextByte() (byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.buf) == 0 {
		return 0, s.emptyErr()
	}
	b := s.buf[0]
	s.buf = s.buf[1:]
	return b, nil
}

func (s *PortStream) PeekByte() (byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.buf) == 0 {
		return 0, s.emptyErr()
	}
	return s.buf[0], nil
}

// emptyErr must be called with mu held.
func (s *PortStream) emptyErr() error {
	if s.err != nil {
		return s.err
	}
	return ErrNoData
}

// Err returns the error that stopped the pump, if any.
func (s *PortStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Done is closed once the pump has stopped.
func (s *PortStream) Done() <-chan struct{} {
	return s.done
}

// Close closes the underlying transport.
func (s *PortStream) Close() error {
	return s.transport.Close()
}
