package modem

import (
	"bytes"
	"io"
	"sync"
	"time"
)

// TestStream is a test helper that simulates a module on the other end of
// the line. Queued bytes become readable once their release time has passed,
// which lets tests model slow or partial arrival. It implements both Stream
// and Transport, so New uses it without a pump goroutine.
type TestStream struct {
	mu      sync.Mutex
	pending []scheduledChunk
	buf     []byte
	written bytes.Buffer
	closed  bool
	onWrite func(p []byte)
}

type scheduledChunk struct {
	at   time.Time
	data []byte
}

// NewTestStream creates a new test stream for testing.
// Exported for use in tests.
func NewTestStream() *TestStream {
	return &TestStream{}
}

// SendData queues data to be read immediately.
func (t *TestStream) SendData(data string) {
	t.SendDataAfter(0, data)
}

// SendDataAfter queues data that becomes readable after d.
func (t *TestStream) SendDataAfter(d time.Duration, data string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = append(t.pending, scheduledChunk{at: time.Now().Add(d), data: []byte(data)})
}

// OnWrite registers a hook called after every write, typically to queue the
// module's reply to a command.
func (t *TestStream) OnWrite(fn func(p []byte)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onWrite = fn
}

// Written returns everything written so far.
func (t *TestStream) Written() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.written.String()
}

// release must be called with mu held.
func (t *TestStream) release() {
	now := time.Now()
	keep := t.pending[:0]
	for _, c := range t.pending {
		if !c.at.After(now) {
			t.buf = append(t.buf, c.data...)
		} else {
			keep = append(keep, c)
		}
	}
	t.pending = keep
}

func (t *TestStream) Write(p []byte) (int, error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return 0, io.ErrClosedPipe
	}
	t.written.Write(p)
	hook := t.onWrite
	t.mu.Unlock()
	if hook != nil {
		hook(p)
	}
	return len(p), nil
}

func (t *TestStream) Read(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0, io.EOF
	}
	t.release()
	n := copy(p, t.buf)
	t.buf = t.buf[n:]
	return n, nil
}

func (t *TestStream) Available() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.release()
	return len(t.buf)
}

func (t *TestStream) NextByte() (byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.release()
	if len(t.buf) == 0 {
		return 0, ErrNoData
	}
	b := t.buf[0]
	t.buf = t.buf[1:]
	return b, nil
}

func (t *TestStream) PeekByte() (byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.release()
	if len(t.buf) == 0 {
		return 0, ErrNoData
	}
	return t.buf[0], nil
}

func (t *TestStream) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}
