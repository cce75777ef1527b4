package modem_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"i4.energy/across/smwgw/modem"
)

const okReply = "\r\nOK\r\n"

func payloadReply(payload string) string {
	return "\r\n" + payload + "\r\n\r\nOK\r\n"
}

func statusReply(status string) string {
	return "\r\n" + status + "\r\n"
}

type replyStep struct {
	command string
	reply   func(s *modem.TestStream)
}

// ReplySequence scripts the module side of a conversation: every write must
// match the next expected command, which is answered with its reply.
type ReplySequence struct {
	t      *testing.T
	stream *modem.TestStream
	steps  []replyStep

	mu   sync.Mutex
	next int
}

func NewReplySequence(t *testing.T, stream *modem.TestStream) *ReplySequence {
	return &ReplySequence{t: t, stream: stream}
}

func (b *ReplySequence) ExpectFunc(command string, reply func(s *modem.TestStream)) *ReplySequence {
	b.steps = append(b.steps, replyStep{command: command, reply: reply})
	return b
}

func (b *ReplySequence) Expect(command, reply string) *ReplySequence {
	return b.ExpectFunc(command, func(s *modem.TestStream) { s.SendData(reply) })
}

func (b *ReplySequence) ExpectDelayed(command, reply string, d time.Duration) *ReplySequence {
	return b.ExpectFunc(command, func(s *modem.TestStream) { s.SendDataAfter(d, reply) })
}

// ExpectSilent expects command and never answers it.
func (b *ReplySequence) ExpectSilent(command string) *ReplySequence {
	return b.ExpectFunc(command, func(*modem.TestStream) {})
}

func (b *ReplySequence) Ping() *ReplySequence {
	return b.Expect("AT\r", okReply)
}

func (b *ReplySequence) Query(name, payload string) *ReplySequence {
	return b.Expect("AT+"+name+"=?\r", payloadReply(payload))
}

func (b *ReplySequence) Set(name, value string) *ReplySequence {
	return b.Expect("AT+"+name+"="+value+"\r", okReply)
}

// Install registers the script on the stream and checks at cleanup that every
// step was consumed.
func (b *ReplySequence) Install() {
	b.stream.OnWrite(func(p []byte) {
		b.mu.Lock()
		defer b.mu.Unlock()

		if b.next >= len(b.steps) {
			b.t.Errorf("unexpected write %q", p)
			return
		}
		step := b.steps[b.next]
		b.next++
		if string(p) != step.command {
			b.t.Errorf("expected write %q, got %q", step.command, p)
			return
		}
		step.reply(b.stream)
	})

	b.t.Cleanup(func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for _, step := range b.steps[b.next:] {
			b.t.Errorf("expected write %q never happened", step.command)
		}
	})
}

// newTestModem returns a Modem wired to a TestStream with short timeouts.
func newTestModem(t *testing.T, configure ...func(*modem.ConfigBuilder)) (*modem.Modem, *modem.TestStream) {
	t.Helper()

	stream := modem.NewTestStream()
	builder := modem.NewConfigBuilder().
		WithDialer(modem.DialerFunc(func(ctx context.Context) (modem.Transport, error) {
			return stream, nil
		})).
		WithReadTimeout(20 * time.Millisecond).
		WithWriteTimeout(40 * time.Millisecond).
		WithResetTimeout(60 * time.Millisecond).
		WithIncomingDelay(time.Millisecond)
	for _, fn := range configure {
		fn(builder)
	}

	config, err := builder.Build()
	if err != nil {
		t.Fatalf("unexpected error from Build(): %v", err)
	}
	m, err := modem.New(context.Background(), config)
	if err != nil {
		t.Fatalf("unexpected error from New(): %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m, stream
}
