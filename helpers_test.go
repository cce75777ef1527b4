package main

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"i4.energy/across/smwgw/modem"
)

const okReply = "\r\nOK\r\n"

func payloadReply(payload string) string {
	return "\r\n" + payload + "\r\n\r\nOK\r\n"
}

// newTestModem returns a Modem backed by a TestStream that answers each
// written command from replies. Unknown commands get no answer.
func newTestModem(t *testing.T, replies map[string]string) (*modem.Modem, *modem.TestStream) {
	t.Helper()

	stream := modem.NewTestStream()
	stream.OnWrite(func(p []byte) {
		if reply, ok := replies[string(p)]; ok {
			stream.SendData(reply)
		}
	})

	config, err := modem.NewConfigBuilder().
		WithDialer(modem.DialerFunc(func(ctx context.Context) (modem.Transport, error) {
			return stream, nil
		})).
		WithReadTimeout(20 * time.Millisecond).
		WithWriteTimeout(20 * time.Millisecond).
		Build()
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

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
