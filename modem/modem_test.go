package modem_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"go.uber.org/mock/gomock"
	"i4.energy/across/smwgw/at"
	"i4.energy/across/smwgw/modem"
)

// closeErrStream is a TestStream whose Close fails.
type closeErrStream struct {
	*modem.TestStream
	err error
}

func (s closeErrStream) Close() error {
	s.TestStream.Close()
	return s.err
}

func TestModemNew(t *testing.T) {
	t.Run("Initialization Success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		stream := modem.NewTestStream()
		mockDialer := modem.NewMockDialer(ctrl)
		mockDialer.EXPECT().Dial(gomock.Any()).Return(stream, nil)

		config, err := modem.NewConfigBuilder().
			WithDialer(mockDialer).
			Build()
		if err != nil {
			t.Errorf("unexpected error from Build(): %v", err)
		}

		m, err := modem.New(context.Background(), config)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if m == nil {
			t.Fatal("New() should return valid modem on success")
		}
		if stream.Written() != "" {
			t.Errorf("New() should not talk to the module, wrote %q", stream.Written())
		}

		if err := m.Close(); err != nil {
			t.Errorf("unexpected error from Close(): %v", err)
		}
	})

	t.Run("Dialer error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		dialErr := errors.New("connection failed")
		mockDialer := modem.NewMockDialer(ctrl)
		mockDialer.EXPECT().Dial(gomock.Any()).Return(nil, dialErr)

		config, err := modem.NewConfigBuilder().
			WithDialer(mockDialer).
			Build()
		if err != nil {
			t.Errorf("unexpected error from Build(): %v", err)
		}

		m, err := modem.New(context.Background(), config)
		if !errors.Is(err, dialErr) {
			t.Errorf("expected wrapped dialer error, got: %v", err)
		}
		if m != nil {
			t.Error("New() should return nil modem when dialer fails")
		}
	})

	t.Run("Dialer receives the context", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		type key struct{}
		ctx := context.WithValue(context.Background(), key{}, "dial")

		mockDialer := modem.NewMockDialer(ctrl)
		mockDialer.EXPECT().Dial(ctx).Return(modem.NewTestStream(), nil)

		config, err := modem.NewConfigBuilder().
			WithDialer(mockDialer).
			Build()
		if err != nil {
			t.Errorf("unexpected error from Build(): %v", err)
		}
		if _, err := modem.New(ctx, config); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("ErrNoDialer when no dialer provided", func(t *testing.T) {
		m, err := modem.New(context.Background(), modem.Config{})
		if !errors.Is(err, modem.ErrNoDialer) {
			t.Errorf("expected ErrNoDialer from New(), got: %v", err)
		}
		if m != nil {
			t.Error("New() should return nil modem when no dialer provided")
		}
	})

	t.Run("ErrNotInitialized on nil transport", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockDialer := modem.NewMockDialer(ctrl)
		mockDialer.EXPECT().Dial(gomock.Any()).Return(nil, nil)

		config, err := modem.NewConfigBuilder().
			WithDialer(mockDialer).
			Build()
		if err != nil {
			t.Errorf("unexpected error from Build(): %v", err)
		}

		_, err = modem.New(context.Background(), config)
		if !errors.Is(err, modem.ErrNotInitialized) {
			t.Errorf("expected ErrNotInitialized from New(), got: %v", err)
		}
	})
}

func TestModemClose(t *testing.T) {
	t.Run("Returns transport error on close failure", func(t *testing.T) {
		closeErr := errors.New("transport close failed")
		stream := closeErrStream{TestStream: modem.NewTestStream(), err: closeErr}

		config, err := modem.NewConfigBuilder().
			WithDialer(modem.DialerFunc(func(ctx context.Context) (modem.Transport, error) {
				return stream, nil
			})).
			Build()
		if err != nil {
			t.Errorf("unexpected error from Build(): %v", err)
		}

		m, err := modem.New(context.Background(), config)
		if err != nil {
			t.Fatalf("unexpected error from New(): %v", err)
		}
		if err := m.Close(); err != closeErr {
			t.Errorf("expected transport error, got: %v", err)
		}
	})

	t.Run("ErrAlreadyClosed on double close", func(t *testing.T) {
		m, _ := newTestModem(t)

		if err := m.Close(); err != nil {
			t.Errorf("unexpected error from first Close(): %v", err)
		}
		if err := m.Close(); !errors.Is(err, modem.ErrAlreadyClosed) {
			t.Errorf("expected ErrAlreadyClosed on second Close(), got: %v", err)
		}
	})

	t.Run("Commands fail after close", func(t *testing.T) {
		m, stream := newTestModem(t)
		m.Close()

		res, err := m.Ping(context.Background())
		if !errors.Is(err, modem.ErrAlreadyClosed) {
			t.Errorf("expected ErrAlreadyClosed, got: %v", err)
		}
		if res != at.Error {
			t.Errorf("expected Error outcome, got %v", res)
		}
		if stream.Written() != "" {
			t.Errorf("nothing should be written after close, got %q", stream.Written())
		}
	})
}

func TestModemBlockingTransport(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockTransport := modem.NewMockTransport(ctrl)
	written := make(chan struct{})

	mockTransport.EXPECT().Write([]byte("AT\r")).DoAndReturn(func(p []byte) (int, error) {
		close(written)
		return len(p), nil
	})
	gomock.InOrder(
		mockTransport.EXPECT().Read(gomock.Any()).DoAndReturn(func(p []byte) (int, error) {
			<-written
			return copy(p, okReply), nil
		}),
		mockTransport.EXPECT().Read(gomock.Any()).Return(0, io.EOF).AnyTimes(),
	)
	mockTransport.EXPECT().Close().Return(nil)

	config, err := modem.NewConfigBuilder().
		WithDialer(modem.DialerFunc(func(ctx context.Context) (modem.Transport, error) {
			return mockTransport, nil
		})).
		WithReadTimeout(50 * time.Millisecond).
		Build()
	if err != nil {
		t.Fatalf("unexpected error from Build(): %v", err)
	}

	m, err := modem.New(context.Background(), config)
	if err != nil {
		t.Fatalf("unexpected error from New(): %v", err)
	}

	res, err := m.Ping(context.Background())
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if res != at.Ok {
		t.Errorf("expected Ok, got %v", res)
	}

	if err := m.Close(); err != nil {
		t.Errorf("unexpected error from Close(): %v", err)
	}
}

func TestModemExec(t *testing.T) {
	tests := []struct {
		name     string
		reply    func(s *modem.TestStream)
		expected at.Outcome
	}{
		{
			name:     "Ok",
			reply:    func(s *modem.TestStream) { s.SendData(okReply) },
			expected: at.Ok,
		},
		{
			name:     "Busy",
			reply:    func(s *modem.TestStream) { s.SendData(statusReply("AT_BUSY_ERROR:1")) },
			expected: at.Busy,
		},
		{
			name:     "No network",
			reply:    func(s *modem.TestStream) { s.SendData(statusReply("AT_NO_NETWORK_JOINED:1")) },
			expected: at.NoNetwork,
		},
		{
			name:     "Error",
			reply:    func(s *modem.TestStream) { s.SendData(statusReply("AT_PARAM_ERROR:1")) },
			expected: at.Error,
		},
		{
			name:     "No reply",
			reply:    func(*modem.TestStream) {},
			expected: at.Error,
		},
		{
			name: "Split delivery within the deadline",
			reply: func(s *modem.TestStream) {
				s.SendData("\r\nO")
				s.SendDataAfter(5*time.Millisecond, "K\r\n")
			},
			expected: at.Ok,
		},
		{
			name:     "Reply after the deadline",
			reply:    func(s *modem.TestStream) { s.SendDataAfter(200*time.Millisecond, okReply) },
			expected: at.Error,
		},
		{
			name:     "Control bytes are dropped",
			reply:    func(s *modem.TestStream) { s.SendData("\r\n\x00O\x07K\r\n") },
			expected: at.Ok,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, stream := newTestModem(t)
			NewReplySequence(t, stream).ExpectFunc("AT\r", tt.reply).Install()

			res, err := m.Exec(context.Background(), at.Command{}, 20*time.Millisecond)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if res != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, res)
			}
		})
	}
}

func TestModemFlushesStaleInput(t *testing.T) {
	m, stream := newTestModem(t)
	stream.SendData(okReply)
	NewReplySequence(t, stream).ExpectSilent("AT\r").Install()

	res, err := m.Ping(context.Background())
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if res != at.Error {
		t.Errorf("stale input should be flushed before the command, got %v", res)
	}
}

func TestModemFlush(t *testing.T) {
	m, stream := newTestModem(t)
	stream.SendData("leftover")

	m.Flush()
	if n := stream.Available(); n != 0 {
		t.Errorf("expected empty stream after Flush(), %d bytes left", n)
	}
}

func TestModemBuffer(t *testing.T) {
	m, stream := newTestModem(t)
	NewReplySequence(t, stream).Query(at.CmdDevEUI, "00:11:22:33:44:55:66:77").Install()

	res, err := m.Exec(context.Background(), at.Command{Name: at.CmdDevEUI, Action: at.Get}, 20*time.Millisecond)
	if err != nil || res != at.Ok {
		t.Fatalf("unexpected result %v, %v", res, err)
	}

	buf := m.Buffer()
	if string(buf) != "00:11:22:33:44:55:66:77" {
		t.Errorf("unexpected payload %q", buf)
	}
	buf[0] = 'X'
	if string(m.Buffer()) != "00:11:22:33:44:55:66:77" {
		t.Error("Buffer() should return a copy")
	}
}

func TestModemMirror(t *testing.T) {
	var out bytes.Buffer
	m, stream := newTestModem(t, func(b *modem.ConfigBuilder) {
		b.WithMirror(&out)
	})
	NewReplySequence(t, stream).Ping().Install()

	if _, err := m.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := out.String(); got != "[AT(D)](D)(A)OK(D)(A)" {
		t.Errorf("unexpected mirror output %q", got)
	}
}

func TestModemCommandErrors(t *testing.T) {
	t.Run("Canceled context", func(t *testing.T) {
		m, stream := newTestModem(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := m.Ping(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got: %v", err)
		}
		if stream.Written() != "" {
			t.Errorf("nothing should be written, got %q", stream.Written())
		}
	})

	t.Run("Invalid command", func(t *testing.T) {
		m, stream := newTestModem(t)
		cmd := at.Command{Name: at.CmdDR, Action: at.Get, Params: []string{"1"}}

		if _, err := m.Exec(context.Background(), cmd, time.Millisecond); !errors.Is(err, at.ErrUnexpectedParams) {
			t.Errorf("expected ErrUnexpectedParams, got: %v", err)
		}
		if stream.Written() != "" {
			t.Errorf("nothing should be written, got %q", stream.Written())
		}
	})

	t.Run("Write failure", func(t *testing.T) {
		m, stream := newTestModem(t)
		stream.Close()

		if _, err := m.Ping(context.Background()); !errors.Is(err, io.ErrClosedPipe) {
			t.Errorf("expected wrapped write error, got: %v", err)
		}
	})
}
