package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"i4.energy/across/smwgw/at"
	"i4.energy/across/smwgw/modem"
	"i4.energy/across/smwgw/relay"
)

// Listener keeps the module in continuous P2P receive mode and relays every
// received frame. HTTP commands are served between listen windows.
type Listener struct {
	Logger    *slog.Logger
	Modem     *modem.Modem
	Publisher relay.Publisher
	DeviceID  string
	Frequency uint32
	Window    time.Duration
}

// Run blocks until ctx is cancelled or the module fails.
func (l *Listener) Run(ctx context.Context) error {
	if l.Window <= 0 {
		return fmt.Errorf("listen window %v: %w", l.Window, ErrListenWindow)
	}

	res, err := l.Modem.P2PStart(ctx, l.Frequency, true, "")
	if err != nil {
		return fmt.Errorf("start P2P receive: %w", err)
	}
	if res != at.Ok {
		return fmt.Errorf("start P2P receive: %w", res.Err())
	}
	l.Logger.Info("P2P receive started", "frequency_khz", l.Frequency)

	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if res, err := l.Modem.P2PStop(stopCtx); err != nil || res != at.Ok {
			l.Logger.Warn("Failed to stop P2P receive", "outcome", res, "error", err)
		}
	}()

	for {
		res, frame, err := l.Modem.P2PListen(ctx, l.Window)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return ctx.Err()
			}
			return fmt.Errorf("listen: %w", err)
		}
		if res != at.Data {
			continue
		}

		l.Logger.Debug("Frame received", "rssi", frame.RSSI, "snr", frame.SNR, "length", len(frame.Payload))
		if l.Publisher == nil {
			continue
		}
		if err := l.Publisher.Publish(ctx, relay.NewEvent(l.DeviceID, frame, time.Now())); err != nil {
			l.Logger.Error("Failed to relay frame", "error", err)
		}
	}
}
