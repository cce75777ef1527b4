// Package relay forwards frames received in P2P listen mode to the rest of
// the system.
package relay

import (
	"context"
	"encoding/hex"
	"errors"
	"time"

	"i4.energy/across/smwgw/at"
)

// Event is the wire form of a received frame.
type Event struct {
	DeviceID   string `json:"device_id"`
	RSSI       int    `json:"rssi"`
	SNR        int    `json:"snr"`
	Payload    string `json:"payload"`
	PayloadHex string `json:"payload_hex"`
	Timestamp  int64  `json:"timestamp"`
}

// NewEvent stamps a frame with the receiving device and time.
func NewEvent(deviceID string, f at.Frame, ts time.Time) Event {
	return Event{
		DeviceID:   deviceID,
		RSSI:       f.RSSI,
		SNR:        f.SNR,
		Payload:    string(f.Payload),
		PayloadHex: hex.EncodeToString(f.Payload),
		Timestamp:  ts.Unix(),
	}
}

// Publisher delivers events to one destination.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Fanout publishes to every publisher and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
