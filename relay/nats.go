package relay

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

// NATSConn is the part of *nats.Conn used for publishing.
type NATSConn interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher publishes every event as JSON on "<prefix>.<device>.frame"
// and on "<prefix>.frame.all".
type NATSPublisher struct {
	Conn   NATSConn
	Prefix string
}

func (p *NATSPublisher) Publish(_ context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	for _, subject := range []string{
		p.Prefix + "." + e.DeviceID + ".frame",
		p.Prefix + ".frame.all",
	} {
		if err := p.Conn.Publish(subject, data); err != nil {
			return fmt.Errorf("publish %s: %w", subject, err)
		}
	}
	return nil
}

// DialNATS connects to url and returns a publisher using prefix, plus the
// connection so the caller can drain it on shutdown.
func DialNATS(url, prefix string) (*NATSPublisher, *nats.Conn, error) {
	conn, err := nats.Connect(url, nats.Name("smwgw"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATSPublisher{Conn: conn, Prefix: prefix}, conn, nil
}
