package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultShadowTTL = 24 * time.Hour
	defaultHistory   = 100
)

// RedisShadow keeps the last frame of each device in a hash and a bounded
// history list, both updated in one MULTI/EXEC transaction:
//
//	smw:<device>:last    hash  rssi, snr, payload, ts
//	smw:<device>:frames  list  JSON events, newest first
type RedisShadow struct {
	Client redis.Cmdable
	// TTL of both keys, refreshed on every frame. Zero means 24h.
	TTL time.Duration
	// History is the number of frames kept in the list. Zero means 100.
	History int64
}

func lastKey(device string) string   { return "smw:" + device + ":last" }
func framesKey(device string) string { return "smw:" + device + ":frames" }

func (s *RedisShadow) Publish(ctx context.Context, e Event) error {
	ttl := s.TTL
	if ttl == 0 {
		ttl = defaultShadowTTL
	}
	history := s.History
	if history == 0 {
		history = defaultHistory
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	last := lastKey(e.DeviceID)
	frames := framesKey(e.DeviceID)
	_, err = s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, last,
			"rssi", e.RSSI,
			"snr", e.SNR,
			"payload", e.Payload,
			"ts", e.Timestamp,
		)
		pipe.Expire(ctx, last, ttl)
		pipe.LPush(ctx, frames, data)
		pipe.LTrim(ctx, frames, 0, history-1)
		pipe.Expire(ctx, frames, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("update shadow: %w", err)
	}
	return nil
}

// DialRedis connects to addr and checks the connection with PING.
func DialRedis(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   0,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to Redis: %w", err)
	}
	return client, nil
}
