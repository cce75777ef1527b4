package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration
type Config struct {
	// BindAddress is the address the server listens on (e.g. "0.0.0.0:8080")
	BindAddress string
	// SerialPort is the path to the module's serial port (e.g. "/dev/ttyUSB0")
	SerialPort string
	// BaudRate is the baud rate for serial communication with the module (e.g. 9600)
	BaudRate int
	// LogLevel sets the logging level (e.g. "debug", "info", "warn", "error")
	LogLevel string
	// DeviceID names this gateway in published frames
	DeviceID string
	// NATSURL enables frame publishing to NATS when set (e.g. "nats://localhost:4222")
	NATSURL string
	// NATSSubject is the subject prefix for published frames
	NATSSubject string
	// RedisURL enables the Redis frame shadow when set (e.g. "localhost:6379")
	RedisURL string
	// P2PFrequency enables the continuous P2P listen loop when non-zero, in kHz
	P2PFrequency uint32
	// ListenWindow is the duration of one P2P listen call
	ListenWindow time.Duration
	// DebugMirror copies all module traffic to stderr
	DebugMirror bool
}

// ErrListenWindow is returned for a listen window that is not positive.
var ErrListenWindow = errors.New("listen window must be positive")

func parseListenWindow(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: %w", s, ErrListenWindow)
	}
	return d, nil
}

// ConfigOption is a function that modifies a Config
type ConfigOption func(*Config) error

// LoadConfig creates a new config by applying the given options in order
func LoadConfig(opts ...ConfigOption) (*Config, error) {
	config := &Config{}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, err
		}
	}

	return config, nil
}

// WithDefaults applies default configuration values
func WithDefaults() ConfigOption {
	return func(c *Config) error {
		c.BindAddress = "0.0.0.0:8080"
		c.SerialPort = "/dev/ttyUSB0"
		c.BaudRate = 9600
		c.LogLevel = "info"
		c.DeviceID = "smw-01"
		c.NATSSubject = "smw"
		c.ListenWindow = 10 * time.Second
		return nil
	}
}

func setUint32(dst *uint32, s string) error {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return err
	}
	*dst = uint32(v)
	return nil
}

// WithEnv loads configuration from environment variables
func WithEnv() ConfigOption {
	return func(c *Config) error {
		if addr := os.Getenv("BIND_ADDRESS"); addr != "" {
			c.BindAddress = addr
		}

		if serial := os.Getenv("SERIAL_PORT"); serial != "" {
			c.SerialPort = serial
		}

		if baud := os.Getenv("BAUD_RATE"); baud != "" {
			if b, err := strconv.Atoi(baud); err == nil {
				c.BaudRate = b
			}
		}

		if level := os.Getenv("LOG_LEVEL"); level != "" {
			c.LogLevel = level
		}

		if id := os.Getenv("DEVICE_ID"); id != "" {
			c.DeviceID = id
		}

		if url := os.Getenv("NATS_URL"); url != "" {
			c.NATSURL = url
		}

		if subject := os.Getenv("NATS_SUBJECT"); subject != "" {
			c.NATSSubject = subject
		}

		if url := os.Getenv("REDIS_URL"); url != "" {
			c.RedisURL = url
		}

		if freq := os.Getenv("P2P_FREQUENCY"); freq != "" {
			if err := setUint32(&c.P2PFrequency, freq); err != nil {
				return err
			}
		}

		if window := os.Getenv("LISTEN_WINDOW"); window != "" {
			d, err := parseListenWindow(window)
			if err != nil {
				return err
			}
			c.ListenWindow = d
		}

		if mirror := os.Getenv("DEBUG_MIRROR"); mirror != "" {
			c.DebugMirror, _ = strconv.ParseBool(mirror)
		}

		return nil
	}
}

// WithFlags loads configuration from command-line flags
func WithFlags(fSet *flag.FlagSet) ConfigOption {
	return func(c *Config) error {
		var err error
		fSet.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "bind-address":
				c.BindAddress = f.Value.String()
			case "serial-port":
				c.SerialPort = f.Value.String()
			case "baud-rate":
				if b, err := strconv.Atoi(f.Value.String()); err == nil {
					c.BaudRate = b
				}
			case "log-level":
				c.LogLevel = f.Value.String()
			case "device-id":
				c.DeviceID = f.Value.String()
			case "nats-url":
				c.NATSURL = f.Value.String()
			case "nats-subject":
				c.NATSSubject = f.Value.String()
			case "redis-url":
				c.RedisURL = f.Value.String()
			case "p2p-frequency":
				if e := setUint32(&c.P2PFrequency, f.Value.String()); e != nil {
					err = e
				}
			case "listen-window":
				if d, e := parseListenWindow(f.Value.String()); e != nil {
					err = e
				} else {
					c.ListenWindow = d
				}
			case "debug-mirror":
				c.DebugMirror, _ = strconv.ParseBool(f.Value.String())
			}
		})
		return err
	}
}
