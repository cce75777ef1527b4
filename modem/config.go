package modem

import (
	"io"
	"log/slog"
	"time"
)

func (c *Config) validate() error {
	if c.dialer == nil {
		return ErrNoDialer
	}
	return nil
}

// Config holds the settings of a Modem. Build one with NewConfigBuilder.
type Config struct {
	dialer Dialer
	// readTimeout bounds query commands (Get, Run of short commands).
	readTimeout time.Duration
	// writeTimeout bounds commands the module takes longer to answer (Set, SAVE, SEND).
	writeTimeout time.Duration
	// resetTimeout bounds the banner waits after ATZ and a join mode change.
	resetTimeout time.Duration
	// incomingDelay is the pause between polls during the banner waits.
	incomingDelay time.Duration
	// pollInterval is the cooperative pause when no byte is pending.
	pollInterval time.Duration
	mirror       io.Writer
	logger       *slog.Logger
}

func (c *Config) setDefaults() {
	if c.readTimeout == 0 {
		c.readTimeout = 100 * time.Millisecond
	}
	if c.writeTimeout == 0 {
		c.writeTimeout = 500 * time.Millisecond
	}
	if c.resetTimeout == 0 {
		c.resetTimeout = 3 * time.Second
	}
	if c.incomingDelay == 0 {
		c.incomingDelay = 10 * time.Millisecond
	}
	if c.pollInterval == 0 {
		c.pollInterval = time.Millisecond
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
}

// ConfigBuilder assembles a Config.
type ConfigBuilder struct {
	config Config
}

func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{}
}

func (b *ConfigBuilder) WithDialer(d Dialer) *ConfigBuilder {
	b.config.dialer = d
	return b
}

func (b *ConfigBuilder) WithReadTimeout(d time.Duration) *ConfigBuilder {
	b.config.readTimeout = d
	return b
}

func (b *ConfigBuilder) WithWriteTimeout(d time.Duration) *ConfigBuilder {
	b.config.writeTimeout = d
	return b
}

func (b *ConfigBuilder) WithResetTimeout(d time.Duration) *ConfigBuilder {
	b.config.resetTimeout = d
	return b
}

func (b *ConfigBuilder) WithIncomingDelay(d time.Duration) *ConfigBuilder {
	b.config.incomingDelay = d
	return b
}

func (b *ConfigBuilder) WithPollInterval(d time.Duration) *ConfigBuilder {
	b.config.pollInterval = d
	return b
}

// WithMirror attaches a diagnostic sink that receives a copy of all traffic,
// with non-printable bytes rendered as "(HEX)".
func (b *ConfigBuilder) WithMirror(w io.Writer) *ConfigBuilder {
	b.config.mirror = w
	return b
}

func (b *ConfigBuilder) WithLogger(l *slog.Logger) *ConfigBuilder {
	b.config.logger = l
	return b
}

// Build validates the configuration and fills in defaults.
func (b *ConfigBuilder) Build() (Config, error) {
	c := b.config
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	c.setDefaults()
	return c, nil
}
