package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"i4.energy/across/smwgw/modem"
	"i4.energy/across/smwgw/relay"
)

func main() {
	flag.String("serial-port", "/dev/ttyUSB0", "Serial port to connect to the module")
	flag.Int("baud-rate", 9600, "Baud rate for serial communication")
	flag.String("bind-address", "0.0.0.0:8080", "Bind address for the HTTP server")
	flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.String("device-id", "smw-01", "Gateway identifier used in published frames")
	flag.String("nats-url", "", "NATS server URL for frame publishing (empty disables)")
	flag.String("nats-subject", "smw", "NATS subject prefix")
	flag.String("redis-url", "", "Redis address for the frame shadow (empty disables)")
	flag.Uint("p2p-frequency", 0, "P2P receive frequency in kHz (0 disables the listen loop)")
	flag.Duration("listen-window", 10*time.Second, "Duration of one P2P listen window")
	flag.Bool("debug-mirror", false, "Copy module traffic to stderr")
	flag.Parse()

	config, err := LoadConfig(WithDefaults(), WithEnv(), WithFlags(flag.CommandLine))
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	switch config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	builder := modem.NewConfigBuilder().
		WithLogger(logger.With("component", "modem")).
		WithDialer(modem.SerialDialer{
			PortName: config.SerialPort,
			BaudRate: config.BaudRate,
		})
	if config.DebugMirror {
		builder = builder.WithMirror(os.Stderr)
	}
	modemConfig, err := builder.Build()
	if err != nil {
		logger.Error("Failed to create modem config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m, err := modem.New(ctx, modemConfig)
	if err != nil {
		logger.Error("Failed to create modem", "error", err)
		os.Exit(1)
	}

	if res, err := m.Ping(ctx); err != nil || res.Err() != nil {
		logger.Warn("Module did not answer ping", "outcome", res, "error", err)
	}
	if v, res, err := m.Version(ctx); err == nil && res.Err() == nil {
		logger.Info("Module detected", "version", v.String())
	}

	var publishers relay.Fanout
	if config.NATSURL != "" {
		pub, conn, err := relay.DialNATS(config.NATSURL, config.NATSSubject)
		if err != nil {
			logger.Error("Failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer conn.Drain()
		publishers = append(publishers, pub)
		logger.Info("Connected to NATS", "url", config.NATSURL)
	}
	if config.RedisURL != "" {
		client, err := relay.DialRedis(ctx, config.RedisURL)
		if err != nil {
			logger.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		publishers = append(publishers, &relay.RedisShadow{Client: client})
		logger.Info("Connected to Redis", "address", config.RedisURL)
	}

	logger.Info("Starting SMW gateway", "serial_port", config.SerialPort, "device_id", config.DeviceID)

	httpServer := &http.Server{
		Addr: config.BindAddress,
		Handler: &Server{
			Logger: logger.With("component", "server"),
			Modem:  m,
		},
	}

	// Start HTTP server in a goroutine
	go func() {
		logger.Info("Starting HTTP server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	listenDone := make(chan struct{})
	if config.P2PFrequency != 0 {
		listener := &Listener{
			Logger:    logger.With("component", "listener"),
			Modem:     m,
			Publisher: publishers,
			DeviceID:  config.DeviceID,
			Frequency: config.P2PFrequency,
			Window:    config.ListenWindow,
		}
		go func() {
			defer close(listenDone)
			if err := listener.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Listener stopped", "error", err)
			}
		}()
	} else {
		close(listenDone)
	}

	// Wait for interrupt signal
	<-ctx.Done()
	logger.Info("Received shutdown signal")
	<-listenDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Info("Closing HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to gracefully shutdown server", "error", err)
	}

	logger.Info("Closing modem connection")
	if err := m.Close(); err != nil {
		logger.Error("Failed to close modem", "error", err)
	}
}
