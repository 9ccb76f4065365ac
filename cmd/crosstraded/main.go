package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"crosstrade/config"
	"crosstrade/core"
	"crosstrade/core/events"
	"crosstrade/gateway/middleware"
	"crosstrade/observability/logging"
	telemetry "crosstrade/observability/otel"
	"crosstrade/rpc"
	"crosstrade/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "crosstraded: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		cfgPath      string
		allowMigrate bool
		listenFlag   string
	)
	flag.StringVar(&cfgPath, "config", "./config.toml", "path to the daemon configuration")
	flag.BoolVar(&allowMigrate, "allow-migrate", false, "upgrade an older state schema in place")
	flag.StringVar(&listenFlag, "listen", "", "override RPC listen address")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if listenFlag != "" {
		cfg.RPC.ListenAddress = listenFlag
	}

	env := strings.TrimSpace(cfg.Logging.Environment)
	if env == "" {
		env = strings.TrimSpace(os.Getenv("CROSSTRADE_ENV"))
	}
	logger := logging.Setup("crosstraded", env, logging.FileOptions{
		Path:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.FromTelemetry("crosstraded", env, cfg.Telemetry))
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	db, err := storage.Open(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	chain, err := core.NewChain(db, cfg, core.Options{
		Logger:       logger,
		Emitter:      eventLogger{logger: logger.With("component", "events")},
		AllowMigrate: allowMigrate,
	})
	if err != nil {
		return fmt.Errorf("open chain: %w", err)
	}
	logger.Info("chain ready",
		"chain_id", chain.ChainID(),
		"storage", cfg.Storage.Backend,
		"stake_scope", chain.Protocol().StakeScope,
		"payment_id_scheme", chain.Protocol().PaymentIDScheme)

	secret := cfg.RPC.JWTSecretValue()
	if secret == "" && !cfg.RPC.AllowInsecureDev {
		return errors.New("rpc: JWT secret required unless AllowInsecureDev is set")
	}
	logger.Info("rpc auth configured",
		logging.MaskField("jwt_secret_env", cfg.RPC.JWTSecretEnv),
		"issuer", cfg.RPC.JWTIssuer,
		"insecure_dev", cfg.RPC.AllowInsecureDev && secret == "")
	server, err := rpc.NewServer(chain, rpc.ServerConfig{
		ListenAddress: cfg.RPC.ListenAddress,
		Auth: middleware.AuthConfig{
			HMACSecret:       secret,
			Issuer:           cfg.RPC.JWTIssuer,
			AllowInsecureDev: cfg.RPC.AllowInsecureDev,
		},
		RateLimit: middleware.RateLimit{
			RatePerSecond: cfg.RPC.RateLimitPerSec,
			Burst:         cfg.RPC.RateLimitBurst,
		},
		ReadHeaderTimeout: time.Duration(cfg.RPC.ReadHeaderTimeout) * time.Second,
		LogRequests:       true,
	}, logger)
	if err != nil {
		return err
	}
	return server.Start(ctx)
}

// eventLogger writes committed protocol events to the log.
type eventLogger struct {
	logger *slog.Logger
}

func (l eventLogger) Emit(evt events.Event) {
	payload, ok := evt.(events.Payload)
	if !ok {
		l.logger.Debug("event", "type", evt.EventType())
		return
	}
	rendered := payload.Event()
	if rendered == nil {
		return
	}
	attrs := make([]any, 0, 2+2*len(rendered.Attributes))
	attrs = append(attrs, "type", rendered.Type)
	for key, value := range rendered.Attributes {
		attrs = append(attrs, key, value)
	}
	l.logger.Info("event", attrs...)
}
