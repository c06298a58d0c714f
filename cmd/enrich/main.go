// Command enrich runs one peer of the privacy-preserving graph enrichment
// protocol described by internal/driver: the requester (role: server) walks
// its own graph and asks a peer's oracle (role: client) whether each vertex
// denotes the same real-world entity as one of the peer's, merging in the
// peer's lineage subgraph for every match found. When enrichment's
// security_mode is false, both graphs are instead compared directly in one
// process against the plaintext ground-truth engine — useful for testing
// thresholds without paying for homomorphic evaluation.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/glyphmatch/enrich/internal/config"
	"github.com/glyphmatch/enrich/internal/telemetry"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "enrich: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "enrich: %v\n", err)
		}
		return 1
	}

	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.InitProvider(ctx, telemetry.ProviderConfig{
		ServiceName: "enrich",
		MetricsAddr: cfg.Server.MetricsAddr,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "enrich: telemetry: %v\n", err)
		return 1
	}
	defer func() {
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(shutCtx)
	}()

	metrics := telemetry.DefaultMetrics()

	if !cfg.Enrichment.SecurityMode {
		slog.Info("enrich starting", "mode", "plaintext", "dataset", cfg.Dataset.Path, "peer_dataset", cfg.Dataset.PeerPath)
		if err := runPlaintext(ctx, cfg, metrics); err != nil {
			slog.Error("plaintext run failed", "err", err)
			return 1
		}
		slog.Info("enrich done")
		return 0
	}

	slog.Info("enrich starting",
		"mode", "encrypted",
		"role", cfg.Server.Role,
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	switch cfg.Server.Role {
	case config.RoleServer:
		if err := runRequester(ctx, cfg, metrics); err != nil {
			slog.Error("requester run failed", "err", err)
			return 1
		}
	case config.RoleClient:
		if err := runOracle(ctx, cfg, metrics); err != nil {
			slog.Error("oracle run failed", "err", err)
			return 1
		}
	default:
		// config.Validate already rejects any other role at load time.
		slog.Error("unreachable: unknown role passed validation", "role", cfg.Server.Role)
		return 1
	}

	slog.Info("enrich done")
	return 0
}

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
