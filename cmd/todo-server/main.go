package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Makepad-fr/tada/internal/config"
	"github.com/Makepad-fr/tada/internal/httpserver"
	"github.com/Makepad-fr/tada/internal/store"
	"github.com/Makepad-fr/tada/internal/store/jsonstore"
	"github.com/Makepad-fr/tada/internal/store/sqlitestore"
	pkgLog "github.com/Makepad-fr/tada/pkg/log"
)

func main() {
	configPath := flag.String("config", "", "path to tada.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load config:", err)
		os.Exit(1)
	}

	logger := pkgLog.Init(pkgLog.ZapConfig{
		Level:        cfg.Logger.Level,
		Encoding:     cfg.Logger.Encoding,
		ColorEnabled: cfg.Logger.ColorEnabled,
	})
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Errorf(ctx, "server stopped: %v", err)
		logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger pkgLog.Logger) error {
	st, err := openStore(ctx, cfg.Server)
	if err != nil {
		return err
	}
	defer st.Close()
	logger.Infof(ctx, "Storage: %s", cfg.Server.Storage)

	srv, err := httpserver.New(httpserver.Config{
		Logger:      logger,
		Port:        cfg.Server.Port,
		Mode:        cfg.Server.Mode,
		Environment: cfg.Server.Environment,
		Store:       st,
		RateLimit:   cfg.Server.RateLimit,
		RateBurst:   cfg.Server.RateBurst,
	})
	if err != nil {
		return fmt.Errorf("init http server: %w", err)
	}
	return srv.Run(ctx)
}

func openStore(ctx context.Context, cfg config.ServerConfig) (store.Store, error) {
	switch cfg.Storage {
	case config.StorageSQLite:
		st, err := sqlitestore.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return st, nil
	default:
		st, err := jsonstore.Open(cfg.JSONPath)
		if err != nil {
			return nil, fmt.Errorf("open json store: %w", err)
		}
		return st, nil
	}
}
