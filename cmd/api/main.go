package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"printcalc/internal/api"
	"printcalc/internal/config"
	"printcalc/internal/database"
	"printcalc/internal/events"
	"printcalc/internal/logging"
	"printcalc/internal/metrics"
	"printcalc/internal/pricing"
	"printcalc/internal/service"

	"github.com/rs/zerolog"
)

// Standalone quote API: the same engine and catalog as the bot, without Telegram.
func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	if !cfg.API.Enabled {
		logger.Warn().Msg("API is disabled in config, but starting API application. Check your config.")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := initDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	metrics.Register()

	bus := events.NewEventBus(logging.Component(logger, "events"))
	engine := pricing.NewEngine(db, logging.Component(logger, "pricing"))
	quoter := service.NewQuoteService(engine, bus, "api", logging.Component(logger, "quotes"))

	httpServer := api.NewHTTPServer(cfg.API, quoter, logging.Component(logger, "http"))
	httpServer.AddHealthCheck("database", db.PingContext)

	return serve(ctx, httpServer, logger)
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logging.Component(baseLogger, "api-main"), closer, nil
}

func initDatabase(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*database.DB, error) {
	db, err := database.NewDB(cfg.Database.Path, logging.Component(logger, "database"))
	if err != nil {
		logger.Error().Err(err).Msg("init database")
		return nil, err
	}

	catalog, err := config.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		_ = db.Close()
		logger.Error().Err(err).Str("catalog_path", cfg.CatalogPath).Msg("load catalog")
		return nil, err
	}
	if err := db.SyncCatalog(ctx, catalog); err != nil {
		_ = db.Close()
		logger.Error().Err(err).Msg("sync catalog")
		return nil, err
	}
	return db, nil
}

func serve(ctx context.Context, srv *api.HTTPServer, logger *zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error().Err(err).Msg("http server failed")
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
		return err
	}
	logger.Info().Msg("Shutdown complete.")
	return nil
}
