package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"printcalc/internal/api"
	"printcalc/internal/bot"
	"printcalc/internal/config"
	"printcalc/internal/database"
	"printcalc/internal/events"
	"printcalc/internal/export"
	"printcalc/internal/logging"
	"printcalc/internal/metrics"
	"printcalc/internal/models"
	"printcalc/internal/pricing"
	"printcalc/internal/repository"
	"printcalc/internal/service"
	"printcalc/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, logger, closer, err := loadConfigAndLogger(configPath)
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := initDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.Monitoring.PrometheusEnabled || cfg.API.Enabled {
		metrics.Register()
	}

	loc := loadLocation(cfg.App.Timezone, logger)
	redisClient, stateService := initStateService(ctx, cfg, logger)
	if redisClient != nil {
		defer func() { _ = repository.Close(redisClient) }()
	}

	eventBus := events.NewEventBus(logging.Component(logger, "events"))
	engine := pricing.NewEngine(db, logging.Component(logger, "pricing"))
	accessService := service.NewAccessService(cfg.Access.AllowedUserIDs, logging.Component(logger, "access"))
	catalogService := service.NewCatalogService(db, logging.Component(logger, "catalog"))
	botQuoter := service.NewQuoteService(engine, eventBus, "bot", logging.Component(logger, "quotes"))
	orderService := service.NewOrderService(botQuoter, db, eventBus, loc, logging.Component(logger, "orders"))
	exporter := export.NewExporter(cfg.Exports.Path, loc, logging.Component(logger, "export"))

	if cfg.API.Enabled {
		apiQuoter := service.NewQuoteService(engine, eventBus, "api", logging.Component(logger, "quotes"))
		apiServer := api.NewHTTPServer(cfg.API, apiQuoter, logging.Component(logger, "api"))
		apiServer.AddHealthCheck("database", db.PingContext)
		if redisClient != nil {
			apiServer.AddHealthCheck("redis", func(ctx context.Context) error {
				return repository.Ping(ctx, redisClient)
			})
		}
		go func() {
			if err := apiServer.Start(); err != nil {
				logger.Error().Err(err).Msg("API server error")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = apiServer.Shutdown(shutdownCtx)
		}()
	}

	if cfg.Backup.Enabled {
		backupService := database.NewBackupService(db, cfg.Database.Path, cfg.Backup, logging.Component(logger, "backup"))
		go backupService.Start(ctx)
	}

	go watchReload(ctx, configPath, db, accessService, logger)

	wrapper, err := bot.NewTelegramAPI(cfg.Telegram)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка создания BotAPI")
		return err
	}
	tgService := service.NewTelegramService(wrapper)

	if cfg.Bot.NotifyOperators {
		notifyWorker := worker.NewNotifyWorker(tgService, redisClient, worker.RetryPolicy{}, logging.Component(logger, "notify-worker"))
		go notifyWorker.Start(ctx)
		bot.NewOperatorNotifier(notifyWorker, accessService, logging.Component(logger, "notifier")).Subscribe(eventBus)
	}

	telegramBot, err := bot.NewBot(
		tgService, cfg, stateService, catalogService,
		orderService, exporter, accessService,
		logging.Component(logger, "bot"),
	)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка создания бота")
		return err
	}

	logger.Info().Msg("Бот запущен...")
	telegramBot.Start(ctx)
	telegramBot.Stop()

	logger.Info().Msg("Shutdown complete.")
	return nil
}

func loadConfigAndLogger(configPath string) (*config.Config, *zerolog.Logger, io.Closer, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logging.Component(baseLogger, "bot-main"), closer, nil
}

func initDatabase(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*database.DB, error) {
	db, err := database.NewDB(cfg.Database.Path, logging.Component(logger, "database"))
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка инициализации базы данных")
		return nil, err
	}

	if err := syncCatalog(ctx, db, cfg.CatalogPath, logger); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func syncCatalog(ctx context.Context, db *database.DB, path string, logger *zerolog.Logger) error {
	catalog, err := config.LoadCatalog(path)
	if err != nil {
		logger.Error().Err(err).Str("path", path).Msg("Failed to load catalog")
		return err
	}
	if err := db.SyncCatalog(ctx, catalog); err != nil {
		logger.Error().Err(err).Msg("Failed to sync catalog")
		return err
	}
	logger.Info().
		Int("products", len(catalog.Products)).
		Int("materials", len(catalog.Materials)).
		Int("modifiers", len(catalog.Modifiers)).
		Msg("Catalog synced")
	return nil
}

func initStateService(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*redis.Client, *service.StateService) {
	var redisClient *redis.Client
	if cfg.Redis.Address != "" {
		redisClient = repository.NewRedisClient(cfg.Redis)
		if errPing := repository.Ping(ctx, redisClient); errPing != nil {
			logger.Warn().Err(errPing).Msg("Redis unavailable, using in-memory state until it recovers")
		}
	}

	ttl := time.Duration(models.DefaultStateTTL) * time.Second
	primaryRepo := repository.NewRedisStateRepository(redisClient, ttl)
	fallbackRepo := repository.NewMemoryStateRepository(ttl)
	go fallbackRepo.RunSweeper(ctx, 10*time.Minute)

	stateLogger := logging.Component(logger, "state")
	stateRepo := repository.NewFailoverStateRepository(primaryRepo, fallbackRepo, stateLogger)
	return redisClient, service.NewStateService(stateRepo, stateLogger)
}

func loadLocation(name string, logger *zerolog.Logger) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		logger.Warn().Err(err).Str("timezone", name).Msg("Unknown timezone, using UTC")
		return time.UTC
	}
	return loc
}

// watchReload re-reads the operator allow-list and the catalog on SIGHUP.
func watchReload(ctx context.Context, configPath string, db *database.DB, access *service.AccessService, logger *zerolog.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			cfg, err := config.Load(configPath)
			if err != nil {
				logger.Error().Err(err).Msg("Reload failed, keeping current settings")
				continue
			}
			access.Reload(cfg.Access.AllowedUserIDs)
			_ = syncCatalog(ctx, db, cfg.CatalogPath, logger)
		}
	}
}
