package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"villabook/internal/api"
	"villabook/internal/config"
	"villabook/internal/database"
	"villabook/internal/domain"
	"villabook/internal/events"
	"villabook/internal/export"
	"villabook/internal/google"
	"villabook/internal/logging"
	"villabook/internal/metrics"
	"villabook/internal/models"
	"villabook/internal/notify"
	"villabook/internal/repository"
	"villabook/internal/service"
	"villabook/internal/worker"
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

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}
	logger := logging.Component(baseLogger, "server")

	if err := prepareDirectories(cfg, logger); err != nil {
		return err
	}

	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка инициализации базы данных")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, sessions, statsCache := initCaches(ctx, cfg, baseLogger)

	sheetsService := initGoogleSheets(ctx, cfg, logger)

	var sheetsWorker *worker.SheetsWorker
	var syncWorker domain.SyncWorker
	if sheetsService != nil {
		sheetsWorker = worker.NewSheetsWorker(db, sheetsService, redisClient, worker.RetryPolicy{}, logging.Component(baseLogger, "sheets-worker"))
		syncWorker = sheetsWorker
		go sheetsWorker.Start(ctx)
	}

	eventBus := events.NewEventBus()
	notifier := initNotifier(cfg, baseLogger)
	subscribeBookingEvents(eventBus, notifier, logger)

	bookingPolicy := service.BookingPolicy{
		RequireSameClient: cfg.Booking.RequireSameClient,
		MaxBookingDays:    cfg.Booking.MaxBookingDays,
	}
	bookingService := service.NewBookingService(db, eventBus, syncWorker, statsCache, bookingPolicy, logging.Component(baseLogger, "bookings"))
	expenseService := service.NewExpenseService(db, eventBus, syncWorker, statsCache, logging.Component(baseLogger, "expenses"))
	statsService := service.NewStatsService(db, statsCache, 0, logging.Component(baseLogger, "stats"))
	authService := service.NewAuthService(
		cfg.Server.PIN,
		sessions,
		time.Duration(cfg.Booking.SessionTTLSeconds)*time.Second,
		cfg.Booking.PinAttemptLimit,
		time.Duration(cfg.Booking.PinAttemptWindow)*time.Second,
		logging.Component(baseLogger, "auth"),
	)
	reporter := export.NewReporter(cfg.Exports.Path, logging.Component(baseLogger, "export"))

	startMetrics(ctx, cfg, logger)

	server := api.NewServer(cfg.Server, authService, bookingService, expenseService, statsService, reporter, db, logging.Component(baseLogger, "http"))
	go func() {
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Int("port", cfg.Server.Port).Msg("villabook started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}

	logger.Info().Msg("Shutdown complete.")
	return nil
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Error().Err(err).Msg("Ошибка создания директории для базы данных")
		return err
	}
	if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
		logger.Error().Err(err).Msg("Ошибка создания директории для экспорта")
		return err
	}
	return nil
}

// initCaches wires sessions and the stats cache over redis when it is
// configured, with an in-memory fallback either way.
func initCaches(ctx context.Context, cfg *config.Config, baseLogger *zerolog.Logger) (*redis.Client, domain.SessionRepository, domain.StatsCache) {
	logger := logging.Component(baseLogger, "cache")

	var redisClient *redis.Client
	if cfg.Redis.Address != "" {
		redisClient = repository.NewRedisClient(cfg.Redis)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Msg("Redis unavailable")
		}
	}

	if redisClient == nil {
		return nil, repository.NewMemorySessionRepository(), repository.NewMemoryStatsCache()
	}

	sessions := repository.NewFailoverSessionRepository(
		repository.NewRedisSessionRepository(redisClient),
		repository.NewMemorySessionRepository(),
		logger,
	)
	statsCache := repository.NewFailoverStatsCache(
		repository.NewRedisStatsCache(redisClient),
		repository.NewMemoryStatsCache(),
		logger,
	)
	return redisClient, sessions, statsCache
}

func initGoogleSheets(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *google.SheetsService {
	if cfg.Google.CredentialsFile == "" || cfg.Google.SpreadsheetID == "" {
		return nil
	}

	sheetsService, err := google.NewSheetsService(cfg.Google)
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets")
		return nil
	}

	if err := sheetsService.TestConnection(ctx); err != nil {
		if email, emailErr := google.ServiceAccountEmail(cfg.Google.CredentialsFile); emailErr == nil {
			logger.Warn().Err(err).Str("service_account", email).Msg("google sheets connection test failed, share the spreadsheet with the service account")
		} else {
			logger.Warn().Err(err).Msg("google sheets connection test failed")
		}
		return nil
	}

	logger.Info().Msg("google sheets connected")
	return sheetsService
}

func initNotifier(cfg *config.Config, baseLogger *zerolog.Logger) domain.Notifier {
	if cfg.Telegram.BotToken == "" {
		return nil
	}

	logger := logging.Component(baseLogger, "notify")
	notifier, err := notify.NewTelegramNotifier(cfg.Telegram, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram init failed, continuing without notifications")
		return nil
	}
	return notifier
}

// subscribeBookingEvents forwards booking events to the owner chat.
func subscribeBookingEvents(bus *events.EventBus, notifier domain.Notifier, logger *zerolog.Logger) {
	if notifier == nil {
		return
	}

	decode := func(ev *events.Event) (*models.Booking, error) {
		var payload events.BookingEventPayload
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			return nil, err
		}
		return &models.Booking{
			ID:          payload.BookingID,
			ClientName:  payload.ClientName,
			Date:        payload.Date,
			BookingType: models.SlotType(payload.BookingType),
			Price:       payload.Price,
			IsFree:      payload.IsFree,
		}, nil
	}

	bus.Subscribe(events.EventBookingCreated, func(ev *events.Event) error {
		booking, err := decode(ev)
		if err != nil {
			logger.Error().Err(err).Msg("decode booking event")
			return err
		}
		notifier.BookingCreated(booking)
		return nil
	})

	bus.Subscribe(events.EventBookingDeleted, func(ev *events.Event) error {
		booking, err := decode(ev)
		if err != nil {
			logger.Error().Err(err).Msg("decode booking event")
			return err
		}
		notifier.BookingDeleted(booking)
		return nil
	})
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server error")
		}
	}()
}
