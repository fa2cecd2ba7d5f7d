package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/campus-reservations/internal/arbitration"
	"github.com/example/campus-reservations/internal/config"
	"github.com/example/campus-reservations/internal/gateway"
	"github.com/example/campus-reservations/internal/httpapi"
	"github.com/example/campus-reservations/internal/notification"
	"github.com/example/campus-reservations/internal/persistence/sqlite"
	"github.com/example/campus-reservations/internal/predictor"
	"github.com/example/campus-reservations/internal/tracing"
)

const serviceVersion = "0.1.0"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "hash-admin-token" {
		hashAdminToken(os.Args[2:])
		return
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	settings, err := config.LoadSettings(cfg.SettingsFile)
	if err != nil {
		logger.Error("failed to load settings file", "error", err)
		os.Exit(1)
	}

	if err := tracing.Init("campus-reservations", serviceVersion, cfg.TraceFile); err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if terr := tracing.Shutdown(shutdownCtx); terr != nil {
			logger.Error("failed to shut down tracing", "error", terr)
		}
	}()

	pool, err := sqlite.NewConnectionPool(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := sqlite.Migrate(context.Background(), pool); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	roomRepo := sqlite.NewRoomRepository(pool)
	commitmentRepo := sqlite.NewCommitmentRepository(pool)
	requestRepo := sqlite.NewRequestRepository(pool)
	auditRepo := sqlite.NewAuditRepository(pool)

	idGenerator := uuid.NewString
	now := time.Now

	if cfg.SeedDemo {
		if err := seedDemo(context.Background(), roomRepo, commitmentRepo, now(), logger); err != nil {
			logger.Error("failed to seed demo data", "error", err)
			os.Exit(1)
		}
	}

	scheduleStore := newScheduleStoreAdapter(commitmentRepo, requestRepo)
	requestStore := newRequestStoreAdapter(requestRepo)
	roomCatalog := newRoomCatalogAdapter(roomRepo)
	audit := newAuditAdapter(auditRepo)

	detector := arbitration.NewConflictDetector(scheduleStore, logger)
	finder := arbitration.NewAlternativeFinder(detector, roomCatalog, settings.RoomPool, logger)
	estimator := predictor.NewHistoryEstimator(newHistorySourceAdapter(requestRepo), 0, now, logger)
	engine := arbitration.NewEngine(requestStore, detector, finder, roomCatalog, estimator, idGenerator, now, logger)

	renderer, err := notification.NewRenderer(settings.Coordinator.Name)
	if err != nil {
		logger.Error("failed to build notification templates", "error", err)
		os.Exit(1)
	}
	channels := make([]notification.Channel, 0, len(settings.Channels))
	for _, name := range settings.Channels {
		channel, cerr := notification.ParseChannel(name)
		if cerr != nil {
			logger.Error("unknown notification channel", "channel", name)
			os.Exit(1)
		}
		channels = append(channels, channel)
	}
	coordinator := notification.Contact{
		Name:  settings.Coordinator.Name,
		Email: settings.Coordinator.Email,
		Phone: settings.Coordinator.Phone,
	}
	dispatcher := notification.NewDispatcher(
		buildGateway(settings, logger),
		audit,
		renderer,
		channels,
		coordinator,
		cfg.GatewayTimeout,
		idGenerator,
		now,
		logger,
	)

	reminders := notification.NewReminderScheduler(newUpcomingSourceAdapter(requestRepo), dispatcher, cfg.ReminderInterval, now, logger)
	go func() {
		if rerr := reminders.Run(ctx); rerr != nil && !errors.Is(rerr, context.Canceled) {
			logger.Error("reminder scheduler stopped with error", "error", rerr)
		}
	}()

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Requests:        httpapi.NewRequestHandler(engine, dispatcher, logger),
		Rooms:           httpapi.NewRoomHandler(roomRepo, logger),
		Commitments:     httpapi.NewCommitmentHandler(commitmentRepo, idGenerator, logger),
		Audit:           httpapi.NewAuditHandler(audit, notification.NewReporter(audit, now), now, logger),
		Middleware:      []httpapi.Middleware{httpapi.RequestLogger(logger)},
		AdminMiddleware: httpapi.RequireAdminToken(cfg.AdminTokenHash, logger),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shut down server", "error", err)
		}
	}()

	logger.Info("reservations API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

// hashAdminToken prints the argon2id hash of the given token so operators
// can populate RESERVATIONS_ADMIN_TOKEN_HASH.
func hashAdminToken(args []string) {
	if len(args) != 1 || args[0] == "" {
		fmt.Fprintln(os.Stderr, "usage: reservations hash-admin-token <token>")
		os.Exit(2)
	}
	hash, err := httpapi.CreateTokenHash(args[0], httpapi.DefaultArgon2idParams())
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to hash token:", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}

// buildGateway selects the webhook gateway when at least one endpoint is
// configured and falls back to console logging otherwise.
func buildGateway(settings config.Settings, logger *slog.Logger) notification.Gateway {
	if len(settings.Gateway) == 0 {
		logger.Info("no gateway configured, notifications go to the console")
		return gateway.NewConsoleGateway(logger)
	}
	endpoints := make(map[notification.Channel]gateway.Endpoint, len(settings.Gateway))
	for name, endpoint := range settings.Gateway {
		channel, err := notification.ParseChannel(name)
		if err != nil {
			logger.Warn("unknown gateway channel, skipping", "channel", name)
			continue
		}
		endpoints[channel] = gateway.Endpoint{URL: endpoint.URL, APIKey: endpoint.APIKey}
	}
	if len(endpoints) == 0 {
		return gateway.NewConsoleGateway(logger)
	}
	return gateway.NewWebhookGateway(endpoints, nil)
}
