package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/gatepass-backend/api/controllers"
	"github.com/angelmondragon/gatepass-backend/api/routes"
	"github.com/angelmondragon/gatepass-backend/internal/exports"
	"github.com/angelmondragon/gatepass-backend/internal/gatepasses"
	"github.com/angelmondragon/gatepass-backend/internal/notifications"
	"github.com/angelmondragon/gatepass-backend/internal/photos"
	"github.com/angelmondragon/gatepass-backend/internal/qrcodes"
	"github.com/angelmondragon/gatepass-backend/pkg/config"
	"github.com/angelmondragon/gatepass-backend/pkg/db"
	"github.com/angelmondragon/gatepass-backend/pkg/instance"
	"github.com/angelmondragon/gatepass-backend/pkg/logger"
	"github.com/angelmondragon/gatepass-backend/pkg/metrics"
	"github.com/angelmondragon/gatepass-backend/pkg/migrate"
	"github.com/angelmondragon/gatepass-backend/pkg/outbox"
	"github.com/angelmondragon/gatepass-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	requireResource(ctx, logg, "dev migrations", migrate.MaybeRunDev(ctx, cfg, logg, dbClient))

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	blobStore, err := newBlobStore(ctx, cfg.Storage, logg)
	requireResource(ctx, logg, "blob storage", err)

	qrGenerator, err := qrcodes.NewGenerator(blobStore, cfg.QR)
	requireResource(ctx, logg, "qr generator", err)

	photoService, err := photos.NewService(photos.NewRepository(dbClient.DB()), blobStore, cfg.Media.MaxUploadBytes(), logg)
	requireResource(ctx, logg, "photo service", err)

	notificationRepo := notifications.NewRepository(dbClient.DB())
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	emitter, err := notifications.NewEmitter(cfg.Notifications, outboxService, notificationRepo)
	requireResource(ctx, logg, "notification emitter", err)

	notificationService, err := notifications.NewService(notificationRepo)
	requireResource(ctx, logg, "notification service", err)

	gatePassService, err := gatepasses.NewService(gatepasses.ServiceParams{
		DB:         dbClient,
		Repository: gatepasses.NewRepository(dbClient.DB()),
		Photos:     photoService,
		QR:         qrGenerator,
		Notifier:   emitter,
		Config:     cfg.Lifecycle,
		Logger:     logg,
		Metrics:    metrics.NewLifecycleMetrics(prometheus.DefaultRegisterer),
	})
	requireResource(ctx, logg, "gate pass service", err)

	loc, err := cfg.Lifecycle.Location()
	requireResource(ctx, logg, "time zone", err)
	exporter, err := exports.NewExporter(gatePassService, loc)
	requireResource(ctx, logg, "exporter", err)

	router := routes.NewRouter(cfg, logg, routes.Dependencies{
		Readiness: map[string]controllers.Pinger{
			"database": dbClient,
			"redis":    redisClient,
			"storage":  blobStore,
		},
		Redis:         redisClient,
		GatePasses:    gatePassService,
		Photos:        photoService,
		QR:            gatePassService,
		Exporter:      exporter,
		Notifications: notificationService,
		Metrics:       promhttp.Handler(),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(runCtx, "starting api server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(runCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
		logg.Info(shutdownCtx, "api server shut down gracefully")
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
