package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"pathbuilder-service/internal/adapters/events"
	"pathbuilder-service/internal/adapters/routing"
	"pathbuilder-service/internal/api"
	"pathbuilder-service/internal/config"
	"pathbuilder-service/internal/platform/logging"
	"pathbuilder-service/internal/ports"
	"pathbuilder-service/internal/services"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// main is the application composition root.
// It wires concrete adapters (SQL stores, caches, ORS, Kafka) behind ports and
// starts the HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.Must(logging.New(cfg.AppEnv, cfg.LogFile))
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("open storage", zap.Error(err))
	}
	defer st.Close()

	directionsCache, closeCache, err := buildDirectionsCache(ctx, cfg, st.directions, logger)
	if err != nil {
		logger.Fatal("build directions cache", zap.Error(err))
	}
	defer closeCache()

	// A nil gateway keeps every draft on straight-line geometry.
	var gateway ports.RoutingGateway
	if cfg.RoutingConfigured() {
		provider, err := routing.NewORSDirectionsProvider(
			cfg.Routing.APIKey,
			directionsCache,
			routing.WithBaseURL(cfg.Routing.BaseURL),
		)
		if err != nil {
			logger.Fatal("routing provider", zap.Error(err))
		}
		gateway = provider
	} else {
		logger.Warn("ORS_API_KEY not set; routes are drawn as straight lines")
	}

	var publisher ports.RouteEventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher := events.NewKafkaRoutePublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer func() { _ = kafkaPublisher.Close() }()
		publisher = kafkaPublisher
		logger.Info("publishing route events",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic),
		)
	}

	library := services.NewRouteLibrary(st.routes, logger.Named("library"))
	saver := services.NewRouteSaver(st.routes, library, publisher, logger.Named("saver"))
	calc := services.NewRouteCalculator(gateway, cfg.Routing.Timeout.Duration, logger.Named("routing"))
	sessions := services.NewDraftSessions(func() *services.Composer {
		return services.NewComposer(calc, saver, logger.Named("composer"))
	})
	defer sessions.CloseAll()

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.Deps{
		Sessions:      sessions,
		Library:       library,
		Logger:        logger.Named("http"),
		SettleTimeout: cfg.Routing.Timeout.Duration + 5*time.Second,
	})

	// No WriteTimeout: draft event streams stay open for the life of a draft.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr), zap.String("db_driver", cfg.DBDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server forced shutdown", zap.Error(err))
	}
}
