package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"seaweedSwimmerAPI/handlers"
	"seaweedSwimmerAPI/internal/config"
	"seaweedSwimmerAPI/internal/events"
	"seaweedSwimmerAPI/internal/logging"
	"seaweedSwimmerAPI/internal/metrics"
	"seaweedSwimmerAPI/internal/store"
	"seaweedSwimmerAPI/middleware"
	"seaweedSwimmerAPI/services"
)

var (
	cfg                config.Config
	db                 store.Store
	dispatcher         *events.Dispatcher
	leaderboardService *services.LeaderboardService
)

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	if err := logging.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err = store.Open(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to open store: ", err)
	}
	log.WithField("driver", cfg.StoreDriver).Info("Store initialized successfully")

	var bus events.Bus = events.Discard{}
	if cfg.AMQPURL != "" {
		rabbit, err := events.DialRabbitMQ(cfg.AMQPURL)
		if err != nil {
			log.WithError(err).Warn("Could not connect to RabbitMQ, leaderboard events disabled")
		} else {
			bus = rabbit
			log.Info("RabbitMQ event bus initialized successfully")
		}
	}
	dispatcher = events.NewDispatcher(bus)

	leaderboardService = services.NewLeaderboardService(db, dispatcher)

	metrics.Register(prometheus.DefaultRegisterer)
}

func main() {
	defer func() {
		log.Info("Closing store...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Close(ctx); err != nil {
			log.WithError(err).Error("Failed to close store")
		}
	}()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService)
	healthHandler := handlers.NewHealthHandler(leaderboardService)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go rateLimiter.Cleanup(ctx, time.Minute, 3*time.Minute)

	r := mux.NewRouter()
	r.Use(middleware.LoggingMiddleware)

	standardRouter := r.PathPrefix("/").Subrouter()
	standardRouter.Use(rateLimiter.Middleware)
	standardRouter.Use(middleware.MonitorMiddleware)

	var metricsHandler http.Handler = promhttp.Handler()
	if cfg.MetricsAuthEnabled() {
		metricsHandler = middleware.BasicAuthMiddleware(cfg.MetricsUser, cfg.MetricsPass)(metricsHandler)
	}
	standardRouter.Handle("/metrics", metricsHandler).Methods("GET")
	standardRouter.HandleFunc("/health", healthHandler.Health).Methods("GET")

	api := standardRouter.PathPrefix("/api").Subrouter()
	leaderboardHandler.RegisterRoutes(api)

	corsHandler := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins(cfg.CORSOrigins),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type"}),
		gorillaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorillaHandlers.AllowCredentials(),
	)

	server := http.Server{
		Addr:         cfg.Addr(),
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Infof("Starting server on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server: ", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	log.WithField("signal", sig).Info("Shutting down")
	stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server shutdown error")
	}

	if err := dispatcher.Close(); err != nil {
		log.WithError(err).Error("Failed to close event bus")
	}

	log.Info("Server shutdown complete")
}
