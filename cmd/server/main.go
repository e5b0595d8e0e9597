// Package main initializes and starts the gallery API server,
// setting up configuration, logging, telemetry, database connections,
// repositories, services and handlers.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/cabellfineart/gallery-api/internal/config"
	"github.com/cabellfineart/gallery-api/internal/db"
	"github.com/cabellfineart/gallery-api/internal/imaging"
	"github.com/cabellfineart/gallery-api/internal/logger"
	"github.com/cabellfineart/gallery-api/internal/middleware"
	"github.com/cabellfineart/gallery-api/internal/repository"
	"github.com/cabellfineart/gallery-api/internal/server/handler/http"
	"github.com/cabellfineart/gallery-api/internal/service"
	"github.com/cabellfineart/gallery-api/internal/telemetry"
	"github.com/cabellfineart/gallery-api/internal/token"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

// shutdownTimeout bounds how long in-flight requests may run after a signal.
const shutdownTimeout = 15 * time.Second

func main() {
	// Parse command-line, file and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	// Error telemetry is only enabled with a DSN.
	var reporter telemetry.Reporter = telemetry.Nop{}
	if options.TelemetryEnabled() {
		sentryReporter, err := telemetry.NewSentry(options.SentryDSN, options.Environment)
		if err != nil {
			zapLogger.Fatal("failed to init telemetry", zap.Error(err))
		}
		reporter = sentryReporter
	}
	defer reporter.Flush(2 * time.Second)

	// Initialize PostgreSQL connection and schema.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	defer postgresDB.Close()

	// Initialize repositories.
	authRepo := repository.NewPostgresAuthRepository(postgresDB)
	artRepo := repository.NewPostgresArtRepository(postgresDB)
	psalmsRepo := repository.NewPostgresPsalmsRepository(postgresDB)

	tokens, err := token.NewManager(token.Config{
		AccessSecret:  options.JWTSecret,
		RefreshSecret: options.SessionSecret,
		AccessTTL:     options.AccessTokenTTL,
		RefreshTTL:    options.RefreshTokenTTL,
	})
	if err != nil {
		zapLogger.Fatal("cannot init token manager", zap.Error(err))
	}

	// Initialize business-logic services.
	authService, err := service.NewAuthService(authRepo, tokens, service.AuthOptions{
		RegistrationCode: options.RegistrationCode,
		FailureDelay:     options.LoginFailureDelay,
	})
	if err != nil {
		zapLogger.Fatal("cannot init auth service", zap.Error(err))
	}
	images := imaging.NewStore(options.ImageStoreDir)
	artService := service.NewArtService(artRepo, images)
	psalmsService := service.NewPsalmsService(psalmsRepo, images)

	// Create HTTP handlers.
	failures := http.NewFailures(zapLogger, reporter)
	authHandler := &http.AuthHandler{AuthService: authService, Failures: failures}
	artHandler := &http.ArtHandler{
		ArtService:     artService,
		Failures:       failures,
		MaxUploadBytes: options.MaxUploadBytes,
	}
	psalmsHandler := &http.PsalmsHandler{
		PsalmsService:  psalmsService,
		Failures:       failures,
		MaxUploadBytes: options.MaxUploadBytes,
	}

	routerOptions := http.RouterOptions{
		Logger:            zapLogger,
		Reporter:          reporter,
		Verifier:          tokens,
		AllowedOrigins:    options.AllowedOrigins,
		RateLimitRequests: options.RateLimitRequests,
		RateLimitWindow:   options.RateLimitWindow,
	}
	if options.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewDBStatsCollector(postgresDB, "gallery"),
		)
		routerOptions.Metrics = middleware.NewMetrics(reg)
		routerOptions.MetricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	// Build the router with middleware and routes.
	router := http.NewRouter(authHandler, artHandler, psalmsHandler, routerOptions)

	server := &nethttp.Server{
		Addr:              options.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		if options.TLSCertFile != "" {
			zapLogger.Info("starting HTTPS server", zap.String("addr", options.Addr))
			serveErr <- server.ListenAndServeTLS(options.TLSCertFile, options.TLSKeyFile)
			return
		}
		zapLogger.Info("starting HTTP server", zap.String("addr", options.Addr))
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, nethttp.ErrServerClosed) {
			zapLogger.Error("server failed", zap.Error(err))
		}
	case <-ctx.Done():
		zapLogger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("graceful shutdown failed", zap.Error(err))
		}
	}
}
