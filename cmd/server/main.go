package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ajharbinger/scoring-api/internal/api"
	"github.com/ajharbinger/scoring-api/internal/auth"
	"github.com/ajharbinger/scoring-api/internal/clients"
	"github.com/ajharbinger/scoring-api/internal/database"
	"github.com/ajharbinger/scoring-api/internal/jobs"
	"github.com/ajharbinger/scoring-api/internal/logger"
	"github.com/ajharbinger/scoring-api/internal/metrics"
	"github.com/ajharbinger/scoring-api/internal/scoring"
	"github.com/ajharbinger/scoring-api/internal/services"
	"github.com/ajharbinger/scoring-api/internal/upstream"
	"github.com/ajharbinger/scoring-api/pkg/config"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 20 * time.Second

func main() {
	os.Exit(run())
}

// run serves until interrupted and returns the process exit code. Deferred
// cleanup has finished by the time it returns.
func run() int {
	cfg, err := config.Load()
	if err != nil {
		logger.NewSimpleLogger().Error("Failed to load configuration", err)
		return 1
	}

	log := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if err := cfg.Validate(); err != nil {
		log.Error("Invalid configuration", err)
		return 1
	}

	// Client registry: Postgres when configured, in-memory otherwise
	var (
		registry clients.Registry = clients.NewMemoryRegistry()
		dbHealth api.HealthChecker
	)
	if cfg.HasDatabase() {
		db, err := database.New(cfg.DatabaseURL)
		if err != nil {
			log.Error("Failed to connect to database", err)
			return 1
		}
		defer db.Close()

		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Error("Failed to run migrations", err)
			return 1
		}
		registry = clients.NewPostgresRegistry(db.DB)
		dbHealth = db
		log.Info("Using Postgres client registry")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewCollector(reg)

	upstreamHealth := upstream.NewHealthMonitor()
	svc := services.NewServices(services.Dependencies{
		UpstreamHealth:  upstreamHealth,
		Store:           jobs.NewStore(),
		Registry:        registry,
		Provider:        upstream.NewHTTPProvider(nil),
		Computer:        scoring.NewDefaultComputer(),
		Metrics:         m,
		Logger:          log,
		AverageDuration: cfg.AverageScoringDuration(),
		FetchTimeout:    cfg.FetchTimeout,
		TokenExpiry:     cfg.TokenExpiry,
		SweepInterval:   cfg.SweepInterval,
	})

	var jwtService *auth.JWTService
	if cfg.JWTEnabled() {
		jwtService = auth.NewJWTService(cfg.JWTSecret, cfg.JWTTTL)
	}
	authService := services.NewAuthService(auth.Credentials{
		Username: cfg.APIUsername,
		Password: cfg.APIPassword,
	}, jwtService)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := api.NewRouter(api.Dependencies{
		Config:   cfg,
		Services: svc,
		Auth:     authService,
		JWT:      jwtService,
		Metrics:  m,
		DB:       dbHealth,
		Upstream: upstreamHealth,
		Logger:   log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := svc.Sweeper.Start(); err != nil {
		log.Error("Failed to start expiry sweeper", err)
		return 1
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		httpErr := srv.Shutdown(shutdownCtx)
		if err := svc.Sweeper.Stop(); err != nil {
			log.Warn("Sweeper stop", "error", err.Error())
		}
		if err := svc.Scoring.Shutdown(shutdownCtx); err != nil {
			log.Warn("Scoring workers cancelled before finishing", "error", err.Error())
		}
		return httpErr
	})

	if err := g.Wait(); err != nil {
		log.Error("Server exited with error", err)
		return 1
	}
	log.Info("Server stopped")
	return 0
}
