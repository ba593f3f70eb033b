package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/modfleet/gatehouse/pkg/access"
	"github.com/modfleet/gatehouse/pkg/api"
	"github.com/modfleet/gatehouse/pkg/config"
	"github.com/modfleet/gatehouse/pkg/discord"
	"github.com/modfleet/gatehouse/pkg/middleware"
	"github.com/modfleet/gatehouse/pkg/observability"
	"github.com/modfleet/gatehouse/pkg/proxy"
	"github.com/modfleet/gatehouse/pkg/tickets"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "gatehouse: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.WithFields(map[string]interface{}{
		"port":        cfg.Server.Port,
		"health_port": cfg.Server.HealthPort,
	}).Info("starting gatehouse")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing
	tp, err := observability.InitTracing(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	if tp != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			observability.ShutdownTracing(shutdownCtx, tp, logger)
		}()
	}

	// Metrics
	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	// Postgres (optional; ticket routes are disabled without it)
	var db *sql.DB
	var ticketStorage tickets.Storage
	if cfg.Storage.PostgresURL != "" {
		db, err = sql.Open("postgres", cfg.Storage.PostgresURL)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = db.PingContext(pingCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("failed to ping database: %w", err)
		}

		if err := tickets.ApplyMigrations(ctx, db); err != nil {
			return fmt.Errorf("failed to apply migrations: %w", err)
		}

		ticketStorage = tickets.NewCachedStore(
			tickets.NewStore(db), tickets.DefaultCacheSize, time.Minute, metrics)
		logger.Info("ticket storage initialized")
	} else {
		logger.Warn("no postgres URL configured, ticket routes disabled")
	}

	// Redis (optional; required for the redis cache backend)
	var redisClient *redis.Client
	if cfg.Storage.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.Storage.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to parse redis URL: %w", err)
		}
		if cfg.Storage.RedisPassword != "" {
			redisOpts.Password = cfg.Storage.RedisPassword
		}
		redisOpts.DB = cfg.Storage.RedisDB
		redisClient = redis.NewClient(redisOpts)
		defer redisClient.Close()
	}

	// Access decision cache
	var cache access.Cache
	switch cfg.Access.CacheBackend {
	case "redis":
		cache, err = access.NewRedisCache(redisClient, cfg.Access.CacheTTL, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize redis cache: %w", err)
		}
		logger.Info("using redis access cache")
	default:
		cache = access.NewMemoryCache(cfg.Access.CacheTTL)
		logger.Info("using in-memory access cache")
	}

	// Identity gateway and decision engine
	gateway := discord.NewClient(cfg.Gateway.BaseURL,
		discord.WithTimeout(cfg.Gateway.Timeout),
		discord.WithMetrics(metrics),
	)

	if cfg.Access.SkipChecks {
		logger.Warn("ACCESS CHECKS ARE DISABLED, every request will be granted")
	}
	engine := access.NewEngine(gateway, cache, access.Policy{
		GuildID:         cfg.Access.GuildID,
		RequiredRoleIDs: cfg.Access.RequiredRoleIDs,
	},
		access.WithLogger(logger),
		access.WithMetrics(metrics),
		access.WithSkipChecks(cfg.Access.SkipChecks),
	)

	guardOpts := []middleware.GuardOption{middleware.WithGuardLogger(logger)}
	if cfg.Access.DebugDenials {
		logger.Warn("debug denial details are enabled, 403 bodies include policy ids")
		guardOpts = append(guardOpts, middleware.WithDebugDenials(access.Policy{
			GuildID:         cfg.Access.GuildID,
			RequiredRoleIDs: cfg.Access.RequiredRoleIDs,
		}))
	}
	guard := middleware.NewAccessGuard(engine, guardOpts...)

	// Guarded reverse proxy in front of the dashboard upstream
	var dashboard http.Handler
	if cfg.Server.DashboardUpstream != "" {
		dashboard, err = proxy.New(cfg.Server.DashboardUpstream, guard, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize dashboard proxy: %w", err)
		}
		logger.WithField("upstream", cfg.Server.DashboardUpstream).Info("dashboard proxy enabled")
	}

	rateLimit := middleware.NewRateLimitMiddleware()
	rateLimit.StartCleanup(ctx)

	apiServer := api.NewServer(api.Options{
		Guard:          guard,
		TicketStorage:  ticketStorage,
		Dashboard:      dashboard,
		Logger:         logger,
		Metrics:        metrics,
		RateLimit:      rateLimit,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	// Open ticket gauge refresh
	scheduler := cron.New()
	if ticketStorage != nil {
		_, err = scheduler.AddFunc("@every 1m", func() {
			countCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			count, err := ticketStorage.CountOpenTickets(countCtx)
			if err != nil {
				logger.WithError(err).Warn("failed to refresh open ticket count")
				return
			}
			metrics.TicketsOpenTotal.Set(float64(count))
		})
		if err != nil {
			return fmt.Errorf("failed to schedule ticket gauge refresh: %w", err)
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Health and metrics on a separate port
	health := observability.NewHealthChecker(db, redisClient)
	healthRouter := mux.NewRouter()
	healthRouter.HandleFunc("/healthz", health.Liveness).Methods("GET")
	healthRouter.HandleFunc("/readyz", health.Readiness).Methods("GET")
	if cfg.Observability.MetricsEnabled {
		healthRouter.Handle("/metrics", metrics.Handler()).Methods("GET")
	}

	mainServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      apiServer,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	healthServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler:      healthRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithField("addr", mainServer.Addr).Info("api server listening")
		if err := mainServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("api server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.WithField("addr", healthServer.Addr).Info("health server listening")
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("health server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := mainServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("api server shutdown failed")
		}
		if err := healthServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("health server shutdown failed")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("gatehouse stopped")
	return nil
}
