package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/abhinavshm95/subsync/pkg/subsync"
	"github.com/abhinavshm95/subsync/pkg/subsync/auth0"
	zerologadapter "github.com/abhinavshm95/subsync/pkg/subsync/logger/zerolog"
	prommetrics "github.com/abhinavshm95/subsync/pkg/subsync/metrics/prometheus"
	stripewebhook "github.com/abhinavshm95/subsync/pkg/subsync/stripe"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := loadConfig()
	if err != nil {
		zl := zerolog.New(os.Stderr).With().Timestamp().Logger()
		zl.Fatal().Err(err).Msg("invalid configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zl := zerolog.New(os.Stderr).Level(level).With().
		Timestamp().
		Str("service", "subsync").
		Logger()

	if err := run(cfg, zl); err != nil {
		zl.Fatal().Err(err).Msg("server exited")
	}
}

func run(cfg config, zl zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := zerologadapter.NewLogger(zl)
	metrics := prommetrics.DefaultMetrics("subsync")

	tokenSource, err := auth0.NewClientCredentialsTokenSource(auth0.ClientCredentialsConfig{
		Domain:       cfg.Auth0Domain,
		ClientID:     cfg.Auth0ClientID,
		ClientSecret: cfg.Auth0ClientSecret,
		Audience:     cfg.Auth0Audience,
		Metrics:      metrics,
	})
	if err != nil {
		return err
	}

	sink, err := auth0.NewSink(auth0.Config{
		Domain:      cfg.Auth0Domain,
		TokenSource: tokenSource,
		Logger:      logger,
		Metrics:     metrics,
	})
	if err != nil {
		return err
	}

	synchronizer, err := subsync.NewSynchronizer(subsync.SynchronizerConfig{
		Sink:    sink,
		Logger:  logger,
		Metrics: metrics,
	})
	if err != nil {
		return err
	}

	var redisClient redis.UniversalClient
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
		zl.Info().Str("addr", cfg.RedisAddr).Msg("using redis-backed rate limiter")
	}

	processor, err := stripewebhook.NewProcessor(stripewebhook.Config{
		StripeAPIKey:        cfg.StripeAPIKey,
		StripeWebhookSecret: cfg.StripeWebhookSecret,
		Synchronizer:        synchronizer,
		Logger:              logger,
		Metrics:             metrics,
		RedisClient:         redisClient,
	})
	if err != nil {
		return err
	}
	if cfg.StripeWebhookSecret == "" {
		zl.Warn().Msg("webhook secret not configured, all events will be rejected")
	}

	router := chi.NewRouter()
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Method(http.MethodPost, "/webhooks/stripe", processor.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		zl.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		zl.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
