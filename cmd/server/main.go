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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"golang.org/x/crypto/bcrypt"

	apikeyservice "docverify/internal/apikey/service"
	apikeystore "docverify/internal/apikey/store"
	registrymetrics "docverify/internal/evidence/registry/metrics"
	"docverify/internal/evidence/registry/providers"
	"docverify/internal/evidence/registry/providers/sirene"
	"docverify/internal/evidence/registry/providers/vies"
	registryservice "docverify/internal/evidence/registry/service"
	registrystore "docverify/internal/evidence/registry/store"
	"docverify/internal/platform/config"
	"docverify/internal/platform/httpserver"
	"docverify/internal/platform/logger"
	"docverify/internal/platform/metrics"
	platformredis "docverify/internal/platform/redis"
	ratelimitmetrics "docverify/internal/ratelimit/metrics"
	ratelimitmw "docverify/internal/ratelimit/middleware"
	"docverify/internal/ratelimit/service/quota"
	"docverify/internal/ratelimit/store/bucket"
	httptransport "docverify/internal/transport/http"
	"docverify/internal/verification"
	verifyhandler "docverify/internal/verification/handler"
	verifymetrics "docverify/internal/verification/metrics"
	"docverify/pkg/platform/circuit"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// main wires dependencies, exposes the HTTP router and keeps the server
// lifecycle small. Business logic lives in the internal service packages.
func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.ParseLevel(cfg.Server.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		log.Info("redis connected")
	} else {
		log.Info("redis not configured, using in-memory stores")
	}

	// API keys
	keyStore := apikeystore.NewInMemoryKeyStore()
	if err := apikeystore.SeedFromConfig(ctx, keyStore, cfg.APIKeys.Seeds, bcrypt.DefaultCost); err != nil {
		return fmt.Errorf("seed api keys: %w", err)
	}
	keys, err := apikeyservice.New(keyStore, apikeyservice.WithLogger(log))
	if err != nil {
		return err
	}

	// Quotas
	var buckets quota.Store = bucket.NewInMemoryBucketStore()
	if redisClient != nil {
		buckets = bucket.NewRedisBucketStore(redisClient.Client, "docverify:")
	}
	quotas, err := quota.New(buckets, quota.WithLogger(log), quota.WithMetrics(ratelimitmetrics.New(reg)))
	if err != nil {
		return err
	}
	metered := ratelimitmw.New(quotas, verifyhandler.AccountResolver(keys), log)

	// Registry
	registry, err := buildProviders(cfg)
	if err != nil {
		return err
	}
	regMetrics := registrymetrics.New(reg)
	var cache registryservice.Cache = registrystore.NewInMemoryCache(cfg.Registry.CacheTTL, regMetrics)
	if redisClient != nil {
		cache = registrystore.NewRedisCache(redisClient.Client, cfg.Registry.CacheTTL, regMetrics)
	}
	registrySvc, err := registryservice.New(registry,
		registryservice.WithCache(cache),
		registryservice.WithMetrics(regMetrics),
		registryservice.WithLogger(log),
		registryservice.WithTracer(otel.Tracer("docverify/registry")),
		registryservice.WithLookupTimeout(max(cfg.Sirene.Timeout, cfg.VIES.Timeout)),
		registryservice.WithBreakerOptions(
			circuit.WithFailureThreshold(cfg.Registry.BreakerFailureThreshold),
			circuit.WithSuccessThreshold(cfg.Registry.BreakerSuccessThreshold),
			circuit.WithCooldown(cfg.Registry.BreakerCooldown),
		),
	)
	if err != nil {
		return err
	}

	// Verification
	verifier := verification.New(
		verification.WithRegistry(registrySvc),
		verification.WithBatchConcurrency(cfg.Batch.Concurrency),
		verification.WithMetrics(verifymetrics.New(reg)),
		verification.WithLogger(log),
	)
	handler := verifyhandler.New(verifier, keys, quotas, log, verifyhandler.WithMaxBatchItems(cfg.Batch.MaxItems))

	router := httptransport.NewRouter(&httptransport.Handler{
		Version:      version,
		Verification: handler,
		Keys:         keys,
		Metered:      metered.RequireQuota,
		Providers:    registrySvc,
		Metrics:      metrics.New(reg),
		Gatherer:     reg,
		Logger:       log,
	})

	srv := httpserver.New(cfg.Server.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting docverify", "addr", cfg.Server.Addr, "version", version, "providers", len(registry.All()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// buildProviders registers the enabled registry providers in fallback order.
func buildProviders(cfg config.Config) (*providers.ProviderRegistry, error) {
	registry := providers.NewProviderRegistry()
	if cfg.Sirene.Enabled {
		p := sirene.New("sirene", cfg.Sirene.BaseURL, cfg.Sirene.APIKey, providers.TransportConfig{
			Timeout:  cfg.Sirene.Timeout,
			RetryMax: cfg.Sirene.RetryMax,
		})
		if err := registry.Register(p); err != nil {
			return nil, err
		}
	}
	if cfg.VIES.Enabled {
		p := vies.New("vies", cfg.VIES.URL, providers.TransportConfig{
			Timeout:  cfg.VIES.Timeout,
			RetryMax: cfg.VIES.RetryMax,
		})
		if err := registry.Register(p); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
