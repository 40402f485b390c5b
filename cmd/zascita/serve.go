package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/erazemk/zascita/internal/api"
	"github.com/erazemk/zascita/internal/auth"
	"github.com/erazemk/zascita/internal/blob"
	"github.com/erazemk/zascita/internal/cache"
	"github.com/erazemk/zascita/internal/config"
	"github.com/erazemk/zascita/internal/hazard"
	"github.com/erazemk/zascita/internal/metrics"
	"github.com/erazemk/zascita/internal/store"
)

// redisPrefix namespaces every key zascita writes to a shared Redis.
const redisPrefix = "zascita:"

func runServe(cfg *config.Config, adminUser string, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := openDatabase(cfg, log)
	if err != nil {
		return err
	}
	defer database.Close()
	st := store.New(database, cfg.Database.Driver)

	// First run: create the admin account like init does.
	password, err := createAdmin(ctx, st, adminUser)
	switch {
	case err == nil:
		printInitResult(cfg.Database.DSN, adminUser, password)
		fmt.Println()
	case !errors.Is(err, errInitialized):
		return err
	}

	secret := cfg.JWT.Secret
	if secret == "" {
		// Auto-generated on first run and kept in the settings table.
		if secret, err = st.GetJWTSecret(ctx); err != nil {
			return fmt.Errorf("loading JWT secret: %w", err)
		}
	}

	cacheStore, closeCache, err := newCache(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	defer closeCache()

	blobs, err := newBlobStorage(ctx, cfg.Storage)
	if err != nil {
		return err
	}

	var source hazard.Source = hazard.SampleFires()
	if cfg.Hazards.FiresURL != "" {
		source = hazard.NewHTTPSource(cfg.Hazards.FiresURL, cfg.Hazards.Timeout)
	}

	apiRouter := api.NewRouter(api.Deps{
		Store:    st,
		Tokens:   auth.NewTokens(secret, cfg.JWT.Expiry),
		Cache:    cacheStore,
		Fires:    hazard.NewService(source, cacheStore, hazard.FiresKey, cfg.Hazards.FiresTTL, log),
		Blobs:    blobs,
		Log:      log,
		StatsTTL: cfg.Cache.StatsTTL,
	})

	mux := http.NewServeMux()
	mux.Handle("/", apiRouter)
	if cfg.Metrics.Enabled {
		mux.Handle("GET /metrics", metrics.Handler())
	}

	handler := cors.New(cors.Options{
		AllowedOrigins: cfg.Server.CorsAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-Cache", "Content-Disposition"},
		MaxAge:         300,
	}).Handler(mux)

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server started", zap.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped, closing database")
	return nil
}

func newCache(ctx context.Context, cfg config.CacheConfig) (cache.Store, func(), error) {
	if cfg.Backend == "redis" {
		r, err := cache.DialRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, redisPrefix)
		if err != nil {
			return nil, nil, err
		}
		return r, func() { _ = r.Close() }, nil
	}
	return cache.NewMemory(), func() {}, nil
}

func newBlobStorage(ctx context.Context, cfg config.StorageConfig) (blob.Storage, error) {
	if cfg.Backend == "s3" {
		return blob.NewS3(ctx, blob.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	}
	return blob.NewLocal(cfg.LocalDir)
}
