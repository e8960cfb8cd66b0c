package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gymroster/internal/adapters/cache"
	"gymroster/internal/adapters/email"
	web "gymroster/internal/adapters/http"
	"gymroster/internal/adapters/http/perf"
	"gymroster/internal/adapters/storage"
	memberStore "gymroster/internal/adapters/storage/member"
	"gymroster/internal/application/orchestrators"
	"gymroster/internal/config"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("server_failed", "error", err.Error())
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(config.NewLogger(cfg.Log, os.Stderr))

	db, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector, cfg.Database.SlowThreshold)
	defer timedDB.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = timedDB.PingContext(pingCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	slog.Info("database_ready", "path", cfg.Database.Path)

	members := memberStore.NewSQLiteStore(timedDB)
	searchCache := newSearchCache(cfg)
	defer searchCache.Close()

	csrfKey, err := loadCSRFKey(cfg)
	if err != nil {
		return err
	}

	// Expiry digest runs on its own ticker; no recipients means it never sends.
	stopCh := make(chan struct{})
	sender := email.New(cfg.Email.ResendKey, cfg.Email.From)
	digestDone := orchestrators.StartBackgroundWorker("expiry_digest", func(ctx context.Context) error {
		_, err := orchestrators.ExecuteExpiryDigest(ctx, orchestrators.ExpiryDigestInput{
			Recipients: cfg.Email.DigestTo,
			GymName:    cfg.Email.GymName,
		}, orchestrators.ExpiryDigestDeps{MemberStore: members, Sender: sender})
		return err
	}, cfg.Email.DigestInterval, stopCh)

	handler, closeMux := web.NewMux(&web.Stores{MemberStore: members, Cache: searchCache}, collector, web.Options{
		CSRFKey:         csrfKey,
		SecureCookies:   cfg.IsProduction(),
		RateLimitPerMin: cfg.Security.RateLimitPerMin,
	})
	defer closeMux()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_starting", "version", version, "addr", cfg.Server.Addr, "env", cfg.Env)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		close(stopCh)
		<-digestDone
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("server_stopping")
	close(stopCh)
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	<-digestDone
	return nil
}

// newSearchCache uses redis when an address is configured and falls back to no caching
// when it is missing or unreachable.
func newSearchCache(cfg *config.Config) cache.SearchCache {
	if cfg.Redis.Address == "" {
		slog.Info("search_cache_disabled")
		return cache.NoopCache{}
	}
	c, err := cache.NewRedisSearchCache(cache.RedisOptions{
		Address:  cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Prefix:   cfg.Cache.Prefix,
		TTL:      cfg.Cache.TTL,
	})
	if err != nil {
		slog.Warn("search_cache_unavailable", "address", cfg.Redis.Address, "error", err.Error())
		return cache.NoopCache{}
	}
	slog.Info("search_cache_ready", "address", cfg.Redis.Address)
	return c
}

// loadCSRFKey decodes the hex CSRF secret. Production requires one; development gets a random key per start.
func loadCSRFKey(cfg *config.Config) ([]byte, error) {
	if cfg.Security.CSRFKey != "" {
		key, err := hex.DecodeString(cfg.Security.CSRFKey)
		if err != nil || len(key) != 32 {
			return nil, errors.New("security.csrf_key must be 64 hex characters (32 bytes)")
		}
		return key, nil
	}
	if cfg.IsProduction() {
		return nil, errors.New("security.csrf_key is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate CSRF key: %w", err)
	}
	slog.Warn("csrf_key_random", "hint", "set GYMROSTER_SECURITY_CSRF_KEY to keep tokens valid across restarts")
	return key, nil
}
