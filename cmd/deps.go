package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"frontdesk/internal/catalog"
	"frontdesk/internal/config"
	"frontdesk/internal/daterange"
	"frontdesk/internal/store"
)

// createContextWithTimeout returns a context cancelled on timeout or on SIGINT/SIGTERM
func createContextWithTimeout(timeout time.Duration, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// openStore connects to the hospital database named by DATABASE_URL
func openStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, cfg.DatabaseURL, store.Options{MaxOpenConns: 10, MaxIdleConns: 5})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return st, nil
}

// cachedCatalog puts the Redis cache in front of inner when REDIS_ADDR is set.
// The returned close func is never nil.
func cachedCatalog(ctx context.Context, cfg *config.Config, inner catalog.Catalog, log zerolog.Logger) (catalog.Catalog, func()) {
	if !cfg.CacheEnabled() {
		return inner, func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis unavailable, catalog lookups go straight to the database")
		client.Close()
		return inner, func() {}
	}

	log.Debug().
		Str("addr", cfg.RedisAddr).
		Dur("ttl", cfg.CatalogCacheTTL).
		Msg("Catalog cache enabled")
	return catalog.NewCached(inner, client, cfg.CatalogCacheTTL), func() { client.Close() }
}

// rangeFromFlags resolves --day or the --start/--end pair
func rangeFromFlags(day, start, end string) (daterange.Range, error) {
	if start != "" || end != "" {
		if start == "" || end == "" {
			return daterange.Range{}, fmt.Errorf("--start and --end must be given together")
		}
		return daterange.ParseSpan(start, end)
	}
	return daterange.ParseDay(day, time.Now())
}
