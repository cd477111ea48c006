package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/marco/filmfinder/internal/app"
	"github.com/marco/filmfinder/internal/config"
	"github.com/marco/filmfinder/internal/library"
	"github.com/marco/filmfinder/internal/metadata"
	"github.com/marco/filmfinder/internal/metadata/cache"
	"github.com/marco/filmfinder/internal/movie"
	"github.com/marco/filmfinder/internal/refresh"
	"github.com/marco/filmfinder/internal/storage"
)

// env holds everything a command needs
type env struct {
	cfg       *config.Config
	service   *app.Service
	refresher *refresh.Refresher
	store     *library.Store
	medium    storage.Medium
	cache     cache.Cache
}

func newEnv(cfg *config.Config, forceRefresh bool) (*env, error) {
	e := &env{cfg: cfg}

	if cfg.Cache.Enabled {
		ttl := time.Duration(cfg.Cache.TTLDays) * 24 * time.Hour
		c, err := cache.Open(cfg.Cache.Backend, cfg.Cache.Path, cfg.Cache.Size, ttl)
		if err != nil {
			return nil, fmt.Errorf("failed to open cache: %w", err)
		}
		e.cache = c
	}

	retryLog := func(attempt, maxAttempts int, backoff time.Duration, err error) {
		slog.Warn("request failed, retrying",
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"backoff", backoff.String(),
			"error", err,
		)
	}
	cacheLog := func(operation, key string, hit bool) {
		slog.Debug("cache", "operation", operation, "key", key, "hit", hit)
	}

	tmdb := metadata.NewClientWithConfig(metadata.ClientConfig{
		APIKey:           cfg.TMDB.APIKey,
		Language:         cfg.TMDB.Language,
		BaseURL:          cfg.TMDB.BaseURL,
		RateLimitDelayMs: cfg.Options.RateLimitDelay,
		MaxAttempts:      cfg.Options.MaxAttempts,
		InitialBackoffMs: cfg.Options.InitialBackoffMs,
		TimeoutSeconds:   cfg.Options.TimeoutSeconds,
		RetryLogFunc:     retryLog,
		Cache:            e.cache,
		CacheTTLDays:     cfg.Cache.TTLDays,
		CacheLogFunc:     cacheLog,
		ForceRefresh:     forceRefresh,
	})

	opts := app.Options{
		Normalizer: movie.NewNormalizer(cfg.TMDB.ImageBaseURL),
		Logger:     slog.Default(),
	}
	if cfg.OMDBActive() {
		opts.OMDB = metadata.NewOMDBClient(metadata.OMDBConfig{
			APIKey:           cfg.OMDB.APIKey,
			BaseURL:          cfg.OMDB.BaseURL,
			RateLimitDelayMs: cfg.Options.RateLimitDelay,
			InitialBackoffMs: cfg.Options.InitialBackoffMs,
			TimeoutSeconds:   cfg.Options.TimeoutSeconds,
			RetryLogFunc:     retryLog,
			Cache:            e.cache,
			CacheTTLDays:     cfg.Cache.TTLDays,
			CacheLogFunc:     cacheLog,
			ForceRefresh:     forceRefresh,
			Logger:           slog.Default(),
		})
	}

	medium, err := storage.Open(storage.Options{Backend: cfg.Storage.Backend, Path: cfg.Storage.Path})
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	e.medium = medium
	e.store = library.New(medium, library.Options{
		WatchlistKey:        cfg.Storage.WatchlistKey,
		RecentlyViewedKey:   cfg.Storage.RecentlyViewedKey,
		RecentlyViewedLimit: cfg.Storage.RecentlyViewedLimit,
		Logger:              slog.Default(),
	})

	e.service = app.New(tmdb, e.store, opts)
	e.refresher = refresh.New(tmdb, opts.Normalizer, e.store, 0, slog.Default())
	return e, nil
}

// watchlistKey is the storage key the store writes the watchlist under
func (e *env) watchlistKey() string {
	if e.cfg.Storage.WatchlistKey != "" {
		return e.cfg.Storage.WatchlistKey
	}
	return library.DefaultWatchlistKey
}

func (e *env) Close() {
	if e.medium != nil {
		if err := e.medium.Close(); err != nil {
			slog.Error("failed to close storage", "error", err)
		}
	}
	if e.cache != nil {
		if err := e.cache.Close(); err != nil {
			slog.Error("failed to close cache", "error", err)
		}
	}
}
