// Package library keeps the user's watchlist and recently-viewed history in a
// storage.Medium.
//
// Every exported Store operation is total: storage and decoding failures are
// logged and the operation degrades to an empty read, false or a no-op. Each
// operation holds the store's lock for its whole read-modify-write, so Stores
// may be shared between goroutines.
package library

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/marco/filmfinder/internal/apperr"
	"github.com/marco/filmfinder/internal/storage"
)

// Default keys are the ones the web front-end uses in localStorage, so an
// exported localStorage dump can be loaded as is.
const (
	DefaultWatchlistKey        = "filmfinder-watchlist"
	DefaultRecentlyViewedKey   = "filmfinder-recently-viewed"
	DefaultRecentlyViewedLimit = 10

	schemaVersion = 1
)

// Options configures a Store
type Options struct {
	WatchlistKey        string
	RecentlyViewedKey   string
	RecentlyViewedLimit int
	// Now returns the time recorded as addedAt. Defaults to time.Now.
	Now    func() time.Time
	Logger *slog.Logger
}

// Store manages the watchlist and recently-viewed collections
type Store struct {
	medium       storage.Medium
	watchlistKey string
	recentKey    string
	recentLimit  int
	now          func() time.Time
	log          *slog.Logger

	mu sync.Mutex
}

// New creates a Store over medium
func New(medium storage.Medium, opts Options) *Store {
	if opts.WatchlistKey == "" {
		opts.WatchlistKey = DefaultWatchlistKey
	}
	if opts.RecentlyViewedKey == "" {
		opts.RecentlyViewedKey = DefaultRecentlyViewedKey
	}
	if opts.RecentlyViewedLimit <= 0 {
		opts.RecentlyViewedLimit = DefaultRecentlyViewedLimit
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Store{
		medium:       medium,
		watchlistKey: opts.WatchlistKey,
		recentKey:    opts.RecentlyViewedKey,
		recentLimit:  opts.RecentlyViewedLimit,
		now:          opts.Now,
		log:          opts.Logger,
	}
}

// envelope is the persisted layout of one collection
type envelope[T any] struct {
	Version int `json:"version"`
	Items   []T `json:"items"`
}

// load reads the collection under key. A missing key is an empty collection.
// Bare JSON arrays written before the envelope existed are accepted.
func load[T any](m storage.Medium, key string) ([]T, error) {
	raw, found, err := m.GetItem(key)
	if err != nil {
		return nil, apperr.E(apperr.KindStorageUnavailable, "library.load", err)
	}
	raw = strings.TrimSpace(raw)
	if !found || raw == "" || raw == "null" {
		return []T{}, nil
	}

	if strings.HasPrefix(raw, "[") {
		var items []T
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			return nil, apperr.E(apperr.KindStorageCorrupt, "library.load", err)
		}
		if items == nil {
			items = []T{}
		}
		return items, nil
	}

	var env envelope[T]
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, apperr.E(apperr.KindStorageCorrupt, "library.load", err)
	}
	if env.Version > schemaVersion {
		return nil, apperr.Errorf(apperr.KindStorageCorrupt, "library.load",
			"%s has schema version %d, newest supported is %d", key, env.Version, schemaVersion)
	}
	if env.Items == nil {
		env.Items = []T{}
	}
	return env.Items, nil
}

func save[T any](m storage.Medium, key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(envelope[T]{Version: schemaVersion, Items: items})
	if err != nil {
		return apperr.E(apperr.KindStorageCorrupt, "library.save", err)
	}
	if err := m.SetItem(key, string(data)); err != nil {
		return apperr.E(apperr.KindStorageUnavailable, "library.save", err)
	}
	return nil
}

func (s *Store) logFailure(msg, key string, err error) {
	s.log.Error(msg, "key", key, "kind", string(apperr.KindOf(err)), "error", err)
}
