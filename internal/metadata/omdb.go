package metadata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/marco/filmfinder/internal/apperr"
	"github.com/marco/filmfinder/internal/metadata/cache"
	"github.com/marco/filmfinder/internal/retry"
)

// DefaultOMDBBaseURL is the OMDb API root
const DefaultOMDBBaseURL = "https://www.omdbapi.com/"

// OMDBClient looks up ratings and credits on OMDb. Calls run through a circuit
// breaker so a failing OMDb stops being asked until it recovers.
type OMDBClient struct {
	apiKey       string
	baseURL      string
	httpClient   *http.Client
	limiter      *rate.Limiter
	policy       retry.Policy
	breaker      *gobreaker.CircuitBreaker[*OMDBTitle]
	cache        cache.Cache
	cacheTTL     time.Duration
	cacheLogFunc CacheLogFunc
	forceRefresh bool
}

// OMDBConfig holds configuration for the OMDb client
type OMDBConfig struct {
	APIKey           string
	BaseURL          string
	RateLimitDelayMs int
	MaxAttempts      int
	InitialBackoffMs int
	TimeoutSeconds   int
	RetryLogFunc     RetryLogFunc
	Cache            cache.Cache
	CacheTTLDays     int
	CacheLogFunc     CacheLogFunc
	ForceRefresh     bool
	HTTPClient       *http.Client

	// FailureThreshold consecutive failures open the breaker for OpenTimeout
	FailureThreshold uint32
	OpenTimeout      time.Duration
	Logger           *slog.Logger
}

// NewOMDBClient creates an OMDb client
func NewOMDBClient(cfg OMDBConfig) *OMDBClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOMDBBaseURL
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 2
	}
	if cfg.InitialBackoffMs <= 0 {
		cfg.InitialBackoffMs = 500
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 10
	}
	if cfg.CacheTTLDays <= 0 {
		cfg.CacheTTLDays = 7
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second}
	}

	logger := cfg.Logger
	breaker := gobreaker.NewCircuitBreaker[*OMDBTitle](gobreaker.Settings{
		Name:        "omdb",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &OMDBClient{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		httpClient: httpClient,
		limiter:    newLimiter(cfg.RateLimitDelayMs),
		policy: retry.Policy{
			MaxAttempts:    cfg.MaxAttempts,
			InitialBackoff: time.Duration(cfg.InitialBackoffMs) * time.Millisecond,
			OnRetry:        retry.AttemptFunc(cfg.RetryLogFunc),
		},
		breaker:      breaker,
		cache:        cfg.Cache,
		cacheTTL:     time.Duration(cfg.CacheTTLDays) * 24 * time.Hour,
		cacheLogFunc: cfg.CacheLogFunc,
		forceRefresh: cfg.ForceRefresh,
	}
}

// omdbStatusMessage extracts the Error field OMDb sends with failures
func omdbStatusMessage(body []byte) string {
	var t OMDBTitle
	if err := json.Unmarshal(body, &t); err == nil && t.Error != "" {
		return t.Error
	}
	return strings.TrimSpace(string(body))
}

// LookupByIMDbID fetches the OMDb record for an IMDb id such as "tt0133093".
// Every failure, including an open breaker and a Response of "False", is
// reported as an UpstreamUnavailable error.
func (c *OMDBClient) LookupByIMDbID(ctx context.Context, imdbID string) (*OMDBTitle, error) {
	const op = "omdb.LookupByIMDbID"

	imdbID = strings.TrimSpace(imdbID)
	if imdbID == "" {
		return nil, apperr.Errorf(apperr.KindUpstreamUnavailable, op, "empty IMDb id")
	}

	cacheKey := "omdb:title:" + imdbID
	if cachedData, found := getFromCache(c.cache, c.forceRefresh, c.cacheLogFunc, cacheKey); found {
		var cached OMDBTitle
		if err := json.Unmarshal(cachedData, &cached); err == nil && cached.Found() {
			return &cached, nil
		}
	}

	var body []byte
	title, err := c.breaker.Execute(func() (*OMDBTitle, error) {
		params := url.Values{}
		params.Set("apikey", c.apiKey)
		params.Set("i", imdbID)

		data, err := fetchJSON(ctx, c.httpClient, c.limiter, c.policy, c.baseURL+"?"+params.Encode(), omdbStatusMessage)
		if err != nil {
			return nil, err
		}
		var t OMDBTitle
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("failed to decode OMDb response: %w", err)
		}
		body = data
		return &t, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, apperr.E(apperr.KindUpstreamUnavailable, op, fmt.Errorf("OMDb temporarily disabled: %w", err))
		}
		return nil, apperr.E(apperr.KindUpstreamUnavailable, op, fmt.Errorf("OMDb request failed: %w", err))
	}

	if !title.Found() {
		msg := title.Error
		if msg == "" {
			msg = "no match"
		}
		return nil, apperr.Errorf(apperr.KindUpstreamUnavailable, op, "OMDb lookup for %s: %s", imdbID, msg)
	}

	setToCache(c.cache, c.cacheTTL, c.cacheLogFunc, cacheKey, body)
	return title, nil
}
