package metadata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/marco/filmfinder/internal/apperr"
	"github.com/marco/filmfinder/internal/metadata/cache"
	"github.com/marco/filmfinder/internal/retry"
)

const (
	// DefaultTMDBBaseURL is the TMDB v3 API root
	DefaultTMDBBaseURL = "https://api.themoviedb.org/3"

	// randomPageLimit bounds the page picked by RandomPick; TMDB rejects pages above 500
	// and results thin out quickly past the first few dozen.
	randomPageLimit = 20
)

// ErrMovieNotFound is returned when a movie is not found by ID
var ErrMovieNotFound = errors.New("movie not found")

// ErrNoResults is returned by RandomPick when the filters match nothing
var ErrNoResults = errors.New("no movies found with the specified filters")

// RetryLogFunc is a callback for logging retry attempts
type RetryLogFunc func(attempt int, maxAttempts int, backoff time.Duration, err error)

// CacheLogFunc is a callback for logging cache operations
type CacheLogFunc func(operation string, key string, hit bool)

// Client represents a TMDB API client
type Client struct {
	apiKey       string
	language     string
	baseURL      string
	httpClient   *http.Client
	limiter      *rate.Limiter
	policy       retry.Policy
	cache        cache.Cache
	cacheTTL     time.Duration
	cacheLogFunc CacheLogFunc
	forceRefresh bool
}

// ClientConfig holds configuration for the TMDB client
type ClientConfig struct {
	APIKey           string
	Language         string
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
}

// NewClientWithConfig creates a new TMDB API client with full configuration
func NewClientWithConfig(cfg ClientConfig) *Client {
	if cfg.Language == "" {
		cfg.Language = "en-US"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultTMDBBaseURL
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialBackoffMs <= 0 {
		cfg.InitialBackoffMs = 1000
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 30
	}
	if cfg.CacheTTLDays <= 0 {
		cfg.CacheTTLDays = 1
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second}
	}

	return &Client{
		apiKey:     cfg.APIKey,
		language:   cfg.Language,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: httpClient,
		limiter:    newLimiter(cfg.RateLimitDelayMs),
		policy: retry.Policy{
			MaxAttempts:    cfg.MaxAttempts,
			InitialBackoff: time.Duration(cfg.InitialBackoffMs) * time.Millisecond,
			OnRetry:        retry.AttemptFunc(cfg.RetryLogFunc),
		},
		cache:        cfg.Cache,
		cacheTTL:     time.Duration(cfg.CacheTTLDays) * 24 * time.Hour,
		cacheLogFunc: cfg.CacheLogFunc,
		forceRefresh: cfg.ForceRefresh,
	}
}

// newLimiter spaces requests delayMs apart. Zero disables limiting.
func newLimiter(delayMs int) *rate.Limiter {
	if delayMs <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(time.Duration(delayMs)*time.Millisecond), 1)
}

// getFromCache retrieves data from cache if available and not force-refreshing
func getFromCache(c cache.Cache, forceRefresh bool, logFn CacheLogFunc, key string) ([]byte, bool) {
	if c == nil || forceRefresh {
		return nil, false
	}
	data, found := c.Get(key)
	if logFn != nil {
		logFn("get", key, found)
	}
	return data, found
}

// setToCache stores data in cache if caching is enabled
func setToCache(c cache.Cache, ttl time.Duration, logFn CacheLogFunc, key string, data []byte) {
	if c == nil {
		return
	}
	if err := c.Set(key, data, ttl); err != nil {
		// Log error but don't fail the operation
		if logFn != nil {
			logFn("set_error", key, false)
		}
	} else if logFn != nil {
		logFn("set", key, true)
	}
}

// fetchJSON performs a GET with rate limiting and retry and returns the raw
// body of a 200 response.
func fetchJSON(ctx context.Context, httpClient *http.Client, limiter *rate.Limiter, policy retry.Policy, requestURL string, statusMessage func([]byte) string) ([]byte, error) {
	var body []byte
	err := retry.Do(ctx, policy, func(ctx context.Context) error {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			return &retry.StatusError{StatusCode: resp.StatusCode, Message: statusMessage(data)}
		}
		body = data
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// tmdbStatusMessage extracts status_message from a TMDB error body
func tmdbStatusMessage(body []byte) string {
	var status TMDBStatus
	if err := json.Unmarshal(body, &status); err == nil && status.StatusMessage != "" {
		return status.StatusMessage
	}
	return strings.TrimSpace(string(body))
}

// get fetches path into out, consulting the cache under cacheKey first
func (c *Client) get(ctx context.Context, op, cacheKey, path string, params url.Values, out any) error {
	if cachedData, found := getFromCache(c.cache, c.forceRefresh, c.cacheLogFunc, cacheKey); found {
		if err := json.Unmarshal(cachedData, out); err == nil {
			return nil
		}
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	params.Set("language", c.language)
	requestURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	body, err := fetchJSON(ctx, c.httpClient, c.limiter, c.policy, requestURL, tmdbStatusMessage)
	if err != nil {
		return apperr.E(apperr.KindUpstreamUnavailable, op, fmt.Errorf("TMDB request failed: %w", err))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apperr.E(apperr.KindUpstreamUnavailable, op, fmt.Errorf("failed to decode TMDB response: %w", err))
	}

	setToCache(c.cache, c.cacheTTL, c.cacheLogFunc, cacheKey, body)
	return nil
}

// Trending returns the trending movies for window ("day" or "week").
// Anything else selects "week".
func (c *Client) Trending(ctx context.Context, window string) (*TMDBPagedResponse, error) {
	if window != "day" {
		window = "week"
	}
	var resp TMDBPagedResponse
	if err := c.get(ctx, "tmdb.Trending", "tmdb:trending:"+window, "/trending/movie/"+window, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Search finds movies matching query. A release year given as "(1999)" or in a
// release style name narrows the search (see ParseQuery). A blank query returns
// an empty page without contacting TMDB.
func (c *Client) Search(ctx context.Context, query string) (*TMDBPagedResponse, error) {
	title, year := ParseQuery(query)
	if title == "" {
		return &TMDBPagedResponse{Page: 1, Results: []TMDBMovie{}}, nil
	}

	params := url.Values{}
	params.Set("query", title)
	params.Set("page", "1")
	params.Set("include_adult", "false")
	if year > 0 {
		params.Set("year", strconv.Itoa(year))
	}

	var resp TMDBPagedResponse
	cacheKey := fmt.Sprintf("tmdb:search:%s:%d", strings.ToLower(title), year)
	if err := c.get(ctx, "tmdb.Search", cacheKey, "/search/movie", params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MovieDetails fetches a movie with its credits, videos and similar titles
// appended. A 404 from TMDB is reported as ErrMovieNotFound.
func (c *Client) MovieDetails(ctx context.Context, tmdbID int) (*TMDBMovieDetails, error) {
	params := url.Values{}
	params.Set("append_to_response", "credits,videos,similar")

	var details TMDBMovieDetails
	cacheKey := fmt.Sprintf("tmdb:movie:%d", tmdbID)
	if err := c.get(ctx, "tmdb.MovieDetails", cacheKey, fmt.Sprintf("/movie/%d", tmdbID), params, &details); err != nil {
		var statusErr *retry.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("movie %d: %w", tmdbID, ErrMovieNotFound)
		}
		return nil, err
	}
	return &details, nil
}

// DiscoverOptions filters a discover/movie query
type DiscoverOptions struct {
	Genres    []int
	Page      int
	SortBy    string
	Year      int
	MinRating float64
}

func (o DiscoverOptions) params() url.Values {
	params := url.Values{}
	if len(o.Genres) > 0 {
		ids := make([]string, len(o.Genres))
		for i, g := range o.Genres {
			ids[i] = strconv.Itoa(g)
		}
		params.Set("with_genres", strings.Join(ids, ","))
	}
	page := o.Page
	if page <= 0 {
		page = 1
	}
	params.Set("page", strconv.Itoa(page))
	if o.SortBy != "" {
		params.Set("sort_by", o.SortBy)
	}
	if o.Year > 0 {
		params.Set("primary_release_year", strconv.Itoa(o.Year))
	}
	if o.MinRating > 0 {
		params.Set("vote_average.gte", strconv.FormatFloat(o.MinRating, 'f', -1, 64))
	}
	params.Set("include_adult", "false")
	return params
}

// Discover lists movies matching opts
func (c *Client) Discover(ctx context.Context, opts DiscoverOptions) (*TMDBPagedResponse, error) {
	params := opts.params()
	var resp TMDBPagedResponse
	cacheKey := "tmdb:discover:" + params.Encode()
	if err := c.get(ctx, "tmdb.Discover", cacheKey, "/discover/movie", params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Genres returns TMDB's movie genre list
func (c *Client) Genres(ctx context.Context) ([]TMDBGenre, error) {
	var resp TMDBGenreList
	if err := c.get(ctx, "tmdb.Genres", "tmdb:genres", "/genre/movie/list", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Genres == nil {
		resp.Genres = []TMDBGenre{}
	}
	return resp.Genres, nil
}

// RandomPick discovers a random page of movies matching filters and returns one
// of its results at random. A nil rng uses the global source.
func (c *Client) RandomPick(ctx context.Context, filters DiscoverOptions, rng *rand.Rand) (*TMDBMovie, error) {
	intN := rand.IntN
	if rng != nil {
		intN = rng.IntN
	}

	filters.Page = intN(randomPageLimit) + 1
	resp, err := c.Discover(ctx, filters)
	if err != nil {
		return nil, err
	}
	// Narrow filters can have fewer pages than the random pick; retry once
	// within the real page count.
	if len(resp.Results) == 0 && resp.TotalPages > 0 && filters.Page > resp.TotalPages {
		filters.Page = intN(resp.TotalPages) + 1
		if resp, err = c.Discover(ctx, filters); err != nil {
			return nil, err
		}
	}
	if len(resp.Results) == 0 {
		return nil, ErrNoResults
	}
	pick := resp.Results[intN(len(resp.Results))]
	return &pick, nil
}
