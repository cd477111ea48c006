// Package app ties the provider clients, the normalizer and the library store
// together into the operations the CLI exposes.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"unicode/utf8"

	"github.com/marco/filmfinder/internal/browse"
	"github.com/marco/filmfinder/internal/library"
	"github.com/marco/filmfinder/internal/metadata"
	"github.com/marco/filmfinder/internal/metadata/nfo"
	"github.com/marco/filmfinder/internal/movie"
)

const (
	suggestMinChars = 2
	suggestLimit    = 5
)

// TMDB is the primary provider
type TMDB interface {
	Trending(ctx context.Context, window string) (*metadata.TMDBPagedResponse, error)
	Search(ctx context.Context, query string) (*metadata.TMDBPagedResponse, error)
	MovieDetails(ctx context.Context, tmdbID int) (*metadata.TMDBMovieDetails, error)
	Discover(ctx context.Context, opts metadata.DiscoverOptions) (*metadata.TMDBPagedResponse, error)
	Genres(ctx context.Context) ([]metadata.TMDBGenre, error)
	RandomPick(ctx context.Context, filters metadata.DiscoverOptions, rng *rand.Rand) (*metadata.TMDBMovie, error)
}

// OMDB is the optional secondary provider
type OMDB interface {
	LookupByIMDbID(ctx context.Context, imdbID string) (*metadata.OMDBTitle, error)
}

// Options configures a Service
type Options struct {
	// OMDB may be nil, in which case details keep their overlay defaults
	OMDB       OMDB
	Normalizer *movie.Normalizer
	Logger     *slog.Logger
	Rand       *rand.Rand
}

// Service is the application facade
type Service struct {
	tmdb       TMDB
	omdb       OMDB
	normalizer *movie.Normalizer
	store      *library.Store
	log        *slog.Logger
	rng        *rand.Rand
}

// New creates a Service
func New(tmdb TMDB, store *library.Store, opts Options) *Service {
	if opts.Normalizer == nil {
		opts.Normalizer = movie.NewNormalizer("")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		tmdb:       tmdb,
		omdb:       opts.OMDB,
		normalizer: opts.Normalizer,
		store:      store,
		log:        opts.Logger,
		rng:        opts.Rand,
	}
}

func (s *Service) summaries(op string, resp *metadata.TMDBPagedResponse) []movie.Summary {
	if resp == nil {
		return []movie.Summary{}
	}
	out, skipped := s.normalizer.Summaries(resp.Results)
	if skipped > 0 {
		s.log.Debug("skipped invalid provider entries", "op", op, "count", skipped)
	}
	return out
}

// Trending lists this week's (or today's) trending movies
func (s *Service) Trending(ctx context.Context, window string) ([]movie.Summary, error) {
	resp, err := s.tmdb.Trending(ctx, window)
	if err != nil {
		return nil, err
	}
	return s.summaries("trending", resp), nil
}

// Search finds movies by title. A blank query yields no results.
func (s *Service) Search(ctx context.Context, query string) ([]movie.Summary, error) {
	if strings.TrimSpace(query) == "" {
		return []movie.Summary{}, nil
	}
	resp, err := s.tmdb.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.summaries("search", resp), nil
}

// Suggest returns up to five search results for type-ahead. Queries shorter
// than two characters return nothing.
func (s *Service) Suggest(ctx context.Context, query string) ([]movie.Summary, error) {
	if utf8.RuneCountInString(strings.TrimSpace(query)) < suggestMinChars {
		return []movie.Summary{}, nil
	}
	results, err := s.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(results) > suggestLimit {
		results = results[:suggestLimit]
	}
	return results, nil
}

func (s *Service) details(ctx context.Context, id movie.ID) (*metadata.TMDBMovieDetails, error) {
	if !id.Valid() {
		return nil, fmt.Errorf("invalid movie id %d", id)
	}
	return s.tmdb.MovieDetails(ctx, int(id))
}

// Movie returns the full detail record for id, overlaid with OMDb ratings when
// the movie has an IMDb id, and records it as recently viewed. An OMDb failure
// is logged and the detail keeps the overlay defaults.
func (s *Service) Movie(ctx context.Context, id movie.ID) (movie.Detail, error) {
	primary, err := s.details(ctx, id)
	if err != nil {
		return movie.Detail{}, err
	}

	var secondary *metadata.OMDBTitle
	if s.omdb != nil && strings.TrimSpace(primary.IMDbID) != "" {
		secondary, err = s.omdb.LookupByIMDbID(ctx, primary.IMDbID)
		if err != nil {
			s.log.Warn("OMDb lookup failed", "movie_id", int(id), "imdb_id", primary.IMDbID, "error", err)
			secondary = nil
		}
	}

	detail, err := s.normalizer.Detail(*primary, secondary)
	if err != nil {
		return movie.Detail{}, err
	}
	s.store.AddToRecentlyViewed(&detail.Summary)
	return detail, nil
}

// Genres lists TMDB's movie genres
func (s *Service) Genres(ctx context.Context) ([]movie.Genre, error) {
	raw, err := s.tmdb.Genres(ctx)
	if err != nil {
		return nil, err
	}
	genres := make([]movie.Genre, 0, len(raw))
	for _, g := range raw {
		genres = append(genres, movie.Genre{ID: g.ID, Name: g.Name})
	}
	return genres, nil
}

// Browse runs the discover query described by state
func (s *Service) Browse(ctx context.Context, state browse.State) (browse.Page, browse.State, error) {
	return browse.Query(ctx, s.tmdb, s.normalizer, state)
}

// Surprise picks a random movie matching the session's filters
func (s *Service) Surprise(ctx context.Context, state browse.State) (movie.Summary, error) {
	raw, err := s.tmdb.RandomPick(ctx, browse.SurpriseFilters(state), s.rng)
	if err != nil {
		return movie.Summary{}, err
	}
	return s.normalizer.Summary(*raw)
}

// AddToWatchlist looks id up and saves it as unwatched. It reports false if the
// movie was already saved or could not be stored.
func (s *Service) AddToWatchlist(ctx context.Context, id movie.ID) (movie.Summary, bool, error) {
	primary, err := s.details(ctx, id)
	if err != nil {
		return movie.Summary{}, false, err
	}
	detail, err := s.normalizer.Detail(*primary, nil)
	if err != nil {
		return movie.Summary{}, false, err
	}
	return detail.Summary, s.store.AddToWatchlist(library.EntryFromSummary(detail.Summary)), nil
}

// ImportReport summarises an ImportNFO run
type ImportReport struct {
	Added      []movie.Summary
	Existing   int
	Unresolved []nfo.Entry
}

// ImportNFO adds the movies described by .nfo entries to the watchlist.
// Entries without a TMDB id are resolved by searching their title and year
// and taking the top result.
func (s *Service) ImportNFO(ctx context.Context, entries []nfo.Entry) (ImportReport, error) {
	var report ImportReport
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		id := e.TMDBID
		if id == 0 {
			results, err := s.Search(ctx, e.Query())
			if err != nil || len(results) == 0 {
				s.log.Debug("nfo entry unresolved", "path", e.Path, "query", e.Query(), "error", err)
				report.Unresolved = append(report.Unresolved, e)
				continue
			}
			id = results[0].ID
		}

		m, added, err := s.AddToWatchlist(ctx, id)
		if err != nil {
			s.log.Warn("nfo import failed", "path", e.Path, "movie_id", int(id), "error", err)
			report.Unresolved = append(report.Unresolved, e)
			continue
		}
		if added {
			report.Added = append(report.Added, m)
		} else {
			report.Existing++
		}
	}
	return report, nil
}

// RemoveFromWatchlist deletes the entry for id
func (s *Service) RemoveFromWatchlist(id movie.ID) bool {
	return s.store.RemoveFromWatchlist(id)
}

func (s *Service) MarkAsWatched(id movie.ID, watched bool) bool {
	return s.store.MarkAsWatched(id, watched)
}

func (s *Service) IsInWatchlist(id movie.ID) bool {
	return s.store.IsInWatchlist(id)
}

// Watchlist returns saved movies matching filter, newest first
func (s *Service) Watchlist(filter library.WatchFilter) []library.WatchlistEntry {
	return s.store.FilterWatchlist(filter)
}

func (s *Service) RecentlyViewed() []library.RecentEntry {
	return s.store.GetRecentlyViewed()
}

// IsNotFound reports whether err means TMDB has no movie with the requested id
func IsNotFound(err error) bool {
	return errors.Is(err, metadata.ErrMovieNotFound)
}
