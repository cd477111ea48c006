// Package refresh re-fetches the movies on the watchlist so their saved title,
// poster and rating track TMDB. It can run once or on a schedule.
package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/marco/filmfinder/internal/library"
	"github.com/marco/filmfinder/internal/metadata"
	"github.com/marco/filmfinder/internal/movie"
)

const (
	defaultWorkers   = 4
	progressInterval = 2 * time.Second
)

// DetailFetcher loads TMDB details by id
type DetailFetcher interface {
	MovieDetails(ctx context.Context, tmdbID int) (*metadata.TMDBMovieDetails, error)
}

// Report holds the outcome of one refresh pass
type Report struct {
	Checked  int
	Updated  int
	Failed   int
	Duration time.Duration
	Errors   []error
}

// Refresher updates watchlist entries from TMDB
type Refresher struct {
	tmdb       DetailFetcher
	normalizer *movie.Normalizer
	store      *library.Store
	workers    int
	log        *slog.Logger

	running atomic.Bool
}

// New creates a Refresher. workers <= 0 selects a default; a nil normalizer
// uses the default image base URL.
func New(tmdb DetailFetcher, n *movie.Normalizer, store *library.Store, workers int, logger *slog.Logger) *Refresher {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if n == nil {
		n = movie.NewNormalizer("")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{tmdb: tmdb, normalizer: n, store: store, workers: workers, log: logger}
}

// Run refreshes every watchlist entry once
func (r *Refresher) Run(ctx context.Context) Report {
	start := time.Now()
	entries := r.store.GetWatchlist()
	report := Report{Checked: len(entries)}
	if len(entries) == 0 {
		r.log.Info("watchlist is empty, nothing to refresh")
		return report
	}

	r.log.Info("refreshing watchlist", "count", len(entries), "workers", r.workers)

	var processed atomic.Int64
	progressCtx, stopProgress := context.WithCancel(ctx)
	progressDone := make(chan struct{})
	go func() {
		defer close(progressDone)
		ticker := time.NewTicker(progressInterval)
		defer ticker.Stop()
		total := int64(len(entries))
		for {
			select {
			case <-ticker.C:
				if current := processed.Load(); current > 0 && current < total {
					r.log.Info("progress", "processed", current, "total", total,
						"percent", fmt.Sprintf("%.0f%%", float64(current)/float64(total)*100))
				}
			case <-progressCtx.Done():
				return
			}
		}
	}()

	results := ProcessConcurrently(ctx, entries, r.fetch, r.workers, &processed)
	stopProgress()
	<-progressDone

	fresh := make([]movie.Summary, 0, len(results))
	for _, res := range results {
		if res.Err != nil {
			report.Failed++
			report.Errors = append(report.Errors, res.Err)
			r.log.Warn("failed to refresh watchlist entry", "movie_id", int(res.Job.ID), "title", res.Job.Title, "error", res.Err)
			continue
		}
		fresh = append(fresh, res.Value)
	}

	report.Updated = r.store.RefreshWatchlist(fresh)
	report.Duration = time.Since(start)
	r.log.Info("watchlist refresh completed",
		"duration_sec", report.Duration.Seconds(),
		"checked", report.Checked,
		"updated", report.Updated,
		"errors", report.Failed,
	)
	return report
}

func (r *Refresher) fetch(ctx context.Context, e library.WatchlistEntry) (movie.Summary, error) {
	raw, err := r.tmdb.MovieDetails(ctx, int(e.ID))
	if err != nil {
		return movie.Summary{}, err
	}
	d, err := r.normalizer.Detail(*raw, nil)
	if err != nil {
		return movie.Summary{}, err
	}
	return d.Summary, nil
}

// RunExclusive runs a refresh unless one is already in progress. It reports
// false when skipped.
func (r *Refresher) RunExclusive(ctx context.Context) (Report, bool) {
	if !r.running.CompareAndSwap(false, true) {
		r.log.Warn("refresh skipped: previous refresh still running")
		return Report{}, false
	}
	defer r.running.Store(false)
	return r.Run(ctx), true
}

// Schedule refreshes every interval until ctx is done, optionally running once
// immediately
func (r *Refresher) Schedule(ctx context.Context, interval time.Duration, runOnStart bool) {
	r.log.Info("scheduled refresh started", "interval", interval.String(), "run_on_startup", runOnStart)

	if runOnStart {
		r.RunExclusive(ctx)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.log.Info("scheduled refresh triggered")
			go r.RunExclusive(ctx)
		case <-ctx.Done():
			r.log.Info("scheduled refresh stopped")
			return
		}
	}
}
