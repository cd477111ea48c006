package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/marco/filmfinder/internal/app"
	"github.com/marco/filmfinder/internal/browse"
	"github.com/marco/filmfinder/internal/library"
	"github.com/marco/filmfinder/internal/metadata"
	"github.com/marco/filmfinder/internal/metadata/nfo"
	"github.com/marco/filmfinder/internal/movie"
	"github.com/marco/filmfinder/internal/storage"
)

const followDebounce = 300 * time.Millisecond

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %v", errUsage, fs.Name(), err)
	}
	return nil
}

func parseMovieID(s string) (movie.ID, error) {
	id, err := movie.ParseID(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errUsage, err)
	}
	return id, nil
}

func cmdTrending(ctx context.Context, env *env, args []string) error {
	fs := newFlagSet("trending")
	window := fs.String("window", "week", "day or week")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	movies, err := env.service.Trending(ctx, *window)
	if err != nil {
		return fmt.Errorf("failed to load trending movies: %w", err)
	}
	fmt.Printf("Trending (%s):\n", *window)
	printSummaries(os.Stdout, movies)
	return nil
}

func cmdSearch(ctx context.Context, env *env, args []string, suggest bool) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return fmt.Errorf("%w: search needs a query", errUsage)
	}

	var movies []movie.Summary
	var err error
	if suggest {
		movies, err = env.service.Suggest(ctx, query)
	} else {
		movies, err = env.service.Search(ctx, query)
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if len(movies) == 0 {
		fmt.Printf("No movies found for %q\n", query)
		return nil
	}
	printSummaries(os.Stdout, movies)
	return nil
}

func cmdMovie(ctx context.Context, env *env, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: movie needs exactly one id", errUsage)
	}
	id, err := parseMovieID(args[0])
	if err != nil {
		return err
	}

	d, err := env.service.Movie(ctx, id)
	if app.IsNotFound(err) {
		return fmt.Errorf("no movie with id %d", id)
	}
	if err != nil {
		return fmt.Errorf("failed to load movie %d: %w", id, err)
	}
	printDetail(os.Stdout, d, env.service.IsInWatchlist(id))
	return nil
}

func cmdGenres(ctx context.Context, env *env) error {
	genres, err := env.service.Genres(ctx)
	if err != nil {
		return fmt.Errorf("failed to load genres: %w", err)
	}
	for _, g := range genres {
		fmt.Printf("%6d  %s\n", g.ID, g.Name)
	}
	return nil
}

// filterFlags are shared by browse and surprise
type filterFlags struct {
	genres    *string
	sort      *string
	year      *int
	minRating *float64
}

func addFilterFlags(fs *flag.FlagSet) filterFlags {
	return filterFlags{
		genres:    fs.String("genres", "", "Comma separated genre ids"),
		sort:      fs.String("sort", "popularity", "popularity, rating or year"),
		year:      fs.Int("year", 0, "Primary release year"),
		minRating: fs.Float64("min-rating", 0, "Minimum vote average"),
	}
}

func (f filterFlags) state() (browse.State, error) {
	s := browse.NewState()
	for _, part := range strings.Split(*f.genres, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil || id <= 0 {
			return s, fmt.Errorf("%w: bad genre id %q", errUsage, part)
		}
		s = s.ToggleGenre(id)
	}
	sort, err := browse.ParseSort(*f.sort)
	if err != nil {
		return s, fmt.Errorf("%w: %v", errUsage, err)
	}
	if *f.minRating < 0 || *f.minRating > 10 {
		return s, fmt.Errorf("%w: -min-rating must be between 0 and 10", errUsage)
	}
	return s.SetSort(sort).SetYear(*f.year).SetMinRating(*f.minRating), nil
}

func cmdBrowse(ctx context.Context, env *env, args []string) error {
	fs := newFlagSet("browse")
	filters := addFilterFlags(fs)
	page := fs.Int("page", 1, "Page number")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	state, err := filters.state()
	if err != nil {
		return err
	}
	if len(state.Genres) == 0 {
		return fmt.Errorf("%w: browse needs at least one genre (see filmfinder genres)", errUsage)
	}
	if *page < 1 {
		return fmt.Errorf("%w: -page must be positive", errUsage)
	}
	state.Page = *page
	state.TotalPages = *page

	result, state, err := env.service.Browse(ctx, state)
	if err != nil {
		return fmt.Errorf("failed to browse: %w", err)
	}
	if len(result.Movies) == 0 {
		fmt.Println("No movies found matching your filters.")
		return nil
	}
	printSummaries(os.Stdout, result.Movies)
	fmt.Printf("\nPage %d of %d (%s results)\n", state.Page, state.TotalPages, formatCount(result.TotalResults))
	return nil
}

func cmdSurprise(ctx context.Context, env *env, args []string) error {
	fs := newFlagSet("surprise")
	filters := addFilterFlags(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	state, err := filters.state()
	if err != nil {
		return err
	}

	m, err := env.service.Surprise(ctx, state)
	if errors.Is(err, metadata.ErrNoResults) {
		fmt.Println("No movies found with the specified filters.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to find a random movie: %w", err)
	}
	fmt.Println("How about:")
	printSummaries(os.Stdout, []movie.Summary{m})
	return nil
}

func cmdWatchlist(ctx context.Context, env *env, args []string) error {
	action := "list"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		action, args = args[0], args[1:]
	}

	if action == "list" {
		fs := newFlagSet("watchlist")
		filterName := fs.String("filter", "all", "all, unwatched or watched")
		if err := parseFlags(fs, args); err != nil {
			return err
		}
		filter, err := library.ParseWatchFilter(*filterName)
		if err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		printWatchlist(os.Stdout, env.service.Watchlist(filter), time.Now())
		return nil
	}

	if action == "import" {
		return cmdImport(ctx, env, args)
	}

	if len(args) != 1 {
		return fmt.Errorf("%w: watchlist %s needs exactly one id", errUsage, action)
	}
	id, err := parseMovieID(args[0])
	if err != nil {
		return err
	}

	switch action {
	case "add":
		m, added, err := env.service.AddToWatchlist(ctx, id)
		if app.IsNotFound(err) {
			return fmt.Errorf("no movie with id %d", id)
		}
		if err != nil {
			return fmt.Errorf("failed to add movie %d: %w", id, err)
		}
		if !added {
			fmt.Printf("%s is already on your watchlist\n", m.Title)
			return nil
		}
		fmt.Printf("✓ Added %s (%s)\n", m.Title, m.ReleaseYear)
	case "remove":
		if !env.service.RemoveFromWatchlist(id) {
			return fmt.Errorf("movie %d is not on your watchlist", id)
		}
		fmt.Printf("✓ Removed %d\n", id)
	case "watched", "unwatched":
		if !env.service.MarkAsWatched(id, action == "watched") {
			return fmt.Errorf("movie %d is not on your watchlist", id)
		}
		fmt.Printf("✓ Marked %d as %s\n", id, action)
	default:
		return fmt.Errorf("%w: unknown watchlist action %q", errUsage, action)
	}
	return nil
}

func cmdImport(ctx context.Context, env *env, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: watchlist import needs a directory", errUsage)
	}
	entries, skipped, err := nfo.Scan(args[0])
	if err != nil {
		return err
	}
	for _, e := range skipped {
		slog.Warn("skipping .nfo file", "error", e)
	}
	if len(entries) == 0 {
		fmt.Println("No movie .nfo files found")
		return nil
	}

	report, err := env.service.ImportNFO(ctx, entries)
	if err != nil {
		return err
	}
	for _, m := range report.Added {
		fmt.Printf("✓ Added %s (%s)\n", m.Title, m.ReleaseYear)
	}
	for _, e := range report.Unresolved {
		fmt.Printf("✗ Could not resolve %s (%s)\n", e.Query(), e.Path)
	}
	fmt.Printf("\nImported %d, already saved %d, unresolved %d\n",
		len(report.Added), report.Existing, len(report.Unresolved))
	return nil
}

func cmdRecent(env *env) error {
	recent := env.service.RecentlyViewed()
	if len(recent) == 0 {
		fmt.Println("Nothing viewed yet.")
		return nil
	}
	for _, r := range recent {
		fmt.Printf("%8d  %s (%s)  %s\n", r.ID, r.Title, r.ReleaseYear, formatRating(r.VoteAverage))
	}
	return nil
}

func cmdRefresh(ctx context.Context, env *env, args []string) error {
	fs := newFlagSet("refresh")
	every := fs.Duration("every", 0, "Keep running and refresh at this interval")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	if *every > 0 {
		env.refresher.Schedule(ctx, *every, true)
		return nil
	}

	report := env.refresher.Run(ctx)
	fmt.Printf("Checked %d, updated %d", report.Checked, report.Updated)
	if report.Failed > 0 {
		fmt.Printf(", %d failed", report.Failed)
	}
	fmt.Println()
	if report.Failed > 0 {
		return fmt.Errorf("%d watchlist entries could not be refreshed", report.Failed)
	}
	return nil
}

func cmdFollow(ctx context.Context, env *env) error {
	fm, ok := env.medium.(*storage.FileMedium)
	if !ok {
		return fmt.Errorf("follow needs the file storage backend (configured: %s)", env.cfg.Storage.Backend)
	}

	key := env.watchlistKey()
	show := func() {
		fmt.Printf("\n[%s] watchlist\n", time.Now().Format(time.TimeOnly))
		printWatchlist(os.Stdout, env.service.Watchlist(library.FilterAll), time.Now())
	}

	show()
	fmt.Fprintf(os.Stderr, "Watching %s (Ctrl+C to stop)\n", fm.Dir())
	return fm.Watch(ctx, followDebounce, func(changed string) {
		if changed == key {
			show()
		}
	})
}
