package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marco/filmfinder/internal/library"
	"github.com/marco/filmfinder/internal/movie"
)

func TestFormatters(t *testing.T) {
	assert.Equal(t, "$63,000,000", formatMoney(63000000))
	assert.Equal(t, movie.NotAvailable, formatMoney(0))
	assert.Equal(t, "2h 16m", formatRuntime(136))
	assert.Equal(t, "45m", formatRuntime(45))
	assert.Equal(t, movie.NotAvailable, formatRuntime(0))
	assert.Equal(t, "★ 8.2", formatRating(8.2))
	assert.Equal(t, "12,345", formatCount(12345))
}

func TestPrintWatchlist(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	printWatchlist(&buf, []library.WatchlistEntry{
		{ID: 603, Title: "The Matrix", ReleaseYear: "1999", VoteAverage: 8.2, AddedAt: now.Add(-3 * 24 * time.Hour), Watched: true},
		{ID: 78, Title: "Blade Runner", ReleaseYear: "1982", VoteAverage: 7.9, AddedAt: now.Add(-2 * time.Hour)},
	}, now)

	out := buf.String()
	assert.Contains(t, out, "✓      603  The Matrix (1999)  ★ 8.2  added 3 days ago")
	assert.Contains(t, out, "        78  Blade Runner (1982)  ★ 7.9  added 2 hours ago")

	buf.Reset()
	printWatchlist(&buf, nil, now)
	assert.Equal(t, "Your watchlist is empty.\n", buf.String())
}

func TestPrintDetail(t *testing.T) {
	poster := "https://image.tmdb.org/t/p/w500/m.jpg"
	d := movie.Detail{
		Summary: movie.Summary{ID: 603, Title: "The Matrix", ReleaseYear: "1999", VoteAverage: 8.2, VoteCount: 25000, PosterPath: &poster},
		Overlay: movie.DefaultOverlay(),
		Budget:  63000000,
		Runtime: 136,
		Genres:  []string{"Action", "Science Fiction"},
		Cast:    []movie.CastMember{{Name: "Keanu Reeves", Character: "Neo"}},
		Trailer: &movie.Trailer{URL: "https://www.youtube.com/embed/abc"},
	}

	var buf bytes.Buffer
	printDetail(&buf, d, true)
	out := buf.String()

	assert.Contains(t, out, "The Matrix (1999)")
	assert.Contains(t, out, "★ 8.2 (25,000 votes)")
	assert.Contains(t, out, "$63,000,000")
	assert.Contains(t, out, "Action, Science Fiction")
	assert.Contains(t, out, "Keanu Reeves as Neo")
	assert.Contains(t, out, "https://www.youtube.com/embed/abc")
	assert.Contains(t, out, "Director:        Unknown")
	assert.Contains(t, out, "On your watchlist")
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	err := run(context.Background(), &env{}, "frobnicate", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errUsage)
}

func TestFilterFlags(t *testing.T) {
	fs := newFlagSet("browse")
	f := addFilterFlags(fs)
	require.NoError(t, parseFlags(fs, []string{"-genres", "28, 12", "-sort", "rating", "-year", "1999", "-min-rating", "7"}))

	s, err := f.state()
	require.NoError(t, err)
	assert.Equal(t, []int{28, 12}, s.Genres)
	assert.Equal(t, "vote_average.desc", s.Options().SortBy)
	assert.Equal(t, 1999, s.Year)
	assert.Equal(t, 7.0, s.MinRating)

	fs = newFlagSet("browse")
	f = addFilterFlags(fs)
	require.NoError(t, parseFlags(fs, []string{"-genres", "abc"}))
	_, err = f.state()
	assert.ErrorIs(t, err, errUsage)
}
