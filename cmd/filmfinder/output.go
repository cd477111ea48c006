package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/marco/filmfinder/internal/library"
	"github.com/marco/filmfinder/internal/movie"
)

func formatRating(v float64) string {
	return fmt.Sprintf("★ %.1f", v)
}

func formatCount(n int) string {
	return humanize.Comma(int64(n))
}

// formatMoney renders whole dollars with thousands separators; zero means TMDB
// has no figure
func formatMoney(v int64) string {
	if v <= 0 {
		return movie.NotAvailable
	}
	return "$" + humanize.Comma(v)
}

func formatRuntime(minutes int) string {
	if minutes <= 0 {
		return movie.NotAvailable
	}
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

func joinOr(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return strings.Join(items, ", ")
}

func printSummaries(w io.Writer, movies []movie.Summary) {
	for _, m := range movies {
		fmt.Fprintf(w, "%8d  %s (%s)  %s\n", m.ID, m.Title, m.ReleaseYear, formatRating(m.VoteAverage))
	}
}

func printDetail(w io.Writer, d movie.Detail, saved bool) {
	fmt.Fprintf(w, "%s (%s)\n", d.Title, d.ReleaseYear)
	if d.Tagline != "" {
		fmt.Fprintf(w, "  %q\n", d.Tagline)
	}
	fmt.Fprintln(w)

	rows := [][2]string{
		{"TMDB id", d.ID.String()},
		{"Rating", fmt.Sprintf("%s (%s votes)", formatRating(d.VoteAverage), formatCount(d.VoteCount))},
		{"IMDb", d.IMDbRating},
		{"Rotten Tomatoes", d.RottenTomatoesRating},
		{"Metascore", d.Metascore},
		{"Rated", d.Rated},
		{"Runtime", formatRuntime(d.Runtime)},
		{"Status", d.Status},
		{"Genres", joinOr(d.Genres, movie.NotAvailable)},
		{"Director", d.Director},
		{"Writer", d.Writer},
		{"Actors", d.Actors},
		{"Awards", d.Awards},
		{"Budget", formatMoney(d.Budget)},
		{"Revenue", formatMoney(d.Revenue)},
		{"Languages", joinOr(d.SpokenLanguages, movie.NotAvailable)},
		{"Countries", joinOr(d.ProductionCountries, movie.NotAvailable)},
		{"Studios", joinOr(d.ProductionCompanies, movie.NotAvailable)},
	}
	if d.Trailer != nil {
		rows = append(rows, [2]string{"Trailer", d.Trailer.URL})
	}
	if d.PosterPath != nil {
		rows = append(rows, [2]string{"Poster", *d.PosterPath})
	}
	for _, r := range rows {
		fmt.Fprintf(w, "  %-16s %s\n", r[0]+":", r[1])
	}

	if d.Overview != "" {
		fmt.Fprintf(w, "\n%s\n", d.Overview)
	}

	if len(d.Cast) > 0 {
		fmt.Fprintln(w, "\nCast:")
		for _, c := range d.Cast {
			if c.Character != "" {
				fmt.Fprintf(w, "  %s as %s\n", c.Name, c.Character)
			} else {
				fmt.Fprintf(w, "  %s\n", c.Name)
			}
		}
	}

	if len(d.SimilarMovies) > 0 {
		fmt.Fprintln(w, "\nSimilar:")
		printSummaries(w, d.SimilarMovies)
	}

	if saved {
		fmt.Fprintln(w, "\n✓ On your watchlist")
	}
}

func printWatchlist(w io.Writer, entries []library.WatchlistEntry, now time.Time) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "Your watchlist is empty.")
		return
	}
	for _, e := range entries {
		mark := " "
		if e.Watched {
			mark = "✓"
		}
		fmt.Fprintf(w, "%s %8d  %s (%s)  %s  added %s\n",
			mark, e.ID, e.Title, e.ReleaseYear, formatRating(e.VoteAverage), humanize.RelTime(e.AddedAt, now, "ago", "from now"))
	}
}
