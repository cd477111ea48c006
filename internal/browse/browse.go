// Package browse holds the genre browsing session: selected genres, sort order,
// year and rating filters, and the current page of discover results.
package browse

import (
	"context"
	"fmt"
	"slices"

	"github.com/marco/filmfinder/internal/metadata"
	"github.com/marco/filmfinder/internal/movie"
)

// maxDiscoverPage is the highest page TMDB's discover endpoint serves
const maxDiscoverPage = 500

// Sort orders discover results
type Sort string

const (
	SortPopularity Sort = "popularity"
	SortRating     Sort = "rating"
	SortYear       Sort = "year"
)

// ParseSort accepts popularity, rating or year. An empty string selects popularity.
func ParseSort(s string) (Sort, error) {
	switch Sort(s) {
	case "", SortPopularity:
		return SortPopularity, nil
	case SortRating, SortYear:
		return Sort(s), nil
	}
	return "", fmt.Errorf("unknown sort %q (want popularity, rating or year)", s)
}

// Param is the TMDB sort_by value for s
func (s Sort) Param() string {
	switch s {
	case SortRating:
		return "vote_average.desc"
	case SortYear:
		return "primary_release_date.desc"
	default:
		return "popularity.desc"
	}
}

// State is an immutable browsing session. Every transition returns a new State.
type State struct {
	Genres     []int
	Page       int
	TotalPages int
	Sort       Sort
	Year       int
	MinRating  float64
}

// NewState starts a session on page 1 sorted by popularity
func NewState() State {
	return State{Page: 1, TotalPages: 1, Sort: SortPopularity}
}

func (s State) withFilters() State {
	s.Genres = slices.Clone(s.Genres)
	s.Page = 1
	return s
}

// ToggleGenre selects id, or deselects it when already selected
func (s State) ToggleGenre(id int) State {
	s = s.withFilters()
	if i := slices.Index(s.Genres, id); i >= 0 {
		s.Genres = slices.Delete(s.Genres, i, i+1)
	} else {
		s.Genres = append(s.Genres, id)
	}
	return s
}

func (s State) SetSort(sort Sort) State {
	s = s.withFilters()
	s.Sort = sort
	return s
}

// SetYear filters on primary release year; zero clears the filter
func (s State) SetYear(year int) State {
	s = s.withFilters()
	s.Year = year
	return s
}

// SetMinRating filters on vote average; zero clears the filter
func (s State) SetMinRating(r float64) State {
	s = s.withFilters()
	s.MinRating = r
	return s
}

// NextPage advances one page. It reports false when already on the last page.
func (s State) NextPage() (State, bool) {
	if s.Page >= s.TotalPages {
		return s, false
	}
	s.Genres = slices.Clone(s.Genres)
	s.Page++
	return s, true
}

// PrevPage goes back one page. It reports false when already on page 1.
func (s State) PrevPage() (State, bool) {
	if s.Page <= 1 {
		return s, false
	}
	s.Genres = slices.Clone(s.Genres)
	s.Page--
	return s, true
}

// Options converts s to discover query options
func (s State) Options() metadata.DiscoverOptions {
	page := s.Page
	if page < 1 {
		page = 1
	}
	return metadata.DiscoverOptions{
		Genres:    slices.Clone(s.Genres),
		Page:      page,
		SortBy:    s.Sort.Param(),
		Year:      s.Year,
		MinRating: s.MinRating,
	}
}

// SurpriseFilters builds random pick filters from the session's genre, year and
// rating filters. Random picks always sort by popularity.
func SurpriseFilters(s State) metadata.DiscoverOptions {
	return metadata.DiscoverOptions{
		Genres:    slices.Clone(s.Genres),
		SortBy:    SortPopularity.Param(),
		Year:      s.Year,
		MinRating: s.MinRating,
	}
}

// Discoverer runs discover queries
type Discoverer interface {
	Discover(ctx context.Context, opts metadata.DiscoverOptions) (*metadata.TMDBPagedResponse, error)
}

// Page is one page of browse results
type Page struct {
	Movies       []movie.Summary
	Page         int
	TotalPages   int
	TotalResults int
	// Skipped counts provider entries dropped for missing an id or title
	Skipped int
}

// Query fetches the page described by s and returns it with s updated to the
// provider's page count. With no genres selected it returns an empty page
// without querying. A nil normalizer uses the default image base URL.
func Query(ctx context.Context, d Discoverer, n *movie.Normalizer, s State) (Page, State, error) {
	if len(s.Genres) == 0 {
		s.TotalPages = 1
		return Page{Movies: []movie.Summary{}, Page: 1, TotalPages: 1}, s, nil
	}
	if n == nil {
		n = movie.NewNormalizer("")
	}

	opts := s.Options()
	resp, err := d.Discover(ctx, opts)
	if err != nil {
		return Page{}, s, fmt.Errorf("browse page %d: %w", opts.Page, err)
	}

	movies, skipped := n.Summaries(resp.Results)
	total := min(max(resp.TotalPages, 1), maxDiscoverPage)

	s.Genres = slices.Clone(s.Genres)
	s.Page = opts.Page
	s.TotalPages = total
	return Page{
		Movies:       movies,
		Page:         opts.Page,
		TotalPages:   total,
		TotalResults: resp.TotalResults,
		Skipped:      skipped,
	}, s, nil
}
