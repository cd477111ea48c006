package library

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/marco/filmfinder/internal/movie"
)

// WatchlistEntry is one saved movie
type WatchlistEntry struct {
	ID          movie.ID  `json:"id"`
	Title       string    `json:"title"`
	PosterPath  *string   `json:"posterPath"`
	ReleaseYear string    `json:"releaseYear"`
	VoteAverage float64   `json:"voteAverage"`
	AddedAt     time.Time `json:"addedAt"`
	Watched     bool      `json:"watched"`
}

// EntryFromSummary copies the fields a watchlist keeps from a movie summary
func EntryFromSummary(s movie.Summary) WatchlistEntry {
	return WatchlistEntry{
		ID:          s.ID,
		Title:       s.Title,
		PosterPath:  s.PosterPath,
		ReleaseYear: s.ReleaseYear,
		VoteAverage: s.VoteAverage,
	}
}

// WatchFilter selects entries by watched state
type WatchFilter string

const (
	FilterAll       WatchFilter = "all"
	FilterUnwatched WatchFilter = "unwatched"
	FilterWatched   WatchFilter = "watched"
)

// ParseWatchFilter parses a filter name; an empty name selects FilterAll
func ParseWatchFilter(s string) (WatchFilter, error) {
	switch f := WatchFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FilterAll:
		return FilterAll, nil
	case FilterUnwatched, FilterWatched:
		return f, nil
	default:
		return "", fmt.Errorf("unknown watchlist filter %q (want all, unwatched or watched)", s)
	}
}

// Match reports whether e passes the filter
func (f WatchFilter) Match(e WatchlistEntry) bool {
	switch f {
	case FilterUnwatched:
		return !e.Watched
	case FilterWatched:
		return e.Watched
	default:
		return true
	}
}

// GetWatchlist returns the watchlist in stored (insertion) order
func (s *Store) GetWatchlist() []WatchlistEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readWatchlist()
}

func (s *Store) readWatchlist() []WatchlistEntry {
	items, err := load[WatchlistEntry](s.medium, s.watchlistKey)
	if err != nil {
		s.logFailure("failed to read watchlist", s.watchlistKey, err)
		return []WatchlistEntry{}
	}
	return items
}

func (s *Store) writeWatchlist(items []WatchlistEntry) bool {
	if err := save(s.medium, s.watchlistKey, items); err != nil {
		s.logFailure("failed to save watchlist", s.watchlistKey, err)
		return false
	}
	return true
}

// AddToWatchlist appends entry as unwatched, stamped with the current time.
// It returns false without changing anything if the id is already present.
func (s *Store) AddToWatchlist(entry WatchlistEntry) bool {
	if !entry.ID.Valid() {
		s.log.Warn("refusing watchlist entry without id", "title", entry.Title)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.readWatchlist()
	if indexOf(items, entry.ID) >= 0 {
		return false
	}

	entry.Watched = false
	entry.AddedAt = s.now().UTC()
	return s.writeWatchlist(append(items, entry))
}

// RemoveFromWatchlist deletes the entry with id. It returns true only when an
// entry was removed; a missing id or a failed write reports false.
func (s *Store) RemoveFromWatchlist(id movie.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.readWatchlist()
	i := indexOf(items, id)
	if i < 0 {
		return false
	}
	return s.writeWatchlist(slices.Delete(items, i, i+1))
}

// IsInWatchlist reports whether id is on the watchlist
func (s *Store) IsInWatchlist(id movie.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return indexOf(s.readWatchlist(), id) >= 0
}

// IsWatched reports whether id is on the watchlist and marked watched
func (s *Store) IsWatched(id movie.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.readWatchlist()
	if i := indexOf(items, id); i >= 0 {
		return items[i].Watched
	}
	return false
}

// MarkAsWatched sets the watched flag of id. It returns false if id is not on the
// watchlist or the write failed.
func (s *Store) MarkAsWatched(id movie.ID, watched bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.readWatchlist()
	i := indexOf(items, id)
	if i < 0 {
		return false
	}
	items[i].Watched = watched
	return s.writeWatchlist(items)
}

// RefreshWatchlist copies the display fields of fresh summaries onto the saved
// entries with the same id, keeping AddedAt and Watched. Summaries for movies
// not on the watchlist are ignored. It returns the number of entries changed.
func (s *Store) RefreshWatchlist(fresh []movie.Summary) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.readWatchlist()
	changed := 0
	for _, m := range fresh {
		i := indexOf(items, m.ID)
		if i < 0 {
			continue
		}
		next := EntryFromSummary(m)
		next.AddedAt = items[i].AddedAt
		next.Watched = items[i].Watched
		if !sameEntry(items[i], next) {
			items[i] = next
			changed++
		}
	}
	if changed == 0 || !s.writeWatchlist(items) {
		return 0
	}
	return changed
}

func sameEntry(a, b WatchlistEntry) bool {
	return a.Title == b.Title &&
		a.ReleaseYear == b.ReleaseYear &&
		a.VoteAverage == b.VoteAverage &&
		ptrEqual(a.PosterPath, b.PosterPath)
}

func ptrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// FilterWatchlist returns the entries matching filter, newest first
func (s *Store) FilterWatchlist(filter WatchFilter) []WatchlistEntry {
	items := s.GetWatchlist()
	out := make([]WatchlistEntry, 0, len(items))
	for _, e := range items {
		if filter.Match(e) {
			out = append(out, e)
		}
	}
	SortByAddedDesc(out)
	return out
}

// SortByAddedDesc orders entries by AddedAt, most recent first
func SortByAddedDesc(entries []WatchlistEntry) {
	slices.SortStableFunc(entries, func(a, b WatchlistEntry) int {
		return b.AddedAt.Compare(a.AddedAt)
	})
}

func indexOf(items []WatchlistEntry, id movie.ID) int {
	return slices.IndexFunc(items, func(e WatchlistEntry) bool { return e.ID == id })
}
