package library

import (
	"slices"

	"github.com/marco/filmfinder/internal/movie"
)

// RecentEntry is one recently viewed movie
type RecentEntry struct {
	ID          movie.ID `json:"id"`
	Title       string   `json:"title"`
	PosterPath  *string  `json:"posterPath"`
	ReleaseYear string   `json:"releaseYear"`
	VoteAverage float64  `json:"voteAverage"`
}

// GetRecentlyViewed returns the history, most recent first
func (s *Store) GetRecentlyViewed() []RecentEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readRecent()
}

func (s *Store) readRecent() []RecentEntry {
	items, err := load[RecentEntry](s.medium, s.recentKey)
	if err != nil {
		s.logFailure("failed to read recently viewed", s.recentKey, err)
		return []RecentEntry{}
	}
	return items
}

// AddToRecentlyViewed moves m to the front of the history, dropping the oldest
// entries beyond the limit. A nil summary or one without id is ignored.
func (s *Store) AddToRecentlyViewed(m *movie.Summary) {
	if m == nil || !m.ID.Valid() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.readRecent()
	items = slices.DeleteFunc(items, func(e RecentEntry) bool { return e.ID == m.ID })

	items = slices.Insert(items, 0, RecentEntry{
		ID:          m.ID,
		Title:       m.Title,
		PosterPath:  m.PosterPath,
		ReleaseYear: m.ReleaseYear,
		VoteAverage: m.VoteAverage,
	})
	if len(items) > s.recentLimit {
		items = items[:s.recentLimit]
	}

	if err := save(s.medium, s.recentKey, items); err != nil {
		s.logFailure("failed to save recently viewed", s.recentKey, err)
	}
}
