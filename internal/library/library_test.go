package library

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marco/filmfinder/internal/movie"
	"github.com/marco/filmfinder/internal/storage"
)

// brokenMedium fails every operation
type brokenMedium struct{}

var errDiskGone = errors.New("disk gone")

func (brokenMedium) GetItem(string) (string, bool, error) { return "", false, errDiskGone }
func (brokenMedium) SetItem(string, string) error         { return errDiskGone }
func (brokenMedium) RemoveItem(string) error              { return errDiskGone }
func (brokenMedium) Close() error                         { return nil }

// readOnlyMedium serves reads from an inner medium and fails writes
type readOnlyMedium struct{ storage.Medium }

func (readOnlyMedium) SetItem(string, string) error { return errDiskGone }

type clock struct{ t time.Time }

func (c *clock) now() time.Time {
	c.t = c.t.Add(time.Minute)
	return c.t
}

func newTestStore(t *testing.T, m storage.Medium) (*Store, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	c := &clock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	s := New(m, Options{
		Now:    c.now,
		Logger: slog.New(slog.NewTextHandler(&logs, nil)),
	})
	return s, &logs
}

func poster(p string) *string { return &p }

func entry(id int, title string) WatchlistEntry {
	return WatchlistEntry{ID: movie.ID(id), Title: title, ReleaseYear: "2020", VoteAverage: 7.5}
}

func summary(id int) *movie.Summary {
	return &movie.Summary{ID: movie.ID(id), Title: fmt.Sprintf("Movie %d", id), ReleaseYear: "2001", Overview: "long text"}
}

func TestWatchlistEmptyOnFirstAccess(t *testing.T) {
	s, _ := newTestStore(t, storage.NewMemory())
	assert.Equal(t, []WatchlistEntry{}, s.GetWatchlist())
	assert.Equal(t, []RecentEntry{}, s.GetRecentlyViewed())
	assert.False(t, s.IsInWatchlist(1))
	assert.False(t, s.IsWatched(1))
}

func TestAddToWatchlist(t *testing.T) {
	s, _ := newTestStore(t, storage.NewMemory())

	e := entry(603, "The Matrix")
	e.Watched = true
	e.PosterPath = poster("https://image.tmdb.org/t/p/w342/m.jpg")
	require.True(t, s.AddToWatchlist(e))

	list := s.GetWatchlist()
	require.Len(t, list, 1)
	assert.Equal(t, movie.ID(603), list[0].ID)
	assert.False(t, list[0].Watched, "new entries start unwatched")
	assert.Equal(t, time.Date(2024, 3, 1, 12, 1, 0, 0, time.UTC), list[0].AddedAt)
	require.NotNil(t, list[0].PosterPath)
	assert.True(t, s.IsInWatchlist(603))
}

func TestAddToWatchlistDuplicate(t *testing.T) {
	s, _ := newTestStore(t, storage.NewMemory())

	require.True(t, s.AddToWatchlist(entry(1, "First")))
	require.True(t, s.MarkAsWatched(1, true))

	assert.False(t, s.AddToWatchlist(entry(1, "Overwrite attempt")))
	list := s.GetWatchlist()
	require.Len(t, list, 1)
	assert.Equal(t, "First", list[0].Title)
	assert.True(t, list[0].Watched, "duplicate add must not reset the entry")
}

func TestAddToWatchlistRejectsMissingID(t *testing.T) {
	s, _ := newTestStore(t, storage.NewMemory())
	assert.False(t, s.AddToWatchlist(WatchlistEntry{Title: "No id"}))
	assert.Empty(t, s.GetWatchlist())
}

func TestWatchlistPreservesInsertionOrder(t *testing.T) {
	s, _ := newTestStore(t, storage.NewMemory())
	for _, id := range []int{5, 3, 9} {
		require.True(t, s.AddToWatchlist(entry(id, "m")))
	}
	list := s.GetWatchlist()
	require.Len(t, list, 3)
	assert.Equal(t, []movie.ID{5, 3, 9}, []movie.ID{list[0].ID, list[1].ID, list[2].ID})
}

func TestStringAndNumericIDsCompareEqual(t *testing.T) {
	s, _ := newTestStore(t, storage.NewMemory())

	var e WatchlistEntry
	require.NoError(t, json.Unmarshal([]byte(`{"id":"42","title":"X","releaseYear":"2020","voteAverage":7.2}`), &e))
	require.True(t, s.AddToWatchlist(e))

	id, err := movie.ParseID("42")
	require.NoError(t, err)
	assert.True(t, s.IsInWatchlist(id))

	assert.True(t, s.RemoveFromWatchlist(42))
	assert.False(t, s.IsInWatchlist(42))
	assert.Empty(t, s.GetWatchlist())
}

func TestRemoveFromWatchlistMissingID(t *testing.T) {
	s, _ := newTestStore(t, storage.NewMemory())
	require.True(t, s.AddToWatchlist(entry(1, "Keep")))

	assert.False(t, s.RemoveFromWatchlist(2))
	assert.Len(t, s.GetWatchlist(), 1)
}

func TestMarkAsWatched(t *testing.T) {
	m := storage.NewMemory()
	s, _ := newTestStore(t, m)
	require.True(t, s.AddToWatchlist(entry(7, "Se7en")))

	assert.True(t, s.MarkAsWatched(7, true))
	assert.True(t, s.IsWatched(7))
	assert.True(t, s.MarkAsWatched(7, false))
	assert.False(t, s.IsWatched(7))

	before, _, err := m.GetItem(DefaultWatchlistKey)
	require.NoError(t, err)
	assert.False(t, s.MarkAsWatched(8, true))
	after, _, err := m.GetItem(DefaultWatchlistKey)
	require.NoError(t, err)
	assert.Equal(t, before, after, "unknown id must not mutate storage")
	assert.False(t, s.IsWatched(8))
}

func TestFilterWatchlist(t *testing.T) {
	s, _ := newTestStore(t, storage.NewMemory())
	for _, id := range []int{1, 2, 3} {
		require.True(t, s.AddToWatchlist(entry(id, "m")))
	}
	require.True(t, s.MarkAsWatched(2, true))

	ids := func(entries []WatchlistEntry) []movie.ID {
		out := make([]movie.ID, 0, len(entries))
		for _, e := range entries {
			out = append(out, e.ID)
		}
		return out
	}

	assert.Equal(t, []movie.ID{3, 2, 1}, ids(s.FilterWatchlist(FilterAll)))
	assert.Equal(t, []movie.ID{3, 1}, ids(s.FilterWatchlist(FilterUnwatched)))
	assert.Equal(t, []movie.ID{2}, ids(s.FilterWatchlist(FilterWatched)))
}

func TestParseWatchFilter(t *testing.T) {
	testCases := []struct {
		in       string
		expected WatchFilter
		wantErr  bool
	}{
		{"", FilterAll, false},
		{"all", FilterAll, false},
		{"Watched", FilterWatched, false},
		{" unwatched ", FilterUnwatched, false},
		{"seen", "", true},
	}
	for _, tc := range testCases {
		got, err := ParseWatchFilter(tc.in)
		if tc.wantErr {
			assert.Error(t, err, "ParseWatchFilter(%q)", tc.in)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tc.expected, got, "ParseWatchFilter(%q)", tc.in)
	}
}

func TestRecentlyViewedMovesToFront(t *testing.T) {
	s, _ := newTestStore(t, storage.NewMemory())

	s.AddToRecentlyViewed(summary(1))
	s.AddToRecentlyViewed(summary(2))
	s.AddToRecentlyViewed(summary(3))
	s.AddToRecentlyViewed(summary(1))

	recent := s.GetRecentlyViewed()
	require.Len(t, recent, 3)
	assert.Equal(t, movie.ID(1), recent[0].ID)
	assert.Equal(t, movie.ID(3), recent[1].ID)
	assert.Equal(t, movie.ID(2), recent[2].ID)
}

func TestRecentlyViewedIdempotent(t *testing.T) {
	s, _ := newTestStore(t, storage.NewMemory())
	s.AddToRecentlyViewed(summary(1))
	s.AddToRecentlyViewed(summary(2))

	s.AddToRecentlyViewed(summary(2))
	s.AddToRecentlyViewed(summary(2))

	recent := s.GetRecentlyViewed()
	require.Len(t, recent, 2)
	assert.Equal(t, movie.ID(2), recent[0].ID)
}

func TestRecentlyViewedCapacity(t *testing.T) {
	s, _ := newTestStore(t, storage.NewMemory())
	for id := 1; id <= 10; id++ {
		s.AddToRecentlyViewed(summary(id))
	}
	// touch the oldest so 2 becomes the least recently viewed
	s.AddToRecentlyViewed(summary(1))
	s.AddToRecentlyViewed(summary(11))

	recent := s.GetRecentlyViewed()
	require.Len(t, recent, 10)
	assert.Equal(t, movie.ID(11), recent[0].ID)
	assert.Equal(t, movie.ID(1), recent[1].ID)
	for _, e := range recent {
		assert.NotEqual(t, movie.ID(2), e.ID)
	}
}

func TestRecentlyViewedCustomLimit(t *testing.T) {
	s := New(storage.NewMemory(), Options{RecentlyViewedLimit: 3})
	for id := 1; id <= 5; id++ {
		s.AddToRecentlyViewed(summary(id))
	}
	recent := s.GetRecentlyViewed()
	require.Len(t, recent, 3)
	assert.Equal(t, movie.ID(5), recent[0].ID)
	assert.Equal(t, movie.ID(3), recent[2].ID)
}

func TestRecentlyViewedIgnoresMissing(t *testing.T) {
	m := storage.NewMemory()
	s, _ := newTestStore(t, m)

	s.AddToRecentlyViewed(nil)
	s.AddToRecentlyViewed(&movie.Summary{Title: "No id"})

	_, found, err := m.GetItem(DefaultRecentlyViewedKey)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRecentEntryIsTrimmed(t *testing.T) {
	m := storage.NewMemory()
	s, _ := newTestStore(t, m)
	s.AddToRecentlyViewed(summary(1))

	raw, _, err := m.GetItem(DefaultRecentlyViewedKey)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"version":1,"items":[{"id":1,"title":"Movie 1","posterPath":null,"releaseYear":"2001","voteAverage":0}]}`,
		raw)
}

func TestLegacyArraysAreReadAndMigrated(t *testing.T) {
	m := storage.NewMemory()
	require.NoError(t, m.SetItem(DefaultWatchlistKey,
		`[{"id":"42","title":"X","posterPath":null,"releaseYear":"2020","voteAverage":7.2,"addedAt":"2024-01-05T10:00:00.000Z","watched":true},
		  {"id":7,"title":"Y","posterPath":"https://img/p.jpg","releaseYear":"1995","voteAverage":8,"addedAt":"2024-01-06T10:00:00.000Z","watched":false}]`))

	s, _ := newTestStore(t, m)
	list := s.GetWatchlist()
	require.Len(t, list, 2)
	assert.Equal(t, movie.ID(42), list[0].ID)
	assert.True(t, list[0].Watched)
	assert.True(t, s.IsWatched(42))
	assert.Equal(t, time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC), list[0].AddedAt.UTC())

	require.True(t, s.MarkAsWatched(7, true))

	raw, _, err := m.GetItem(DefaultWatchlistKey)
	require.NoError(t, err)
	var env envelope[WatchlistEntry]
	require.NoError(t, json.Unmarshal([]byte(raw), &env))
	assert.Equal(t, 1, env.Version)
	assert.Len(t, env.Items, 2)
}

func TestCorruptStorageActsEmpty(t *testing.T) {
	m := storage.NewMemory()
	require.NoError(t, m.SetItem(DefaultWatchlistKey, `{"version":1,"items":[{"id":`))
	require.NoError(t, m.SetItem(DefaultRecentlyViewedKey, `not json`))

	s, logs := newTestStore(t, m)
	assert.Empty(t, s.GetWatchlist())
	assert.Empty(t, s.GetRecentlyViewed())
	assert.Contains(t, logs.String(), "STORAGE_CORRUPT")

	require.True(t, s.AddToWatchlist(entry(1, "Fresh start")))
	assert.Len(t, s.GetWatchlist(), 1)
}

func TestNewerSchemaVersionActsEmpty(t *testing.T) {
	m := storage.NewMemory()
	require.NoError(t, m.SetItem(DefaultWatchlistKey, `{"version":99,"items":[{"id":1}]}`))

	s, logs := newTestStore(t, m)
	assert.Empty(t, s.GetWatchlist())
	assert.Contains(t, logs.String(), "schema version 99")
}

func TestUnavailableStorageIsAbsorbed(t *testing.T) {
	s, logs := newTestStore(t, brokenMedium{})

	assert.Empty(t, s.GetWatchlist())
	assert.False(t, s.AddToWatchlist(entry(1, "x")))
	assert.False(t, s.RemoveFromWatchlist(1))
	assert.False(t, s.MarkAsWatched(1, true))
	assert.False(t, s.IsInWatchlist(1))
	assert.False(t, s.IsWatched(1))
	s.AddToRecentlyViewed(summary(1))
	assert.Empty(t, s.GetRecentlyViewed())

	assert.Contains(t, logs.String(), "STORAGE_UNAVAILABLE")
	assert.Contains(t, logs.String(), "disk gone")
}

func TestFailedWriteReportsFalse(t *testing.T) {
	inner := storage.NewMemory()
	seed := New(inner, Options{})
	require.True(t, seed.AddToWatchlist(entry(1, "Seed")))

	s, logs := newTestStore(t, readOnlyMedium{inner})
	assert.False(t, s.AddToWatchlist(entry(2, "Two")))
	assert.False(t, s.MarkAsWatched(1, true))
	assert.False(t, s.RemoveFromWatchlist(1))
	assert.True(t, s.IsInWatchlist(1))
	assert.Contains(t, logs.String(), "failed to save watchlist")
}

func TestConcurrentAdds(t *testing.T) {
	s := New(storage.NewMemory(), Options{RecentlyViewedLimit: 100})

	var wg sync.WaitGroup
	for id := 1; id <= 50; id++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.AddToWatchlist(entry(id, "m"))
			s.AddToRecentlyViewed(summary(id))
		}()
	}
	wg.Wait()

	assert.Len(t, s.GetWatchlist(), 50)
	assert.Len(t, s.GetRecentlyViewed(), 50)
}

func TestStoreOverFileMedium(t *testing.T) {
	dir := t.TempDir()
	fm, err := storage.NewFileMedium(dir)
	require.NoError(t, err)

	s := New(fm, Options{})
	require.True(t, s.AddToWatchlist(entry(10, "Persisted")))

	reopened, err := storage.NewFileMedium(dir)
	require.NoError(t, err)
	assert.True(t, New(reopened, Options{}).IsInWatchlist(10))
}

func TestSortByAddedDesc(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	entries := []WatchlistEntry{
		{ID: 1, AddedAt: base},
		{ID: 2, AddedAt: base.Add(2 * time.Hour)},
		{ID: 3, AddedAt: base.Add(time.Hour)},
	}
	SortByAddedDesc(entries)
	assert.Equal(t, movie.ID(2), entries[0].ID)
	assert.Equal(t, movie.ID(3), entries[1].ID)
	assert.Equal(t, movie.ID(1), entries[2].ID)
}

func TestEntryFromSummary(t *testing.T) {
	s := movie.Summary{ID: 9, Title: "Nine", PosterPath: poster("p"), ReleaseYear: "1999", VoteAverage: 6.1, Overview: "ignored"}
	e := EntryFromSummary(s)
	assert.Equal(t, WatchlistEntry{ID: 9, Title: "Nine", PosterPath: s.PosterPath, ReleaseYear: "1999", VoteAverage: 6.1}, e)
}

func TestRefreshWatchlist(t *testing.T) {
	s, _ := newTestStore(t, storage.NewMemory())
	require.True(t, s.AddToWatchlist(entry(1, "Old Title")))
	require.True(t, s.AddToWatchlist(entry(2, "Unchanged")))
	require.True(t, s.MarkAsWatched(1, true))
	before := s.GetWatchlist()

	fresh := []movie.Summary{
		{ID: 1, Title: "New Title", ReleaseYear: "2020", VoteAverage: 8.1, PosterPath: poster("https://image.tmdb.org/t/p/w500/p.jpg")},
		{ID: 2, Title: "Unchanged", ReleaseYear: "2020", VoteAverage: 7.5},
		{ID: 99, Title: "Not saved"},
	}
	assert.Equal(t, 1, s.RefreshWatchlist(fresh))

	after := s.GetWatchlist()
	require.Len(t, after, 2)
	assert.Equal(t, "New Title", after[0].Title)
	assert.Equal(t, 8.1, after[0].VoteAverage)
	assert.True(t, after[0].Watched)
	assert.Equal(t, before[0].AddedAt, after[0].AddedAt)
	assert.Equal(t, before[1], after[1])
	assert.False(t, s.IsInWatchlist(99))

	assert.Zero(t, s.RefreshWatchlist(fresh), "second refresh changes nothing")
}

func TestRefreshWatchlistFailedWrite(t *testing.T) {
	inner := storage.NewMemory()
	seed, _ := newTestStore(t, inner)
	require.True(t, seed.AddToWatchlist(entry(1, "Old")))

	s, _ := newTestStore(t, readOnlyMedium{inner})
	assert.Zero(t, s.RefreshWatchlist([]movie.Summary{{ID: 1, Title: "New"}}))
}
