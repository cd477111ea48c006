// Package nfo reads Kodi and Jellyfin .nfo sidecar files so an existing
// media library can seed the watchlist.
package nfo

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/marco/filmfinder/internal/movie"
)

// Movie is the subset of a <movie> .nfo document needed to identify a title
type Movie struct {
	XMLName   xml.Name   `xml:"movie"`
	Title     string     `xml:"title"`
	Year      int        `xml:"year"`
	Premiered string     `xml:"premiered"`
	TMDBID    string     `xml:"tmdbid"`
	IMDbID    string     `xml:"imdbid"`
	UniqueIDs []UniqueID `xml:"uniqueid"`
}

// UniqueID is a <uniqueid type="tmdb">603</uniqueid> element
type UniqueID struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

// Entry is one parsed .nfo file
type Entry struct {
	Path   string
	Title  string
	Year   int
	TMDBID movie.ID
	IMDbID string
}

// Query returns a search string for entries without a TMDB id
func (e Entry) Query() string {
	if e.Year > 0 {
		return fmt.Sprintf("%s (%d)", e.Title, e.Year)
	}
	return e.Title
}

// ErrNotMovie is returned for .nfo files whose root is not <movie>
var ErrNotMovie = errors.New("not a movie .nfo")

// ParseFile reads and parses a single .nfo file
func ParseFile(path string) (Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to read .nfo file: %w", err)
	}
	e, err := Parse(data)
	if err != nil {
		return Entry{}, fmt.Errorf("%s: %w", path, err)
	}
	e.Path = path
	return e, nil
}

// Parse decodes .nfo XML into an Entry
func Parse(data []byte) (Entry, error) {
	var m Movie
	if err := xml.Unmarshal(data, &m); err != nil {
		var unexpected xml.UnmarshalError
		if errors.As(err, &unexpected) {
			return Entry{}, ErrNotMovie
		}
		return Entry{}, fmt.Errorf("failed to parse .nfo XML: %w", err)
	}

	e := Entry{
		Title:  strings.TrimSpace(m.Title),
		Year:   m.Year,
		IMDbID: strings.TrimSpace(m.IMDbID),
	}

	// Parse year from premiered date if year is missing
	if e.Year == 0 && m.Premiered != "" {
		if t, err := time.Parse("2006-01-02", strings.TrimSpace(m.Premiered)); err == nil {
			e.Year = t.Year()
		}
	}

	tmdb := m.TMDBID
	for _, u := range m.UniqueIDs {
		switch strings.ToLower(u.Type) {
		case "tmdb":
			if tmdb == "" {
				tmdb = u.Value
			}
		case "imdb":
			if e.IMDbID == "" {
				e.IMDbID = strings.TrimSpace(u.Value)
			}
		}
	}
	if n, err := strconv.ParseInt(strings.TrimSpace(tmdb), 10, 64); err == nil && n > 0 {
		e.TMDBID = movie.ID(n)
	}

	if e.Title == "" && e.TMDBID == 0 {
		return Entry{}, errors.New("no title or tmdb id")
	}
	return e, nil
}

// Scan walks root and parses every .nfo file describing a movie. Files that
// fail to parse are reported in skipped and do not stop the walk.
func Scan(root string) (entries []Entry, skipped []error, err error) {
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// Skip directories we can't read
			if errors.Is(err, fs.ErrPermission) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			if p != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(p), ".nfo") {
			return nil
		}

		e, perr := ParseFile(p)
		switch {
		case errors.Is(perr, ErrNotMovie):
		case perr != nil:
			skipped = append(skipped, perr)
		default:
			entries = append(entries, e)
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("error walking directory: %w", err)
	}
	return entries, skipped, nil
}
