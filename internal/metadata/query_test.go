package metadata

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuery(t *testing.T) {
	testCases := []struct {
		query         string
		expectedTitle string
		expectedYear  int
	}{
		// Plain queries are left alone, even when they end in a number
		{"The Matrix", "The Matrix", 0},
		{"  blade   runner 2049 ", "blade runner 2049", 0},
		{"1917", "1917", 0},
		// Bracketed years are always the release year
		{"The Matrix (1999)", "The Matrix", 1999},
		{"Dr. Strangelove [1964]", "Dr. Strangelove", 1964},
		{"(2019)", "(2019)", 0},
		{"Movie (0001)", "Movie (0001)", 0},
		// Release style names
		{"The.Matrix.1999.1080p.BluRay.x264-GROUP.mkv", "The Matrix", 1999},
		{"Inception.2010.BluRay.mkv", "Inception", 2010},
		{"Movie.2020.WEB-DL", "Movie", 2020},
		{"Blade.Runner.2049.2017.2160p.HDR.mkv", "Blade Runner 2049", 2017},
		{"Some_Movie_2004_DVDRip", "Some Movie", 2004},
		// Titles that start with a year
		{"2001.A.Space.Odyssey.1968.mkv", "2001 A Space Odyssey", 1968},
		{"1917.2019.1080p.mkv", "1917", 2019},
		{"1984.1984.1080p.mkv", "1984", 1984},
		{"300.2006.1080p.BluRay.mkv", "300", 2006},
		{"1917.(2019).mkv", "1917", 2019},
		{"2001.A.Space.Odyssey.[1968].mkv", "2001 A Space Odyssey", 1968},
	}

	for _, tc := range testCases {
		title, year := ParseQuery(tc.query)
		if title != tc.expectedTitle || year != tc.expectedYear {
			t.Errorf("ParseQuery(%q) = (%q, %d), want (%q, %d)",
				tc.query, title, year, tc.expectedTitle, tc.expectedYear)
		}
	}
}

func TestSearchSendsParsedYear(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "The Matrix", r.URL.Query().Get("query"))
		assert.Equal(t, "1999", r.URL.Query().Get("year"))
		fmt.Fprint(w, `{"page":1,"results":[{"id":603,"title":"The Matrix"}]}`)
	})

	resp, err := c.Search(context.Background(), "The.Matrix.1999.1080p.mkv")
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
}
