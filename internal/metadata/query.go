package metadata

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

const firstFilmYear = 1888

var (
	bracketYearPattern = regexp.MustCompile(`[\[\(](\d{4})[\]\)]`)
	videoExtPattern    = regexp.MustCompile(`(?i)^\.(mkv|mp4|avi|mov|m4v|wmv|mpg|mpeg|ts|webm)$`)
	// Release markers found in file and torrent names
	resolutionPattern   = regexp.MustCompile(`(?i)\b(2160p|1080p|1080i|720p|480p|4K)\b`)
	qualityPattern      = regexp.MustCompile(`(?i)\b(BluRay|BDRip|BRRip|WEB-DL|WEBRip|HDRip|DVDRip|HDTV)\b`)
	codecPattern        = regexp.MustCompile(`(?i)\b(x264|x265|H\.?264|H\.?265|HEVC|XviD|DivX|AVC)\b`)
	audioPattern        = regexp.MustCompile(`(?i)\b(AAC|AC3|DTS|DD5\.1|TrueHD|Atmos|DTS-HD|FLAC)\b`)
	extraInfoPattern    = regexp.MustCompile(`(?i)\b(EXTENDED|UNRATED|DIRECTOR.?S.?CUT|REMASTERED|THEATRICAL|IMAX|UHD|HDR|HDR10)\b`)
	releaseGroupPattern = regexp.MustCompile(`-[A-Za-z0-9]+$`)
	spacePattern        = regexp.MustCompile(`\s+`)
)

// ParseQuery splits a search query into a title and an optional release year.
// A year in parentheses or brackets is always taken as the release year.
// Release style names ("The.Matrix.1999.1080p.BluRay.mkv") are cleaned of
// their quality markers and the last plausible year is used. Plain queries
// such as "Blade Runner 2049" are left alone.
func ParseQuery(q string) (title string, year int) {
	q = strings.TrimSpace(q)
	if videoExtPattern.MatchString(filepath.Ext(q)) {
		q = strings.TrimSuffix(q, filepath.Ext(q))
	}

	if m := bracketYearPattern.FindStringSubmatchIndex(q); m != nil {
		if y, _ := strconv.Atoi(q[m[2]:m[3]]); plausibleYear(y) {
			rest := q[:m[0]] + " " + q[m[1]:]
			if isReleaseName(q) {
				rest = cleanReleaseName(rest)
			}
			if rest = collapse(rest); rest != "" {
				return rest, y
			}
		}
	}

	if !isReleaseName(q) {
		return collapse(q), 0
	}

	words := strings.Fields(cleanReleaseName(q))
	// The title itself may be a year ("1917", "2001 A Space Odyssey"), so
	// never take the first word.
	for i := len(words) - 1; i > 0; i-- {
		if len(words[i]) != 4 {
			continue
		}
		if y, err := strconv.Atoi(words[i]); err == nil && plausibleYear(y) {
			return strings.Join(words[:i], " "), y
		}
	}
	return strings.Join(words, " "), 0
}

// isReleaseName reports whether q uses dots or underscores instead of spaces
func isReleaseName(q string) bool {
	return !strings.Contains(q, " ") && strings.ContainsAny(q, "._")
}

// cleanReleaseName strips quality markers first so "WEB-DL" is not mistaken
// for a release group
func cleanReleaseName(name string) string {
	for _, p := range []*regexp.Regexp{resolutionPattern, qualityPattern, codecPattern, audioPattern, extraInfoPattern} {
		name = p.ReplaceAllString(name, " ")
	}
	name = releaseGroupPattern.ReplaceAllString(strings.TrimSpace(name), "")
	name = strings.NewReplacer(".", " ", "_", " ").Replace(name)
	return collapse(name)
}

func collapse(s string) string {
	return strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
}

func plausibleYear(y int) bool {
	return y >= firstFilmYear && y <= 2100
}
