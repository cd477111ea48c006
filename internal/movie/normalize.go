package movie

import (
	"strings"

	"github.com/marco/filmfinder/internal/apperr"
	"github.com/marco/filmfinder/internal/metadata"
)

const (
	// DefaultImageBaseURL is TMDB's image CDN
	DefaultImageBaseURL = "https://image.tmdb.org/t/p/"

	summaryPosterSize   = "w342"
	summaryBackdropSize = "w1280"
	detailPosterSize    = "w500"
	detailBackdropSize  = "original"
	profileSize         = "w185"

	maxCast    = 10
	maxSimilar = 8

	trailerType     = "Trailer"
	trailerSite     = "YouTube"
	trailerEmbedURL = "https://www.youtube.com/embed/"
)

// Normalizer converts raw provider payloads into canonical records
type Normalizer struct {
	imageBaseURL string
}

// NewNormalizer creates a Normalizer that builds image URLs under imageBaseURL.
// An empty base selects DefaultImageBaseURL.
func NewNormalizer(imageBaseURL string) *Normalizer {
	if imageBaseURL == "" {
		imageBaseURL = DefaultImageBaseURL
	}
	if !strings.HasSuffix(imageBaseURL, "/") {
		imageBaseURL += "/"
	}
	return &Normalizer{imageBaseURL: imageBaseURL}
}

var defaultNormalizer = NewNormalizer("")

// NormalizeSummary maps one TMDB list entry using the default image base URL
func NormalizeSummary(raw metadata.TMDBMovie) (Summary, error) {
	return defaultNormalizer.Summary(raw)
}

// NormalizeDetail merges a TMDB details payload and an optional OMDb lookup using
// the default image base URL
func NormalizeDetail(primary metadata.TMDBMovieDetails, secondary *metadata.OMDBTitle) (Detail, error) {
	return defaultNormalizer.Detail(primary, secondary)
}

// Summary maps one TMDB list entry to a Summary
func (n *Normalizer) Summary(raw metadata.TMDBMovie) (Summary, error) {
	if err := checkPrimary("movie.Summary", raw.ID, raw.Title); err != nil {
		return Summary{}, err
	}

	genreIDs := make([]int, 0, len(raw.GenreIDs))
	genreIDs = append(genreIDs, raw.GenreIDs...)

	return Summary{
		ID:           ID(raw.ID),
		Title:        raw.Title,
		PosterPath:   n.imageURL(summaryPosterSize, raw.PosterPath),
		BackdropPath: n.imageURL(summaryBackdropSize, raw.BackdropPath),
		ReleaseDate:  optional(raw.ReleaseDate),
		ReleaseYear:  ReleaseYear(raw.ReleaseDate),
		Overview:     raw.Overview,
		VoteAverage:  raw.VoteAverage,
		VoteCount:    raw.VoteCount,
		GenreIDs:     genreIDs,
		Popularity:   raw.Popularity,
	}, nil
}

// Summaries maps a TMDB result list, skipping entries that fail normalization.
// It returns the number of skipped entries.
func (n *Normalizer) Summaries(raws []metadata.TMDBMovie) ([]Summary, int) {
	out := make([]Summary, 0, len(raws))
	skipped := 0
	for _, raw := range raws {
		s, err := n.Summary(raw)
		if err != nil {
			skipped++
			continue
		}
		out = append(out, s)
	}
	return out, skipped
}

// NormalizeSummaries is Summaries with the default image base URL
func NormalizeSummaries(raws []metadata.TMDBMovie) ([]Summary, int) {
	return defaultNormalizer.Summaries(raws)
}

// Detail maps a TMDB details payload, with its embedded credits, videos and similar
// list, plus an optional OMDb lookup. Missing sub-payloads degrade to their defaults;
// only a primary payload without id or title fails.
func (n *Normalizer) Detail(primary metadata.TMDBMovieDetails, secondary *metadata.OMDBTitle) (Detail, error) {
	if err := checkPrimary("movie.Detail", primary.ID, primary.Title); err != nil {
		return Detail{}, err
	}

	genreIDs := make([]int, 0, len(primary.Genres))
	genres := make([]string, 0, len(primary.Genres))
	for _, g := range primary.Genres {
		genreIDs = append(genreIDs, g.ID)
		genres = append(genres, g.Name)
	}

	companies := make([]string, 0, len(primary.ProductionCompanies))
	for _, c := range primary.ProductionCompanies {
		companies = append(companies, c.Name)
	}
	countries := make([]string, 0, len(primary.ProductionCountries))
	for _, c := range primary.ProductionCountries {
		countries = append(countries, c.Name)
	}
	languages := make([]string, 0, len(primary.SpokenLanguages))
	for _, l := range primary.SpokenLanguages {
		name := l.EnglishName
		if name == "" {
			name = l.Name
		}
		languages = append(languages, name)
	}

	return Detail{
		Summary: Summary{
			ID:           ID(primary.ID),
			Title:        primary.Title,
			PosterPath:   n.imageURL(detailPosterSize, primary.PosterPath),
			BackdropPath: n.imageURL(detailBackdropSize, primary.BackdropPath),
			ReleaseDate:  optional(primary.ReleaseDate),
			ReleaseYear:  ReleaseYear(primary.ReleaseDate),
			Overview:     primary.Overview,
			VoteAverage:  primary.VoteAverage,
			VoteCount:    primary.VoteCount,
			GenreIDs:     genreIDs,
			Popularity:   primary.Popularity,
		},
		Overlay:             MergeOverlay(OMDBSource(secondary)),
		IMDbID:              optional(primary.IMDbID),
		OriginalTitle:       primary.OriginalTitle,
		Tagline:             primary.Tagline,
		Runtime:             primary.Runtime,
		Status:              primary.Status,
		Budget:              primary.Budget,
		Revenue:             primary.Revenue,
		Genres:              genres,
		ProductionCompanies: companies,
		ProductionCountries: countries,
		SpokenLanguages:     languages,
		Trailer:             pickTrailer(primary.Videos),
		Cast:                n.cast(primary.Credits),
		SimilarMovies:       n.similar(primary.Similar),
	}, nil
}

// ReleaseYear returns the year part of an ISO release date, or "Unknown"
func ReleaseYear(releaseDate string) string {
	releaseDate = strings.TrimSpace(releaseDate)
	if releaseDate == "" {
		return UnknownValue
	}
	year, _, _ := strings.Cut(releaseDate, "-")
	if len(year) > 4 {
		year = year[:4]
	}
	return year
}

func pickTrailer(videos *metadata.TMDBVideoList) *Trailer {
	if videos == nil {
		return nil
	}
	for _, v := range videos.Results {
		if v.Type == trailerType && v.Site == trailerSite && v.Key != "" {
			return &Trailer{
				Key:  v.Key,
				Name: v.Name,
				Site: v.Site,
				URL:  trailerEmbedURL + v.Key,
			}
		}
	}
	return nil
}

func (n *Normalizer) cast(credits *metadata.TMDBCredits) []CastMember {
	if credits == nil {
		return []CastMember{}
	}
	limit := min(len(credits.Cast), maxCast)
	out := make([]CastMember, 0, limit)
	for _, p := range credits.Cast[:limit] {
		out = append(out, CastMember{
			ID:          p.ID,
			Name:        p.Name,
			Character:   p.Character,
			ProfilePath: n.imageURL(profileSize, p.ProfilePath),
		})
	}
	return out
}

func (n *Normalizer) similar(similar *metadata.TMDBPagedResponse) []Summary {
	if similar == nil {
		return []Summary{}
	}
	limit := min(len(similar.Results), maxSimilar)
	out, _ := n.Summaries(similar.Results[:limit])
	return out
}

func (n *Normalizer) imageURL(size, path string) *string {
	if path == "" {
		return nil
	}
	u := n.imageBaseURL + size + path
	return &u
}

func checkPrimary(op string, id int, title string) error {
	if id <= 0 {
		return apperr.Errorf(apperr.KindInvalidPrimaryPayload, op, "missing movie id")
	}
	if strings.TrimSpace(title) == "" {
		return apperr.Errorf(apperr.KindInvalidPrimaryPayload, op, "missing title for movie %d", id)
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
