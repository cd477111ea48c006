// Package movie turns raw TMDB and OMDb payloads into the canonical movie records
// the rest of filmfinder works with.
package movie

// Sentinels used when an upstream value is missing
const (
	UnknownValue = "Unknown"
	NotAvailable = "N/A"
)

// Summary is the canonical record used for lists, search results and discovery
type Summary struct {
	ID           ID      `json:"id"`
	Title        string  `json:"title"`
	PosterPath   *string `json:"posterPath"`
	BackdropPath *string `json:"backdropPath"`
	ReleaseDate  *string `json:"releaseDate"`
	ReleaseYear  string  `json:"releaseYear"`
	Overview     string  `json:"overview"`
	VoteAverage  float64 `json:"voteAverage"`
	VoteCount    int     `json:"voteCount"`
	GenreIDs     []int   `json:"genreIds"`
	Popularity   float64 `json:"popularity"`
}

// Detail is the canonical record for a single movie page. Every field is always
// present; missing upstream values degrade to nil, "Unknown", "N/A" or an empty list.
type Detail struct {
	Summary
	Overlay

	IMDbID              *string      `json:"imdbId"`
	OriginalTitle       string       `json:"originalTitle"`
	Tagline             string       `json:"tagline"`
	Runtime             int          `json:"runtime"`
	Status              string       `json:"status"`
	Budget              int64        `json:"budget"`
	Revenue             int64        `json:"revenue"`
	Genres              []string     `json:"genres"`
	ProductionCompanies []string     `json:"productionCompanies"`
	ProductionCountries []string     `json:"productionCountries"`
	SpokenLanguages     []string     `json:"spokenLanguages"`
	Trailer             *Trailer     `json:"trailer"`
	Cast                []CastMember `json:"cast"`
	SimilarMovies       []Summary    `json:"similarMovies"`
}

// Trailer is the embeddable trailer picked from the TMDB video list
type Trailer struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Site string `json:"site"`
	URL  string `json:"url"`
}

// CastMember is one billed cast entry
type CastMember struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Character   string  `json:"character"`
	ProfilePath *string `json:"profilePath"`
}

// Genre is one entry of the TMDB genre catalog
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
