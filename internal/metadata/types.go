package metadata

// TMDBPagedResponse represents a paged movie list from the TMDB API
// (search, discover, trending and the embedded similar list share this shape)
type TMDBPagedResponse struct {
	Page         int         `json:"page"`
	Results      []TMDBMovie `json:"results"`
	TotalPages   int         `json:"total_pages"`
	TotalResults int         `json:"total_results"`
}

// TMDBMovie represents a movie from TMDB list endpoints
type TMDBMovie struct {
	ID               int     `json:"id"`
	Title            string  `json:"title"`
	OriginalTitle    string  `json:"original_title"`
	Overview         string  `json:"overview"`
	PosterPath       string  `json:"poster_path"`
	BackdropPath     string  `json:"backdrop_path"`
	ReleaseDate      string  `json:"release_date"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
	Popularity       float64 `json:"popularity"`
	GenreIDs         []int   `json:"genre_ids"`
	Adult            bool    `json:"adult"`
	OriginalLanguage string  `json:"original_language"`
}

// TMDBMovieDetails represents detailed movie information from TMDB, including the
// sub-resources requested through append_to_response
type TMDBMovieDetails struct {
	ID                  int                `json:"id"`
	IMDbID              string             `json:"imdb_id"`
	Title               string             `json:"title"`
	OriginalTitle       string             `json:"original_title"`
	Tagline             string             `json:"tagline"`
	Overview            string             `json:"overview"`
	PosterPath          string             `json:"poster_path"`
	BackdropPath        string             `json:"backdrop_path"`
	ReleaseDate         string             `json:"release_date"`
	Runtime             int                `json:"runtime"`
	Status              string             `json:"status"`
	Budget              int64              `json:"budget"`
	Revenue             int64              `json:"revenue"`
	VoteAverage         float64            `json:"vote_average"`
	VoteCount           int                `json:"vote_count"`
	Popularity          float64            `json:"popularity"`
	Genres              []TMDBGenre        `json:"genres"`
	ProductionCompanies []TMDBCompany      `json:"production_companies"`
	ProductionCountries []TMDBCountry      `json:"production_countries"`
	SpokenLanguages     []TMDBLanguage     `json:"spoken_languages"`
	Credits             *TMDBCredits       `json:"credits,omitempty"`
	Videos              *TMDBVideoList     `json:"videos,omitempty"`
	Similar             *TMDBPagedResponse `json:"similar,omitempty"`
}

// TMDBGenre represents a movie genre
type TMDBGenre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// TMDBGenreList is the response of the genre list endpoint
type TMDBGenreList struct {
	Genres []TMDBGenre `json:"genres"`
}

// TMDBCompany represents a production company
type TMDBCompany struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	OriginCountry string `json:"origin_country"`
}

// TMDBCountry represents a production country
type TMDBCountry struct {
	ISO31661 string `json:"iso_3166_1"`
	Name     string `json:"name"`
}

// TMDBLanguage represents a spoken language
type TMDBLanguage struct {
	ISO6391     string `json:"iso_639_1"`
	EnglishName string `json:"english_name"`
	Name        string `json:"name"`
}

// TMDBCredits represents the cast and crew embedded in a details response
type TMDBCredits struct {
	Cast []TMDBCastMember `json:"cast"`
	Crew []TMDBCrewMember `json:"crew"`
}

// TMDBCastMember represents a cast member
type TMDBCastMember struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Character   string `json:"character"`
	Order       int    `json:"order"`
	ProfilePath string `json:"profile_path"`
}

// TMDBCrewMember represents a crew member
type TMDBCrewMember struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Job        string `json:"job"`
	Department string `json:"department"`
}

// TMDBVideoList represents the videos embedded in a details response
type TMDBVideoList struct {
	Results []TMDBVideo `json:"results"`
}

// TMDBVideo represents a trailer, teaser or clip
type TMDBVideo struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Site string `json:"site"`
	Type string `json:"type"`
}

// TMDBStatus is the error body TMDB returns on non-200 responses
type TMDBStatus struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
	Success       bool   `json:"success"`
}

// OMDBTitle represents the OMDb single-title lookup response
type OMDBTitle struct {
	Response   string       `json:"Response"`
	Error      string       `json:"Error,omitempty"`
	Title      string       `json:"Title"`
	Director   string       `json:"Director"`
	Writer     string       `json:"Writer"`
	Actors     string       `json:"Actors"`
	Rated      string       `json:"Rated"`
	IMDbRating string       `json:"imdbRating"`
	Metascore  string       `json:"Metascore"`
	Awards     string       `json:"Awards"`
	Ratings    []OMDBRating `json:"Ratings"`
}

// OMDBRating is one third-party score in an OMDb response
type OMDBRating struct {
	Source string `json:"Source"`
	Value  string `json:"Value"`
}

// Found reports whether OMDb signalled a successful lookup
func (t *OMDBTitle) Found() bool {
	return t != nil && t.Response == "True"
}
