package movie

import (
	"strings"

	"github.com/marco/filmfinder/internal/metadata"
)

// Overlay holds the fields supplied by secondary providers
type Overlay struct {
	Director             string `json:"director"`
	Writer               string `json:"writer"`
	Actors               string `json:"actors"`
	Rated                string `json:"rated"`
	IMDbRating           string `json:"imdbRating"`
	Metascore            string `json:"metascore"`
	RottenTomatoesRating string `json:"rottenTomatoesRating"`
	Awards               string `json:"awards"`
}

// OverlayField names one slot of an Overlay
type OverlayField int

const (
	FieldDirector OverlayField = iota
	FieldWriter
	FieldActors
	FieldRated
	FieldIMDbRating
	FieldMetascore
	FieldRottenTomatoes
	FieldAwards
	numOverlayFields
)

// rottenTomatoesSource is matched exactly against OMDb's Ratings[].Source
const rottenTomatoesSource = "Rotten Tomatoes"

var overlayDefaults = [numOverlayFields]string{
	FieldDirector:       UnknownValue,
	FieldWriter:         UnknownValue,
	FieldActors:         UnknownValue,
	FieldRated:          UnknownValue,
	FieldIMDbRating:     NotAvailable,
	FieldMetascore:      NotAvailable,
	FieldRottenTomatoes: NotAvailable,
	FieldAwards:         NotAvailable,
}

// OverlaySource supplies a value for a field, reporting false when it has none.
type OverlaySource func(OverlayField) (string, bool)

// MergeWithDefaults returns the first value reported by sources, or def.
func MergeWithDefaults(def string, values ...func() (string, bool)) string {
	for _, v := range values {
		if v == nil {
			continue
		}
		if s, ok := v(); ok {
			return s
		}
	}
	return def
}

// MergeOverlay builds an Overlay field by field. Sources are consulted in order and
// each field falls back to its own sentinel independently of the others.
func MergeOverlay(sources ...OverlaySource) Overlay {
	var o Overlay
	for f := OverlayField(0); f < numOverlayFields; f++ {
		values := make([]func() (string, bool), 0, len(sources))
		for _, src := range sources {
			if src == nil {
				continue
			}
			field := f
			values = append(values, func() (string, bool) { return src(field) })
		}
		*o.slot(f) = MergeWithDefaults(overlayDefaults[f], values...)
	}
	return o
}

// DefaultOverlay returns an Overlay with every field at its sentinel
func DefaultOverlay() Overlay {
	return MergeOverlay()
}

func (o *Overlay) slot(f OverlayField) *string {
	switch f {
	case FieldDirector:
		return &o.Director
	case FieldWriter:
		return &o.Writer
	case FieldActors:
		return &o.Actors
	case FieldRated:
		return &o.Rated
	case FieldIMDbRating:
		return &o.IMDbRating
	case FieldMetascore:
		return &o.Metascore
	case FieldRottenTomatoes:
		return &o.RottenTomatoesRating
	default:
		return &o.Awards
	}
}

// OMDBSource exposes an OMDb lookup as an OverlaySource. A nil title or one whose
// Response is not "True" contributes nothing.
func OMDBSource(t *metadata.OMDBTitle) OverlaySource {
	if !t.Found() {
		return nil
	}
	return func(f OverlayField) (string, bool) {
		switch f {
		case FieldDirector:
			return present(t.Director)
		case FieldWriter:
			return present(t.Writer)
		case FieldActors:
			return present(t.Actors)
		case FieldRated:
			return present(t.Rated)
		case FieldIMDbRating:
			return present(t.IMDbRating)
		case FieldMetascore:
			return present(t.Metascore)
		case FieldRottenTomatoes:
			for _, r := range t.Ratings {
				if r.Source == rottenTomatoesSource {
					return present(r.Value)
				}
			}
			return "", false
		case FieldAwards:
			return present(t.Awards)
		}
		return "", false
	}
}

// present treats blank strings and OMDb's own "N/A" as missing
func present(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == NotAvailable {
		return "", false
	}
	return s, true
}
