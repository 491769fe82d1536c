package models

import (
	"errors"
	"strings"
)

// Kind is the content category a record belongs to.
type Kind string

const (
	KindMovie Kind = "movie"
	KindTV    Kind = "tv"
	KindAnime Kind = "anime"
)

// ErrUnknownKind is returned by ParseKind for unrecognised values.
var ErrUnknownKind = errors.New("unknown content kind")

// Kinds lists every supported kind in search order.
var Kinds = []Kind{KindMovie, KindTV, KindAnime}

// ParseKind accepts the loose spellings used by clients (movies, shows, series, ...).
func ParseKind(value string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "movie", "movies", "film", "films":
		return KindMovie, nil
	case "tv", "show", "shows", "series":
		return KindTV, nil
	case "anime":
		return KindAnime, nil
	default:
		return "", ErrUnknownKind
	}
}

func (k Kind) String() string { return string(k) }

// DescriptionUnavailable is used when upstream has no synopsis.
const DescriptionUnavailable = "No description available."

// ReleaseDateUnknown is used when upstream has no usable release date.
const ReleaseDateUnknown = "Unknown"

// Content is the canonical record returned for every provider and kind.
// Trailer and Providers are only populated by detail lookups.
type Content struct {
	ID          int64    `json:"id" jsonschema:"description=Provider-native identifier. Unique within provider and kind only."`
	Kind        Kind     `json:"kind" jsonschema:"enum=movie,enum=tv,enum=anime"`
	Title       string   `json:"title" jsonschema:"minLength=1"`
	Description string   `json:"description"`
	Poster      *string  `json:"poster" jsonschema:"format=uri"`
	Rating      float64  `json:"rating" jsonschema:"minimum=0,maximum=10"`
	Genres      []string `json:"genres"`
	ReleaseDate string   `json:"releaseDate" jsonschema:"description=YYYY or YYYY-MM or YYYY-MM-DD or Unknown"`
	Trailer     *string  `json:"trailer" jsonschema:"format=uri"`
	Providers   []string `json:"providers"`

	// Anime detail extras
	Episodes *int   `json:"episodes,omitempty"`
	Duration *int   `json:"duration,omitempty"` // minutes per episode
	Status   string `json:"status,omitempty"`
}

// SearchResults holds one result slot per kind for a multi-kind search.
type SearchResults struct {
	Movies []Content `json:"movies"`
	TV     []Content `json:"tv"`
	Anime  []Content `json:"anime"`
}

// Total returns the number of records across all slots.
func (r SearchResults) Total() int {
	return len(r.Movies) + len(r.TV) + len(r.Anime)
}
