package metadata

import (
	"fmt"
	"math"
	"strings"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"golang.org/x/net/html"

	"streamscout/models"
)

// genreTable maps TMDB genre ids to display names.
type genreTable map[int]string

// normalizer turns one provider-native record into the canonical list-shaped
// record. Implementations never read trailer or provider data.
type normalizer[R any] interface {
	normalize(record R, genres genreTable) models.Content
}

var (
	_ normalizer[tmdbTitle]    = movieNormalizer{}
	_ normalizer[tmdbTitle]    = tvNormalizer{}
	_ normalizer[anilistMedia] = animeNormalizer{}
)

func tmdbNormalizerFor(kind models.Kind) (normalizer[tmdbTitle], error) {
	switch kind {
	case models.KindMovie:
		return movieNormalizer{}, nil
	case models.KindTV:
		return tvNormalizer{}, nil
	default:
		return nil, invalidInput("no tmdb normalizer for %q", kind)
	}
}

func normalizeAll[R any](n normalizer[R], records []R, genres genreTable) []models.Content {
	out := make([]models.Content, 0, len(records))
	for _, r := range records {
		out = append(out, n.normalize(r, genres))
	}
	return out
}

type movieNormalizer struct{}

func (movieNormalizer) normalize(m tmdbTitle, genres genreTable) models.Content {
	return normalizeTMDB(m, genres, models.KindMovie, firstNonEmpty(m.Title, m.OriginalTitle), m.ReleaseDate)
}

type tvNormalizer struct{}

func (tvNormalizer) normalize(m tmdbTitle, genres genreTable) models.Content {
	return normalizeTMDB(m, genres, models.KindTV, firstNonEmpty(m.Name, m.OriginalName), m.FirstAirDate)
}

func normalizeTMDB(m tmdbTitle, genres genreTable, kind models.Kind, title, releaseDate string) models.Content {
	return models.Content{
		ID:          m.ID,
		Kind:        kind,
		Title:       title,
		Description: descriptionOrDefault(m.Overview),
		Poster:      tmdbPosterURL(m.PosterPath),
		Rating:      roundRating(m.VoteAverage),
		Genres:      tmdbGenreNames(m, genres),
		ReleaseDate: releaseDateOrUnknown(releaseDate),
		Trailer:     nil,
		Providers:   []string{},
	}
}

// tmdbGenreNames resolves genre_ids through the table when the record has
// them (list endpoints), otherwise uses the embedded genre objects (details).
func tmdbGenreNames(m tmdbTitle, genres genreTable) []string {
	var names []string
	if m.GenreIDs != nil {
		names = lo.FilterMap(m.GenreIDs, func(id int, _ int) (string, bool) {
			name, ok := genres[id]
			return name, ok && name != ""
		})
	} else {
		names = lo.FilterMap(m.Genres, func(g tmdbGenre, _ int) (string, bool) {
			name := strings.TrimSpace(g.Name)
			return name, name != ""
		})
	}
	if names == nil {
		return []string{}
	}
	return names
}

func tmdbPosterURL(path string) *string {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	u := tmdbImageBaseURL + path
	return &u
}

type animeNormalizer struct{}

func (animeNormalizer) normalize(a anilistMedia, _ genreTable) models.Content {
	rating := 0.0
	if a.AverageScore != nil {
		rating = roundRating(float64(*a.AverageScore) / 10)
	}
	genres := lo.Filter(a.Genres, func(g string, _ int) bool { return strings.TrimSpace(g) != "" })
	if genres == nil {
		genres = []string{}
	}
	return models.Content{
		ID:          a.ID,
		Kind:        models.KindAnime,
		Title:       firstNonEmpty(a.Title.English, a.Title.Romaji),
		Description: descriptionOrDefault(cleanDescription(a.Description)),
		Poster:      anilistPosterURL(a),
		Rating:      rating,
		Genres:      genres,
		ReleaseDate: formatAnimeDate(a.StartDate),
		Trailer:     nil,
		Providers:   []string{},
	}
}

func anilistPosterURL(a anilistMedia) *string {
	u := firstNonEmpty(a.CoverImage.ExtraLarge, a.CoverImage.Large)
	if u == "" {
		return nil
	}
	return &u
}

// formatAnimeDate renders the most precise date the triple allows.
func formatAnimeDate(d anilistDate) string {
	if d.Year == nil || *d.Year <= 0 {
		return models.ReleaseDateUnknown
	}
	hasMonth := d.Month != nil && *d.Month > 0
	hasDay := d.Day != nil && *d.Day > 0
	switch {
	case hasMonth && hasDay:
		return fmt.Sprintf("%d-%02d-%02d", *d.Year, *d.Month, *d.Day)
	case hasMonth:
		return fmt.Sprintf("%d-%02d", *d.Year, *d.Month)
	default:
		return fmt.Sprintf("%d", *d.Year)
	}
}

// descriptionEntities are unescaped one after another, in this order, so
// "&amp;lt;" ends up as "<".
var descriptionEntities = [][2]string{
	{"&quot;", `"`},
	{"&amp;", "&"},
	{"&lt;", "<"},
	{"&gt;", ">"},
}

func unescapeEntities(s string) string {
	for _, e := range descriptionEntities {
		s = strings.ReplaceAll(s, e[0], e[1])
	}
	return s
}

// cleanDescription turns AniList's HTML synopsis into plain text: <br> becomes
// a newline, every other tag is dropped, and only the four common entities
// are unescaped.
func cleanDescription(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(raw))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(unescapeEntities(b.String()))
		case html.TextToken:
			b.Write(z.Raw())
		case html.StartTagToken, html.SelfClosingTagToken:
			if name, _ := z.TagName(); string(name) == "br" {
				b.WriteByte('\n')
			}
		}
	}
}

// withDetail overlays extractor output on a list-shaped record.
func withDetail(base models.Content, trailer mo.Option[string], providers []string) models.Content {
	base.Trailer = nil
	if u, ok := trailer.Get(); ok && u != "" {
		base.Trailer = &u
	}
	if providers == nil {
		providers = []string{}
	}
	base.Providers = providers
	return base
}

func roundRating(v float64) float64 {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	return math.Min(10, math.Round(v*10)/10)
}

func descriptionOrDefault(s string) string {
	if strings.TrimSpace(s) == "" {
		return models.DescriptionUnavailable
	}
	return s
}

func releaseDateOrUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return models.ReleaseDateUnknown
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
