package metadata

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/pool"

	"streamscout/models"
)

var logger = logrus.WithField("component", "metadata")

// Config carries the upstream credentials and endpoints. It is built once at
// startup and handed to NewService.
type Config struct {
	TMDBAPIKey  string
	TMDBBaseURL string
	AniListURL  string
	// HTTPClient owns timeouts; nil uses a client with a 10s timeout.
	HTTPClient *http.Client
}

// Service fans requests out to the TMDB and AniList clients and returns
// canonical records.
type Service struct {
	tmdb    *tmdbClient
	anilist *anilistClient
}

func NewService(cfg Config) *Service {
	httpc := cfg.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Service{
		tmdb:    newTMDBClient(cfg.TMDBAPIKey, cfg.TMDBBaseURL, httpc),
		anilist: newAniListClient(cfg.AniListURL, httpc),
	}
}

// Trending returns this week's trending titles for a single kind.
func (s *Service) Trending(ctx context.Context, kind models.Kind) ([]models.Content, error) {
	switch kind {
	case models.KindMovie, models.KindTV:
		return s.tmdbList(ctx, kind, func(ctx context.Context) ([]tmdbTitle, error) {
			return s.tmdb.trending(ctx, kind)
		})
	case models.KindAnime:
		media, err := s.anilist.trending(ctx)
		if err != nil {
			return nil, err
		}
		return normalizeAll[anilistMedia](animeNormalizer{}, media, nil), nil
	default:
		return nil, invalidInput("unsupported kind %q", kind)
	}
}

// Popular returns the most popular titles for a single kind.
func (s *Service) Popular(ctx context.Context, kind models.Kind) ([]models.Content, error) {
	switch kind {
	case models.KindMovie, models.KindTV:
		return s.tmdbList(ctx, kind, func(ctx context.Context) ([]tmdbTitle, error) {
			return s.tmdb.popular(ctx, kind)
		})
	case models.KindAnime:
		media, err := s.anilist.popular(ctx)
		if err != nil {
			return nil, err
		}
		return normalizeAll[anilistMedia](animeNormalizer{}, media, nil), nil
	default:
		return nil, invalidInput("unsupported kind %q", kind)
	}
}

// TopRated is only offered for movies.
func (s *Service) TopRated(ctx context.Context) ([]models.Content, error) {
	return s.tmdbList(ctx, models.KindMovie, s.tmdb.topRated)
}

// Details fetches one record enriched with its trailer and legal providers.
// Each provider is hit exactly once.
func (s *Service) Details(ctx context.Context, kind models.Kind, id int64) (*models.Content, error) {
	if id <= 0 {
		return nil, invalidInput("id must be a positive integer")
	}
	switch kind {
	case models.KindMovie, models.KindTV:
		n, err := tmdbNormalizerFor(kind)
		if err != nil {
			return nil, err
		}
		record, err := s.tmdb.details(ctx, kind, id)
		if err != nil {
			return nil, err
		}
		// detail payloads embed genre objects, so no genre table is needed
		detail := withDetail(n.normalize(*record, nil), tmdbTrailerURL(record.Videos), tmdbWatchProviderNames(record.WatchProviders))
		return &detail, nil
	case models.KindAnime:
		media, err := s.anilist.byID(ctx, id)
		if err != nil {
			return nil, err
		}
		detail := withDetail(animeNormalizer{}.normalize(*media, nil), anilistTrailerURL(media.Trailer), anilistProviders(media.ExternalLinks))
		detail.Episodes = media.Episodes
		detail.Duration = media.Duration
		detail.Status = strings.TrimSpace(media.Status)
		return &detail, nil
	default:
		return nil, invalidInput("unsupported kind %q", kind)
	}
}

// Search queries a single kind. Upstream failures are returned to the caller.
func (s *Service) Search(ctx context.Context, kind models.Kind, query string) ([]models.Content, error) {
	q, err := searchQuery(query)
	if err != nil {
		return nil, err
	}
	return s.searchKind(ctx, kind, q)
}

// SearchAll queries movies, TV and anime concurrently. Each kind owns its
// result slot; a failing kind is logged and left empty so it cannot affect
// the other two.
func (s *Service) SearchAll(ctx context.Context, query string) (models.SearchResults, error) {
	q, err := searchQuery(query)
	if err != nil {
		return models.SearchResults{}, err
	}

	results := models.SearchResults{
		Movies: []models.Content{},
		TV:     []models.Content{},
		Anime:  []models.Content{},
	}
	slots := map[models.Kind]*[]models.Content{
		models.KindMovie: &results.Movies,
		models.KindTV:    &results.TV,
		models.KindAnime: &results.Anime,
	}

	start := time.Now()
	var wg conc.WaitGroup
	for _, kind := range models.Kinds {
		slot := slots[kind]
		wg.Go(func() {
			items, err := s.searchKind(ctx, kind, q)
			if err != nil {
				logSlotFailure(kind, err)
				return
			}
			*slot = items
		})
	}
	wg.Wait()

	logger.WithFields(logrus.Fields{
		"movies":   len(results.Movies),
		"tv":       len(results.TV),
		"anime":    len(results.Anime),
		"duration": time.Since(start).Milliseconds(),
	}).Debug("search all complete")
	return results, nil
}

func (s *Service) searchKind(ctx context.Context, kind models.Kind, q string) ([]models.Content, error) {
	switch kind {
	case models.KindMovie, models.KindTV:
		return s.tmdbList(ctx, kind, func(ctx context.Context) ([]tmdbTitle, error) {
			return s.tmdb.search(ctx, kind, q)
		})
	case models.KindAnime:
		media, err := s.anilist.search(ctx, q)
		if err != nil {
			return nil, err
		}
		return normalizeAll[anilistMedia](animeNormalizer{}, media, nil), nil
	default:
		return nil, invalidInput("unsupported kind %q", kind)
	}
}

// tmdbList runs the list request and the genre table request side by side;
// both are needed, so the first failure cancels the other.
func (s *Service) tmdbList(ctx context.Context, kind models.Kind, fetch func(context.Context) ([]tmdbTitle, error)) ([]models.Content, error) {
	n, err := tmdbNormalizerFor(kind)
	if err != nil {
		return nil, err
	}

	var (
		records []tmdbTitle
		genres  genreTable
	)
	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	p.Go(func(ctx context.Context) error {
		var err error
		records, err = fetch(ctx)
		return err
	})
	p.Go(func(ctx context.Context) error {
		var err error
		genres, err = s.tmdb.genres(ctx, kind)
		return err
	})
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return normalizeAll(n, records, genres), nil
}

func searchQuery(query string) (string, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return "", ErrEmptyQuery
	}
	return q, nil
}

func logSlotFailure(kind models.Kind, err error) {
	entry := logger.WithField("kind", kind.String())
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		entry = entry.WithField("provider", upstream.Provider)
		if upstream.Err != nil {
			entry = entry.WithField("cause", upstream.Err.Error())
		}
	} else {
		entry = entry.WithError(err)
	}
	entry.Warn("search slot failed, returning empty results for kind")
}
