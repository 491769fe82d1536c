package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"streamscout/models"
)

// Minimal TMDB v3 client (api_key auth, first page of list and search endpoints)

const (
	tmdbProvider       = "tmdb"
	DefaultTMDBBaseURL = "https://api.themoviedb.org/3"
	tmdbImageBaseURL   = "https://image.tmdb.org/t/p/w500"
	// appended to detail lookups so trailer and provider data arrive in one round trip
	tmdbDetailAppend = "videos,watch/providers"
)

type tmdbClient struct {
	apiKey  string
	baseURL string
	httpc   *http.Client
}

func newTMDBClient(apiKey, baseURL string, httpc *http.Client) *tmdbClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 10 * time.Second}
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultTMDBBaseURL
	}
	return &tmdbClient{apiKey: strings.TrimSpace(apiKey), baseURL: baseURL, httpc: httpc}
}

type tmdbGenre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// tmdbTitle covers both movie and TV payloads; movies fill Title/ReleaseDate,
// shows fill Name/FirstAirDate. List results carry GenreIDs, detail payloads
// carry embedded Genres plus the appended sub-resources.
type tmdbTitle struct {
	ID            int64       `json:"id"`
	Title         string      `json:"title"`
	OriginalTitle string      `json:"original_title"`
	Name          string      `json:"name"`
	OriginalName  string      `json:"original_name"`
	Overview      string      `json:"overview"`
	PosterPath    string      `json:"poster_path"`
	VoteAverage   float64     `json:"vote_average"`
	GenreIDs      []int       `json:"genre_ids"`
	Genres        []tmdbGenre `json:"genres"`
	ReleaseDate   string      `json:"release_date"`
	FirstAirDate  string      `json:"first_air_date"`

	Videos         *tmdbVideos         `json:"videos,omitempty"`
	WatchProviders *tmdbWatchProviders `json:"watch/providers,omitempty"`
}

type tmdbVideos struct {
	Results []tmdbVideo `json:"results"`
}

type tmdbVideo struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Site string `json:"site"`
	Type string `json:"type"`
}

type tmdbWatchProviders struct {
	Results map[string]tmdbRegionProviders `json:"results"`
}

type tmdbRegionProviders struct {
	Link     string              `json:"link"`
	Flatrate []tmdbWatchProvider `json:"flatrate"`
	Buy      []tmdbWatchProvider `json:"buy"`
	Rent     []tmdbWatchProvider `json:"rent"`
}

type tmdbWatchProvider struct {
	ProviderID   int    `json:"provider_id"`
	ProviderName string `json:"provider_name"`
}

type tmdbPage struct {
	Page    int         `json:"page"`
	Results []tmdbTitle `json:"results"`
}

// statusError records a non-success upstream status so callers can tell a
// missing record apart from other failures.
type statusError struct {
	code   int
	status string
}

func (e *statusError) Error() string { return "unexpected status " + e.status }

func isStatus(err error, code int) bool {
	var se *statusError
	return errors.As(err, &se) && se.code == code
}

func tmdbMediaType(kind models.Kind) (string, error) {
	switch kind {
	case models.KindMovie:
		return "movie", nil
	case models.KindTV:
		return "tv", nil
	default:
		return "", invalidInput("tmdb does not serve %q", kind)
	}
}

func (c *tmdbClient) trending(ctx context.Context, kind models.Kind) ([]tmdbTitle, error) {
	mediaType, err := tmdbMediaType(kind)
	if err != nil {
		return nil, err
	}
	return c.list(ctx, "/trending/"+mediaType+"/week", nil)
}

func (c *tmdbClient) popular(ctx context.Context, kind models.Kind) ([]tmdbTitle, error) {
	mediaType, err := tmdbMediaType(kind)
	if err != nil {
		return nil, err
	}
	return c.list(ctx, "/"+mediaType+"/popular", nil)
}

func (c *tmdbClient) topRated(ctx context.Context) ([]tmdbTitle, error) {
	return c.list(ctx, "/movie/top_rated", nil)
}

func (c *tmdbClient) search(ctx context.Context, kind models.Kind, query string) ([]tmdbTitle, error) {
	mediaType, err := tmdbMediaType(kind)
	if err != nil {
		return nil, err
	}
	return c.list(ctx, "/search/"+mediaType, url.Values{"query": []string{query}})
}

func (c *tmdbClient) details(ctx context.Context, kind models.Kind, id int64) (*tmdbTitle, error) {
	mediaType, err := tmdbMediaType(kind)
	if err != nil {
		return nil, err
	}
	var title tmdbTitle
	path := "/" + mediaType + "/" + strconv.FormatInt(id, 10)
	if err := c.get(ctx, path, url.Values{"append_to_response": []string{tmdbDetailAppend}}, &title); err != nil {
		if isStatus(err, http.StatusNotFound) {
			return nil, fmt.Errorf("%w: %s %d", ErrNotFound, kind, id)
		}
		return nil, err
	}
	return &title, nil
}

// genres fetches the id→name table used to resolve genre_ids on list results.
func (c *tmdbClient) genres(ctx context.Context, kind models.Kind) (genreTable, error) {
	mediaType, err := tmdbMediaType(kind)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Genres []tmdbGenre `json:"genres"`
	}
	if err := c.get(ctx, "/genre/"+mediaType+"/list", nil, &resp); err != nil {
		return nil, err
	}
	table := make(genreTable, len(resp.Genres))
	for _, g := range resp.Genres {
		if name := strings.TrimSpace(g.Name); name != "" {
			table[g.ID] = name
		}
	}
	return table, nil
}

func (c *tmdbClient) list(ctx context.Context, path string, q url.Values) ([]tmdbTitle, error) {
	var page tmdbPage
	if err := c.get(ctx, path, q, &page); err != nil {
		return nil, err
	}
	if page.Results == nil {
		return []tmdbTitle{}, nil
	}
	return page.Results, nil
}

func (c *tmdbClient) get(ctx context.Context, path string, q url.Values, v any) error {
	params := url.Values{}
	for k, vals := range q {
		params[k] = vals
	}
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return upstreamFailure(tmdbProvider, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		logger.WithField("path", path).Debug("tmdb request failed")
		return upstreamFailure(tmdbProvider, err)
	}
	defer resp.Body.Close()

	logger.WithFields(logrus.Fields{
		"path":     path,
		"status":   resp.StatusCode,
		"duration": time.Since(start).Milliseconds(),
	}).Debug("tmdb GET")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return upstreamFailure(tmdbProvider, &statusError{code: resp.StatusCode, status: resp.Status})
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return upstreamFailure(tmdbProvider, fmt.Errorf("decode %s: %w", path, err))
	}
	return nil
}
