package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamscout/config"
	"streamscout/services/metadata"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func upstream(req *http.Request) (*http.Response, error) {
	body := `{}`
	status := http.StatusOK
	switch {
	case req.URL.Host == "anilist.test":
		body = `{"data":{"Page":{"media":[{"id":5,"title":{"romaji":"Mushishi"}}]}}}`
	case strings.HasSuffix(req.URL.Path, "/genre/movie/list"):
		body = `{"genres":[{"id":18,"name":"Drama"}]}`
	case strings.HasSuffix(req.URL.Path, "/trending/movie/week"):
		body = `{"results":[{"id":1,"title":"Heat","genre_ids":[18]}]}`
	case strings.Contains(req.URL.Path, "/search/"):
		status = http.StatusInternalServerError
	default:
		status = http.StatusNotFound
	}
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}, nil
}

func newTestServer(t *testing.T, searchMax int) *Server {
	t.Helper()
	cfg := config.Config{
		TMDBAPIKey:      "k",
		Port:            5000,
		FrontendURL:     "http://localhost:3000",
		HTTPTimeout:     time.Second,
		RateLimitWindow: 15 * time.Minute,
		RateLimitMax:    100,
		SearchLimitMax:  searchMax,
		LogFormat:       "text",
	}
	svc := metadata.NewService(metadata.Config{
		TMDBAPIKey:  cfg.TMDBAPIKey,
		TMDBBaseURL: "https://tmdb.test/3",
		AniListURL:  "https://anilist.test/graphql",
		HTTPClient:  &http.Client{Transport: roundTripFunc(upstream)},
	})
	s := New(cfg, svc, "test")
	t.Cleanup(s.Close)
	return s
}

func get(s *Server, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.RemoteAddr = "10.9.8.7:4000"
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServerRoutes(t *testing.T) {
	s := newTestServer(t, 20)

	rec := get(s, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Powered by The Movie Database (TMDB)")

	rec = get(s, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)

	rec = get(s, "/api/movies/trending")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Success bool `json:"success"`
		Count   int  `json:"count"`
		Data    []struct {
			Title  string   `json:"title"`
			Genres []string `json:"genres"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	assert.True(t, list.Success)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "Heat", list.Data[0].Title)
	assert.Equal(t, []string{"Drama"}, list.Data[0].Genres)
	assert.Equal(t, "100", rec.Header().Get("RateLimit-Limit"))

	rec = get(s, "/api/tv/top-rated")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = get(s, "/api/movies/search")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Search query is required"}`, rec.Body.String())
}

func TestServerSearchAllPartialFailure(t *testing.T) {
	s := newTestServer(t, 20)

	rec := get(s, "/api/search?q=mushishi")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data struct {
			Movies []json.RawMessage `json:"movies"`
			TV     []json.RawMessage `json:"tv"`
			Anime  []json.RawMessage `json:"anime"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Empty(t, body.Data.Movies)
	assert.Empty(t, body.Data.TV)
	assert.Len(t, body.Data.Anime, 1)
}

func TestServerSearchLimiter(t *testing.T) {
	s := newTestServer(t, 1)

	assert.Equal(t, http.StatusOK, get(s, "/api/anime/search?q=a").Code)
	rec := get(s, "/api/anime/search?q=a")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "Too many search requests")

	// non-search routes keep their own budget
	assert.Equal(t, http.StatusOK, get(s, "/api/anime/trending").Code)
}
