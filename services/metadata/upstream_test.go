package metadata

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
)

const (
	testTMDBBaseURL  = "https://tmdb.test/3"
	testAniListURL   = "https://anilist.test/graphql"
	testTMDBAPIKey   = "secret-test-key"
	testMovieGenres  = `{"genres":[{"id":28,"name":"Action"},{"id":80,"name":"Crime"},{"id":18,"name":"Drama"}]}`
	testTVGenres     = `{"genres":[{"id":18,"name":"Drama"},{"id":10765,"name":"Sci-Fi & Fantasy"}]}`
	testAnimeResults = `{"data":{"Page":{"media":[{"id":21,"title":{"romaji":"One Piece","english":null},"description":"Gol D. Roger<br>was known","coverImage":{"large":"https://img/l.jpg","extraLarge":"https://img/xl.jpg"},"averageScore":88,"genres":["Action","Adventure"],"startDate":{"year":1999,"month":10,"day":20},"trailer":{"id":"abc","site":"youtube"},"externalLinks":[{"site":"Crunchyroll","url":"https://cr"}]}]}}}`
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

// recordedRequest captures what a fake upstream received.
type recordedRequest struct {
	Method string
	Host   string
	Path   string
	Query  map[string]string
	Body   map[string]any
}

// fakeUpstream serves canned TMDB and AniList responses keyed by path (TMDB)
// or by a substring of the GraphQL document (AniList).
type fakeUpstream struct {
	t *testing.T

	mu       sync.Mutex
	requests []recordedRequest

	tmdb    map[string]canned
	anilist map[string]canned
}

type canned struct {
	status int
	body   string
}

func newFakeUpstream(t *testing.T) *fakeUpstream {
	return &fakeUpstream{
		t:       t,
		tmdb:    map[string]canned{},
		anilist: map[string]canned{},
	}
}

func (f *fakeUpstream) client() *http.Client {
	return &http.Client{Transport: roundTripFunc(f.roundTrip)}
}

func (f *fakeUpstream) service() *Service {
	return NewService(Config{
		TMDBAPIKey:  testTMDBAPIKey,
		TMDBBaseURL: testTMDBBaseURL,
		AniListURL:  testAniListURL,
		HTTPClient:  f.client(),
	})
}

func (f *fakeUpstream) roundTrip(req *http.Request) (*http.Response, error) {
	rec := recordedRequest{
		Method: req.Method,
		Host:   req.URL.Host,
		Path:   req.URL.Path,
		Query:  map[string]string{},
	}
	for k := range req.URL.Query() {
		rec.Query[k] = req.URL.Query().Get(k)
	}
	if req.Body != nil {
		raw, _ := io.ReadAll(req.Body)
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &rec.Body)
		}
	}

	f.mu.Lock()
	f.requests = append(f.requests, rec)
	f.mu.Unlock()

	switch req.URL.Host {
	case "tmdb.test":
		path := strings.TrimPrefix(req.URL.Path, "/3")
		if resp, ok := f.tmdb[path]; ok {
			return jsonResponse(resp.status, resp.body), nil
		}
	case "anilist.test":
		query, _ := rec.Body["query"].(string)
		for marker, resp := range f.anilist {
			if strings.Contains(query, marker) {
				return jsonResponse(resp.status, resp.body), nil
			}
		}
	}
	f.t.Logf("unhandled request: %s %s", req.Method, req.URL.Path)
	return jsonResponse(http.StatusNotFound, `{}`), nil
}

func (f *fakeUpstream) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeUpstream) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}
