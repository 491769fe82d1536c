package handlers

import (
	"net/http"

	"streamscout/api"
)

// Attribution strings required by the upstream providers' terms.
const (
	AttributionTMDB    = "Powered by The Movie Database (TMDB)"
	AttributionAniList = "Anime data from AniList"
)

type indexResponse struct {
	Message     string                       `json:"message"`
	Version     string                       `json:"version"`
	Endpoints   map[string]map[string]string `json:"endpoints"`
	Attribution map[string]string            `json:"attribution"`
}

// IndexHandler serves GET / with the endpoint map and attribution.
type IndexHandler struct {
	Name    string
	Version string
}

func NewIndexHandler(name, version string) *IndexHandler {
	return &IndexHandler{Name: name, Version: version}
}

func (h *IndexHandler) Index(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, indexResponse{
		Message: h.Name,
		Version: h.Version,
		Endpoints: map[string]map[string]string{
			"movies": {
				"trending": "/api/movies/trending",
				"popular":  "/api/movies/popular",
				"topRated": "/api/movies/top-rated",
				"details":  "/api/movies/:id",
				"search":   "/api/movies/search?q=query",
			},
			"tv": {
				"trending": "/api/tv/trending",
				"popular":  "/api/tv/popular",
				"details":  "/api/tv/:id",
				"search":   "/api/tv/search?q=query",
			},
			"anime": {
				"trending": "/api/anime/trending",
				"popular":  "/api/anime/popular",
				"details":  "/api/anime/:id",
				"search":   "/api/anime/search?q=query",
			},
			"all": {
				"search": "/api/search?q=query",
			},
		},
		Attribution: map[string]string{
			"movies_tv": AttributionTMDB,
			"anime":     AttributionAniList,
		},
	})
}
