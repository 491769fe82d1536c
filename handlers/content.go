package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"streamscout/api"
	"streamscout/models"
	"streamscout/services/metadata"
)

var logger = logrus.WithField("component", "handlers")

type contentService interface {
	Trending(context.Context, models.Kind) ([]models.Content, error)
	Popular(context.Context, models.Kind) ([]models.Content, error)
	TopRated(context.Context) ([]models.Content, error)
	Details(context.Context, models.Kind, int64) (*models.Content, error)
	Search(context.Context, models.Kind, string) ([]models.Content, error)
	SearchAll(context.Context, string) (models.SearchResults, error)
}

var _ contentService = (*metadata.Service)(nil)

type ContentHandler struct {
	Service contentService
}

func NewContentHandler(s contentService) *ContentHandler {
	return &ContentHandler{Service: s}
}

type listResponse struct {
	Success bool             `json:"success"`
	Count   int              `json:"count"`
	Data    []models.Content `json:"data"`
}

type detailResponse struct {
	Success bool            `json:"success"`
	Data    *models.Content `json:"data"`
}

type searchAllResponse struct {
	Success bool                 `json:"success"`
	Count   int                  `json:"count"`
	Data    models.SearchResults `json:"data"`
}

// Register mounts the content routes on an /api subrouter. Search routes are
// additionally wrapped by searchLimit when it is non-nil.
func (h *ContentHandler) Register(r *mux.Router, searchLimit mux.MiddlewareFunc) {
	limited := func(f http.HandlerFunc) http.Handler {
		if searchLimit == nil {
			return f
		}
		return searchLimit(f)
	}
	get := []string{http.MethodGet, http.MethodOptions}

	r.Handle("/search", limited(h.SearchAll)).Methods(get...)
	r.HandleFunc("/movies/top-rated", h.TopRated).Methods(get...)
	r.HandleFunc("/{kind:movies|tv|anime}/trending", h.Trending).Methods(get...)
	r.HandleFunc("/{kind:movies|tv|anime}/popular", h.Popular).Methods(get...)
	r.Handle("/{kind:movies|tv|anime}/search", limited(h.Search)).Methods(get...)
	r.HandleFunc("/{kind:movies|tv|anime}/{id:[0-9]+}", h.Details).Methods(get...)
}

func (h *ContentHandler) Trending(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindFromPath(w, r)
	if !ok {
		return
	}
	items, err := h.Service.Trending(r.Context(), kind)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeList(w, items)
}

func (h *ContentHandler) Popular(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindFromPath(w, r)
	if !ok {
		return
	}
	items, err := h.Service.Popular(r.Context(), kind)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeList(w, items)
}

func (h *ContentHandler) TopRated(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.TopRated(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeList(w, items)
}

func (h *ContentHandler) Details(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindFromPath(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "Invalid id")
		return
	}
	item, err := h.Service.Details(r.Context(), kind, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, detailResponse{Success: true, Data: item})
}

func (h *ContentHandler) Search(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindFromPath(w, r)
	if !ok {
		return
	}
	items, err := h.Service.Search(r.Context(), kind, r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeList(w, items)
}

func (h *ContentHandler) SearchAll(w http.ResponseWriter, r *http.Request) {
	results, err := h.Service.SearchAll(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, searchAllResponse{Success: true, Count: results.Total(), Data: results})
}

func kindFromPath(w http.ResponseWriter, r *http.Request) (models.Kind, bool) {
	kind, err := models.ParseKind(mux.Vars(r)["kind"])
	if err != nil {
		api.WriteError(w, http.StatusNotFound, "Route not found")
		return "", false
	}
	return kind, true
}

func writeList(w http.ResponseWriter, items []models.Content) {
	if items == nil {
		items = []models.Content{}
	}
	api.WriteJSON(w, http.StatusOK, listResponse{Success: true, Count: len(items), Data: items})
}

// writeError maps service errors onto status codes. Upstream causes stay in
// the log; clients only see a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	entry := logger.WithFields(logrus.Fields{
		"path":       r.URL.Path,
		"request_id": api.GetRequestID(r),
	})

	switch {
	case errors.Is(err, context.Canceled):
		// client went away; nothing useful to send
		entry.Debug("request canceled")
	case errors.Is(err, metadata.ErrInvalidInput):
		api.WriteError(w, http.StatusBadRequest, invalidInputMessage(err))
	case errors.Is(err, metadata.ErrNotFound):
		api.WriteError(w, http.StatusNotFound, "Content not found")
	case errors.Is(err, metadata.ErrUpstreamUnavailable):
		var upstream *metadata.UpstreamError
		if errors.As(err, &upstream) && upstream.Err != nil {
			entry = entry.WithField("provider", upstream.Provider).WithField("cause", upstream.Err.Error())
		}
		entry.Warn("upstream unavailable")
		api.WriteError(w, http.StatusBadGateway, "Upstream content provider unavailable")
	default:
		entry.WithError(err).Error("unexpected error")
		api.WriteError(w, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

func invalidInputMessage(err error) string {
	if errors.Is(err, metadata.ErrEmptyQuery) {
		return "Search query is required"
	}
	return "Invalid request"
}
