package utils

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"streamscout/api"
)

// RouterOptions configures the base router.
type RouterOptions struct {
	// AllowedOrigins are trusted verbatim, e.g. the deployed frontend URL.
	AllowedOrigins []string
	// AllowPrivateOrigins also trusts localhost and LAN origins (see IsAllowedOrigin).
	AllowPrivateOrigins bool
	// ServiceName is reported by /health.
	ServiceName string
}

// healthResponse is the body of GET /health.
type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Service   string `json:"service"`
}

// corsMiddleware allows cross-origin requests from configured and, optionally, private origins.
func corsMiddleware(opts RouterOptions) mux.MiddlewareFunc {
	exact := make(map[string]struct{}, len(opts.AllowedOrigins))
	for _, origin := range opts.AllowedOrigins {
		if origin = normalizeOrigin(origin); origin != "" {
			exact[origin] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" {
				_, trusted := exact[normalizeOrigin(origin)]
				if trusted || (opts.AllowPrivateOrigins && IsAllowedOrigin(origin)) {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Access-Control-Allow-Credentials", "true")
					w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
					w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+api.RequestIDHeader)
					w.Header().Set("Access-Control-Expose-Headers", "RateLimit-Limit, RateLimit-Remaining, Retry-After, "+api.RequestIDHeader)
				}
				w.Header().Add("Vary", "Origin")
			}

			// Handle preflight requests
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func normalizeOrigin(origin string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(origin), "/"))
}

// NewRouter constructs the base mux router with common middleware, the
// health route and JSON 404/405 handlers.
func NewRouter(opts RouterOptions) *mux.Router {
	if opts.ServiceName == "" {
		opts.ServiceName = "streamscout"
	}

	r := mux.NewRouter()
	r.NotFoundHandler = api.NotFound()
	r.MethodNotAllowedHandler = api.MethodNotAllowed()

	r.Use(api.Recover())
	r.Use(api.RequestID())
	r.Use(api.AccessLog())
	r.Use(api.SecurityHeaders())
	r.Use(corsMiddleware(opts))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		api.WriteJSON(w, http.StatusOK, healthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			Service:   opts.ServiceName,
		})
	}).Methods(http.MethodGet, http.MethodOptions)
	return r
}
