package config

import (
	"time"

	"github.com/samber/lo"
)

// Field describes one setting: its viper key, the environment variable it
// is read from, the default and a short description for `streamscout config`.
type Field struct {
	Key         string
	Env         string
	Value       any
	Description string
}

const (
	KeyTMDBAPIKey      = "tmdb.api_key"
	KeyTMDBBaseURL     = "tmdb.base_url"
	KeyAniListURL      = "anilist.url"
	KeyHTTPTimeout     = "http.timeout"
	KeyPort            = "server.port"
	KeyFrontendURL     = "server.frontend_url"
	KeyEnvironment     = "server.environment"
	KeyRateLimitWindow = "ratelimit.window"
	KeyRateLimitMax    = "ratelimit.max"
	KeySearchLimitMax  = "ratelimit.search_max"
	KeyLogLevel        = "log.level"
	KeyLogFormat       = "log.format"
	KeyLogFile         = "log.file"
)

// Fields lists every setting in display order.
var Fields = []Field{
	{KeyTMDBAPIKey, "TMDB_API_KEY", "", "TMDB v3 API key (required)"},
	{KeyTMDBBaseURL, "TMDB_BASE_URL", "https://api.themoviedb.org/3", "TMDB REST base URL"},
	{KeyAniListURL, "ANILIST_URL", "https://graphql.anilist.co", "AniList GraphQL endpoint"},
	{KeyHTTPTimeout, "HTTP_TIMEOUT", 10 * time.Second, "Timeout for each upstream request"},
	{KeyPort, "PORT", 5000, "HTTP listen port"},
	{KeyFrontendURL, "FRONTEND_URL", "http://localhost:3000", "Origin allowed by CORS"},
	{KeyEnvironment, "ENVIRONMENT", "development", "development or production; private origins are only trusted outside production"},
	{KeyRateLimitWindow, "RATE_LIMIT_WINDOW", 15 * time.Minute, "Rate limit window"},
	{KeyRateLimitMax, "RATE_LIMIT_MAX", 100, "Requests per IP per window on /api"},
	{KeySearchLimitMax, "RATE_LIMIT_SEARCH_MAX", 20, "Search requests per IP per window"},
	{KeyLogLevel, "LOG_LEVEL", "info", "trace, debug, info, warn or error"},
	{KeyLogFormat, "LOG_FORMAT", "text", "text or json"},
	{KeyLogFile, "LOG_FILE", "", "Optional log file, rotated when set"},
}

// Default indexes Fields by key.
var Default = lo.KeyBy(Fields, func(f Field) string { return f.Key })
