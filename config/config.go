// Package config reads process settings once at startup from defaults, an
// optional streamscout.{toml,yaml,json} file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	AppName               = "streamscout"
	EnvironmentProduction = "production"
)

// ErrMissingAPIKey is returned by Validate when no TMDB key is configured.
var ErrMissingAPIKey = errors.New("TMDB_API_KEY is required")

// EnvKeyReplacer maps nested keys onto environment variable names.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

type Config struct {
	TMDBAPIKey  string
	TMDBBaseURL string
	AniListURL  string
	HTTPTimeout time.Duration

	Port        int
	FrontendURL string
	Environment string

	RateLimitWindow time.Duration
	RateLimitMax    int
	SearchLimitMax  int

	LogLevel  string
	LogFormat string
	LogFile   string
}

// IsProduction reports whether ENVIRONMENT is production.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, EnvironmentProduction)
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// New returns a viper instance with defaults, env bindings and config file
// search paths registered. file, when set, is used instead of the search.
func New(file string) *viper.Viper {
	v := viper.New()
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(AppName)
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/" + AppName)
	}

	v.SetEnvKeyReplacer(EnvKeyReplacer)
	for _, field := range Fields {
		v.SetDefault(field.Key, field.Value)
		_ = v.BindEnv(field.Key, field.Env)
	}
	return v
}

// Load reads the configuration. A missing config file is only an error when
// file names it explicitly; environment variables always win over file values.
func Load(file string) (Config, error) {
	if file != "" {
		if _, err := os.Stat(file); err != nil {
			return Config{}, fmt.Errorf("config file: %w", err)
		}
	}
	return load(New(file))
}

func load(v *viper.Viper) (Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Config{
		TMDBAPIKey:      strings.TrimSpace(v.GetString(KeyTMDBAPIKey)),
		TMDBBaseURL:     strings.TrimSpace(v.GetString(KeyTMDBBaseURL)),
		AniListURL:      strings.TrimSpace(v.GetString(KeyAniListURL)),
		HTTPTimeout:     v.GetDuration(KeyHTTPTimeout),
		Port:            v.GetInt(KeyPort),
		FrontendURL:     strings.TrimSpace(v.GetString(KeyFrontendURL)),
		Environment:     strings.ToLower(strings.TrimSpace(v.GetString(KeyEnvironment))),
		RateLimitWindow: v.GetDuration(KeyRateLimitWindow),
		RateLimitMax:    v.GetInt(KeyRateLimitMax),
		SearchLimitMax:  v.GetInt(KeySearchLimitMax),
		LogLevel:        strings.ToLower(strings.TrimSpace(v.GetString(KeyLogLevel))),
		LogFormat:       strings.ToLower(strings.TrimSpace(v.GetString(KeyLogFormat))),
		LogFile:         strings.TrimSpace(v.GetString(KeyLogFile)),
	}
	return cfg, nil
}

// Validate checks the settings every command needs.
func (c Config) Validate() error {
	var errs []error
	if c.TMDBAPIKey == "" {
		errs = append(errs, ErrMissingAPIKey)
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", c.Port))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, fmt.Errorf("invalid http timeout %s", c.HTTPTimeout))
	}
	if c.RateLimitWindow <= 0 || c.RateLimitMax <= 0 || c.SearchLimitMax <= 0 {
		errs = append(errs, errors.New("rate limit window and maximums must be positive"))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid log format %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

// Redacted returns a copy safe to print or log.
func (c Config) Redacted() Config {
	if c.TMDBAPIKey != "" {
		c.TMDBAPIKey = "********"
	}
	return c
}
