package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, field := range Fields {
		t.Setenv(field.Env, "")
		os.Unsetenv(field.Env)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	Convey("Loading without a config file or environment", t, func() {
		cfg, err := Load(filepath.Join(dir, "missing-dir-does-not-matter", "x"))
		Convey("An explicit missing file is an error", func() {
			So(err, ShouldNotBeNil)
			So(cfg, ShouldResemble, Config{})
		})

		cfg, err = load(New(""))
		Convey("Search-path lookup tolerates a missing file", func() {
			So(err, ShouldBeNil)
		})

		Convey("Defaults are populated", func() {
			So(cfg.Port, ShouldEqual, 5000)
			So(cfg.FrontendURL, ShouldEqual, "http://localhost:3000")
			So(cfg.TMDBBaseURL, ShouldEqual, "https://api.themoviedb.org/3")
			So(cfg.AniListURL, ShouldEqual, "https://graphql.anilist.co")
			So(cfg.HTTPTimeout, ShouldEqual, 10*time.Second)
			So(cfg.RateLimitWindow, ShouldEqual, 15*time.Minute)
			So(cfg.RateLimitMax, ShouldEqual, 100)
			So(cfg.SearchLimitMax, ShouldEqual, 20)
			So(cfg.LogFormat, ShouldEqual, "text")
			So(cfg.IsProduction(), ShouldBeFalse)
		})

		Convey("Validation requires the TMDB key", func() {
			err := cfg.Validate()
			So(err, ShouldNotBeNil)
			So(errors.Is(err, ErrMissingAPIKey), ShouldBeTrue)
		})
	})
}

func TestLoadEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("TMDB_API_KEY", "  abc123  ")
	t.Setenv("PORT", "8080")
	t.Setenv("ENVIRONMENT", "Production")
	t.Setenv("HTTP_TIMEOUT", "3s")
	t.Setenv("RATE_LIMIT_SEARCH_MAX", "5")
	t.Setenv("LOG_FORMAT", "JSON")

	Convey("Environment variables override defaults", t, func() {
		cfg, err := load(New(""))
		So(err, ShouldBeNil)
		So(cfg.TMDBAPIKey, ShouldEqual, "abc123")
		So(cfg.Port, ShouldEqual, 8080)
		So(cfg.Addr(), ShouldEqual, ":8080")
		So(cfg.IsProduction(), ShouldBeTrue)
		So(cfg.HTTPTimeout, ShouldEqual, 3*time.Second)
		So(cfg.SearchLimitMax, ShouldEqual, 5)
		So(cfg.LogFormat, ShouldEqual, "json")
		So(cfg.Validate(), ShouldBeNil)

		Convey("Redacted hides the key", func() {
			So(cfg.Redacted().TMDBAPIKey, ShouldNotContainSubstring, "abc123")
			So(cfg.TMDBAPIKey, ShouldEqual, "abc123")
		})
	})
}

func TestLoadConfigFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "streamscout.toml")
	content := `
[tmdb]
api_key = "from-file"

[server]
port = 7000
frontend_url = "https://app.example.com"

[log]
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("PORT", "9000")

	Convey("A TOML config file is read", t, func() {
		cfg, err := Load(path)
		So(err, ShouldBeNil)
		So(cfg.TMDBAPIKey, ShouldEqual, "from-file")
		So(cfg.FrontendURL, ShouldEqual, "https://app.example.com")
		So(cfg.LogLevel, ShouldEqual, "debug")

		Convey("Environment wins over the file", func() {
			So(cfg.Port, ShouldEqual, 9000)
		})
	})
}

func TestValidate(t *testing.T) {
	Convey("Validate", t, func() {
		valid := Config{
			TMDBAPIKey:      "k",
			Port:            5000,
			HTTPTimeout:     time.Second,
			RateLimitWindow: time.Minute,
			RateLimitMax:    1,
			SearchLimitMax:  1,
			LogFormat:       "text",
		}
		So(valid.Validate(), ShouldBeNil)

		Convey("Rejects a bad port", func() {
			bad := valid
			bad.Port = 70000
			So(bad.Validate(), ShouldNotBeNil)
		})

		Convey("Rejects an unknown log format", func() {
			bad := valid
			bad.LogFormat = "xml"
			So(bad.Validate(), ShouldNotBeNil)
		})

		Convey("Rejects a zero rate limit", func() {
			bad := valid
			bad.SearchLimitMax = 0
			So(bad.Validate(), ShouldNotBeNil)
		})
	})
}

func TestFieldsAreIndexed(t *testing.T) {
	Convey("Every field is reachable by key and bound to an env var", t, func() {
		So(len(Default), ShouldEqual, len(Fields))
		for _, field := range Fields {
			So(Default[field.Key].Env, ShouldEqual, field.Env)
			So(field.Env, ShouldNotBeBlank)
		}
		So(EnvKeyReplacer.Replace("tmdb.api_key"), ShouldEqual, "tmdb_api_key")
	})
}
