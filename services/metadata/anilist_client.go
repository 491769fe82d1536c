package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	anilistProvider       = "anilist"
	DefaultAniListURL     = "https://graphql.anilist.co"
	anilistResultsPerPage = 20
)

// anilistMediaFields is the selection set every document needs for normalization.
var anilistMediaFields = `
id
title {
	romaji
	english
}
description
coverImage {
	large
	extraLarge
}
averageScore
genres
startDate {
	year
	month
	day
}
trailer {
	id
	site
}
`

var anilistTrendingQuery = fmt.Sprintf(`
query {
	Page(page: 1, perPage: %d) {
		media(type: ANIME, sort: TRENDING_DESC) {
			%s
			externalLinks {
				site
				url
			}
		}
	}
}`, anilistResultsPerPage, anilistMediaFields)

var anilistPopularQuery = fmt.Sprintf(`
query {
	Page(page: 1, perPage: %d) {
		media(type: ANIME, sort: POPULARITY_DESC) {
			%s
			externalLinks {
				site
				url
			}
		}
	}
}`, anilistResultsPerPage, anilistMediaFields)

var anilistSearchQuery = fmt.Sprintf(`
query ($search: String) {
	Page(page: 1, perPage: %d) {
		media(type: ANIME, search: $search) {
			%s
			externalLinks {
				site
				url
			}
		}
	}
}`, anilistResultsPerPage, anilistMediaFields)

var anilistByIDQuery = fmt.Sprintf(`
query ($id: Int) {
	Media(id: $id, type: ANIME) {
		%s
		episodes
		duration
		status
		externalLinks {
			site
			url
			language
		}
		streamingEpisodes {
			title
			thumbnail
			url
			site
		}
	}
}`, anilistMediaFields)

type anilistDate struct {
	Year  *int `json:"year"`
	Month *int `json:"month"`
	Day   *int `json:"day"`
}

type anilistTrailer struct {
	ID   string `json:"id"`
	Site string `json:"site"`
}

type anilistExternalLink struct {
	Site     string `json:"site"`
	URL      string `json:"url"`
	Language string `json:"language,omitempty"`
}

type anilistStreamingEpisode struct {
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
	URL       string `json:"url"`
	Site      string `json:"site"`
}

type anilistMedia struct {
	ID    int64 `json:"id"`
	Title struct {
		Romaji  string `json:"romaji"`
		English string `json:"english"`
	} `json:"title"`
	Description string `json:"description"`
	CoverImage  struct {
		Large      string `json:"large"`
		ExtraLarge string `json:"extraLarge"`
	} `json:"coverImage"`
	AverageScore  *int                  `json:"averageScore"`
	Genres        []string              `json:"genres"`
	StartDate     anilistDate           `json:"startDate"`
	Trailer       *anilistTrailer       `json:"trailer"`
	ExternalLinks []anilistExternalLink `json:"externalLinks"`

	// by-id document only
	Episodes          *int                      `json:"episodes"`
	Duration          *int                      `json:"duration"`
	Status            string                    `json:"status"`
	StreamingEpisodes []anilistStreamingEpisode `json:"streamingEpisodes"`
}

type graphQLError struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

type anilistClient struct {
	endpoint string
	httpc    *http.Client
}

func newAniListClient(endpoint string, httpc *http.Client) *anilistClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 10 * time.Second}
	}
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		endpoint = DefaultAniListURL
	}
	return &anilistClient{endpoint: endpoint, httpc: httpc}
}

func (c *anilistClient) trending(ctx context.Context) ([]anilistMedia, error) {
	return c.page(ctx, "trending", anilistTrendingQuery, nil)
}

func (c *anilistClient) popular(ctx context.Context) ([]anilistMedia, error) {
	return c.page(ctx, "popular", anilistPopularQuery, nil)
}

func (c *anilistClient) search(ctx context.Context, query string) ([]anilistMedia, error) {
	return c.page(ctx, "search", anilistSearchQuery, map[string]any{"search": query})
}

func (c *anilistClient) byID(ctx context.Context, id int64) (*anilistMedia, error) {
	var data struct {
		Media *anilistMedia `json:"Media"`
	}
	if err := c.do(ctx, "by-id", anilistByIDQuery, map[string]any{"id": id}, &data); err != nil {
		if isStatus(err, http.StatusNotFound) {
			return nil, fmt.Errorf("%w: anime %d", ErrNotFound, id)
		}
		return nil, err
	}
	if data.Media == nil {
		return nil, fmt.Errorf("%w: anime %d", ErrNotFound, id)
	}
	return data.Media, nil
}

func (c *anilistClient) page(ctx context.Context, op, query string, variables map[string]any) ([]anilistMedia, error) {
	var data struct {
		Page struct {
			Media []anilistMedia `json:"media"`
		} `json:"Page"`
	}
	if err := c.do(ctx, op, query, variables, &data); err != nil {
		return nil, err
	}
	if data.Page.Media == nil {
		return []anilistMedia{}, nil
	}
	return data.Page.Media, nil
}

func (c *anilistClient) do(ctx context.Context, op, query string, variables map[string]any, out any) error {
	if variables == nil {
		variables = map[string]any{}
	}
	body, err := json.Marshal(map[string]any{"query": query, "variables": variables})
	if err != nil {
		return upstreamFailure(anilistProvider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return upstreamFailure(anilistProvider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		logger.WithField("op", op).Debug("anilist request failed")
		return upstreamFailure(anilistProvider, err)
	}
	defer resp.Body.Close()

	logger.WithFields(logrus.Fields{
		"op":       op,
		"status":   resp.StatusCode,
		"duration": time.Since(start).Milliseconds(),
	}).Debug("anilist POST")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return upstreamFailure(anilistProvider, &statusError{code: resp.StatusCode, status: resp.Status})
	}

	var envelope graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return upstreamFailure(anilistProvider, fmt.Errorf("decode %s: %w", op, err))
	}
	if len(envelope.Errors) > 0 {
		for _, gqlErr := range envelope.Errors {
			if gqlErr.Status == http.StatusNotFound {
				return upstreamFailure(anilistProvider, &statusError{code: http.StatusNotFound, status: gqlErr.Message})
			}
		}
		return upstreamFailure(anilistProvider, errors.New(envelope.Errors[0].Message))
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return upstreamFailure(anilistProvider, fmt.Errorf("%s: empty data", op))
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return upstreamFailure(anilistProvider, fmt.Errorf("decode %s data: %w", op, err))
	}
	return nil
}
