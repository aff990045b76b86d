// Package anilist contains a minimal client for the AniList GraphQL catalog,
// used to enrich a reverse-search match with canonical titles, genres and the
// adult-content rating. Lookups are always fresh; nothing is cached.
package anilist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// mediaQuery requests everything the reply formatter can use. A single POST,
// no pagination, no retry.
const mediaQuery = `query ($id: Int) {
  Media(id: $id, type: ANIME) {
    id
    idMal
    title {
      native
      romaji
      english
    }
    synonyms
    isAdult
    coverImage {
      large
    }
    status
    episodes
    duration
    genres
  }
}`

// Titles holds the localized title variants. Any of them may be empty.
type Titles struct {
	Native  string `json:"native"`
	Romaji  string `json:"romaji"`
	English string `json:"english"`
}

// CatalogInfo is the catalog record for one show. Request-scoped; never persisted.
type CatalogInfo struct {
	CatalogID  int
	IDMal      *int
	Titles     Titles
	Synonyms   []string
	IsAdult    bool
	CoverImage string
	Status     string
	Episodes   *int
	Duration   *int
	Genres     []string
}

// Client queries the AniList GraphQL endpoint.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New returns a Client for the given GraphQL endpoint.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) http() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// Media fetches the catalog record for a numeric show id. Callers must treat a
// returned error as a non-fatal "no data" outcome and degrade their reply.
func (c *Client) Media(ctx context.Context, id int) (*CatalogInfo, error) {
	payload, err := json.Marshal(map[string]any{
		"query":     mediaQuery,
		"variables": map[string]int{"id": id},
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http().Do(req)
	if err != nil {
		return nil, fmt.Errorf("anilist: request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("anilist: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Data struct {
			Media *struct {
				ID         int    `json:"id"`
				IDMal      *int   `json:"idMal"`
				Title      Titles `json:"title"`
				Synonyms   []string
				IsAdult    bool `json:"isAdult"`
				CoverImage struct {
					Large string `json:"large"`
				} `json:"coverImage"`
				Status   string   `json:"status"`
				Episodes *int     `json:"episodes"`
				Duration *int     `json:"duration"`
				Genres   []string `json:"genres"`
			} `json:"Media"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("anilist: decode response: %w", err)
	}
	if body.Data.Media == nil {
		return nil, fmt.Errorf("anilist: no media for id %d", id)
	}

	m := body.Data.Media
	return &CatalogInfo{
		CatalogID:  m.ID,
		IDMal:      m.IDMal,
		Titles:     m.Title,
		Synonyms:   m.Synonyms,
		IsAdult:    m.IsAdult,
		CoverImage: m.CoverImage.Large,
		Status:     m.Status,
		Episodes:   m.Episodes,
		Duration:   m.Duration,
		Genres:     m.Genres,
	}, nil
}
