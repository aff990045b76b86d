// Package tracemoe contains a minimal client for the trace.moe reverse image-lookup
// API. It submits a screenshot (by public URL or raw bytes) and returns the top-ranked
// match: source catalog id, episode, timestamp offset, similarity and preview clip URL.
//
// Authentication is optional: when an API key is configured it is attached via the
// x-trace-key header, otherwise requests run against the anonymous quota.
package tracemoe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrNoMatch is returned when the provider answered successfully but its result
// list is empty. This is an expected operational outcome, not a transport fault.
var ErrNoMatch = errors.New("tracemoe: no match found")

// ProviderError is a non-2xx answer from the provider. It carries a message safe
// to show to the requesting user as-is.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("tracemoe: provider status %d: %s", e.StatusCode, e.Message)
}

// UserMessage returns the text shown to the requesting user.
func (e *ProviderError) UserMessage() string {
	return "API error, please try again later."
}

// SearchOptions are per-request flags derived once from the inbound message
// caption and the sender id. Immutable after construction.
type SearchOptions struct {
	SuppressCrop bool
	Mute         bool
	SkipPreview  bool
	RequesterID  int64
}

// OptionsFromCaption derives SearchOptions from a message caption and the sender id.
// Flags are case-insensitive substrings: "nocrop", "mute", "skip".
func OptionsFromCaption(caption string, requesterID int64) SearchOptions {
	lc := strings.ToLower(caption)
	return SearchOptions{
		SuppressCrop: strings.Contains(lc, "nocrop"),
		Mute:         strings.Contains(lc, "mute"),
		SkipPreview:  strings.Contains(lc, "skip"),
		RequesterID:  requesterID,
	}
}

// Match is the top-ranked entry of the provider's result list.
type Match struct {
	CatalogID      int
	Episode        *int64
	OffsetSeconds  float64
	Similarity     float64
	PreviewURL     string
	SourceFilename string
}

// Client queries the trace.moe search endpoint.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// searchTimeout bounds both the URL and the multipart upload variants.
const searchTimeout = 20 * time.Second

// New returns a Client for the given endpoint. apiKey may be empty.
func New(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: searchTimeout},
	}
}

func (c *Client) http() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// query builds the common request parameters: border cropping (inverse of SuppressCrop)
// and the per-requester usage tag the provider uses for quota attribution.
func query(opts SearchOptions) url.Values {
	q := url.Values{}
	cut := "1"
	if opts.SuppressCrop {
		cut = ""
	}
	q.Set("cutBorders", cut)
	q.Set("uid", "tg"+strconv.FormatInt(opts.RequesterID, 10))
	return q
}

// SearchByURL submits a publicly reachable image URL.
func (c *Client) SearchByURL(ctx context.Context, imageURL string, opts SearchOptions) (*Match, error) {
	if imageURL == "" {
		return nil, fmt.Errorf("tracemoe: image url empty")
	}
	q := query(opts)
	q.Set("url", imageURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

// SearchByImage submits raw image bytes as a multipart upload.
func (c *Client) SearchByImage(ctx context.Context, image []byte, filename string, opts SearchOptions) (*Match, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("tracemoe: image payload empty")
	}
	if filename == "" {
		filename = "image"
	}
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(image); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"?"+query(opts).Encode(), &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*Match, error) {
	if c.APIKey != "" {
		req.Header.Set("x-trace-key", c.APIKey)
	}
	resp, err := c.http().Do(req)
	if err != nil {
		return nil, fmt.Errorf("tracemoe: request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()

	var body struct {
		Error  string `json:"error"`
		Result []struct {
			Anilist    int     `json:"anilist"`
			Filename   string  `json:"filename"`
			Episode    *int64  `json:"episode"`
			From       float64 `json:"from"`
			Similarity float64 `json:"similarity"`
			Video      string  `json:"video"`
		} `json:"result"`
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Best effort decode of the provider error body; the user message is fixed.
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return nil, &ProviderError{StatusCode: resp.StatusCode, Message: body.Error}
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("tracemoe: decode response: %w", err)
	}
	if len(body.Result) == 0 {
		return nil, ErrNoMatch
	}

	// Always take the first (highest-ranked) entry; alternate candidates are discarded.
	top := body.Result[0]
	return &Match{
		CatalogID:      top.Anilist,
		Episode:        top.Episode,
		OffsetSeconds:  top.From,
		Similarity:     top.Similarity,
		PreviewURL:     top.Video,
		SourceFilename: top.Filename,
	}, nil
}
