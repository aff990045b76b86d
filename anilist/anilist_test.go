package anilist

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMedia(t *testing.T) {
	episodes := 12
	tests := []struct {
		name        string
		id          int
		status      int
		response    any
		rawBody     string
		want        *CatalogInfo
		wantErr     bool
		errContains string
	}{
		{
			name:   "full record",
			id:     21,
			status: http.StatusOK,
			response: map[string]any{
				"data": map[string]any{
					"Media": map[string]any{
						"id":         21,
						"idMal":      21,
						"title":      map[string]string{"native": "ワンピース", "romaji": "One Piece", "english": "One Piece"},
						"synonyms":   []string{"OP"},
						"isAdult":    false,
						"coverImage": map[string]string{"large": "http://img/cover.jpg"},
						"status":     "RELEASING",
						"episodes":   nil,
						"duration":   24,
						"genres":     []string{"Action", "Adventure"},
					},
				},
			},
			want: &CatalogInfo{
				CatalogID:  21,
				Titles:     Titles{Native: "ワンピース", Romaji: "One Piece", English: "One Piece"},
				Synonyms:   []string{"OP"},
				CoverImage: "http://img/cover.jpg",
				Status:     "RELEASING",
				Genres:     []string{"Action", "Adventure"},
			},
		},
		{
			name:   "partial titles and episode count",
			id:     99,
			status: http.StatusOK,
			response: map[string]any{
				"data": map[string]any{
					"Media": map[string]any{
						"id":       99,
						"title":    map[string]string{"romaji": "Foo"},
						"isAdult":  true,
						"episodes": episodes,
					},
				},
			},
			want: &CatalogInfo{
				CatalogID: 99,
				Titles:    Titles{Romaji: "Foo"},
				IsAdult:   true,
				Episodes:  &episodes,
			},
		},
		{
			name:        "missing media is an error",
			id:          1,
			status:      http.StatusOK,
			response:    map[string]any{"data": map[string]any{"Media": nil}},
			wantErr:     true,
			errContains: "no media",
		},
		{
			name:        "non-2xx status",
			id:          1,
			status:      http.StatusNotFound,
			response:    map[string]any{"errors": []map[string]any{{"message": "Not Found."}}},
			wantErr:     true,
			errContains: "status 404",
		},
		{
			name:        "malformed body",
			id:          1,
			status:      http.StatusOK,
			rawBody:     "<html>not json</html>",
			wantErr:     true,
			errContains: "decode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("method = %s, want POST", r.Method)
				}
				var req struct {
					Query     string         `json:"query"`
					Variables map[string]int `json:"variables"`
				}
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Fatalf("decode request: %v", err)
				}
				if req.Variables["id"] != tt.id {
					t.Errorf("variables.id = %d, want %d", req.Variables["id"], tt.id)
				}
				if !strings.Contains(req.Query, "Media(id: $id, type: ANIME)") {
					t.Errorf("query missing Media selector: %q", req.Query)
				}
				w.WriteHeader(tt.status)
				if tt.rawBody != "" {
					_, _ = w.Write([]byte(tt.rawBody))
					return
				}
				_ = json.NewEncoder(w).Encode(tt.response)
			}))
			defer server.Close()

			c := New(server.URL)
			info, err := c.Media(context.Background(), tt.id)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("Media() error = nil, want error containing %q", tt.errContains)
				}
				if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("Media() error = %v, want error containing %q", err, tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("Media() unexpected error = %v", err)
			}
			if info.CatalogID != tt.want.CatalogID {
				t.Errorf("CatalogID = %d, want %d", info.CatalogID, tt.want.CatalogID)
			}
			if info.Titles != tt.want.Titles {
				t.Errorf("Titles = %+v, want %+v", info.Titles, tt.want.Titles)
			}
			if info.IsAdult != tt.want.IsAdult {
				t.Errorf("IsAdult = %v, want %v", info.IsAdult, tt.want.IsAdult)
			}
			if tt.want.Episodes != nil {
				if info.Episodes == nil || *info.Episodes != *tt.want.Episodes {
					t.Errorf("Episodes = %v, want %d", info.Episodes, *tt.want.Episodes)
				}
			} else if info.Episodes != nil {
				t.Errorf("Episodes = %d, want nil", *info.Episodes)
			}
			if len(info.Genres) != len(tt.want.Genres) {
				t.Errorf("Genres = %v, want %v", info.Genres, tt.want.Genres)
			}
		})
	}
}

func TestMediaUnreachableEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	c := New(server.URL)
	if _, err := c.Media(context.Background(), 21); err == nil {
		t.Fatal("Media() error = nil, want transport error")
	}
}
