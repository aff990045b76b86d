// Package testutil provides mock HTTP servers for the trace.moe and AniList
// APIs, shared by client unit tests and pipeline integration tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// TraceMoeEntry is one entry of a mocked provider result list.
type TraceMoeEntry struct {
	Anilist    int     `json:"anilist"`
	Filename   string  `json:"filename"`
	Episode    *int64  `json:"episode"`
	From       float64 `json:"from"`
	Similarity float64 `json:"similarity"`
	Video      string  `json:"video"`
}

// MockTraceMoeServer mocks the trace.moe search endpoint.
type MockTraceMoeServer struct {
	*httptest.Server
	Handler http.HandlerFunc
}

// NewMockTraceMoeServer creates a mock trace.moe server. Configure it through
// MockResults / MockStatus before issuing requests.
func NewMockTraceMoeServer(t *testing.T) *MockTraceMoeServer {
	t.Helper()
	m := &MockTraceMoeServer{}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Handler != nil {
			m.Handler(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(m.Close)
	return m
}

// MockResults serves a fixed result list (possibly empty).
func (m *MockTraceMoeServer) MockResults(entries ...TraceMoeEntry) {
	if entries == nil {
		entries = []TraceMoeEntry{}
	}
	m.Handler = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"result": entries}) //nolint:errcheck // test mock response
	}
}

// MockStatus serves a provider error with the given status code.
func (m *MockTraceMoeServer) MockStatus(status int, errMsg string) {
	m.Handler = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": errMsg}) //nolint:errcheck // test mock response
	}
}

// MockAniListServer mocks the AniList GraphQL endpoint.
type MockAniListServer struct {
	*httptest.Server
	Handler http.HandlerFunc
}

// NewMockAniListServer creates a mock AniList server.
func NewMockAniListServer(t *testing.T) *MockAniListServer {
	t.Helper()
	m := &MockAniListServer{}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Handler != nil {
			m.Handler(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(m.Close)
	return m
}

// MockMedia serves a fixed Media record for every query.
func (m *MockAniListServer) MockMedia(media map[string]any) {
	m.Handler = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck // test mock response
			"data": map[string]any{"Media": media},
		})
	}
}

// MockUnavailable serves 500 for every query.
func (m *MockAniListServer) MockUnavailable() {
	m.Handler = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}
}
