package testutil

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/goccy/go-json"
)

// MockGammaAPI is a mock HTTP server that simulates the Gamma markets API.
// It serves raw, loosely typed market records with limit/offset paging.
type MockGammaAPI struct {
	*httptest.Server
	Markets  []map[string]any
	Requests int
	mu       sync.RWMutex
}

// NewMockGammaAPI creates a new mock Gamma API server.
func NewMockGammaAPI(markets []map[string]any) *MockGammaAPI {
	mock := &MockGammaAPI{
		Markets: markets,
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.Requests++
		mock.mu.Unlock()

		mock.mu.RLock()
		defer mock.mu.RUnlock()

		// Gamma returns a bare array for listings
		if r.URL.Path == "/markets" {
			limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
			if err != nil || limit <= 0 {
				limit = len(mock.Markets)
			}
			offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

			page := make([]map[string]any, 0, limit)
			for i := offset; i < len(mock.Markets) && len(page) < limit; i++ {
				page = append(page, mock.Markets[i])
			}

			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(page)
			return
		}

		if id, ok := strings.CutPrefix(r.URL.Path, "/markets/"); ok {
			for _, m := range mock.Markets {
				if m["id"] == id {
					w.Header().Set("Content-Type", "application/json")
					_ = json.NewEncoder(w).Encode(m)
					return
				}
			}
		}

		http.NotFound(w, r)
	})

	mock.Server = httptest.NewServer(handler)
	return mock
}

// AddMarket adds a raw market record to the mock API.
func (m *MockGammaAPI) AddMarket(market map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Markets = append(m.Markets, market)
}

// RequestCount returns the number of requests served.
func (m *MockGammaAPI) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Requests
}
