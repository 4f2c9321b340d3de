// package testing contains shared testing utilities
package testing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/crates/internal/models"
	"github.com/desertthunder/crates/internal/shared"
)

// MockBandcamp is a test double for [services.BandcampAPI]
//
// Albums are keyed by item URL. A URL listed in AlbumErrs fails with that error.
type MockBandcamp struct {
	Items       []models.WishlistItem
	Albums      map[string]*models.AlbumInfo
	AlbumErrs   map[string]error
	WishlistErr error
	Delay       time.Duration // Per album request, honouring ctx

	mu       sync.Mutex
	requests []string
	inFlight atomic.Int64
	maxSeen  atomic.Int64
}

func (m *MockBandcamp) Name() string { return "mock" }

func (m *MockBandcamp) GetWishlist(ctx context.Context) ([]models.WishlistItem, error) {
	if m.WishlistErr != nil {
		return nil, m.WishlistErr
	}
	return m.Items, nil
}

func (m *MockBandcamp) GetAlbumInfo(ctx context.Context, albumURL string) (*models.AlbumInfo, error) {
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		seen := m.maxSeen.Load()
		if n <= seen || m.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	m.mu.Lock()
	m.requests = append(m.requests, albumURL)
	m.mu.Unlock()

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err, ok := m.AlbumErrs[albumURL]; ok {
		return nil, err
	}

	album, ok := m.Albums[albumURL]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrAlbumNotParsed, albumURL)
	}
	return album, nil
}

// Requests returns the album URLs requested so far, in request order.
func (m *MockBandcamp) Requests() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.requests...)
}

// MaxInFlight returns the highest number of concurrent album requests observed.
func (m *MockBandcamp) MaxInFlight() int {
	return int(m.maxSeen.Load())
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// CountingWriter records how many times Write was called
type CountingWriter struct {
	Writes int
	target io.Writer
}

func NewCountingWriter(target io.Writer) *CountingWriter {
	return &CountingWriter{target: target}
}

func (c *CountingWriter) Write(p []byte) (n int, err error) {
	c.Writes++
	return c.target.Write(p)
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

// SpotifyPlaylistID is the playlist served by [NewSpotifyAPI].
const SpotifyPlaylistID = "37i9dQZF1DXcBWIGoYBM5M"

// NewSpotifyAPI starts a fake Spotify Web API with a token endpoint at /api/token accepting the
// client "id"/"secret" and a two page playlist [SpotifyPlaylistID].
//
// The first page holds a track with two artists, a podcast episode and a removed item.
// Requests without the issued "app-token" (or "user-token") bearer token get 401, other playlists 404.
func NewSpotifyAPI(t *testing.T) *httptest.Server {
	t.Helper()

	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}

	track := func(id, name, album string, artists ...string) map[string]any {
		credited := make([]map[string]any, 0, len(artists))
		for _, a := range artists {
			credited = append(credited, map[string]any{"name": a})
		}
		return map[string]any{
			"id":            id,
			"name":          name,
			"type":          "track",
			"artists":       credited,
			"album":         map[string]any{"name": album},
			"duration_ms":   200000,
			"popularity":    50,
			"external_urls": map[string]any{"spotify": "https://open.spotify.com/track/" + id},
		}
	}

	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/token" {
			id, secret, ok := r.BasicAuth()
			if !ok || id != "id" || secret != "secret" || r.FormValue("grant_type") != "client_credentials" {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				fmt.Fprint(w, `{"error":"invalid_client"}`)
				return
			}
			writeJSON(w, map[string]any{"access_token": "app-token", "token_type": "Bearer", "expires_in": 3600})
			return
		}

		if auth := r.Header.Get("Authorization"); auth != "Bearer app-token" && auth != "Bearer user-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		switch r.URL.Path {
		case "/v1/playlists/" + SpotifyPlaylistID:
			next := srv.URL + "/v1/playlists/" + SpotifyPlaylistID + "/tracks?offset=3&limit=3"
			writeJSON(w, map[string]any{
				"id":    SpotifyPlaylistID,
				"name":  "Crate Digging",
				"owner": map[string]any{"display_name": "digger"},
				"tracks": map[string]any{
					"total": 4,
					"items": []map[string]any{
						{"track": track("t1", "Song & Dance", "LP One", "A", "B")},
						{"track": map[string]any{"id": "e1", "name": "Episode", "type": "episode"}},
						{"track": nil},
					},
					"next": next,
				},
			})
		case "/v1/playlists/" + SpotifyPlaylistID + "/tracks":
			if r.URL.Query().Get("offset") != "3" {
				http.Error(w, "bad offset", http.StatusBadRequest)
				return
			}
			writeJSON(w, map[string]any{
				"total": 4,
				"items": []map[string]any{{"track": track("t2", "Second", "LP Two", "C")}},
				"next":  nil,
			})
		default:
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error":{"status":404,"message":"Resource not found"}}`)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}
