// Spotify Web API playlist reader
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/desertthunder/crates/internal/models"
	"github.com/desertthunder/crates/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// playlistIDPatterns match an open.spotify.com link, a spotify: URI or a bare id, in that order.
var playlistIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`https://open\.spotify\.com/playlist/([a-zA-Z0-9]+)`),
	regexp.MustCompile(`spotify:playlist:([a-zA-Z0-9]+)`),
	regexp.MustCompile(`^([a-zA-Z0-9]+)$`),
}

// SpotifyArtist represents a simplified Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a simplified Spotify album.
type SpotifyAlbum struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ReleaseDate string `json:"release_date"`
	URI         string `json:"uri"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyTrack represents a Spotify track. Playlists may also hold episodes, which share the shape
// with a Type of "episode".
type SpotifyTrack struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Type         string          `json:"type"`
	Artists      []SpotifyArtist `json:"artists"`
	Album        SpotifyAlbum    `json:"album"`
	DurationMS   int             `json:"duration_ms"`
	Popularity   int             `json:"popularity"`
	ExternalURLs externalURLs    `json:"external_urls"`
	URI          string          `json:"uri"`
}

// SpotifyOwner is the user that owns a playlist.
type SpotifyOwner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// SpotifyPlaylistItem is an entry of a playlist. Track is nil for removed or unavailable items.
type SpotifyPlaylistItem struct {
	AddedAt string        `json:"added_at"`
	Track   *SpotifyTrack `json:"track"`
}

// SpotifyPlaylistTracks is a page of playlist items.
type SpotifyPlaylistTracks struct {
	Items  []SpotifyPlaylistItem `json:"items"`
	Total  int                   `json:"total"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
	Next   *string               `json:"next"`
}

// SpotifyPlaylist represents a playlist with the first page of its items.
type SpotifyPlaylist struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Owner       SpotifyOwner          `json:"owner"`
	Public      bool                  `json:"public"`
	Tracks      SpotifyPlaylistTracks `json:"tracks"`
	URI         string                `json:"uri"`
}

// SpotifyService reads public playlists with an app token.
type SpotifyService struct {
	config     clientcredentials.Config
	token      *oauth2.Token
	httpClient *http.Client
	baseURL    string
}

// NewSpotifyService creates a Spotify service from app credentials.
//
// client_id and client_secret are checked when a client credentials grant is requested.
// token_url and base_url override the public endpoints.
func NewSpotifyService(credentials map[string]string) *SpotifyService {
	return &SpotifyService{
		config: clientcredentials.Config{
			ClientID:     credentials["client_id"],
			ClientSecret: credentials["client_secret"],
			TokenURL:     withDefault(credentials["token_url"], spotifyTokenURL),
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		httpClient: http.DefaultClient,
		baseURL:    strings.TrimSuffix(withDefault(credentials["base_url"], spotifyBaseURL), "/"),
	}
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// SetHTTPClient replaces the client used for API and token requests.
func (s *SpotifyService) SetHTTPClient(client *http.Client) {
	s.httpClient = client
}

// ClientCredentialsToken obtains an app token with the client_credentials grant.
func (s *SpotifyService) ClientCredentialsToken(ctx context.Context) (*oauth2.Token, error) {
	if s.config.ClientID == "" || s.config.ClientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client_id and client_secret", shared.ErrMissingCredentials)
	}

	token, err := s.config.Token(context.WithValue(ctx, oauth2.HTTPClient, s.httpClient))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	s.token = token
	return token, nil
}

// Authenticate sets the token used for API requests.
//
// Expects either an "access_token" or "grant_type" set to "client_credentials" in credentials.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken := credentials["access_token"]; accessToken != "" {
		s.token = &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}
		return nil
	}

	if credentials["grant_type"] == "client_credentials" {
		_, err := s.ClientCredentialsToken(ctx)
		return err
	}

	return fmt.Errorf("%w: missing access_token", shared.ErrMissingCredentials)
}

// doRequest performs an authenticated GET against the Spotify API.
//
// target is a path below the base URL, or an absolute pagination link that must point below it.
func (s *SpotifyService) doRequest(ctx context.Context, target string, result any) error {
	if s.token == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	apiURL := s.baseURL + target
	if strings.Contains(target, "://") {
		if !strings.HasPrefix(target, s.baseURL+"/") {
			return fmt.Errorf("%w: link outside the API: %s", shared.ErrInvalidArgument, target)
		}
		apiURL = target
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.token.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: spotify status %d", shared.ErrAuthFailed, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: spotify status %d", shared.ErrNotFound, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: spotify status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// Playlist retrieves a playlist by ID, with the first page of its items.
func (s *SpotifyService) Playlist(ctx context.Context, playlistID string) (*SpotifyPlaylist, error) {
	var playlist SpotifyPlaylist
	if err := s.doRequest(ctx, "/playlists/"+url.PathEscape(playlistID), &playlist); err != nil {
		return nil, fmt.Errorf("playlist %s: %w", playlistID, err)
	}
	return &playlist, nil
}

// PlaylistItems returns every item of playlist, following the pagination links after the first page.
func (s *SpotifyService) PlaylistItems(ctx context.Context, playlist *SpotifyPlaylist) ([]SpotifyPlaylistItem, error) {
	items := append([]SpotifyPlaylistItem(nil), playlist.Tracks.Items...)

	next := playlist.Tracks.Next
	for next != nil && *next != "" {
		var page SpotifyPlaylistTracks
		if err := s.doRequest(ctx, *next, &page); err != nil {
			return nil, fmt.Errorf("items of playlist %s: %w", playlist.ID, err)
		}
		items = append(items, page.Items...)
		next = page.Next
	}

	return items, nil
}

// ExtractPlaylistID returns the playlist id of an open.spotify.com link, a spotify:playlist: URI or a bare id.
func ExtractPlaylistID(input string) (string, error) {
	input = strings.TrimSpace(input)
	for _, pattern := range playlistIDPatterns {
		if m := pattern.FindStringSubmatch(input); m != nil {
			return m[1], nil
		}
	}
	return "", fmt.Errorf("%w: not a spotify playlist: %q", shared.ErrInvalidArgument, input)
}

// PlaylistRecords projects playlist items into records, skipping removed items and episodes.
func PlaylistRecords(items []SpotifyPlaylistItem) []models.PlaylistTrackRecord {
	records := make([]models.PlaylistTrackRecord, 0, len(items))
	for _, item := range items {
		t := item.Track
		if t == nil || t.Type != "track" {
			continue
		}

		names := make([]string, 0, len(t.Artists))
		for _, a := range t.Artists {
			names = append(names, a.Name)
		}

		records = append(records, models.PlaylistTrackRecord{
			Title:      t.Name,
			Artist:     strings.Join(names, ", "),
			Album:      t.Album.Name,
			DurationMS: t.DurationMS,
			Popularity: t.Popularity,
			SpotifyID:  t.ID,
			SpotifyURL: t.ExternalURLs.Spotify,
		})
	}
	return records
}
