package services

import (
	"context"
	"errors"
	"testing"

	"github.com/desertthunder/crates/internal/shared"
	tu "github.com/desertthunder/crates/internal/testing"
)

func spotifyCredentials(baseURL string) map[string]string {
	return map[string]string{
		"client_id":     "id",
		"client_secret": "secret",
		"token_url":     baseURL + "/api/token",
		"base_url":      baseURL + "/v1",
	}
}

func TestExtractPlaylistID(t *testing.T) {
	tc := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "Web Link", input: "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M?si=abc", want: "37i9dQZF1DXcBWIGoYBM5M"},
		{name: "URI", input: "spotify:playlist:37i9dQZF1DXcBWIGoYBM5M", want: "37i9dQZF1DXcBWIGoYBM5M"},
		{name: "Bare ID", input: " 37i9dQZF1DXcBWIGoYBM5M ", want: "37i9dQZF1DXcBWIGoYBM5M"},
		{name: "Album Link", input: "https://open.spotify.com/album/1DFixLWuPkv3KT3TnV35m3", wantErr: true},
		{name: "Empty", input: "", wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractPlaylistID(tt.input)
			if tt.wantErr {
				if !errors.Is(err, shared.ErrInvalidArgument) {
					t.Errorf("expected ErrInvalidArgument, got %q, %v", got, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ExtractPlaylistID(%q) = %q, %v, want %q", tt.input, got, err, tt.want)
			}
		})
	}
}

func TestSpotifyService(t *testing.T) {
	srv := tu.NewSpotifyAPI(t)
	ctx := context.Background()

	t.Run("Name", func(t *testing.T) {
		if name := NewSpotifyService(nil).Name(); name != "Spotify" {
			t.Errorf("unexpected name %s", name)
		}
	})

	t.Run("Client Credentials", func(t *testing.T) {
		svc := NewSpotifyService(spotifyCredentials(srv.URL))

		if err := svc.Authenticate(ctx, map[string]string{"grant_type": "client_credentials"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if svc.token == nil || svc.token.AccessToken != "app-token" {
			t.Errorf("unexpected token %+v", svc.token)
		}
	})

	t.Run("Missing Credentials", func(t *testing.T) {
		svc := NewSpotifyService(map[string]string{"token_url": srv.URL + "/api/token"})

		_, err := svc.ClientCredentialsToken(ctx)
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}

		if err := svc.Authenticate(ctx, map[string]string{}); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("Rejected Client", func(t *testing.T) {
		creds := spotifyCredentials(srv.URL)
		creds["client_secret"] = "wrong"
		svc := NewSpotifyService(creds)

		_, err := svc.ClientCredentialsToken(ctx)
		if !errors.Is(err, shared.ErrAuthFailed) || !IsAuthError(err) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("Not Authenticated", func(t *testing.T) {
		svc := NewSpotifyService(spotifyCredentials(srv.URL))

		if _, err := svc.Playlist(ctx, tu.SpotifyPlaylistID); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Playlist Items", func(t *testing.T) {
		svc := NewSpotifyService(spotifyCredentials(srv.URL))
		_ = svc.Authenticate(ctx, map[string]string{"access_token": "user-token"})

		playlist, err := svc.Playlist(ctx, tu.SpotifyPlaylistID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if playlist.Name != "Crate Digging" || playlist.Owner.DisplayName != "digger" {
			t.Errorf("unexpected playlist %+v", playlist)
		}

		items, err := svc.PlaylistItems(ctx, playlist)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(items) != 4 {
			t.Fatalf("expected items of both pages, got %d", len(items))
		}

		records := PlaylistRecords(items)
		if len(records) != 2 {
			t.Fatalf("expected episode and removed item to be skipped, got %+v", records)
		}

		first := records[0]
		if first.Title != "Song & Dance" || first.Artist != "A, B" || first.Album != "LP One" {
			t.Errorf("unexpected first record %+v", first)
		}
		if first.DurationMS != 200000 || first.Popularity != 50 || first.SpotifyID != "t1" {
			t.Errorf("unexpected first record %+v", first)
		}
		if first.SpotifyURL != "https://open.spotify.com/track/t1" {
			t.Errorf("unexpected url %s", first.SpotifyURL)
		}
		if records[1].Title != "Second" || records[1].Artist != "C" {
			t.Errorf("unexpected second record %+v", records[1])
		}
	})

	t.Run("Playlist Not Found", func(t *testing.T) {
		svc := NewSpotifyService(spotifyCredentials(srv.URL))
		_ = svc.Authenticate(ctx, map[string]string{"access_token": "app-token"})

		if _, err := svc.Playlist(ctx, "missing"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Rejected Token", func(t *testing.T) {
		svc := NewSpotifyService(spotifyCredentials(srv.URL))
		_ = svc.Authenticate(ctx, map[string]string{"access_token": "expired"})

		if _, err := svc.Playlist(ctx, tu.SpotifyPlaylistID); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("Foreign Pagination Link", func(t *testing.T) {
		svc := NewSpotifyService(spotifyCredentials(srv.URL))
		_ = svc.Authenticate(ctx, map[string]string{"access_token": "app-token"})

		next := "https://example.com/v1/playlists/x/tracks?offset=100"
		playlist := &SpotifyPlaylist{ID: "x", Tracks: SpotifyPlaylistTracks{Next: &next}}

		if _, err := svc.PlaylistItems(ctx, playlist); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}
