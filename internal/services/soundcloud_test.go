package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/desertthunder/crates/internal/shared"
	tu "github.com/desertthunder/crates/internal/testing"
)

func fakeSoundCloud(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/authorize":
			http.Redirect(w, r, "/login?client_id="+r.URL.Query().Get("client_id"), http.StatusFound)
			return
		case "/oauth/token":
			user, pass, ok := r.BasicAuth()
			if !ok || user != "id" || pass != "secret" {
				http.Error(w, `{"error":"invalid_client"}`, http.StatusUnauthorized)
				return
			}
			if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") != "client_credentials" {
				http.Error(w, `{"error":"unsupported_grant_type"}`, http.StatusBadRequest)
				return
			}
			writeJSON(w, map[string]any{
				"access_token":  "app-token",
				"token_type":    "bearer",
				"expires_in":    3599,
				"refresh_token": "refresh",
			})
			return
		}

		if r.Header.Get("Authorization") != "Bearer token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Header.Get("Accept") != "application/json; charset=utf-8" {
			w.WriteHeader(http.StatusNotAcceptable)
			return
		}

		switch r.URL.Path {
		case "/me":
			writeJSON(w, map[string]any{"id": 1, "urn": "soundcloud:users:1", "username": "me"})
		case "/users":
			if r.URL.Query().Get("q") == "nobody" {
				writeJSON(w, []any{})
				return
			}
			writeJSON(w, []map[string]any{
				{"urn": "soundcloud:users:2", "username": r.URL.Query().Get("q")},
				{"urn": "soundcloud:users:3", "username": "other"},
			})
		case "/users/soundcloud:users:2/likes/tracks":
			q := r.URL.Query()
			if q.Get("access") != "playable,preview" || q.Get("linked_partitioning") != "true" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			writeJSON(w, map[string]any{
				"collection": []map[string]any{
					{"title": "A", "user": map[string]any{"username": "u1"}},
					{"title": "B", "user": map[string]any{"username": "u2"}},
				},
				"next_href": "https://api.soundcloud.com/next",
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testCredentials(srv *httptest.Server) map[string]string {
	return map[string]string{
		"client_id":     "id",
		"client_secret": "secret",
		"auth_url":      srv.URL + "/authorize",
		"token_url":     srv.URL + "/oauth/token",
		"base_url":      srv.URL,
	}
}

func TestSoundCloudService(t *testing.T) {
	t.Run("NewSoundCloudService", func(t *testing.T) {
		t.Run("Missing Client ID", func(t *testing.T) {
			_, err := NewSoundCloudService(map[string]string{"client_secret": "secret"})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Defaults", func(t *testing.T) {
			srv, err := NewSoundCloudService(map[string]string{"client_id": "id"})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			cfg := srv.OAuthConfig()
			if cfg.Endpoint.AuthURL != soundcloudAuthURL || cfg.Endpoint.TokenURL != soundcloudTokenURL {
				t.Errorf("unexpected endpoints %+v", cfg.Endpoint)
			}
			if cfg.RedirectURL != "http://localhost:3000/callback" {
				t.Errorf("unexpected redirect uri %s", cfg.RedirectURL)
			}
			if srv.Name() != "SoundCloud" {
				t.Errorf("unexpected name %s", srv.Name())
			}
		})
	})

	t.Run("AuthURL", func(t *testing.T) {
		srv, _ := NewSoundCloudService(map[string]string{"client_id": "id", "redirect_uri": "http://localhost:3000/callback"})

		u, err := url.Parse(srv.AuthURL("state123", "challenge456"))
		if err != nil {
			t.Fatalf("invalid url: %v", err)
		}

		if u.Host != "secure.soundcloud.com" {
			t.Errorf("unexpected host %s", u.Host)
		}

		want := map[string]string{
			"client_id":             "id",
			"redirect_uri":          "http://localhost:3000/callback",
			"response_type":         "code",
			"code_challenge":        "challenge456",
			"code_challenge_method": "S256",
			"state":                 "state123",
		}
		for k, v := range want {
			if got := u.Query().Get(k); got != v {
				t.Errorf("%s = %q, want %q", k, got, v)
			}
		}
	})

	t.Run("Authorize", func(t *testing.T) {
		server := fakeSoundCloud(t)
		srv, _ := NewSoundCloudService(testCredentials(server))

		resp, err := srv.Authorize(context.Background(), "s", "c")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if resp.StatusCode != http.StatusFound {
			t.Errorf("expected 302, got %d", resp.StatusCode)
		}
		if resp.Location != "/login?client_id=id" {
			t.Errorf("unexpected location %s", resp.Location)
		}
	})

	t.Run("ClientCredentialsToken", func(t *testing.T) {
		server := fakeSoundCloud(t)

		t.Run("Success", func(t *testing.T) {
			srv, _ := NewSoundCloudService(testCredentials(server))

			token, err := srv.ClientCredentialsToken(context.Background())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if token.AccessToken != "app-token" || token.RefreshToken != "refresh" {
				t.Errorf("unexpected token %+v", token)
			}
			if srv.Token() != token {
				t.Error("expected token to be stored")
			}
		})

		t.Run("Missing Secret", func(t *testing.T) {
			creds := testCredentials(server)
			delete(creds, "client_secret")
			srv, _ := NewSoundCloudService(creds)

			if _, err := srv.ClientCredentialsToken(context.Background()); !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Rejected", func(t *testing.T) {
			creds := testCredentials(server)
			creds["client_secret"] = "wrong"
			srv, _ := NewSoundCloudService(creds)

			_, err := srv.ClientCredentialsToken(context.Background())
			if !errors.Is(err, shared.ErrAuthFailed) || !IsAuthError(err) {
				t.Errorf("expected ErrAuthFailed, got %v", err)
			}
		})
	})

	t.Run("Authenticate", func(t *testing.T) {
		server := fakeSoundCloud(t)
		srv, _ := NewSoundCloudService(testCredentials(server))

		t.Run("Without Credentials", func(t *testing.T) {
			err := srv.Authenticate(context.Background(), map[string]string{})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Client Credentials Grant", func(t *testing.T) {
			err := srv.Authenticate(context.Background(), map[string]string{"grant_type": "client_credentials"})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if srv.Token().AccessToken != "app-token" {
				t.Errorf("unexpected token %+v", srv.Token())
			}
		})
	})

	t.Run("API", func(t *testing.T) {
		server := fakeSoundCloud(t)
		srv, _ := NewSoundCloudService(testCredentials(server))
		ctx := context.Background()

		t.Run("Requires Token", func(t *testing.T) {
			_, err := srv.Me(ctx)
			if !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
		})

		if err := srv.Authenticate(ctx, map[string]string{"access_token": "token"}); err != nil {
			t.Fatalf("failed to authenticate: %v", err)
		}

		t.Run("Me", func(t *testing.T) {
			user, err := srv.Me(ctx)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if user.Username != "me" || user.URN != "soundcloud:users:1" {
				t.Errorf("unexpected user %+v", user)
			}
		})

		t.Run("UserURN", func(t *testing.T) {
			urn, err := srv.UserURN(ctx, "someone")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if urn != "soundcloud:users:2" {
				t.Errorf("expected first result urn, got %s", urn)
			}
		})

		t.Run("UserURN Not Found", func(t *testing.T) {
			_, err := srv.UserURN(ctx, "nobody")
			if !errors.Is(err, shared.ErrUserNotFound) {
				t.Errorf("expected ErrUserNotFound, got %v", err)
			}
		})

		t.Run("UserURN Empty Name", func(t *testing.T) {
			_, err := srv.UserURN(ctx, " ")
			if !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected ErrMissingArgument, got %v", err)
			}
		})

		t.Run("LikedTracks", func(t *testing.T) {
			page, err := srv.LikedTracks(ctx, "soundcloud:users:2")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !strings.HasSuffix(page.NextHref, "/next") {
				t.Errorf("unexpected next href %s", page.NextHref)
			}

			records, err := page.Records()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(records) != 2 || records[0].Title != "A" || records[0].Artist != "u1" {
				t.Errorf("unexpected records %+v", records)
			}
		})

		t.Run("Rejected Token", func(t *testing.T) {
			other, _ := NewSoundCloudService(testCredentials(server))
			_ = other.Authenticate(ctx, map[string]string{"access_token": "expired"})

			_, err := other.Me(ctx)
			if !errors.Is(err, shared.ErrAuthFailed) {
				t.Errorf("expected ErrAuthFailed, got %v", err)
			}
		})
	})
}

func TestSoundCloudTransport(t *testing.T) {
	ctx := context.Background()
	newService := func(rt http.RoundTripper) *SoundCloudService {
		srv, _ := NewSoundCloudService(map[string]string{"client_id": "id"})
		srv.SetHTTPClient(&http.Client{Transport: rt})
		_ = srv.Authenticate(ctx, map[string]string{"access_token": "token"})
		return srv
	}

	t.Run("Network Error", func(t *testing.T) {
		srv := newService(tu.NewMockRoundTripper(nil, errors.New("connection refused")))

		if _, err := srv.Me(ctx); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("Body Read Failure", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusOK, Header: http.Header{}, Body: &tu.FCloser{}}
		srv := newService(tu.NewMockRoundTripper(resp, nil))

		_, err := srv.Me(ctx)
		if err == nil || !strings.Contains(err.Error(), "failed to decode response") {
			t.Errorf("expected decode error, got %v", err)
		}
	})

	t.Run("Server Error", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusBadGateway, Header: http.Header{}, Body: http.NoBody}
		srv := newService(tu.NewMockRoundTripper(resp, nil))

		_, err := srv.LikedTracks(ctx, "")
		if !errors.Is(err, shared.ErrAPIRequest) || IsAuthError(err) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})
}

func TestTrackPageRecords(t *testing.T) {
	page := &SoundCloudTrackPage{Collection: []SoundCloudTrack{{Title: "A"}}}

	if _, err := page.Records(); !errors.Is(err, shared.ErrMissingField) {
		t.Errorf("expected ErrMissingField, got %v", err)
	}

	empty, err := (&SoundCloudTrackPage{}).Records()
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil records, got %#v, %v", empty, err)
	}
}
