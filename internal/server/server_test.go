package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/crates/internal/shared"
	"golang.org/x/oauth2"
)

func tokenServer(t *testing.T, wantVerifier string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		if r.PostForm.Get("code") != "good" || r.PostForm.Get("code_verifier") != wantVerifier {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":"invalid_grant"}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "user-token", "token_type": "bearer"})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(tokenURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     "id",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:3000/callback",
		Endpoint:     oauth2.Endpoint{TokenURL: tokenURL, AuthStyle: oauth2.AuthStyleInHeader},
	}
}

func TestOAuthHandler(t *testing.T) {
	t.Run("Routes From Redirect URL", func(t *testing.T) {
		cfg := testConfig("")
		cfg.RedirectURL = "http://localhost:3000/oauth/soundcloud"

		if routes := NewOAuthHandler(cfg, "s").Routes(); len(routes) != 1 || routes[0] != "/oauth/soundcloud" {
			t.Errorf("unexpected routes %v", routes)
		}
	})

	t.Run("Invalid State Does Not Claim Callback", func(t *testing.T) {
		tokens := tokenServer(t, "")
		h := NewOAuthHandler(testConfig(tokens.URL), "expected")

		for _, target := range []string{"/callback?state=other&code=good", "/callback"} {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("%s: expected 400, got %d", target, rec.Code)
			}
		}

		select {
		case result := <-h.Result():
			t.Fatalf("expected no result yet, got %+v", result)
		default:
		}

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=expected&code=good", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := <-h.Result()
		if result.Error() != nil || result.Token.AccessToken != "user-token" {
			t.Errorf("unexpected result %+v, %v", result.Token, result.Error())
		}
	})

	t.Run("Failed Exchange", func(t *testing.T) {
		tokens := tokenServer(t, "")
		h := NewOAuthHandler(testConfig(tokens.URL), "s")
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=s&code=bad", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
		result := <-h.Result()
		if !errors.Is(result.Error(), shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", result.Error())
		}
	})

	t.Run("Denied", func(t *testing.T) {
		h := NewOAuthHandler(testConfig(""), "s")
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=s&error=access_denied", nil))

		result := <-h.Result()
		if result.Error() == nil || !strings.Contains(result.Error().Error(), "access_denied") {
			t.Errorf("expected access_denied error, got %v", result.Error())
		}
	})

	t.Run("Exchanges Code With Verifier", func(t *testing.T) {
		tokens := tokenServer(t, "verifier")
		h := NewOAuthHandler(testConfig(tokens.URL), "s", oauth2.VerifierOption("verifier"))
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=s&code=good", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := <-h.Result()
		if result.Error() != nil || result.Token.AccessToken != "user-token" {
			t.Errorf("unexpected result %+v, %v", result.Token, result.Error())
		}
	})

	t.Run("Only First Callback", func(t *testing.T) {
		h := NewOAuthHandler(testConfig(""), "s")

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback?state=s&error=access_denied", nil))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=s&code=good", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected second callback to be rejected, got %d", rec.Code)
		}
	})
}

func TestBasicRouter(t *testing.T) {
	t.Run("Method Filtering", func(t *testing.T) {
		r := NewBasicRouter()
		r.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, "pong")
		}))

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ping", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}

		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if rec.Body.String() != "pong" {
			t.Errorf("unexpected body %q", rec.Body.String())
		}
	})

	t.Run("Handler Routes Are GET Only", func(t *testing.T) {
		r := NewBasicRouter()
		r.Handler(NewOAuthHandler(testConfig(""), "s"))

		if routes := r.Routes(); len(routes) != 1 || routes[0] != "GET /callback" {
			t.Errorf("unexpected routes %v", routes)
		}

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/callback", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("Middleware Order", func(t *testing.T) {
		var order []string
		tag := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		r := NewBasicRouter()
		r.Use(tag("first"), tag("second"))
		r.Handle(http.MethodGet, "/", http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			order = append(order, "handler")
		}))
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		if strings.Join(order, ",") != "first,second,handler" {
			t.Errorf("unexpected order %v", order)
		}
	})
}

func TestMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf)
	logger.SetLevel(log.DebugLevel)

	t.Run("RequestLogger Omits Query", func(t *testing.T) {
		h := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback?code=secret", nil))

		out := buf.String()
		if !strings.Contains(out, "/callback") || !strings.Contains(out, "418") {
			t.Errorf("expected path and status in log, got %q", out)
		}
		if strings.Contains(out, "secret") {
			t.Error("query string must not be logged")
		}
	})

	t.Run("Recoverer", func(t *testing.T) {
		h := Recoverer(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("boom")
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
	})
}

func TestCallbackServer(t *testing.T) {
	t.Run("Returns Token After Stray Request", func(t *testing.T) {
		tokens := tokenServer(t, "")
		s := &CallbackServer{
			Addr:    "127.0.0.1:0",
			Handler: NewOAuthHandler(testConfig(tokens.URL), "s"),
			Logger:  log.New(&bytes.Buffer{}),
			Timeout: 5 * time.Second,
		}

		token, err := s.Wait(context.Background(), func(addr string) {
			go func() {
				if resp, err := http.Get("http://" + addr + "/callback"); err == nil {
					resp.Body.Close()
				}
				resp, err := http.Get("http://" + addr + "/callback?state=s&code=good")
				if err == nil {
					resp.Body.Close()
				}
			}()
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if token.AccessToken != "user-token" {
			t.Errorf("unexpected token %+v", token)
		}
	})

	t.Run("Timeout", func(t *testing.T) {
		s := &CallbackServer{
			Addr:    "127.0.0.1:0",
			Handler: NewOAuthHandler(testConfig(""), "s"),
			Logger:  log.New(&bytes.Buffer{}),
			Timeout: 20 * time.Millisecond,
		}

		if _, err := s.Wait(context.Background(), nil); !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
	})
}
