package server

import (
	"crypto/subtle"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/desertthunder/crates/internal/shared"
	"golang.org/x/oauth2"
)

var callbackPage = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>crates</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f2f2f2; }
        main { text-align: center; background: white; padding: 2rem; border-radius: 4px; }
        h1 { color: {{if .OK}}#FF5500{{else}}#CC0000{{end}}; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <main>
        <h1>{{.Title}}</h1>
        <p>{{.Detail}}</p>
    </main>
</body>
</html>
`))

type page struct {
	OK     bool
	Title  string
	Detail string
}

// OAuthResult is the outcome of a single authorization code callback.
type OAuthResult struct {
	Token *oauth2.Token
	err   error
}

func (o *OAuthResult) Error() error {
	return o.err
}

// OAuthHandler accepts the first authorization code redirect carrying the expected state and exchanges the code.
//
// Requests with another state are answered with 400 and ignored. Later callbacks are rejected. The outcome is delivered once on [OAuthHandler.Result].
type OAuthHandler struct {
	config *oauth2.Config
	state  string
	opts   []oauth2.AuthCodeOption

	hit    atomic.Bool
	once   sync.Once
	result chan OAuthResult
}

// NewOAuthHandler creates a handler expecting state. opts are passed to the code exchange,
// e.g. [oauth2.VerifierOption] for PKCE.
func NewOAuthHandler(config *oauth2.Config, state string, opts ...oauth2.AuthCodeOption) *OAuthHandler {
	return &OAuthHandler{
		config: config,
		state:  state,
		opts:   opts,
		result: make(chan OAuthResult, 1),
	}
}

// Routes returns the path of the configured redirect URL, /callback when it has none.
func (h *OAuthHandler) Routes() []string {
	if u, err := url.Parse(h.config.RedirectURL); err == nil && u.Path != "" {
		return []string{u.Path}
	}
	return []string{"/callback"}
}

func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Requests without the expected state do not claim the callback.
	if !h.validState(r) {
		render(w, http.StatusBadRequest, page{Title: "Authorization failed", Detail: "Invalid state parameter."})
		return
	}

	if !h.hit.CompareAndSwap(false, true) {
		render(w, http.StatusBadRequest, page{Title: "Already authorized", Detail: "This callback was already processed."})
		return
	}

	token, err := h.exchange(r)
	h.Send(OAuthResult{Token: token, err: err})

	if err != nil {
		status := http.StatusBadRequest
		if r.URL.Query().Get("code") != "" {
			status = http.StatusInternalServerError
		}
		render(w, status, page{Title: "Authorization failed", Detail: err.Error()})
		return
	}

	render(w, http.StatusOK, page{OK: true, Title: "Authorized", Detail: "You can close this window and return to the terminal."})
}

func (h *OAuthHandler) validState(r *http.Request) bool {
	state := r.URL.Query().Get("state")
	return subtle.ConstantTimeCompare([]byte(state), []byte(h.state)) == 1
}

func (h *OAuthHandler) exchange(r *http.Request) (*oauth2.Token, error) {
	q := r.URL.Query()
	code := q.Get("code")
	if code == "" {
		return nil, fmt.Errorf("%w: %s %s", shared.ErrAuthFailed, q.Get("error"), q.Get("error_description"))
	}

	token, err := h.config.Exchange(r.Context(), code, h.opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: token exchange failed: %v", shared.ErrAuthFailed, err)
	}
	return token, nil
}

func render(w http.ResponseWriter, status int, p page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = callbackPage.Execute(w, p)
}

// Send delivers result unless one was already delivered.
func (h *OAuthHandler) Send(result OAuthResult) {
	h.once.Do(func() {
		h.result <- result
		close(h.result)
	})
}

// Result receives exactly one result and is then closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.result
}
