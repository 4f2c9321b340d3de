// SoundCloud API implementation of [OAuthService]
//
// SoundCloud API response types based on https://developers.soundcloud.com/docs/api/explorer/open-api
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/crates/internal/models"
	"github.com/desertthunder/crates/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	soundcloudAuthURL  = "https://secure.soundcloud.com/authorize"
	soundcloudTokenURL = "https://secure.soundcloud.com/oauth/token"
	soundcloudBaseURL  = "https://api.soundcloud.com"

	// DefaultUserURN is the account whose likes are listed when none is given.
	DefaultUserURN = "soundcloud:users:953953"
)

// SoundCloudUser represents a SoundCloud user profile.
type SoundCloudUser struct {
	ID                   int64  `json:"id"`
	URN                  string `json:"urn"`
	Kind                 string `json:"kind"`
	Username             string `json:"username"`
	FullName             string `json:"full_name"`
	PermalinkURL         string `json:"permalink_url"`
	AvatarURL            string `json:"avatar_url"`
	City                 string `json:"city"`
	Country              string `json:"country"`
	Description          string `json:"description"`
	FollowersCount       int    `json:"followers_count"`
	FollowingsCount      int    `json:"followings_count"`
	PublicFavoritesCount int    `json:"public_favorites_count"`
	TrackCount           int    `json:"track_count"`
	PlaylistCount        int    `json:"playlist_count"`
}

// SoundCloudTrack represents a SoundCloud track.
type SoundCloudTrack struct {
	ID           int64           `json:"id"`
	URN          string          `json:"urn"`
	Title        string          `json:"title"`
	Duration     int             `json:"duration"` // milliseconds
	Genre        string          `json:"genre"`
	PermalinkURL string          `json:"permalink_url"`
	Access       string          `json:"access"` // playable, preview or blocked
	CreatedAt    string          `json:"created_at"`
	User         *SoundCloudUser `json:"user"`
}

// SoundCloudTrackPage is a linked-partitioning page of tracks.
type SoundCloudTrackPage struct {
	Collection []SoundCloudTrack `json:"collection"`
	NextHref   string            `json:"next_href"`
}

// AuthorizeResponse describes the response of the authorization endpoint, without following redirects.
type AuthorizeResponse struct {
	URL        string `json:"url"`
	StatusCode int    `json:"status_code"`
	Location   string `json:"location,omitempty"`

	// CodeVerifier is set by callers that generated the PKCE pair, for a later exchange.
	CodeVerifier string `json:"code_verifier,omitempty"`
}

var _ OAuthService = (*SoundCloudService)(nil)

// SoundCloudService provides OAuth2 authentication and read-only SoundCloud endpoints.
type SoundCloudService struct {
	config     *oauth2.Config
	token      *oauth2.Token
	httpClient *http.Client
	baseURL    string
}

// NewSoundCloudService creates a new SoundCloud service with the given OAuth2 credentials.
//
// Only client_id is required. client_secret is checked by the token operations that need it.
// auth_url, token_url and base_url override the public endpoints.
func NewSoundCloudService(credentials map[string]string) (*SoundCloudService, error) {
	clientID := credentials["client_id"]
	if clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	redirectURI := credentials["redirect_uri"]
	if redirectURI == "" {
		redirectURI = "http://localhost:3000/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: credentials["client_secret"],
		RedirectURL:  redirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL:   withDefault(credentials["auth_url"], soundcloudAuthURL),
			TokenURL:  withDefault(credentials["token_url"], soundcloudTokenURL),
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}

	return &SoundCloudService{
		config:     config,
		httpClient: http.DefaultClient,
		baseURL:    strings.TrimSuffix(withDefault(credentials["base_url"], soundcloudBaseURL), "/"),
	}, nil
}

func (s *SoundCloudService) Name() string {
	return "SoundCloud"
}

// OAuthConfig returns the OAuth2 configuration, for use by the callback server.
func (s *SoundCloudService) OAuthConfig() *oauth2.Config {
	return s.config
}

// SetHTTPClient replaces the client used for API and token requests.
func (s *SoundCloudService) SetHTTPClient(client *http.Client) {
	s.httpClient = client
}

// AuthURL returns the authorization URL for a PKCE (S256) code flow.
func (s *SoundCloudService) AuthURL(state, challenge string) string {
	return s.config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", challenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
}

// Authorize requests the authorization URL and reports the response without following redirects.
func (s *SoundCloudService) Authorize(ctx context.Context, state, challenge string) (*AuthorizeResponse, error) {
	authURL := s.AuthURL(state, challenge)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, authURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	client := *s.httpClient
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: authorize: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: authorize: status %d", shared.ErrAuthFailed, resp.StatusCode)
	}

	return &AuthorizeResponse{
		URL:        authURL,
		StatusCode: resp.StatusCode,
		Location:   resp.Header.Get("Location"),
	}, nil
}

// ClientCredentialsToken obtains an app token with the client_credentials grant.
func (s *SoundCloudService) ClientCredentialsToken(ctx context.Context) (*oauth2.Token, error) {
	if s.config.ClientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	cc := clientcredentials.Config{
		ClientID:     s.config.ClientID,
		ClientSecret: s.config.ClientSecret,
		TokenURL:     s.config.Endpoint.TokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	token, err := cc.Token(context.WithValue(ctx, oauth2.HTTPClient, s.httpClient))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	s.token = token
	return token, nil
}

// Authenticate sets the token used for API requests.
//
// Expects either an "access_token" or "grant_type" set to "client_credentials" in credentials.
// Authorization codes are exchanged by the callback server.
func (s *SoundCloudService) Authenticate(ctx context.Context, credentials map[string]string) error {
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

// Token returns the current token, or nil before authentication.
func (s *SoundCloudService) Token() *oauth2.Token {
	return s.token
}

// doRequest performs an authenticated GET against the SoundCloud API.
func (s *SoundCloudService) doRequest(ctx context.Context, endpoint string, query url.Values, result any) error {
	if s.token == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	apiURL := s.baseURL + endpoint
	if len(query) > 0 {
		apiURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.token.AccessToken)
	req.Header.Set("Accept", "application/json; charset=utf-8")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: soundcloud status %d", shared.ErrAuthFailed, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: soundcloud status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// Me retrieves the authenticated user's profile.
func (s *SoundCloudService) Me(ctx context.Context) (*SoundCloudUser, error) {
	var user SoundCloudUser
	if err := s.doRequest(ctx, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SearchUsers searches users by name.
func (s *SoundCloudService) SearchUsers(ctx context.Context, q string) ([]SoundCloudUser, error) {
	if strings.TrimSpace(q) == "" {
		return nil, fmt.Errorf("%w: user name", shared.ErrMissingArgument)
	}

	var users []SoundCloudUser
	if err := s.doRequest(ctx, "/users", url.Values{"q": {q}}, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UserURN returns the URN of the first user matching name.
func (s *SoundCloudService) UserURN(ctx context.Context, name string) (string, error) {
	users, err := s.SearchUsers(ctx, name)
	if err != nil {
		return "", err
	}

	if len(users) == 0 {
		return "", fmt.Errorf("%w: %s", shared.ErrUserNotFound, name)
	}

	if users[0].URN == "" {
		return "", fmt.Errorf("%w: urn of user %s", shared.ErrMissingField, name)
	}
	return users[0].URN, nil
}

// LikedTracks retrieves the first page of tracks liked by the user with the given URN.
func (s *SoundCloudService) LikedTracks(ctx context.Context, urn string) (*SoundCloudTrackPage, error) {
	if urn == "" {
		urn = DefaultUserURN
	}

	query := url.Values{
		"access":              {"playable,preview"},
		"linked_partitioning": {"true"},
	}

	var page SoundCloudTrackPage
	endpoint := fmt.Sprintf("/users/%s/likes/tracks", url.QueryEscape(urn))
	if err := s.doRequest(ctx, endpoint, query, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Records projects the page into title/artist pairs credited to each track's uploader.
func (p *SoundCloudTrackPage) Records() ([]models.TrackRecord, error) {
	records := make([]models.TrackRecord, 0, len(p.Collection))
	for _, t := range p.Collection {
		if t.User == nil {
			return nil, fmt.Errorf("%w: user of track %q", shared.ErrMissingField, t.Title)
		}
		records = append(records, models.TrackRecord{Title: t.Title, Artist: t.User.Username})
	}
	return records, nil
}

func withDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
