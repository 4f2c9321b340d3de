package services

import (
	"context"
	"errors"

	"github.com/desertthunder/crates/internal/models"
	"github.com/desertthunder/crates/internal/shared"
	"golang.org/x/oauth2"
)

// WishlistService lists the items saved to the authenticated fan's wishlist.
type WishlistService interface {
	// GetWishlist returns the wishlist items in upstream order.
	GetWishlist(ctx context.Context) ([]models.WishlistItem, error)
}

// AlbumService resolves an album page into its track list.
type AlbumService interface {
	// GetAlbumInfo fetches and parses the album at albumURL.
	GetAlbumInfo(ctx context.Context, albumURL string) (*models.AlbumInfo, error)
}

// BandcampAPI is the subset of Bandcamp used by the export tasks.
type BandcampAPI interface {
	WishlistService
	AlbumService

	// Name returns the name of the service
	Name() string
}

// OAuthService is implemented by services that authorize through an OAuth2 redirect.
type OAuthService interface {
	// AuthURL returns the authorization URL for a PKCE (S256) code flow.
	AuthURL(state, challenge string) string
	// OAuthConfig returns the configuration used to exchange the authorization code.
	OAuthConfig() *oauth2.Config
	Name() string
}

// IsAuthError reports whether err was caused by rejected or missing credentials.
func IsAuthError(err error) bool {
	return errors.Is(err, shared.ErrAuthFailed) ||
		errors.Is(err, shared.ErrNotAuthenticated) ||
		errors.Is(err, shared.ErrMissingCredentials)
}
