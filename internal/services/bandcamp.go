// Bandcamp fan API implementation of [BandcampAPI]
//
// The fan endpoints are undocumented; request and response shapes follow what the Bandcamp web
// client sends when browsing a collection.
package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/crates/internal/models"
	"github.com/desertthunder/crates/internal/shared"
	"github.com/imroc/req/v3"
)

const (
	bandcampBaseURL   = "https://bandcamp.com"
	bandcampUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"

	collectionSummaryPath = "/api/fan/2/collection_summary"
	wishlistItemsPath     = "/api/fancollection/1/wishlist_items"

	defaultPageSize = 100
	defaultTimeout  = 60 * time.Second
)

// BandcampOpts configures a [BandcampService].
type BandcampOpts struct {
	Cookie    string // identity cookie, bare or as a full Cookie header
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	PageSize  int

	// Headers are sent with every request, e.g. the browser headers of a "Copy as cURL" dump.
	// They override UserAgent. Transport headers such as Host or Accept-Encoding are ignored.
	Headers map[string]string
}

// transportHeaders are managed by the HTTP client and never copied from Headers.
var transportHeaders = map[string]bool{
	"accept-encoding": true,
	"connection":      true,
	"content-length":  true,
	"content-type":    true,
	"cookie":          true,
	"host":            true,
}

// BandcampCollectionSummary is the fan resolved from the session cookie.
type BandcampCollectionSummary struct {
	FanID             int64 `json:"fan_id"`
	CollectionSummary struct {
		FanID    int64  `json:"fan_id"`
		Username string `json:"username"`
		URL      string `json:"url"`
	} `json:"collection_summary"`
	Error        bool   `json:"error"`
	ErrorMessage string `json:"error_message"`
}

// BandcampWishlistItem is a raw wishlist entry.
//
// Nullable fields are pointers so absent values can be told apart from empty ones.
type BandcampWishlistItem struct {
	FanID                 int64    `json:"fan_id"`
	ItemID                int64    `json:"item_id"`
	ItemType              string   `json:"item_type"`
	TralbumID             int64    `json:"tralbum_id"`
	TralbumType           string   `json:"tralbum_type"`
	BandID                int64    `json:"band_id"`
	BandName              *string  `json:"band_name"`
	ItemTitle             string   `json:"item_title"`
	ItemURL               string   `json:"item_url"`
	ItemArtURL            string   `json:"item_art_url"`
	AlbumTitle            *string  `json:"album_title"`
	FeaturedTrackTitle    *string  `json:"featured_track_title"`
	FeaturedTrackNumber   *int     `json:"featured_track_number"`
	FeaturedTrackDuration *float64 `json:"featured_track_duration"`
	Added                 string   `json:"added"`
}

// BandcampWishlistPage is one page of the wishlist endpoint.
type BandcampWishlistPage struct {
	Items         []BandcampWishlistItem `json:"items"`
	MoreAvailable bool                   `json:"more_available"`
	LastToken     string                 `json:"last_token"`
	Error         bool                   `json:"error"`
	ErrorMessage  string                 `json:"error_message"`
}

type wishlistRequest struct {
	FanID          int64  `json:"fan_id"`
	OlderThanToken string `json:"older_than_token"`
	Count          int    `json:"count"`
}

// BandcampService reads a fan's wishlist and album pages using the fan's identity cookie.
type BandcampService struct {
	http     *req.Client
	pageSize int
}

// NewBandcampService creates a Bandcamp client authenticated with the cookie in opts.
func NewBandcampService(opts BandcampOpts) (*BandcampService, error) {
	cookie := shared.NormalizeCookie(opts.Cookie)
	if cookie == "" {
		return nil, fmt.Errorf("%w: bandcamp cookie", shared.ErrMissingCredentials)
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = bandcampBaseURL
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = bandcampUserAgent
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	client := req.NewClient()
	client.SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetUserAgent(userAgent).
		SetTimeout(timeout).
		SetCookieJar(nil).
		SetCommonHeader("Cookie", cookie)

	for name, value := range opts.Headers {
		if transportHeaders[strings.ToLower(name)] {
			continue
		}
		client.SetCommonHeader(name, value)
	}

	return &BandcampService{http: client, pageSize: pageSize}, nil
}

func (s *BandcampService) Name() string {
	return "Bandcamp"
}

// CollectionSummary resolves the fan that owns the session cookie.
func (s *BandcampService) CollectionSummary(ctx context.Context) (*BandcampCollectionSummary, error) {
	var summary BandcampCollectionSummary
	resp, err := s.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetSuccessResult(&summary).
		Get(collectionSummaryPath)
	if err != nil {
		return nil, fmt.Errorf("%w: collection summary: %v", shared.ErrAPIRequest, err)
	}

	if !resp.IsSuccessState() {
		return nil, fmt.Errorf("%w: collection summary: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if summary.Error {
		return nil, fmt.Errorf("%w: %s", shared.ErrNotAuthenticated, summary.ErrorMessage)
	}

	if summary.FanID == 0 {
		summary.FanID = summary.CollectionSummary.FanID
	}
	if summary.FanID == 0 {
		return nil, fmt.Errorf("%w: cookie did not resolve to a fan", shared.ErrNotAuthenticated)
	}

	return &summary, nil
}

// WishlistPage fetches up to the configured page size of wishlist items older than token.
//
// An empty token starts from the most recently added item.
func (s *BandcampService) WishlistPage(ctx context.Context, fanID int64, token string) (*BandcampWishlistPage, error) {
	if token == "" {
		token = fmt.Sprintf("%d:9999999999:a::", time.Now().Unix())
	}

	var page BandcampWishlistPage
	resp, err := s.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetBodyJsonMarshal(wishlistRequest{FanID: fanID, OlderThanToken: token, Count: s.pageSize}).
		SetSuccessResult(&page).
		Post(wishlistItemsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: wishlist: %v", shared.ErrAPIRequest, err)
	}

	if !resp.IsSuccessState() {
		return nil, fmt.Errorf("%w: wishlist: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if page.Error {
		return nil, fmt.Errorf("%w: wishlist: %s", shared.ErrAPIRequest, page.ErrorMessage)
	}

	return &page, nil
}

// GetWishlist returns the first page of the authenticated fan's wishlist.
func (s *BandcampService) GetWishlist(ctx context.Context) ([]models.WishlistItem, error) {
	summary, err := s.CollectionSummary(ctx)
	if err != nil {
		return nil, err
	}

	page, err := s.WishlistPage(ctx, summary.FanID, "")
	if err != nil {
		return nil, err
	}

	items := make([]models.WishlistItem, 0, len(page.Items))
	for _, raw := range page.Items {
		items = append(items, raw.ToWishlistItem())
	}
	return items, nil
}

// GetAlbumInfo fetches an album (or track) page and parses its embedded track list.
func (s *BandcampService) GetAlbumInfo(ctx context.Context, albumURL string) (*models.AlbumInfo, error) {
	if albumURL == "" {
		return nil, fmt.Errorf("%w: album url", shared.ErrMissingField)
	}

	resp, err := s.http.R().
		SetContext(ctx).
		SetHeader("Accept", "text/html").
		Get(albumURL)
	if err != nil {
		return nil, fmt.Errorf("%w: album %s: %v", shared.ErrAPIRequest, albumURL, err)
	}

	if !resp.IsSuccessState() {
		return nil, fmt.Errorf("%w: album %s: status %d", shared.ErrAPIRequest, albumURL, resp.StatusCode)
	}

	album, err := ParseAlbumPage(bytes.NewReader(resp.Bytes()), albumURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", albumURL, err)
	}
	return album, nil
}

// ToWishlistItem converts the raw entry into a [models.WishlistItem].
//
// Artist and FeaturedTrack are nil when the upstream entry omits them.
func (w BandcampWishlistItem) ToWishlistItem() models.WishlistItem {
	item := models.WishlistItem{
		ID:   w.ItemID,
		Type: w.ItemType,
		Name: w.ItemTitle,
		URL:  w.ItemURL,
	}

	if w.BandName != nil {
		item.Artist = &models.Artist{Name: *w.BandName, URL: bandURL(w.ItemURL)}
	}

	if w.FeaturedTrackTitle != nil {
		featured := &models.FeaturedTrack{Name: *w.FeaturedTrackTitle}
		if w.FeaturedTrackNumber != nil {
			featured.Position = *w.FeaturedTrackNumber
		}
		if w.FeaturedTrackDuration != nil {
			featured.Duration = *w.FeaturedTrackDuration
		}
		item.FeaturedTrack = featured
	}

	return item
}

// bandURL strips the path from an item URL, leaving the artist's subdomain.
func bandURL(itemURL string) string {
	scheme, rest, ok := strings.Cut(itemURL, "://")
	if !ok {
		return ""
	}
	host, _, _ := strings.Cut(rest, "/")
	return scheme + "://" + host
}
