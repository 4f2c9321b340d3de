// package tasks implements the wishlist exports built on top of the Bandcamp service.
//
// The core abstraction is ExportEngine, which fetches the wishlist, enriches it with album pages and projects it into output records.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/desertthunder/crates/internal/models"
	"github.com/desertthunder/crates/internal/services"
	"github.com/desertthunder/crates/internal/shared"
)

// ExportEngine defines the wishlist exports.
type ExportEngine interface {
	// Albums resolves every wishlist item's album page and returns one record per item with its track names.
	Albums(ctx context.Context, progress chan<- ProgressUpdate) ([]models.AlbumRecord, error)

	// Wishlist returns one record per item with the item's featured track as title.
	Wishlist(ctx context.Context, progress chan<- ProgressUpdate) ([]models.FeaturedRecord, error)

	// Tracks resolves every wishlist item's album page and returns all tracks flattened in wishlist order.
	Tracks(ctx context.Context, progress chan<- ProgressUpdate) ([]models.TrackRecord, error)
}

// WishlistEngine implements ExportEngine against a Bandcamp client.
type WishlistEngine struct {
	bandcamp services.BandcampAPI
	opts     FanOutOpts
}

// NewWishlistEngine creates a new WishlistEngine with the provided service and fan-out bounds.
func NewWishlistEngine(bandcamp services.BandcampAPI, opts FanOutOpts) *WishlistEngine {
	return &WishlistEngine{bandcamp: bandcamp, opts: opts}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *WishlistEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func (e *WishlistEngine) wishlist(ctx context.Context, progress chan<- ProgressUpdate) ([]models.WishlistItem, error) {
	if e.bandcamp == nil {
		return nil, fmt.Errorf("%w: bandcamp client", shared.ErrMissingCredentials)
	}

	e.sendProgress(progress, fetchingWishlistUpdate())

	items, err := e.bandcamp.GetWishlist(ctx)
	if err != nil {
		return nil, cancelled(err)
	}

	e.sendProgress(progress, fetchedWishlistUpdate(len(items)))
	return items, nil
}

// albums fetches the album of every item concurrently, preserving wishlist order.
func (e *WishlistEngine) albums(ctx context.Context, progress chan<- ProgressUpdate, items []models.WishlistItem) ([]*models.AlbumInfo, error) {
	total := len(items)
	var done atomic.Int64

	albums, err := OrderedMap(ctx, items, e.opts, func(ctx context.Context, _ int, item models.WishlistItem) (*models.AlbumInfo, error) {
		album, err := e.bandcamp.GetAlbumInfo(ctx, item.URL)
		if err != nil {
			e.sendProgress(progress, albumFailedUpdate(total, item, err))
			return nil, err
		}

		e.sendProgress(progress, albumFetchedUpdate(int(done.Add(1)), total, album))
		return album, nil
	})
	if err != nil {
		return nil, cancelled(err)
	}
	return albums, nil
}

// Albums implements [ExportEngine].
func (e *WishlistEngine) Albums(ctx context.Context, progress chan<- ProgressUpdate) ([]models.AlbumRecord, error) {
	items, err := e.wishlist(ctx, progress)
	if err != nil {
		return nil, err
	}

	albums, err := e.albums(ctx, progress, items)
	if err != nil {
		return nil, err
	}

	records := make([]models.AlbumRecord, 0, len(items))
	for i, item := range items {
		record, err := models.NewAlbumRecord(item, albums[i])
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	e.sendProgress(progress, projectedUpdate(len(records)))
	return records, nil
}

// Wishlist implements [ExportEngine].
func (e *WishlistEngine) Wishlist(ctx context.Context, progress chan<- ProgressUpdate) ([]models.FeaturedRecord, error) {
	items, err := e.wishlist(ctx, progress)
	if err != nil {
		return nil, err
	}

	records := make([]models.FeaturedRecord, 0, len(items))
	for _, item := range items {
		record, err := models.NewFeaturedRecord(item)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	e.sendProgress(progress, projectedUpdate(len(records)))
	return records, nil
}

// Tracks implements [ExportEngine].
//
// Tracks are credited to the artist on the album page, or the wishlist item's artist when the page has none.
func (e *WishlistEngine) Tracks(ctx context.Context, progress chan<- ProgressUpdate) ([]models.TrackRecord, error) {
	items, err := e.wishlist(ctx, progress)
	if err != nil {
		return nil, err
	}

	albums, err := e.albums(ctx, progress, items)
	if err != nil {
		return nil, err
	}

	records := []models.TrackRecord{}
	for i, album := range albums {
		if album != nil && album.Artist == nil && items[i].Artist != nil {
			credited := *album
			credited.Artist = items[i].Artist
			album = &credited
		}

		tracks, err := models.NewTrackRecords(album)
		if err != nil {
			return nil, err
		}
		records = append(records, tracks...)
	}

	e.sendProgress(progress, projectedUpdate(len(records)))
	return records, nil
}

func cancelled(err error) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", shared.ErrCancelled, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", shared.ErrTimeout, err)
	}
	return err
}
