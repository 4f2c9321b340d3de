package tasks

import (
	"fmt"

	"github.com/desertthunder/crates/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchWishlist Phase = iota
	FetchAlbums
	Project
)

func (p Phase) String() string {
	switch p {
	case FetchWishlist:
		return "fetch_wishlist"
	case FetchAlbums:
		return "fetch_albums"
	case Project:
		return "project"
	default:
		return ""
	}
}

func fetchingWishlistUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchWishlist,
		Step:    0,
		Total:   1,
		Message: "Fetching wishlist from Bandcamp...",
	}
}

func fetchedWishlistUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchWishlist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d wishlist items", count),
	}
}

func albumFetchedUpdate(step, total int, album *models.AlbumInfo) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchAlbums,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s (%d tracks)", step, total, album.Name, len(album.Tracks)),
		Data:    album,
	}
}

func albumFailedUpdate(total int, item models.WishlistItem, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchAlbums,
		Total:   total,
		Message: fmt.Sprintf("✗ %s: %v", item.Name, err),
		Data:    item,
	}
}

func projectedUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Project,
		Step:    count,
		Total:   count,
		Message: fmt.Sprintf("Projected %d records", count),
	}
}
