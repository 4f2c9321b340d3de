// package models defines the data model for wishlist and likes exports
package models

import "time"

// Artist is the band or user credited for an item.
type Artist struct {
	Name string
	URL  string
}

// FeaturedTrack is the track Bandcamp highlights for a wishlist item.
type FeaturedTrack struct {
	Name     string
	Position int
	Duration float64 // Duration in seconds
}

// WishlistItem represents an album or track saved to a fan's wishlist.
type WishlistItem struct {
	ID            int64
	Type          string // "album" or "track"
	Name          string // Album (or track) name
	URL           string // Album page
	Artist        *Artist
	FeaturedTrack *FeaturedTrack
}

// AlbumTrack is a single entry of an album's track list.
type AlbumTrack struct {
	Name     string
	Position int
	Duration float64 // Duration in seconds
	URL      string
}

// AlbumInfo represents an album page resolved from its URL.
type AlbumInfo struct {
	Name        string
	URL         string
	Artist      *Artist
	ReleaseDate time.Time
	Tracks      []AlbumTrack
}

// TrackNames returns the names of the album's tracks in page order.
func (a *AlbumInfo) TrackNames() []string {
	names := make([]string, 0, len(a.Tracks))
	for _, t := range a.Tracks {
		names = append(names, t.Name)
	}
	return names
}
