package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/crates/internal/shared"
)

// AlbumRecord is a wishlist item with its album's track names.
type AlbumRecord struct {
	Artist string   `json:"artist"`
	Album  string   `json:"album"`
	Tracks []string `json:"tracks"`
}

// FeaturedRecord is a wishlist item with the title of its featured track.
type FeaturedRecord struct {
	Artist string `json:"artist"`
	Album  string `json:"album"`
	Title  string `json:"title"`
}

// TrackRecord is a single track credited to an artist.
type TrackRecord struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

// PlaylistTrackRecord is a track of a Spotify playlist.
//
// Artist joins the names of every credited artist with ", ".
type PlaylistTrackRecord struct {
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Album      string `json:"album"`
	DurationMS int    `json:"duration_ms"`
	Popularity int    `json:"popularity"`
	SpotifyID  string `json:"spotify_id"`
	SpotifyURL string `json:"spotify_url"`
}

// NewAlbumRecord projects a wishlist item and its resolved album.
func NewAlbumRecord(item WishlistItem, album *AlbumInfo) (AlbumRecord, error) {
	if item.Artist == nil {
		return AlbumRecord{}, missing("artist", item)
	}
	if album == nil {
		return AlbumRecord{}, missing("album", item)
	}

	return AlbumRecord{
		Artist: item.Artist.Name,
		Album:  item.Name,
		Tracks: album.TrackNames(),
	}, nil
}

// NewFeaturedRecord projects a wishlist item using its featured track as the title.
func NewFeaturedRecord(item WishlistItem) (FeaturedRecord, error) {
	if item.Artist == nil {
		return FeaturedRecord{}, missing("artist", item)
	}
	if item.FeaturedTrack == nil {
		return FeaturedRecord{}, missing("featured track", item)
	}

	return FeaturedRecord{
		Artist: item.Artist.Name,
		Album:  item.Name,
		Title:  item.FeaturedTrack.Name,
	}, nil
}

// NewTrackRecords flattens an album's track list into title/artist pairs credited to the album artist.
func NewTrackRecords(album *AlbumInfo) ([]TrackRecord, error) {
	if album == nil {
		return nil, fmt.Errorf("%w: album", shared.ErrMissingField)
	}
	if album.Artist == nil {
		return nil, fmt.Errorf("%w: artist of album %q (%s)", shared.ErrMissingField, album.Name, album.URL)
	}

	records := make([]TrackRecord, 0, len(album.Tracks))
	for _, t := range album.Tracks {
		records = append(records, TrackRecord{Title: t.Name, Artist: album.Artist.Name})
	}
	return records, nil
}

func missing(field string, item WishlistItem) error {
	return fmt.Errorf("%w: %s of wishlist item %q (%s)", shared.ErrMissingField, field, item.Name, item.URL)
}

// Columns and Values implement the tabular view used by the csv and text formats.

func (AlbumRecord) Columns() []string { return []string{"Artist", "Album", "Tracks"} }

func (r AlbumRecord) Values() []string {
	return []string{r.Artist, r.Album, strings.Join(r.Tracks, "; ")}
}

func (FeaturedRecord) Columns() []string { return []string{"Artist", "Album", "Title"} }

func (r FeaturedRecord) Values() []string { return []string{r.Artist, r.Album, r.Title} }

func (TrackRecord) Columns() []string { return []string{"Title", "Artist"} }

func (PlaylistTrackRecord) Columns() []string {
	return []string{"Title", "Artist", "Album", "Duration", "Popularity", "Spotify ID", "URL"}
}

func (r PlaylistTrackRecord) Values() []string {
	return []string{
		r.Title, r.Artist, r.Album,
		(time.Duration(r.DurationMS) * time.Millisecond).String(),
		strconv.Itoa(r.Popularity), r.SpotifyID, r.SpotifyURL,
	}
}

func (r TrackRecord) Values() []string { return []string{r.Title, r.Artist} }

// Label is a one-line human readable description of a record.
func (r AlbumRecord) Label() string {
	return fmt.Sprintf("%s - %s (%d tracks)", r.Artist, r.Album, len(r.Tracks))
}

func (r FeaturedRecord) Label() string {
	return fmt.Sprintf("%s - %s [%s]", r.Artist, r.Album, r.Title)
}

func (r TrackRecord) Label() string {
	return fmt.Sprintf("%s - %s", r.Artist, r.Title)
}

func (r PlaylistTrackRecord) Label() string {
	return fmt.Sprintf("%s - %s (%s)", r.Artist, r.Title, r.Album)
}
