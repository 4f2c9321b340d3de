// Package models defines the entities read from the music platforms and the records crates prints.
//
// The package contains two categories of types:
//
// 1. External entities: read-only views of upstream responses
//   - [WishlistItem] : an album or track saved to a Bandcamp wishlist
//   - [AlbumInfo] : an album page resolved from a wishlist item's URL
//   - [Artist], [FeaturedTrack], [AlbumTrack] : nested values of the above
//
// 2. Output records: the only values crates constructs, serialized to standard output
//   - [AlbumRecord] : artist, album and track names of a wishlist item
//   - [FeaturedRecord] : artist, album and featured track title of a wishlist item
//   - [TrackRecord] : a single title/artist pair
//   - [PlaylistTrackRecord] : a Spotify playlist track with its album and identifiers
//
// Projections are explicit constructors ([NewAlbumRecord], [NewFeaturedRecord], [NewTrackRecords]).
// Upstream fields not listed in a record never reach the output, and a missing nested entity
// fails the projection with [shared.ErrMissingField].
package models
