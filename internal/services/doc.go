// Package services wraps the upstream HTTP APIs crates reads from.
//
// Bandcamp is accessed with a fan's identity cookie through [BandcampService]: the collection
// summary resolves the fan, the wishlist endpoint lists saved items and album pages are scraped
// for their embedded track lists.
//
// SoundCloud is accessed with OAuth2 through [SoundCloudService]: an authorization URL with a
// PKCE challenge, client-credentials tokens and a handful of read-only endpoints.
//
// Spotify is accessed with an app token through [SpotifyService], which lists the tracks of a
// public playlist.
package services
