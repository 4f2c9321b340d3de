// Package tasks turns a Bandcamp wishlist into output records with real-time progress reporting.
//
// # Core Operations
//
// The [ExportEngine] interface defines three operations:
//
//  1. [ExportEngine.Albums] : one record per wishlist item with its album's track names
//     - Fetches the wishlist
//     - Fetches every item's album page concurrently
//     - Projects artist, album and track names
//
//  2. [ExportEngine.Wishlist] : one record per wishlist item with its featured track
//     - Fetches the wishlist only, no album pages
//
//  3. [ExportEngine.Tracks] : every track of every wishlisted album, flattened
//     - Fetches the wishlist and album pages like Albums
//     - Emits title/artist pairs in wishlist then track order
//
// # Fan-out
//
// Album pages are fetched through [OrderedMap], which keeps results in input order, bounds the
// number of requests in flight and optionally paces them. The first failure cancels the
// remaining requests and fails the whole operation; no partial results are returned.
//
// # Progress Reporting
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
