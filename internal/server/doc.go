// Package server runs the short-lived local HTTP server that receives OAuth redirects.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] runs in the order it was added; the first added is the outermost.
// [RequestLogger] and [Recoverer] are the middleware used by the callback server.
//
// The [BasicRouter] implementation registers "METHOD /path" patterns on an [http.ServeMux].
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the OAuth2 authorization code callback flow.
//
// The handler validates the state parameter, exchanges the authorization code for tokens (passing the PKCE
// verifier when one was given) and sends the result through a channel.
//
// It only processes one callback.
//
// # Callback Server
//
// [CallbackServer] listens on the configured host and port (localhost:3000 by default, matching the SoundCloud
// app's redirect URI), waits for the single callback and shuts down.
package server
