package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/crates/internal/services"
	"github.com/desertthunder/crates/internal/shared"
	"github.com/desertthunder/crates/internal/tasks"
	"github.com/desertthunder/crates/internal/ui"
	"github.com/urfave/cli/v3"
)

// bandcampSession resolves the session cookie from the argument, a cURL dump, the config or a prompt, in that order.
//
// A cURL dump also contributes its request headers.
func (r *Runner) bandcampSession(cmd *cli.Command) (services.BandcampOpts, error) {
	opts := services.BandcampOpts{
		BaseURL:   r.config.Bandcamp.BaseURL,
		UserAgent: r.config.Bandcamp.UserAgent,
		Timeout:   r.config.Bandcamp.Timeout.Duration,
		PageSize:  r.config.Bandcamp.PageSize,
	}

	if cookie := strings.TrimSpace(cmd.StringArg("cookie")); cookie != "" {
		opts.Cookie = cookie
		return opts, nil
	}

	if path := cmd.String("curl-file"); path != "" {
		curl, err := shared.ParseCurlFile(path)
		if err != nil {
			return opts, err
		}
		if curl.Cookie == "" {
			return opts, fmt.Errorf("%w: no cookie in %s", shared.ErrMissingCredentials, path)
		}
		if curl.CookieValue("identity") == "" {
			r.logger.Warn("no identity cookie in cURL file, requests may be unauthenticated", "path", path)
		}
		r.logger.Debug("using session from cURL file", "path", path, "headers", len(curl.Headers))
		opts.Cookie = curl.Cookie
		opts.Headers = curl.Headers
		return opts, nil
	}

	if r.config.Bandcamp.Cookie != "" {
		opts.Cookie = r.config.Bandcamp.Cookie
		return opts, nil
	}

	cookie, err := ui.PromptCookie(r.input, r.errOutput)
	if err != nil {
		return opts, err
	}
	opts.Cookie = cookie
	return opts, nil
}

func (r *Runner) wishlistEngine(cmd *cli.Command) (*tasks.WishlistEngine, error) {
	session, err := r.bandcampSession(cmd)
	if err != nil {
		return nil, err
	}

	client, err := r.bandcamp(session)
	if err != nil {
		return nil, err
	}

	opts := tasks.FanOutOpts{
		Concurrency: r.config.Bandcamp.Concurrency,
		RateLimit:   r.config.Bandcamp.RateLimit,
	}
	if cmd.IsSet("concurrency") {
		opts.Concurrency = int(cmd.Int("concurrency"))
	}
	if cmd.IsSet("rate-limit") {
		opts.RateLimit = cmd.Float("rate-limit")
	}
	if opts.Concurrency < 0 || opts.RateLimit < 0 {
		return nil, fmt.Errorf("%w: concurrency and rate limit must not be negative", shared.ErrInvalidFlag)
	}

	r.logger.Debug("fan-out", "service", client.Name(), "concurrency", opts.Concurrency, "rate_limit", opts.RateLimit)
	return tasks.NewWishlistEngine(client, opts), nil
}

// BandcampAlbums lists every wishlist album with the names of its tracks.
func (r *Runner) BandcampAlbums(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.wishlistEngine(cmd)
	if err != nil {
		return err
	}

	progress, stop := r.trackProgress()
	records, err := engine.Albums(ctx, progress)
	stop()
	if err != nil {
		return err
	}

	return writeRecords(r, cmd, records)
}

// BandcampWishlist lists every wishlist item with its featured track.
func (r *Runner) BandcampWishlist(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.wishlistEngine(cmd)
	if err != nil {
		return err
	}

	progress, stop := r.trackProgress()
	records, err := engine.Wishlist(ctx, progress)
	stop()
	if err != nil {
		return err
	}

	return writeRecords(r, cmd, records)
}

// BandcampTracks lists every track of every wishlist album.
func (r *Runner) BandcampTracks(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.wishlistEngine(cmd)
	if err != nil {
		return err
	}

	progress, stop := r.trackProgress()
	records, err := engine.Tracks(ctx, progress)
	stop()
	if err != nil {
		return err
	}

	r.logger.Debug("tracks collected", "count", len(records))
	return writeRecords(r, cmd, records)
}
