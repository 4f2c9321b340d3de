package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/crates/internal/services"
	"github.com/desertthunder/crates/internal/shared"
	"github.com/urfave/cli/v3"
)

// spotifyClient returns a service authenticated with --token, the configured access token,
// or a fresh client credentials grant.
func (r *Runner) spotifyClient(ctx context.Context, cmd *cli.Command) (*services.SpotifyService, error) {
	svc := services.NewSpotifyService(r.config.Spotify.Map())

	token := cmd.String("token")
	if token == "" {
		token = r.config.Spotify.AccessToken
	}

	credentials := map[string]string{"access_token": token}
	if token == "" {
		r.logger.Debug("no access token, using client credentials grant", "service", svc.Name())
		credentials = map[string]string{"grant_type": "client_credentials"}
	}

	if err := svc.Authenticate(ctx, credentials); err != nil {
		return nil, err
	}
	return svc, nil
}

// SpotifyPlaylist lists the tracks of the playlist given as a link, URI or id.
func (r *Runner) SpotifyPlaylist(ctx context.Context, cmd *cli.Command) error {
	input := cmd.StringArg("playlist")
	if input == "" {
		return fmt.Errorf("%w: playlist link or id", shared.ErrMissingArgument)
	}

	id, err := services.ExtractPlaylistID(input)
	if err != nil {
		return err
	}

	svc, err := r.spotifyClient(ctx, cmd)
	if err != nil {
		return err
	}

	playlist, err := svc.Playlist(ctx, id)
	if err != nil {
		return err
	}
	r.logger.Info("playlist", "name", playlist.Name, "owner", playlist.Owner.DisplayName, "total", playlist.Tracks.Total)

	items, err := svc.PlaylistItems(ctx, playlist)
	if err != nil {
		return err
	}

	records := services.PlaylistRecords(items)
	r.logger.Debug("playlist tracks", "id", id, "count", len(records), "skipped", len(items)-len(records))
	return writeRecords(r, cmd, records)
}
