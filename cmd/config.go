package main

import (
	"context"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/desertthunder/crates/internal/shared"
	"github.com/desertthunder/crates/internal/ui"
	"github.com/urfave/cli/v3"
)

const redacted = "<redacted>"

// ConfigInit writes the default config template to the --config path.
func (r *Runner) ConfigInit(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	fmt.Fprintln(r.errOutput, ui.Success("wrote "+path))
	return nil
}

// ConfigShow prints the effective configuration as TOML, after env overrides, with secrets redacted.
func (r *Runner) ConfigShow(ctx context.Context, cmd *cli.Command) error {
	config := *r.config
	for _, secret := range []*string{
		&config.Bandcamp.Cookie,
		&config.SoundCloud.ClientSecret,
		&config.SoundCloud.CodeVerifier,
		&config.SoundCloud.AccessToken,
		&config.Spotify.ClientSecret,
		&config.Spotify.AccessToken,
	} {
		if *secret != "" {
			*secret = redacted
		}
	}

	if err := toml.NewEncoder(r.output).Encode(config); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
