// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

// outputFlags are shared by every command that emits records.
func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format (json, csv, markdown, text)",
			Value:   "json",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write records to a file instead of stdout",
		},
	}
}

func bandcampFlags() []cli.Flag {
	return append(outputFlags(),
		&cli.StringFlag{
			Name:  "curl-file",
			Usage: "Path to a .sh file containing a cURL command copied from the browser",
		},
		&cli.IntFlag{
			Name:  "concurrency",
			Usage: "Maximum concurrent album page requests (0 for unbounded)",
		},
		&cli.FloatFlag{
			Name:  "rate-limit",
			Usage: "Album page requests per second (0 to disable)",
		},
	)
}

func tokenFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "token",
		Aliases: []string{"t"},
		Usage:   "Access token (defaults to a client credentials grant)",
	}
}

// bandcampCommand handles Bandcamp wishlist exports
func bandcampCommand(r *Runner) *cli.Command {
	cookieArg := func() []cli.Argument {
		return []cli.Argument{&cli.StringArg{Name: "cookie"}}
	}

	return &cli.Command{
		Name:    "bandcamp",
		Aliases: []string{"bc"},
		Usage:   "Export a Bandcamp wishlist",
		Commands: []*cli.Command{
			{
				Name:      "albums",
				Usage:     "List wishlist albums with their track names",
				ArgsUsage: "[cookie]",
				Arguments: cookieArg(),
				Flags:     bandcampFlags(),
				Action:    r.BandcampAlbums,
			},
			{
				Name:      "wishlist",
				Usage:     "List wishlist items with their featured track",
				ArgsUsage: "[cookie]",
				Arguments: cookieArg(),
				Flags:     bandcampFlags(),
				Action:    r.BandcampWishlist,
			},
			{
				Name:      "tracks",
				Usage:     "List every track of every wishlist album",
				ArgsUsage: "[cookie]",
				Arguments: cookieArg(),
				Flags:     bandcampFlags(),
				Action:    r.BandcampTracks,
			},
		},
	}
}

// soundcloudCommand handles SoundCloud authentication and queries
func soundcloudCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "soundcloud",
		Aliases: []string{"sc"},
		Usage:   "SoundCloud authentication and queries",
		Commands: []*cli.Command{
			{
				Name:  "authorize",
				Usage: "Request the authorization URL for the PKCE code flow",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "open",
						Usage: "Open the authorization URL in the browser",
					},
					&cli.BoolFlag{
						Name:  "listen",
						Usage: "Wait for the OAuth callback and exchange the code for a token",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for the OAuth callback",
						Value: 5 * time.Minute,
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print JSON output",
					},
				},
				Action: r.SoundCloudAuthorize,
			},
			{
				Name:  "token",
				Usage: "Obtain an app token with the client credentials grant",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print JSON output",
					},
				},
				Action: r.SoundCloudToken,
			},
			{
				Name:  "me",
				Usage: "Show the authenticated user",
				Flags: []cli.Flag{
					tokenFlag(),
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print JSON output",
					},
				},
				Action: r.SoundCloudMe,
			},
			{
				Name:      "user",
				Usage:     "Print the URN of the first user matching a name",
				ArgsUsage: "<name>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Flags:  []cli.Flag{tokenFlag()},
				Action: r.SoundCloudUser,
			},
			{
				Name:      "likes",
				Usage:     "List the tracks liked by a user",
				ArgsUsage: "[urn]",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "urn"},
				},
				Flags:  append(outputFlags(), tokenFlag()),
				Action: r.SoundCloudLikes,
			},
		},
	}
}

// spotifyCommand handles Spotify playlist exports
func spotifyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "spotify",
		Aliases: []string{"sp"},
		Usage:   "Export Spotify playlists",
		Commands: []*cli.Command{
			{
				Name:      "playlist",
				Usage:     "List the tracks of a public playlist",
				ArgsUsage: "<link|uri|id>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "playlist"},
				},
				Flags:  append(outputFlags(), tokenFlag()),
				Action: r.SpotifyPlaylist,
			},
		},
	}
}

// configCommand handles the configuration file
func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage the configuration file",
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "Write a config file from the default template",
				Action: r.ConfigInit,
			},
			{
				Name:   "show",
				Usage:  "Print the effective configuration with secrets redacted",
				Action: r.ConfigShow,
			},
		},
	}
}
