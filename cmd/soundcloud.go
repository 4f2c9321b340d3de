package main

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/desertthunder/crates/internal/server"
	"github.com/desertthunder/crates/internal/services"
	"github.com/desertthunder/crates/internal/shared"
	"github.com/desertthunder/crates/internal/ui"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

func (r *Runner) soundcloudService() (*services.SoundCloudService, error) {
	return services.NewSoundCloudService(r.config.SoundCloud.Map())
}

// soundcloudClient returns a service authenticated with --token, the configured access token,
// or a fresh client credentials grant.
func (r *Runner) soundcloudClient(ctx context.Context, cmd *cli.Command) (*services.SoundCloudService, error) {
	svc, err := r.soundcloudService()
	if err != nil {
		return nil, err
	}

	token := cmd.String("token")
	if token == "" {
		token = r.config.SoundCloud.AccessToken
	}

	credentials := map[string]string{"access_token": token}
	if token == "" {
		r.logger.Debug("no access token, using client credentials grant")
		credentials = map[string]string{"grant_type": "client_credentials"}
	}

	if err := svc.Authenticate(ctx, credentials); err != nil {
		return nil, err
	}
	return svc, nil
}

// pkce returns the code challenge and verifier for the authorization request.
//
// A configured challenge is used as is; the verifier is only required when the code is exchanged here.
func (r *Runner) pkce(exchange bool) (challenge, verifier string, err error) {
	sc := r.config.SoundCloud
	if sc.CodeChallenge != "" {
		if exchange && sc.CodeVerifier == "" {
			return "", "", fmt.Errorf("%w: code_challenge is set without code_verifier", shared.ErrInvalidArgument)
		}
		return sc.CodeChallenge, sc.CodeVerifier, nil
	}

	verifier = oauth2.GenerateVerifier()
	return oauth2.S256ChallengeFromVerifier(verifier), verifier, nil
}

// SoundCloudAuthorize requests the authorization URL, optionally opening it and waiting for the callback.
func (r *Runner) SoundCloudAuthorize(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.soundcloudService()
	if err != nil {
		return err
	}

	listen := cmd.Bool("listen")
	challenge, verifier, err := r.pkce(listen)
	if err != nil {
		return err
	}

	state := r.config.SoundCloud.State
	if state == "" {
		state = shared.GenerateState()
	}

	authURL := svc.AuthURL(state, challenge)

	if !listen {
		if cmd.Bool("open") {
			if err := shared.OpenBrowser(authURL); err != nil {
				r.logger.Warn("failed to open browser", "error", err)
			}
		}

		resp, err := svc.Authorize(ctx, state, challenge)
		if err != nil {
			return err
		}
		if r.config.SoundCloud.CodeChallenge == "" {
			resp.CodeVerifier = verifier
		}
		r.logger.Debug("authorize", "status", resp.StatusCode, "location", resp.Location)
		return r.writeJSON(resp, cmd.Bool("pretty"))
	}

	token, err := r.awaitCallback(ctx, cmd, svc, authURL, state, oauth2.VerifierOption(verifier))
	if err != nil {
		return err
	}

	return r.writeJSON(token, cmd.Bool("pretty"))
}

// awaitCallback serves the redirect URL of svc on the configured address until the authorization code
// for state is exchanged, the --timeout elapses or ctx is cancelled.
func (r *Runner) awaitCallback(
	ctx context.Context, cmd *cli.Command, svc services.OAuthService, authURL, state string, opts ...oauth2.AuthCodeOption,
) (*oauth2.Token, error) {
	callback := &server.CallbackServer{
		Addr:    net.JoinHostPort(r.config.Server.Host, strconv.Itoa(r.config.Server.Port)),
		Handler: server.NewOAuthHandler(svc.OAuthConfig(), state, opts...),
		Logger:  r.logger,
		Timeout: cmd.Duration("timeout"),
	}

	token, err := callback.Wait(ctx, func(addr string) {
		r.logger.Info("waiting for OAuth callback", "service", svc.Name(), "addr", addr)
		fmt.Fprintf(r.errOutput, "%s\n%s\n", ui.Warn("open this URL to authorize:"), authURL)
		if cmd.Bool("open") {
			if err := shared.OpenBrowser(authURL); err != nil {
				r.logger.Warn("failed to open browser", "error", err)
			}
		}
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("authorized", "service", svc.Name())
	return token, nil
}

// SoundCloudToken obtains and prints an app token.
func (r *Runner) SoundCloudToken(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.soundcloudService()
	if err != nil {
		return err
	}

	token, err := svc.ClientCredentialsToken(ctx)
	if err != nil {
		return err
	}

	return r.writeJSON(token, cmd.Bool("pretty"))
}

// SoundCloudMe prints the authenticated user.
func (r *Runner) SoundCloudMe(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.soundcloudClient(ctx, cmd)
	if err != nil {
		return err
	}

	user, err := svc.Me(ctx)
	if err != nil {
		return err
	}

	return r.writeJSON(user, cmd.Bool("pretty"))
}

// SoundCloudUser prints the URN of the first user matching the name argument.
func (r *Runner) SoundCloudUser(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: user name", shared.ErrMissingArgument)
	}

	svc, err := r.soundcloudClient(ctx, cmd)
	if err != nil {
		return err
	}

	urn, err := svc.UserURN(ctx, name)
	if err != nil {
		return err
	}

	return r.writePlain("%s\n", urn)
}

// SoundCloudLikes lists the tracks liked by the URN argument, the configured user or the default user.
func (r *Runner) SoundCloudLikes(ctx context.Context, cmd *cli.Command) error {
	urn := cmd.StringArg("urn")
	if urn == "" {
		urn = r.config.SoundCloud.UserURN
	}

	svc, err := r.soundcloudClient(ctx, cmd)
	if err != nil {
		return err
	}

	page, err := svc.LikedTracks(ctx, urn)
	if err != nil {
		return err
	}

	records, err := page.Records()
	if err != nil {
		return err
	}

	r.logger.Debug("likes", "urn", urn, "count", len(records), "more", page.NextHref != "")
	return writeRecords(r, cmd, records)
}
