package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JeronimoAR/SpotifyVoiceController/internal/server"
	"github.com/JeronimoAR/SpotifyVoiceController/internal/services"
	"github.com/JeronimoAR/SpotifyVoiceController/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const authTimeout = 2 * time.Minute

// AuthLogin performs the OAuth2 authorization code flow for Spotify.
//
// Starts a local HTTP server, opens the browser for user authorization, and stores the exchanged tokens in the config file.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.spotifyService()
	if err != nil {
		return err
	}

	token, err := r.doOAuth(ctx, svc, "authorization")
	if err != nil {
		return err
	}

	if err := r.saveTokens(token); err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Tokens saved to %s\n\n", r.configPathOrDefault())
	r.writePlain("You can now use: spvc do \"pon Despacito de Luis Fonsi\"\n")
	return nil
}

// AuthStatus checks the stored tokens by fetching the user's profile.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.playback(ctx); err != nil {
		return err
	}
	if r.spotify == nil {
		return fmt.Errorf("%w: no Spotify client configured", shared.ErrServiceUnavailable)
	}

	var user *services.SpotifyUser
	err := r.withReauth(ctx, func() error {
		var profileErr error
		user, profileErr = r.spotify.UserProfile(ctx)
		return profileErr
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, cmd.Bool("pretty"))
	}

	r.writePlain("✓ Authenticated\n")
	r.writePlain("User: %s (%s)\n", user.DisplayName, user.ID)
	if user.Product != "" {
		r.writePlain("Plan: %s\n", user.Product)
	}
	if user.Product != "" && user.Product != "premium" {
		r.writePlain("⚠ Playback control requires Spotify Premium\n")
	}
	return nil
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(ctx context.Context, oauthSrv services.OAuthService, prefix string) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	handler := server.NewOAuthHandler(oauthSrv.GetOAuthConfig(), state)
	router := server.NewBasicRouter()
	router.Use(server.RecoverMiddleware(r.logger), server.LoggingMiddleware(r.logger))
	router.Handler(handler)

	srv := server.New(r.config.Server.Addr(), router, r.logger)
	serverErrs, err := srv.Start()
	if err != nil {
		return nil, err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()
	r.logger.Infof("started OAuth server for %s at %v", prefix, r.config.Server.Addr())

	authURL := oauthSrv.GetAuthURL(state)
	r.writePlain("→ Opening browser for Spotify %s...\n", prefix)
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	waitCtx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	token, err := handler.Wait(waitCtx, serverErrs)
	if err != nil {
		return nil, fmt.Errorf("authorization failed: %w", err)
	}
	return token, nil
}

// withReauth runs fn and, if Spotify rejected the token, reauthorizes once and runs fn again.
func (r *Runner) withReauth(ctx context.Context, fn func() error) error {
	err := fn()
	reauthed, authErr := r.reauthorize(ctx, err)
	if !reauthed {
		return err
	}
	if authErr != nil {
		return authErr
	}
	return fn()
}

// handleAuthError checks if an error is a token expiration error and triggers reauthorization if needed.
func (r *Runner) handleAuthError(ctx context.Context, err error) (bool, error) {
	if err == nil || !errors.Is(err, shared.ErrTokenExpired) || r.spotify == nil {
		return false, err
	}

	r.writePlainln("⚠ Authentication token expired. Starting reauthorization...\n")

	token, authErr := r.doOAuth(ctx, r.spotify, "reauthorization")
	if authErr != nil {
		return true, fmt.Errorf("reauthorization failed: %w", authErr)
	}

	if saveErr := r.saveTokens(token); saveErr != nil {
		return true, saveErr
	}

	if authErr := r.spotify.OAuthenticate(r.clientContext(ctx), token); authErr != nil {
		return true, fmt.Errorf("failed to authenticate with new tokens: %w", authErr)
	}

	r.writePlainln("✓ Successfully reauthenticated. Retrying operation...\n")
	return true, nil
}
