package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/universe/internal/server"
	"github.com/desertthunder/universe/internal/services"
	"github.com/desertthunder/universe/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// oauthTimeout bounds how long the local callback server waits for the browser.
var oauthTimeout = 2 * time.Minute

// SpotifyAuth performs OAuth2 authentication flow for Spotify.
//
// Starts a local HTTP server, opens browser for user authorization, and exchanges auth code for tokens.
func (r *Runner) SpotifyAuth(ctx context.Context, cmd *cli.Command) error {
	creds := r.config.Credentials.Spotify
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return fmt.Errorf("%w: Spotify client_id and client_secret must be set in %s", shared.ErrInvalidArgument, r.configPath)
	}

	spotifyService, err := services.NewSpotifyService(creds.Map())
	if err != nil {
		return fmt.Errorf("failed to create Spotify service: %w", err)
	}

	token, err := r.doOAuth(ctx, spotifyService, "authorization")
	if err != nil {
		return err
	}

	if err := r.saveTokens(token); err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Tokens saved to %s\n\n", r.configPath)
	r.writePlain("You can now use: universe fetch\n")

	return nil
}

// AuthStatus reports whether a Spotify token is stored and whether Last.fm lookups are enabled.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	creds := r.config.Credentials

	r.writePlainHeader("Authentication")

	if creds.Spotify.ClientID == "" {
		r.writePlain("Spotify: ✗ client credentials missing\n")
	} else if token := creds.Spotify.Token(); token == nil {
		r.writePlain("Spotify: ✗ not authenticated (run 'universe auth spotify')\n")
	} else {
		switch {
		case token.Expiry.IsZero():
			r.writePlain("Spotify: ✓ token stored\n")
		case token.Valid():
			r.writePlain("Spotify: ✓ token valid until %s\n", token.Expiry.Local().Format(time.RFC1123))
		case token.RefreshToken != "":
			r.writePlain("Spotify: ✓ token expired, will refresh on next request\n")
		default:
			r.writePlain("Spotify: ✗ token expired (run 'universe auth spotify')\n")
		}
	}

	if creds.LastFM.APIKey == "" {
		r.writePlain("Last.fm: ✗ no api_key, scrobble counts will be 0\n")
	} else {
		r.writePlain("Last.fm: ✓ api_key configured\n")
	}

	return nil
}

// AuthLogout forgets the stored Spotify token.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	r.config.Credentials.Spotify.Clear()
	r.spotify = nil

	if r.configPath != "" {
		if err := shared.SaveConfig(r.configPath, r.config); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
	}

	r.logger.Info("spotify token cleared")
	return r.writePlain("✓ Logged out of Spotify\n")
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(ctx context.Context, oauthSrv services.OAuthService, prefix string) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	authURL := oauthSrv.GetAuthURL(state)
	oauthHandler := server.NewOAuthHandler(oauthSrv, state)
	router := server.NewBasicRouter()
	router.Use(server.Recover(r.logger))
	router.Handler(oauthHandler)

	serverAddr := r.config.Server.Addr()
	httpServer := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth server for %s at %v", prefix, serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	r.writePlain("→ Opening browser for Spotify %s...\n", prefix)
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (%s timeout)...\n", oauthTimeout)

	timeout := time.NewTimer(oauthTimeout)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, oauthTimeout)
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", shared.ErrTimeout, ctx.Err())
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}

	return result.Token, nil
}

// handleSpotifyAuthError runs the login flow again when err is an expired token.
//
// Returns true when reauthorization was attempted; the caller should retry on a nil error.
func (r *Runner) handleSpotifyAuthError(ctx context.Context, err error) (bool, error) {
	if err == nil || !errors.Is(err, shared.ErrTokenExpired) {
		return false, err
	}

	if r.spotify == nil {
		return true, fmt.Errorf("%w: no Spotify client to reauthorize", shared.ErrNotAuthenticated)
	}

	r.writePlainln("⚠ Authentication token expired. Starting reauthorization...")

	token, reauthErr := r.doOAuth(ctx, r.spotify, "reauthorization")
	if reauthErr != nil {
		return true, fmt.Errorf("reauthorization failed: %w", reauthErr)
	}
	if err := r.saveTokens(token); err != nil {
		return true, err
	}
	if err := r.spotify.OAuthenticate(ctx, token); err != nil {
		return true, fmt.Errorf("failed to authenticate with new tokens: %w", err)
	}

	r.writePlainln("✓ Successfully reauthenticated. Retrying...")
	return true, nil
}
