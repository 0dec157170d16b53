package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/universe/internal/repositories"
	"github.com/desertthunder/universe/internal/server"
	"github.com/desertthunder/universe/internal/services"
	"github.com/desertthunder/universe/internal/shared"
	"github.com/desertthunder/universe/internal/universe"
	"github.com/desertthunder/universe/internal/web"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

var shutdownTimeout = 5 * time.Second

// Serve runs the web pages and the JSON API until ctx is cancelled.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	handler, err := r.serverHandler(cmd.StringSlice("cors-origin"), cmd.String("static"))
	if err != nil {
		return err
	}

	addr := r.config.Server.Addr()
	if a := cmd.String("addr"); a != "" {
		addr = a
	}

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Info("serving universe", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
		close(serverErrors)
	}()

	r.writePlain("→ Listening on http://%s\n", addr)

	select {
	case err, ok := <-serverErrors:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	r.logger.Info("server stopped")
	return nil
}

// serverHandler assembles the router: API routes, then pages, behind recovery, logging and CORS.
func (r *Runner) serverHandler(origins []string, staticRoot string) (http.Handler, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	snapshots := repositories.NewSnapshotRepository(db)

	var oauth services.OAuthService
	if creds := r.config.Credentials.Spotify; creds.ClientID != "" {
		svc, err := services.NewSpotifyService(creds.Map())
		if err != nil {
			return nil, fmt.Errorf("failed to create Spotify service: %w", err)
		}
		oauth = svc
	} else {
		r.logger.Warn("spotify credentials missing, login routes are disabled")
	}

	router := server.NewBasicRouter()
	router.Use(server.Recover(r.logger), server.Logging(shared.WithLogger(r.logger, "component", "http")), server.CORS(origins...))

	router.Handler(server.NewUniverseHandler(server.UniverseHandlerOpts{
		OAuth:     oauth,
		Build:     r.buildForToken,
		Snapshots: snapshots,
		Universe:  r.config.Universe,
		Logger:    shared.WithLogger(r.logger, "component", "api"),
	}))

	pagesOpts := web.PagesOpts{
		Snapshots: snapshots,
		Universe:  r.config.Universe,
		Root:      staticRoot,
		Logger:    shared.WithLogger(r.logger, "component", "web"),
	}
	if oauth != nil {
		pagesOpts.Auth = oauth
	}
	pages, err := web.NewPages(pagesOpts)
	if err != nil {
		return nil, err
	}
	router.Handler(pages)

	return router, nil
}

// buildForToken builds a dataset with a Spotify client bound to the caller's access token.
func (r *Runner) buildForToken(ctx context.Context, accessToken string) (universe.Dataset, error) {
	svc, err := services.NewSpotifyService(r.config.Credentials.Spotify.Map())
	if err != nil {
		return universe.Dataset{}, fmt.Errorf("failed to create Spotify service: %w", err)
	}
	if err := svc.OAuthenticate(ctx, &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}); err != nil {
		return universe.Dataset{}, err
	}

	builder, err := r.builder(svc)
	if err != nil {
		return universe.Dataset{}, err
	}

	result, err := builder.Build(ctx, nil, r.buildOpts())
	if err != nil {
		return universe.Dataset{}, err
	}
	return result.Dataset, nil
}
