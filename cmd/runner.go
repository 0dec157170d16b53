package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/universe/internal/repositories"
	"github.com/desertthunder/universe/internal/services"
	"github.com/desertthunder/universe/internal/shared"
	"github.com/desertthunder/universe/internal/tasks"
	"github.com/desertthunder/universe/internal/universe"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// SpotifyClient is the slice of the Spotify API the commands use.
type SpotifyClient interface {
	services.OAuthService
	services.ArtistSource
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	spotify    SpotifyClient
	lastfm     services.PlayCounter
	images     services.ImageFetcher
	db         *sql.DB
	ownsDB     bool
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Spotify    SpotifyClient         // Built from the stored token when nil
	LastFM     services.PlayCounter  // Built from config when nil
	Images     services.ImageFetcher // Built from config when nil
	DB         *sql.DB               // Opened from config on first use when nil
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	if opts.LastFM == nil {
		lastfm := services.NewLastFMService(
			opts.Config.Credentials.LastFM.APIKey,
			opts.Config.Credentials.LastFM.BaseURL,
			opts.Config.Fetch.RateLimit,
		)
		lastfm.SetHTTPClient(opts.HTTPClient)
		opts.LastFM = lastfm
	}
	if opts.Images == nil {
		images := services.NewImageStore(opts.Config.Images.Dir, opts.Config.Images.Timeout())
		images.SetHTTPClient(opts.HTTPClient)
		opts.Images = images
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		spotify:    opts.Spotify,
		lastfm:     opts.LastFM,
		images:     opts.Images,
		db:         opts.DB,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, universeCommand, cacheCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before applies global flags.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	level, err := shared.ParseLevel(cmd.String("log-level"))
	if err != nil {
		return ctx, err
	}
	shared.SetLogLevel(r.logger, level)
	return ctx, nil
}

// SetLogger replaces the logger, e.g. with a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// Close releases the database if the runner opened it.
func (r *Runner) Close() {
	if r.db != nil && r.ownsDB {
		if err := r.db.Close(); err != nil {
			r.logger.Warn("failed to close database", "error", err)
		}
		r.db = nil
		r.ownsDB = false
	}
}

// database opens and migrates the configured database on first use.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	r.db, r.ownsDB = db, true
	return db, nil
}

// spotifyClient returns the injected client or one authenticated with the stored token.
func (r *Runner) spotifyClient(ctx context.Context) (SpotifyClient, error) {
	if r.spotify != nil {
		return r.spotify, nil
	}

	token := r.config.Credentials.Spotify.Token()
	if token == nil {
		return nil, fmt.Errorf("%w: run 'universe auth spotify' first", shared.ErrNotAuthenticated)
	}

	svc, err := services.NewSpotifyService(r.config.Credentials.Spotify.Map())
	if err != nil {
		return nil, fmt.Errorf("failed to create Spotify service: %w", err)
	}
	if err := svc.OAuthenticate(ctx, token); err != nil {
		return nil, err
	}

	r.spotify = svc
	return svc, nil
}

// builder wires a [tasks.UniverseBuilder] to the Spotify client, Last.fm and the play count cache.
func (r *Runner) builder(artists services.ArtistSource) (*tasks.UniverseBuilder, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}

	cache := repositories.NewPlayCountCacheAdapter(repositories.NewArtistRepository(db), r.config.Fetch.CacheTTL())
	return tasks.NewUniverseBuilder(artists, r.lastfm, r.images, cache, shared.WithLogger(r.logger, "component", "builder")), nil
}

// buildOpts maps the configured defaults onto [tasks.BuildOpts].
func (r *Runner) buildOpts() tasks.BuildOpts {
	return tasks.BuildOpts{
		Limit:      r.config.Universe.TopArtists,
		TimeRange:  r.config.Universe.TimeRange,
		NumWorkers: r.config.Fetch.Workers,
		RateLimit:  r.config.Fetch.RateLimit,
	}
}

// universeOptions maps the configured constants onto [universe.Options].
func (r *Runner) universeOptions(vp universe.Viewport) universe.Options {
	u := r.config.Universe
	return universe.Options{
		SelectedDiameter:   u.SelectedDiameter,
		ComparisonDiameter: u.ComparisonDiameter,
		Engine:             &universe.LayoutEngine{StartX: u.StartX, Gap: u.Gap, Margin: u.Margin},
		Viewport:           vp,
		Logger:             shared.WithLogger(r.logger, "component", "universe"),
	}
}

// viewport resolves --width/--height against the configured viewport.
func (r *Runner) viewport(cmd *cli.Command) universe.Viewport {
	vp := universe.Viewport{Width: r.config.Universe.ViewportWidth, Height: r.config.Universe.ViewportHeight}
	if w := cmd.Float("width"); w > 0 {
		vp.Width = w
	}
	if h := cmd.Float("height"); h > 0 {
		vp.Height = h
	}
	return vp
}

// saveTokens stores a refreshed or newly issued token in the config file.
func (r *Runner) saveTokens(token *oauth2.Token) error {
	if r.config == nil {
		return fmt.Errorf("%w: config is nil", shared.ErrMissingConfig)
	}

	if err := r.config.Credentials.Spotify.Update(token); err != nil {
		return fmt.Errorf("failed to update spotify configuration: %w", err)
	}

	if r.configPath == "" {
		return nil
	}

	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// persistRefreshedToken saves the client's current token if oauth2 refreshed it.
func (r *Runner) persistRefreshedToken(client SpotifyClient) {
	svc, ok := client.(*services.SpotifyService)
	if !ok {
		return
	}
	token, err := svc.Token()
	if err != nil || token.AccessToken == r.config.Credentials.Spotify.AccessToken {
		return
	}
	if err := r.saveTokens(token); err != nil {
		r.logger.Warn("failed to persist refreshed token", "error", err)
		return
	}
	r.logger.Debug("persisted refreshed Spotify token")
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
