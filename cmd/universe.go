package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/universe/internal/formatter"
	"github.com/desertthunder/universe/internal/models"
	"github.com/desertthunder/universe/internal/render"
	"github.com/desertthunder/universe/internal/repositories"
	"github.com/desertthunder/universe/internal/services"
	"github.com/desertthunder/universe/internal/shared"
	"github.com/desertthunder/universe/internal/tasks"
	"github.com/desertthunder/universe/internal/ui"
	"github.com/desertthunder/universe/internal/universe"
	"github.com/urfave/cli/v3"
)

// profiler is implemented by clients that can name the authenticated user.
type profiler interface {
	UserProfile(ctx context.Context) (*services.SpotifyUser, error)
}

// planet is one row of the layout output.
type planet struct {
	Index    int     `json:"index"`
	Name     string  `json:"name"`
	Count    int64   `json:"scrobble_count"`
	Diameter float64 `json:"diameter"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

type layoutOutput struct {
	Focus    int               `json:"focus"`
	Label    string            `json:"label"`
	Viewport universe.Viewport `json:"viewport"`
	Offset   universe.Offset   `json:"centering_offset"`
	Planets  []planet          `json:"planets"`
}

type snapshotRow struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
	User      string `json:"spotify_user"`
	TimeRange string `json:"time_range"`
	Artists   int    `json:"artists"`
}

// UniverseFetch builds a dataset from Spotify and Last.fm and stores it as a snapshot.
func (r *Runner) UniverseFetch(ctx context.Context, cmd *cli.Command) error {
	opts := r.buildOpts()
	if limit := cmd.Int("limit"); limit > 0 {
		opts.Limit = limit
	}
	if tr := cmd.String("time-range"); tr != "" {
		opts.TimeRange = tr
	}
	if workers := cmd.Int("workers"); workers > 0 {
		opts.NumWorkers = workers
	}
	if rps := cmd.Float("rate"); rps > 0 {
		opts.RateLimit = rps
	}
	opts.SkipImages = cmd.Bool("skip-images")
	opts.Refresh = cmd.Bool("refresh")

	progress := make(chan tasks.ProgressUpdate, 10)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			if cmd.Bool("json") {
				continue
			}
			r.printProgress(update)
		}
	}()

	result, snapshot, err := r.fetch(ctx, progress, opts)
	close(progress)
	<-done
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result.Dataset, cmd.Bool("pretty"))
	}

	r.writePlainln("✓ Universe built with %d planets", len(result.Dataset.Entities))
	r.writePlain("  Fetched from Spotify: %d\n", result.Fetched)
	r.writePlain("  Cache hits:           %d\n", result.CacheHits)
	if result.Duplicates > 0 {
		r.writePlain("  Duplicates dropped:   %d\n", result.Duplicates)
	}
	if len(result.Failures) > 0 {
		r.writePlain("  Failures:             %d\n", len(result.Failures))
		for _, f := range result.Failures {
			r.writePlain("    ✗ %s (%s): %v\n", f.Artist, f.Step, f.Err)
		}
	}
	if snapshot != nil {
		r.writePlain("  Snapshot:             %s\n", snapshot.ID())
	}
	return nil
}

func (r *Runner) printProgress(update tasks.ProgressUpdate) {
	if update.Total > 0 {
		r.writePlain("[%d/%d] %s\n", update.Step, update.Total, update.Message)
		return
	}
	r.writePlain("→ %s\n", update.Message)
}

// fetch runs the builder, reauthorizing once on an expired token, and stores the snapshot.
//
// The progress channel is not closed.
func (r *Runner) fetch(ctx context.Context, progress chan<- tasks.ProgressUpdate, opts tasks.BuildOpts) (*tasks.BuildResult, *models.Snapshot, error) {
	client, err := r.spotifyClient(ctx)
	if err != nil {
		return nil, nil, err
	}

	builder, err := r.builder(client)
	if err != nil {
		return nil, nil, err
	}

	result, err := builder.Build(ctx, progress, opts)
	if reauthed, authErr := r.handleSpotifyAuthError(ctx, err); reauthed {
		if authErr != nil {
			return nil, nil, authErr
		}
		result, err = builder.Build(ctx, progress, opts)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build universe: %w", err)
	}
	r.persistRefreshedToken(client)

	user := ""
	if p, ok := client.(profiler); ok {
		if profile, err := p.UserProfile(ctx); err != nil {
			r.logger.Warn("failed to load Spotify profile", "error", err)
		} else {
			user = profile.ID
		}
	}

	snapshot, err := r.saveSnapshot(user, opts.TimeRange, result.Dataset)
	if err != nil {
		r.logger.Warn("failed to store snapshot", "error", err)
	}
	return result, snapshot, nil
}

func (r *Runner) saveSnapshot(user, timeRange string, ds universe.Dataset) (*models.Snapshot, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	snapshot := models.NewSnapshot(0, user, timeRange, ds)
	if err := repositories.NewSnapshotRepository(db).Create(snapshot); err != nil {
		return nil, err
	}
	r.logger.Debug("snapshot stored", "id", snapshot.ID(), "artists", snapshot.ArtistCount())
	return snapshot, nil
}

// loadSnapshot reads --snapshot by ID, or the latest snapshot for --user.
func (r *Runner) loadSnapshot(cmd *cli.Command) (*models.Snapshot, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}

	repo := repositories.NewSnapshotRepository(db)
	if id := cmd.String("snapshot"); id != "" {
		return repo.Get(id)
	}

	snapshot, err := repo.Latest(cmd.String("user"))
	if errors.Is(err, shared.ErrSnapshotNotFound) {
		return nil, fmt.Errorf("%w: run 'universe fetch' first", err)
	}
	return snapshot, err
}

// session loads a snapshot and zooms to the requested focus.
func (r *Runner) session(cmd *cli.Command) (*universe.Session, error) {
	snapshot, err := r.loadSnapshot(cmd)
	if err != nil {
		return nil, err
	}

	s, err := universe.New(snapshot.Dataset(), r.universeOptions(r.viewport(cmd)))
	if err != nil {
		return nil, fmt.Errorf("invalid snapshot %s: %w", snapshot.ID(), err)
	}
	if s.Set.Empty() {
		return s, nil
	}

	focus := cmd.Int("focus")
	if name := cmd.String("artist"); name != "" {
		i, ok := s.Set.IndexOf(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", universe.ErrUnknownEntity, name)
		}
		focus = i
	}

	if err := s.Focus.ZoomTo(focus); err != nil {
		return nil, err
	}
	return s, nil
}

// UniverseShow opens the interactive TUI on a snapshot or on freshly fetched data.
func (r *Runner) UniverseShow(ctx context.Context, cmd *cli.Command) error {
	logPath := cmd.String("log-file")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	fileLogger, err := shared.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	previous, output := r.logger, r.output
	r.SetLogger(fileLogger)
	r.output = io.Discard
	defer func() {
		r.SetLogger(previous)
		r.output = output
	}()

	load := func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (universe.Dataset, error) {
		snapshot, err := r.loadSnapshot(cmd)
		if err != nil {
			return universe.Dataset{}, err
		}
		return snapshot.Dataset(), nil
	}

	if cmd.Bool("fetch") {
		load = func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (universe.Dataset, error) {
			result, _, err := r.fetch(ctx, progress, r.buildOpts())
			if err != nil {
				return universe.Dataset{}, err
			}
			return result.Dataset, nil
		}
	}

	model := ui.NewModel(ctx, ui.ModelOpts{
		Load:     load,
		Universe: r.universeOptions(universe.Viewport{}),
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// UniverseLayout prints the layout for the focused artist.
func (r *Runner) UniverseLayout(ctx context.Context, cmd *cli.Command) error {
	s, err := r.session(cmd)
	if err != nil {
		return err
	}

	state := s.Focus.State()
	layout, _ := s.Focus.Layout()
	out := layoutOutput{
		Focus:    -1,
		Label:    s.Focus.Label(),
		Viewport: s.Focus.Viewport(),
		Offset:   layout.CenteringOffset,
		Planets:  make([]planet, 0, layout.Len()),
	}
	if state.Valid {
		out.Focus = state.Index
	}

	entities := s.Set.Entities()
	for i := 0; i < layout.Len(); i++ {
		pos := layout.Translated(i)
		out.Planets = append(out.Planets, planet{
			Index:    i,
			Name:     entities[i].Name,
			Count:    entities[i].MetricCount,
			Diameter: layout.Diameters[i],
			X:        pos.X,
			Y:        pos.Y,
		})
	}

	if cmd.Bool("json") {
		return r.writeJSON(out, cmd.Bool("pretty"))
	}

	if len(out.Planets) == 0 {
		return r.writePlain("No planets in this snapshot.\n")
	}

	r.writePlainHeader(out.Label)
	r.writePlain("Viewport %.0fx%.0f, offset (%.1f, %.1f)\n\n", out.Viewport.Width, out.Viewport.Height, out.Offset.DX, out.Offset.DY)
	for _, p := range out.Planets {
		marker := " "
		if p.Index == out.Focus {
			marker = "→"
		}
		r.writePlain("%s %3d. %-32s %15s  d=%8.1f  (%.1f, %.1f)\n",
			marker, p.Index, p.Name, universe.FormatCount(p.Count), p.Diameter, p.X, p.Y)
	}
	return nil
}

// UniverseCompare compares the selected artist against a target, or the default target.
func (r *Runner) UniverseCompare(ctx context.Context, cmd *cli.Command) error {
	selected := cmd.Args().Get(0)
	if selected == "" {
		return fmt.Errorf("%w: selected artist", shared.ErrMissingArgument)
	}

	pair, err := r.compare(cmd, selected, cmd.Args().Get(1))
	if err != nil {
		return err
	}
	if pair == nil {
		return r.writePlain("No planets in this snapshot.\n")
	}

	if cmd.Bool("json") {
		return r.writeJSON(pair, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Comparison")
	r.writePlain("%-32s %15s  %s\n", pair.Left.Name, universe.FormatCount(pair.Left.MetricCount), pair.Indicator(universe.LeftSide))
	r.writePlain("%-32s %15s  %s\n", pair.Right.Name, universe.FormatCount(pair.Right.MetricCount), pair.Indicator(universe.RightSide))
	return nil
}

// compare opens a comparison for selected and, when target is set, retargets it.
func (r *Runner) compare(cmd *cli.Command, selected, target string) (*universe.ComparisonPair, error) {
	snapshot, err := r.loadSnapshot(cmd)
	if err != nil {
		return nil, err
	}

	s, err := universe.New(snapshot.Dataset(), r.universeOptions(r.viewport(cmd)))
	if err != nil {
		return nil, err
	}
	if s.Set.Empty() {
		return nil, nil
	}

	left, ok := s.Set.ByName(selected)
	if !ok {
		return nil, fmt.Errorf("%w: %s", universe.ErrUnknownEntity, selected)
	}

	pair, err := s.Comparison.Open(left)
	if err != nil || target == "" {
		return pair, err
	}
	return s.Comparison.SetComparisonTarget(universe.Entity{Name: target})
}

// UniverseRender writes the universe, or a comparison, as an SVG file.
func (r *Runner) UniverseRender(ctx context.Context, cmd *cli.Command) error {
	s, err := r.session(cmd)
	if err != nil {
		return err
	}

	opts := []render.SVGOption{render.WithNames(), render.WithTitle("Universe")}
	if cmd.Bool("images") {
		opts = append(opts, render.WithImages())
	}

	var data []byte
	if target := cmd.String("compare"); target != "" {
		focused, ok := s.Focus.Focused()
		if !ok {
			return fmt.Errorf("%w: no planets to compare", universe.ErrEmptyDataSet)
		}
		pair, err := r.compare(cmd, focused.Name, target)
		if err != nil {
			return err
		}
		data = render.RenderComparisonSVG(*pair, s.Focus.Viewport(), opts...)
	} else {
		layout, _ := s.Focus.Layout()
		state := s.Focus.State()
		opts = append(opts, render.WithLabel(s.Focus.Label()))
		data, err = render.RenderSVG(s.Set.Entities(), layout, s.Focus.Viewport(), state.Index, opts...)
		if err != nil {
			return fmt.Errorf("failed to render SVG: %w", err)
		}
	}

	path := cmd.String("output")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	r.logger.Info("rendered universe", "path", path, "bytes", len(data))
	return r.writePlain("✓ Wrote %s\n", path)
}

// UniverseExport writes a snapshot in the requested format.
func (r *Runner) UniverseExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	snapshot, err := r.loadSnapshot(cmd)
	if err != nil {
		return err
	}

	path, err := formatter.WriteExport(snapshot.Dataset(), format, cmd.String("output"), cmd.String("title"))
	if err != nil {
		return err
	}

	r.logger.Info("exported snapshot", "id", snapshot.ID(), "format", format, "path", path)
	return r.writePlain("✓ Exported %d artists to %s\n", snapshot.ArtistCount(), path)
}

// UniverseSnapshots lists stored snapshots, newest first.
func (r *Runner) UniverseSnapshots(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return err
	}

	criteria := map[string]any{"limit": cmd.Int("limit")}
	if user := cmd.String("user"); user != "" {
		criteria["spotify_user"] = user
	}

	snapshots, err := repositories.NewSnapshotRepository(db).List(criteria)
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}

	rows := make([]snapshotRow, 0, len(snapshots))
	for _, s := range snapshots {
		rows = append(rows, snapshotRow{
			ID:        s.ID(),
			CreatedAt: s.CreatedAt().Local().Format("2006-01-02 15:04"),
			User:      s.SpotifyUser(),
			TimeRange: s.TimeRange(),
			Artists:   s.ArtistCount(),
		})
	}

	if cmd.Bool("json") {
		return r.writeJSON(rows, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Snapshots (%d)", len(rows)))
	if len(rows) == 0 {
		return r.writePlain("No snapshots. Run 'universe fetch' first.\n")
	}
	for _, row := range rows {
		r.writePlain("%s  %s  %-12s %3d artists  %s\n", row.ID, row.CreatedAt, row.TimeRange, row.Artists, row.User)
	}
	return nil
}
