package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/universe/internal/models"
	"github.com/desertthunder/universe/internal/repositories"
	"github.com/desertthunder/universe/internal/universe"
	"github.com/urfave/cli/v3"
)

// cachedArtist is the JSON shape of one cached row.
type cachedArtist struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	ScrobbleCount int64     `json:"scrobble_count"`
	ImagePath     string    `json:"local_image_path,omitempty"`
	FetchedAt     time.Time `json:"fetched_at"`
	Stale         bool      `json:"stale"`
}

// CacheList prints the cached scrobble counts, highest first.
func (r *Runner) CacheList(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return err
	}

	criteria := map[string]any{}
	if name := cmd.String("name"); name != "" {
		criteria["name"] = name
	}
	if minCount := cmd.Int("min-count"); minCount > 0 {
		criteria["min_count"] = int64(minCount)
	}
	if limit := cmd.Int("limit"); limit > 0 {
		criteria["limit"] = limit
	}

	artists, err := repositories.NewArtistRepository(db).List(criteria)
	if err != nil {
		return fmt.Errorf("failed to list cached artists: %w", err)
	}

	ttl, now := r.config.Fetch.CacheTTL(), time.Now()
	if cmd.Bool("json") {
		rows := make([]cachedArtist, 0, len(artists))
		for _, a := range artists {
			rows = append(rows, cachedArtist{
				ID:            a.ID(),
				Name:          a.Name(),
				ScrobbleCount: a.ScrobbleCount(),
				ImagePath:     a.ImagePath(),
				FetchedAt:     a.FetchedAt(),
				Stale:         a.Stale(ttl, now),
			})
		}
		return r.writeJSON(rows, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Cached artists (%d)", len(artists)))
	if len(artists) == 0 {
		return r.writePlain("No cached artists. Run 'universe fetch' first.\n")
	}

	for i, a := range artists {
		r.writePlain("%3d. %-32s %15s%s\n", i+1, a.Name(), universe.FormatCount(a.ScrobbleCount()), staleMarker(a, ttl, now))
	}
	return nil
}

// CacheClear deletes one cached artist by name, or every cached artist.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return err
	}

	repo := repositories.NewArtistRepository(db)

	var artists []*models.Artist
	if name := cmd.String("name"); name != "" {
		artist, err := repo.GetByName(name)
		if err != nil {
			return err
		}
		artists = []*models.Artist{artist}
	} else if artists, err = repo.List(map[string]any{}); err != nil {
		return fmt.Errorf("failed to list cached artists: %w", err)
	}

	for _, a := range artists {
		if err := repo.Delete(a.ID()); err != nil {
			return fmt.Errorf("failed to delete %s: %w", a.Name(), err)
		}
	}

	r.logger.Info("cache cleared", "artists", len(artists))
	return r.writePlain("✓ Removed %d cached artist(s)\n", len(artists))
}

func staleMarker(a *models.Artist, ttl time.Duration, now time.Time) string {
	if a.Stale(ttl, now) {
		return "  (stale)"
	}
	return ""
}
