package repositories

import (
	"fmt"
	"time"

	"github.com/desertthunder/universe/internal/models"
	"github.com/desertthunder/universe/internal/universe"
)

// PlayCountCacheAdapter implements tasks.PlayCountCache using [ArtistRepository].
//
// Rows older than ttl are treated as misses so the builder asks Last.fm again.
type PlayCountCacheAdapter struct {
	repo *ArtistRepository
	ttl  time.Duration
	now  func() time.Time
}

// NewPlayCountCacheAdapter creates a new [PlayCountCacheAdapter]. A non-positive ttl never expires rows.
func NewPlayCountCacheAdapter(repo *ArtistRepository, ttl time.Duration) *PlayCountCacheAdapter {
	return &PlayCountCacheAdapter{repo: repo, ttl: ttl, now: time.Now}
}

// Lookup returns the cached entity for name when a fresh row exists.
func (a *PlayCountCacheAdapter) Lookup(name string) (universe.Entity, bool) {
	artist, err := a.repo.GetByName(name)
	if err != nil || artist.Stale(a.ttl, a.now()) {
		return universe.Entity{}, false
	}
	return artist.Entity(), true
}

// Store writes the entity's count and image path, refreshing the fetch time.
func (a *PlayCountCacheAdapter) Store(e universe.Entity) error {
	artist := models.ArtistFromEntity(e)
	artist.SetFetchedAt(a.now().UTC())
	if err := a.repo.Upsert(artist); err != nil {
		return fmt.Errorf("failed to cache %s: %w", e.Name, err)
	}
	return nil
}
