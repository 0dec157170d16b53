package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/universe/internal/universe"
)

// Artist is a cached artist row: the Last.fm play count and the downloaded image for one name.
type Artist struct {
	record
	name          string
	scrobbleCount int64
	imagePath     string
	fetchedAt     time.Time
}

// NewArtist creates an [Artist] fetched now.
func NewArtist(sequence int, name string, scrobbleCount int64, imagePath string) *Artist {
	a := &Artist{record: newRecord(sequence), name: name, scrobbleCount: scrobbleCount, imagePath: imagePath}
	a.fetchedAt = a.createdAt
	return a
}

// ArtistFromEntity converts a universe entity into an unsaved [Artist].
func ArtistFromEntity(e universe.Entity) *Artist {
	return NewArtist(0, e.Name, e.MetricCount, e.ImagePath)
}

func (a *Artist) Name() string             { return a.name }
func (a *Artist) ScrobbleCount() int64     { return a.scrobbleCount }
func (a *Artist) ImagePath() string        { return a.imagePath }
func (a *Artist) FetchedAt() time.Time     { return a.fetchedAt }
func (a *Artist) SetFetchedAt(t time.Time) { a.fetchedAt = t }

// SetScrobbleCount records a fresh count and marks the artist as fetched now.
func (a *Artist) SetScrobbleCount(count int64) {
	a.scrobbleCount = count
	a.fetchedAt = time.Now().UTC()
}

func (a *Artist) SetImagePath(path string) { a.imagePath = path }

// Stale reports whether the cached count is older than ttl. A non-positive ttl never expires.
func (a *Artist) Stale(ttl time.Duration, now time.Time) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(a.fetchedAt) > ttl
}

// Entity converts the row back into a [universe.Entity].
func (a *Artist) Entity() universe.Entity {
	return universe.Entity{Name: a.name, MetricCount: a.scrobbleCount, ImagePath: a.imagePath}
}

// Validate checks that the artist can be stored.
func (a *Artist) Validate() error {
	if strings.TrimSpace(a.name) == "" {
		return fmt.Errorf("artist name is required")
	}
	if a.scrobbleCount < 0 {
		return fmt.Errorf("%w: %s has %d scrobbles", universe.ErrNegativeCount, a.name, a.scrobbleCount)
	}
	return nil
}
