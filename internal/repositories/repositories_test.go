package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/universe/internal/models"
	"github.com/desertthunder/universe/internal/shared"
	"github.com/desertthunder/universe/internal/universe"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)

	for want := 1; want <= 3; want++ {
		got, err := NextSequence(db, "artists")
		if err != nil {
			t.Fatalf("failed to get sequence: %v", err)
		}
		if got != want {
			t.Errorf("expected sequence %d, got %d", want, got)
		}
	}

	if _, err := NextSequence(db, "missing"); err == nil {
		t.Error("expected error for table without sequence")
	}
}

func TestArtistRepository(t *testing.T) {
	t.Run("Create and Get", func(t *testing.T) {
		repo := NewArtistRepository(setupTestDB(t))
		artist := models.NewArtist(0, "Radiohead", 120000, "static/images/Radiohead.jpg")

		if err := repo.Create(artist); err != nil {
			t.Fatalf("failed to create artist: %v", err)
		}
		if artist.ID() == "" {
			t.Error("artist ID should be set after creation")
		}
		if artist.Sequence() != 1 {
			t.Errorf("expected sequence 1, got %d", artist.Sequence())
		}

		got, err := repo.Get(artist.ID())
		if err != nil {
			t.Fatalf("failed to get artist: %v", err)
		}
		if got.Name() != "Radiohead" || got.ScrobbleCount() != 120000 {
			t.Errorf("unexpected artist %s/%d", got.Name(), got.ScrobbleCount())
		}
		if got.ImagePath() != "static/images/Radiohead.jpg" {
			t.Errorf("expected image path, got %q", got.ImagePath())
		}
	})

	t.Run("Create validation", func(t *testing.T) {
		repo := NewArtistRepository(setupTestDB(t))
		if err := repo.Create(models.NewArtist(0, "", 1, "")); err == nil {
			t.Error("expected validation error for empty name")
		}
	})

	t.Run("Create duplicate name", func(t *testing.T) {
		repo := NewArtistRepository(setupTestDB(t))
		if err := repo.Create(models.NewArtist(0, "Low", 1, "")); err != nil {
			t.Fatalf("failed to create artist: %v", err)
		}
		if err := repo.Create(models.NewArtist(0, "Low", 2, "")); err == nil {
			t.Error("expected error for duplicate name")
		}
	})

	t.Run("Get not found", func(t *testing.T) {
		repo := NewArtistRepository(setupTestDB(t))
		if _, err := repo.Get("nope"); !errors.Is(err, shared.ErrArtistNotFound) {
			t.Errorf("expected ErrArtistNotFound, got %v", err)
		}
		if _, err := repo.GetByName("nope"); !errors.Is(err, shared.ErrArtistNotFound) {
			t.Errorf("expected ErrArtistNotFound, got %v", err)
		}
	})

	t.Run("Upsert", func(t *testing.T) {
		repo := NewArtistRepository(setupTestDB(t))
		first := models.NewArtist(0, "Slowdive", 100, "")
		if err := repo.Upsert(first); err != nil {
			t.Fatalf("failed to insert: %v", err)
		}

		second := models.NewArtist(0, "Slowdive", 250, "static/images/Slowdive.jpg")
		if err := repo.Upsert(second); err != nil {
			t.Fatalf("failed to update: %v", err)
		}
		if second.ID() != first.ID() {
			t.Errorf("expected upsert to reuse ID %s, got %s", first.ID(), second.ID())
		}

		got, err := repo.GetByName("Slowdive")
		if err != nil {
			t.Fatalf("failed to get artist: %v", err)
		}
		if got.ScrobbleCount() != 250 || got.ImagePath() != "static/images/Slowdive.jpg" {
			t.Errorf("expected refreshed row, got %d %q", got.ScrobbleCount(), got.ImagePath())
		}

		all, err := repo.List(nil)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(all) != 1 {
			t.Errorf("expected 1 artist, got %d", len(all))
		}
	})

	t.Run("Update not found", func(t *testing.T) {
		repo := NewArtistRepository(setupTestDB(t))
		artist := models.NewArtist(0, "Ghost", 1, "")
		artist.SetID("ghost")
		if err := repo.Update(artist); !errors.Is(err, shared.ErrArtistNotFound) {
			t.Errorf("expected ErrArtistNotFound, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewArtistRepository(setupTestDB(t))
		artist := models.NewArtist(0, "Gone", 1, "")
		if err := repo.Create(artist); err != nil {
			t.Fatalf("failed to create artist: %v", err)
		}
		if err := repo.Delete(artist.ID()); err != nil {
			t.Fatalf("failed to delete: %v", err)
		}
		if err := repo.Delete(artist.ID()); !errors.Is(err, shared.ErrArtistNotFound) {
			t.Errorf("expected ErrArtistNotFound on second delete, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := NewArtistRepository(setupTestDB(t))
		for _, a := range []*models.Artist{
			models.NewArtist(0, "C", 250, ""),
			models.NewArtist(0, "A", 1000, ""),
			models.NewArtist(0, "B", 500, ""),
		} {
			if err := repo.Create(a); err != nil {
				t.Fatalf("failed to create %s: %v", a.Name(), err)
			}
		}

		all, err := repo.List(map[string]any{})
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(all) != 3 || all[0].Name() != "A" || all[2].Name() != "C" {
			t.Errorf("expected artists ordered by count, got %d", len(all))
		}

		filtered, err := repo.List(map[string]any{"min_count": int64(500), "limit": 1})
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(filtered) != 1 || filtered[0].Name() != "A" {
			t.Errorf("expected only A, got %d results", len(filtered))
		}

		byName, err := repo.List(map[string]any{"name": "B"})
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(byName) != 1 || byName[0].ScrobbleCount() != 500 {
			t.Errorf("expected B with 500, got %d results", len(byName))
		}
	})
}

func TestSnapshotRepository(t *testing.T) {
	dataset := universe.Dataset{Entities: []universe.Entity{
		{Name: "A", MetricCount: 1000, ImagePath: "static/images/A.jpg"},
		{Name: "B", MetricCount: 500},
	}}

	t.Run("Create and Get", func(t *testing.T) {
		repo := NewSnapshotRepository(setupTestDB(t))
		snapshot := models.NewSnapshot(0, "listener", "long_term", dataset)

		if err := repo.Create(snapshot); err != nil {
			t.Fatalf("failed to create snapshot: %v", err)
		}

		got, err := repo.Get(snapshot.ID())
		if err != nil {
			t.Fatalf("failed to get snapshot: %v", err)
		}
		if got.SpotifyUser() != "listener" || got.TimeRange() != "long_term" {
			t.Errorf("unexpected snapshot metadata %s/%s", got.SpotifyUser(), got.TimeRange())
		}
		if got.ArtistCount() != 2 || got.Dataset().Entities[0].ImagePath != "static/images/A.jpg" {
			t.Errorf("unexpected dataset %+v", got.Dataset())
		}
	})

	t.Run("Create invalid", func(t *testing.T) {
		repo := NewSnapshotRepository(setupTestDB(t))
		bad := models.NewSnapshot(0, "listener", "long_term", universe.Dataset{Entities: []universe.Entity{{Name: "X", MetricCount: -1}}})
		if err := repo.Create(bad); !errors.Is(err, universe.ErrNegativeCount) {
			t.Errorf("expected ErrNegativeCount, got %v", err)
		}
	})

	t.Run("Latest", func(t *testing.T) {
		repo := NewSnapshotRepository(setupTestDB(t))
		if _, err := repo.Latest(""); !errors.Is(err, shared.ErrSnapshotNotFound) {
			t.Errorf("expected ErrSnapshotNotFound, got %v", err)
		}

		older := models.NewSnapshot(0, "one", "long_term", dataset)
		newer := models.NewSnapshot(0, "two", "short_term", universe.Dataset{Entities: dataset.Entities[:1]})
		for _, s := range []*models.Snapshot{older, newer} {
			if err := repo.Create(s); err != nil {
				t.Fatalf("failed to create snapshot: %v", err)
			}
		}

		latest, err := repo.Latest("")
		if err != nil {
			t.Fatalf("failed to get latest: %v", err)
		}
		if latest.ID() != newer.ID() {
			t.Errorf("expected newest snapshot %s, got %s", newer.ID(), latest.ID())
		}

		forUser, err := repo.Latest("one")
		if err != nil {
			t.Fatalf("failed to get latest for user: %v", err)
		}
		if forUser.ID() != older.ID() {
			t.Errorf("expected snapshot %s, got %s", older.ID(), forUser.ID())
		}
	})

	t.Run("List Update Delete", func(t *testing.T) {
		repo := NewSnapshotRepository(setupTestDB(t))
		for _, tr := range []string{"long_term", "short_term", "long_term"} {
			if err := repo.Create(models.NewSnapshot(0, "listener", tr, dataset)); err != nil {
				t.Fatalf("failed to create snapshot: %v", err)
			}
		}

		longTerm, err := repo.List(map[string]any{"time_range": "long_term"})
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(longTerm) != 2 {
			t.Fatalf("expected 2 long_term snapshots, got %d", len(longTerm))
		}
		if longTerm[0].Sequence() < longTerm[1].Sequence() {
			t.Error("expected newest first")
		}

		target := longTerm[0]
		updated := models.NewSnapshot(target.Sequence(), "listener", "long_term", universe.Dataset{Entities: dataset.Entities[1:]})
		updated.SetID(target.ID())
		if err := repo.Update(updated); err != nil {
			t.Fatalf("failed to update: %v", err)
		}

		got, err := repo.Get(target.ID())
		if err != nil {
			t.Fatalf("failed to get: %v", err)
		}
		if got.ArtistCount() != 1 {
			t.Errorf("expected 1 artist after update, got %d", got.ArtistCount())
		}

		if err := repo.Delete(target.ID()); err != nil {
			t.Fatalf("failed to delete: %v", err)
		}
		if _, err := repo.Get(target.ID()); !errors.Is(err, shared.ErrSnapshotNotFound) {
			t.Errorf("expected ErrSnapshotNotFound, got %v", err)
		}

		limited, err := repo.List(map[string]any{"limit": 1})
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(limited) != 1 {
			t.Errorf("expected 1 snapshot, got %d", len(limited))
		}
	})
}

func TestPlayCountCacheAdapter(t *testing.T) {
	repo := NewArtistRepository(setupTestDB(t))
	cache := NewPlayCountCacheAdapter(repo, time.Hour)

	clock := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return clock }

	if _, ok := cache.Lookup("Air"); ok {
		t.Fatal("expected miss for unknown artist")
	}

	entity := universe.Entity{Name: "Air", MetricCount: 777, ImagePath: "static/images/Air.jpg"}
	if err := cache.Store(entity); err != nil {
		t.Fatalf("failed to store: %v", err)
	}

	got, ok := cache.Lookup("Air")
	if !ok {
		t.Fatal("expected hit after store")
	}
	if got != entity {
		t.Errorf("expected %+v, got %+v", entity, got)
	}

	clock = clock.Add(2 * time.Hour)
	if _, ok := cache.Lookup("Air"); ok {
		t.Error("expected miss once the row is older than the ttl")
	}

	entity.MetricCount = 800
	if err := cache.Store(entity); err != nil {
		t.Fatalf("failed to refresh: %v", err)
	}
	if got, ok := cache.Lookup("Air"); !ok || got.MetricCount != 800 {
		t.Errorf("expected refreshed count 800, got %+v (hit=%v)", got, ok)
	}
}
