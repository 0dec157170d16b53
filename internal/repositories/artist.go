package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/universe/internal/models"
	"github.com/desertthunder/universe/internal/shared"
)

const artistColumns = "id, sequence, name, scrobble_count, image_path, fetched_at, created_at, updated_at"

// ArtistRepository implements [models.Repository] for [models.Artist] persistence.
type ArtistRepository struct {
	db *sql.DB
}

// NewArtistRepository creates a new [ArtistRepository] with the given database connection
func NewArtistRepository(db *sql.DB) *ArtistRepository {
	return &ArtistRepository{db: db}
}

// Create inserts a new artist with a generated ID and sequence
func (r *ArtistRepository) Create(artist *models.Artist) error {
	if err := artist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "artists")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	artist.SetID(shared.GenerateID())
	artist.SetSequence(sequence)

	query := `INSERT INTO artists (` + artistColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.Exec(query,
		artist.ID(), sequence, artist.Name(), artist.ScrobbleCount(), artist.ImagePath(),
		artist.FetchedAt(), artist.CreatedAt(), artist.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert artist: %w", err)
	}

	return nil
}

// Get retrieves an artist by ID
func (r *ArtistRepository) Get(id string) (*models.Artist, error) {
	row := r.db.QueryRow(`SELECT `+artistColumns+` FROM artists WHERE id = ?`, id)
	artist, err := scanArtist(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrArtistNotFound, id)
	}
	return artist, err
}

// GetByName retrieves an artist by its exact name
func (r *ArtistRepository) GetByName(name string) (*models.Artist, error) {
	row := r.db.QueryRow(`SELECT `+artistColumns+` FROM artists WHERE name = ?`, name)
	artist, err := scanArtist(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrArtistNotFound, name)
	}
	return artist, err
}

// Update writes the count, image path and fetch time of an existing artist
func (r *ArtistRepository) Update(artist *models.Artist) error {
	if err := artist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()
	artist.SetUpdatedAt(now)

	res, err := r.db.Exec(`
		UPDATE artists
		SET scrobble_count = ?, image_path = ?, fetched_at = ?, updated_at = ?
		WHERE id = ?
	`, artist.ScrobbleCount(), artist.ImagePath(), artist.FetchedAt(), now, artist.ID())
	if err != nil {
		return fmt.Errorf("failed to update artist: %w", err)
	}

	return affectedOne(res, fmt.Errorf("%w: %s", shared.ErrArtistNotFound, artist.ID()))
}

// Upsert creates the artist or refreshes the row with the same name.
//
// On return artist carries the stored ID and sequence.
func (r *ArtistRepository) Upsert(artist *models.Artist) error {
	existing, err := r.GetByName(artist.Name())
	switch {
	case errors.Is(err, shared.ErrArtistNotFound):
		return r.Create(artist)
	case err != nil:
		return err
	}

	artist.SetID(existing.ID())
	artist.SetSequence(existing.Sequence())
	artist.SetCreatedAt(existing.CreatedAt())
	return r.Update(artist)
}

// Delete removes an artist by ID
func (r *ArtistRepository) Delete(id string) error {
	res, err := r.db.Exec(`DELETE FROM artists WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete artist: %w", err)
	}
	return affectedOne(res, fmt.Errorf("%w: %s", shared.ErrArtistNotFound, id))
}

// List retrieves artists ordered by scrobble count, highest first.
//
// Supported criteria: "name" (string), "min_count" (int64), "fetched_after" ([time.Time]), "limit" (int).
func (r *ArtistRepository) List(criteria map[string]any) ([]*models.Artist, error) {
	query := `SELECT ` + artistColumns + ` FROM artists WHERE 1 = 1`
	args := []any{}

	if name, ok := criteria["name"].(string); ok && name != "" {
		query += " AND name = ?"
		args = append(args, name)
	}
	if minCount, ok := criteria["min_count"].(int64); ok {
		query += " AND scrobble_count >= ?"
		args = append(args, minCount)
	}
	if after, ok := criteria["fetched_after"].(time.Time); ok {
		query += " AND fetched_at > ?"
		args = append(args, after)
	}

	query += " ORDER BY scrobble_count DESC, sequence ASC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query artists: %w", err)
	}
	defer rows.Close()

	var artists []*models.Artist
	for rows.Next() {
		artist, err := scanArtist(rows)
		if err != nil {
			return nil, err
		}
		artists = append(artists, artist)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return artists, nil
}

func scanArtist(row rowScanner) (*models.Artist, error) {
	var (
		id        string
		sequence  int
		name      string
		count     int64
		imagePath string
		fetchedAt time.Time
		createdAt time.Time
		updatedAt time.Time
	)

	if err := row.Scan(&id, &sequence, &name, &count, &imagePath, &fetchedAt, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan artist: %w", err)
	}

	artist := models.NewArtist(sequence, name, count, imagePath)
	artist.SetID(id)
	artist.SetFetchedAt(fetchedAt)
	artist.SetCreatedAt(createdAt)
	artist.SetUpdatedAt(updatedAt)
	return artist, nil
}
