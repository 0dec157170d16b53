package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/universe/internal/models"
	"github.com/desertthunder/universe/internal/shared"
	"github.com/desertthunder/universe/internal/universe"
)

const snapshotColumns = "id, sequence, spotify_user, time_range, payload, created_at"

// SnapshotRepository implements [models.Repository] for [models.Snapshot] persistence.
//
// Snapshots are immutable once written, so Update only replaces the payload.
type SnapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository creates a new [SnapshotRepository] with the given database connection
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Create stores a snapshot with a generated ID and sequence
func (r *SnapshotRepository) Create(snapshot *models.Snapshot) error {
	if err := snapshot.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	payload, err := snapshot.Payload()
	if err != nil {
		return err
	}

	sequence, err := NextSequence(r.db, "snapshots")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	snapshot.SetID(shared.GenerateID())
	snapshot.SetSequence(sequence)

	_, err = r.db.Exec(`
		INSERT INTO snapshots (id, sequence, spotify_user, time_range, artist_count, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, snapshot.ID(), sequence, snapshot.SpotifyUser(), snapshot.TimeRange(), snapshot.ArtistCount(), payload, snapshot.CreatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	return nil
}

// Get retrieves a snapshot by ID
func (r *SnapshotRepository) Get(id string) (*models.Snapshot, error) {
	row := r.db.QueryRow(`SELECT `+snapshotColumns+` FROM snapshots WHERE id = ?`, id)
	snapshot, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrSnapshotNotFound, id)
	}
	return snapshot, err
}

// Latest returns the most recent snapshot, restricted to spotifyUser when it is not empty.
func (r *SnapshotRepository) Latest(spotifyUser string) (*models.Snapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM snapshots`
	args := []any{}
	if spotifyUser != "" {
		query += " WHERE spotify_user = ?"
		args = append(args, spotifyUser)
	}
	query += " ORDER BY sequence DESC LIMIT 1"

	snapshot, err := scanSnapshot(r.db.QueryRow(query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no snapshots stored", shared.ErrSnapshotNotFound)
	}
	return snapshot, err
}

// Update replaces the stored dataset of an existing snapshot
func (r *SnapshotRepository) Update(snapshot *models.Snapshot) error {
	if err := snapshot.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	payload, err := snapshot.Payload()
	if err != nil {
		return err
	}

	res, err := r.db.Exec(
		`UPDATE snapshots SET payload = ?, artist_count = ? WHERE id = ?`,
		payload, snapshot.ArtistCount(), snapshot.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update snapshot: %w", err)
	}

	snapshot.SetUpdatedAt(time.Now().UTC())
	return affectedOne(res, fmt.Errorf("%w: %s", shared.ErrSnapshotNotFound, snapshot.ID()))
}

// Delete removes a snapshot by ID
func (r *SnapshotRepository) Delete(id string) error {
	res, err := r.db.Exec(`DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return affectedOne(res, fmt.Errorf("%w: %s", shared.ErrSnapshotNotFound, id))
}

// List retrieves snapshots newest first.
//
// Supported criteria: "spotify_user" (string), "time_range" (string), "limit" (int).
func (r *SnapshotRepository) List(criteria map[string]any) ([]*models.Snapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM snapshots WHERE 1 = 1`
	args := []any{}

	if user, ok := criteria["spotify_user"].(string); ok && user != "" {
		query += " AND spotify_user = ?"
		args = append(args, user)
	}
	if timeRange, ok := criteria["time_range"].(string); ok && timeRange != "" {
		query += " AND time_range = ?"
		args = append(args, timeRange)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*models.Snapshot
	for rows.Next() {
		snapshot, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return snapshots, nil
}

func scanSnapshot(row rowScanner) (*models.Snapshot, error) {
	var (
		id, user, timeRange, payload string
		sequence                     int
		createdAt                    time.Time
	)

	if err := row.Scan(&id, &sequence, &user, &timeRange, &payload, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}

	snapshot := models.NewSnapshot(sequence, user, timeRange, universe.Dataset{})
	if err := snapshot.SetPayload(payload); err != nil {
		return nil, err
	}
	snapshot.SetID(id)
	snapshot.SetCreatedAt(createdAt)
	snapshot.SetUpdatedAt(createdAt)
	return snapshot, nil
}
