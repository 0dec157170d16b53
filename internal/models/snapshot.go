package models

import (
	"encoding/json"
	"fmt"

	"github.com/desertthunder/universe/internal/universe"
)

// Snapshot is one fetched [universe.Dataset] for a Spotify user and time range.
type Snapshot struct {
	record
	spotifyUser string
	timeRange   string
	dataset     universe.Dataset
}

// NewSnapshot creates an unsaved [Snapshot].
func NewSnapshot(sequence int, spotifyUser, timeRange string, dataset universe.Dataset) *Snapshot {
	return &Snapshot{record: newRecord(sequence), spotifyUser: spotifyUser, timeRange: timeRange, dataset: dataset}
}

func (s *Snapshot) SpotifyUser() string       { return s.spotifyUser }
func (s *Snapshot) TimeRange() string         { return s.timeRange }
func (s *Snapshot) Dataset() universe.Dataset { return s.dataset }
func (s *Snapshot) ArtistCount() int          { return len(s.dataset.Entities) }

// Payload encodes the dataset in the same shape served by /get_data.
func (s *Snapshot) Payload() (string, error) {
	data, err := json.Marshal(s.dataset)
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot payload: %w", err)
	}
	return string(data), nil
}

// SetPayload decodes a stored payload into the snapshot's dataset.
func (s *Snapshot) SetPayload(payload string) error {
	var ds universe.Dataset
	if err := json.Unmarshal([]byte(payload), &ds); err != nil {
		return fmt.Errorf("failed to decode snapshot payload: %w", err)
	}
	s.dataset = ds
	return nil
}

// Validate checks that the snapshot holds a usable dataset.
func (s *Snapshot) Validate() error {
	switch s.timeRange {
	case "short_term", "medium_term", "long_term":
	default:
		return fmt.Errorf("invalid time range %q", s.timeRange)
	}
	if _, err := universe.NewRankedEntitySet(s.dataset.Entities); err != nil {
		return fmt.Errorf("invalid snapshot dataset: %w", err)
	}
	return nil
}
