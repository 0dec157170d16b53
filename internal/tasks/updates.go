package tasks

import (
	"fmt"

	"github.com/desertthunder/universe/internal/universe"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchArtists Phase = iota
	EnrichArtists
	RankArtists
)

func (p Phase) String() string {
	switch p {
	case FetchArtists:
		return "fetch_artists"
	case EnrichArtists:
		return "enrich_artists"
	case RankArtists:
		return "rank_artists"
	default:
		return ""
	}
}

func fetchingArtistsUpdate(limit int, timeRange string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchArtists,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Fetching top %d artists (%s) from Spotify...", limit, timeRange),
	}
}

func foundArtistsUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchArtists,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d artists", count),
	}
}

func enrichedUpdate(step, total int, res enrichResult) ProgressUpdate {
	mark, suffix := "✓", ""
	switch {
	case res.cached:
		suffix = " (cached)"
	case len(res.failures) > 0:
		mark = "✗"
		suffix = fmt.Sprintf(" (%v)", res.failures[0].Err)
	}

	return ProgressUpdate{
		Phase:   EnrichArtists,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s%s", step, total, mark, universe.Label(res.entity), suffix),
		Data:    res.entity,
	}
}

func rankedUpdate(ds universe.Dataset) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RankArtists,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Ranked %d artists, %s total scrobbles", len(ds.Entities), universe.FormatCount(ds.Total())),
		Data:    ds,
	}
}
