// Package repositories implements SQLite persistence for the universe service.
//
// Key Implementations:
//   - [ArtistRepository] : cached scrobble counts and image paths keyed by artist name
//   - [SnapshotRepository] : fetched datasets per Spotify user and time range
//   - [PlayCountCacheAdapter] : TTL-aware play count cache used by the universe builder
//
// Sequence numbers provide stable, human-readable ordering independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
