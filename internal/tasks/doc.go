// Package tasks builds the universe dataset from the remote services with real-time progress reporting.
//
// # Core Operation
//
// [UniverseBuilder.Build] runs three phases:
//
//  1. [FetchArtists] : read the user's top artists from Spotify
//  2. [EnrichArtists] : a worker pool looks up each artist's Last.fm play count and
//     downloads its image, rate limited and backed by an optional [PlayCountCache]
//  3. [RankArtists] : drop duplicate names and sort by play count, highest first
//
// A failed play count lookup counts as 0 and a failed image download leaves the
// image path empty; both are reported in [BuildResult.Failures] rather than
// aborting the build. Only a failure to list the top artists is fatal.
//
// # Progress Reporting
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default so progress reporting never blocks the build.
package tasks
