// Package models defines persisted entities and persistence interfaces for the universe service.
//
// The package contains two persistent entities:
//   - [Artist] : an artist with its cached Last.fm scrobble count and local image path
//   - [Snapshot] : a fetched [universe.Dataset] stored so the universe can be shown offline
//
// Both implement the [Model] interface providing ID, timestamps and validation.
// The [Repository] interface defines standard CRUD operations for database access.
package models
