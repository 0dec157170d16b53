// package services defines the HTTP API clients the universe is built from
//
// Spotify (top artists), Last.fm (scrobble counts) and plain image downloads
package services

import (
	"context"

	"golang.org/x/oauth2"
)

// Service defines the interface for an authenticated music API provider.
type Service interface {
	// Authenticate performs OAuth or API key authentication with the service.
	// Returns an error if authentication fails.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// OAuthService extends [Service] for providers using the OAuth2 authorization code flow.
type OAuthService interface {
	Service

	// GetAuthURL returns the URL the user visits to grant access.
	GetAuthURL(state string) string

	// GetOAuthConfig exposes the client config for callback handlers.
	GetOAuthConfig() *oauth2.Config

	// Exchange trades an authorization code for a token without authenticating the service.
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)

	// OAuthenticate authenticates the service with an existing token.
	OAuthenticate(ctx context.Context, token *oauth2.Token) error
}

// ArtistSource lists a user's top artists.
type ArtistSource interface {
	TopArtists(ctx context.Context, limit int, timeRange string) ([]Artist, error)
}

// PlayCounter looks up how many times an artist has been played.
type PlayCounter interface {
	PlayCount(ctx context.Context, artist string) (int64, error)
}

// ImageFetcher stores an artist image locally and returns its relative path.
type ImageFetcher interface {
	Download(ctx context.Context, name, imageURL string) (string, error)
}

// Artist is a provider-neutral top artist.
type Artist struct {
	ID         string
	Name       string
	ImageURL   string // Largest image, empty when the provider has none
	Genres     []string
	Popularity int
}

// TimeRanges lists the accepted affinity windows, shortest first.
var TimeRanges = []string{"short_term", "medium_term", "long_term"}
