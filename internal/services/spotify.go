// Spotify API implementation of [OAuthService] and [ArtistSource]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"

	"github.com/desertthunder/universe/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// DefaultRedirectURI matches the local callback server started by "auth spotify".
	DefaultRedirectURI = "http://127.0.0.1:8888/callback"
	maxTopArtists      = 50
)

type followers struct {
	Total int `json:"total"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Country     string         `json:"country"`
	Product     string         `json:"product"` // premium, free, etc.
	Followers   followers      `json:"followers"`
	Images      []SpotifyImage `json:"images"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Genres     []string       `json:"genres"`
	Images     []SpotifyImage `json:"images"`
	Popularity int            `json:"popularity"`
	URI        string         `json:"uri"`
}

// SpotifyTopArtists is a page of /me/top/artists.
type SpotifyTopArtists struct {
	Items  []SpotifyArtist `json:"items"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
	Next   *string         `json:"next"`
}

// largestImage returns the URL of the widest image; Spotify lists the largest first but does not promise it.
func (a SpotifyArtist) largestImage() string {
	if len(a.Images) == 0 {
		return ""
	}
	best := a.Images[0]
	for _, img := range a.Images[1:] {
		if img.Width > best.Width {
			best = img
		}
	}
	return best.URL
}

// SpotifyService implements [OAuthService] and [ArtistSource] for the Spotify Web API.
// Uses [oauth2] for authentication and automatic token refresh.
type SpotifyService struct {
	config      *oauth2.Config
	tokenSource oauth2.TokenSource
	httpClient  *http.Client
	baseURL     string
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID := credentials["client_id"]
	if clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret := credentials["client_secret"]
	if clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI := credentials["redirect_uri"]
	if redirectURI == "" {
		redirectURI = DefaultRedirectURI
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       []string{"user-top-read", "user-read-private"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{config: config, httpClient: http.DefaultClient, baseURL: spotifyBaseURL}, nil
}

// SetBaseURL points API requests at another host. Used by tests.
func (s *SpotifyService) SetBaseURL(u string) {
	s.baseURL = u
}

// Authenticate accepts an "access_token" (optionally with "refresh_token") or an "auth_code" to exchange.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken := credentials["access_token"]; accessToken != "" {
		return s.OAuthenticate(ctx, &oauth2.Token{
			AccessToken:  accessToken,
			RefreshToken: credentials["refresh_token"],
			TokenType:    "Bearer",
		})
	}

	if authCode := credentials["auth_code"]; authCode != "" {
		token, err := s.Exchange(ctx, authCode)
		if err != nil {
			return err
		}
		return s.OAuthenticate(ctx, token)
	}

	return fmt.Errorf("%w: missing access_token or auth_code", shared.ErrMissingCredentials)
}

// OAuthenticate authenticates with an existing token. Expired tokens with a refresh token are refreshed on first use.
func (s *SpotifyService) OAuthenticate(ctx context.Context, token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: empty token", shared.ErrInvalidCredentials)
	}

	s.tokenSource = s.config.TokenSource(ctx, token)
	s.httpClient = oauth2.NewClient(ctx, s.tokenSource)
	return nil
}

// Exchange trades an authorization code for a token.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: authorization code", shared.ErrMissingArgument)
	}

	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
	}
	return token, nil
}

// Token returns the current token, refreshing it when needed.
func (s *SpotifyService) Token() (*oauth2.Token, error) {
	if s.tokenSource == nil {
		return nil, shared.ErrNotAuthenticated
	}

	token, err := s.tokenSource.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrTokenExpired, err)
	}
	return token, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// GetOAuthConfig returns the OAuth2 client configuration.
func (s *SpotifyService) GetOAuthConfig() *oauth2.Config {
	return s.config
}

// doRequest performs an authenticated GET request to the Spotify API and decodes the JSON body into result.
func (s *SpotifyService) doRequest(ctx context.Context, endpoint string, result any) error {
	if s.tokenSource == nil {
		return shared.ErrNotAuthenticated
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return shared.ErrTokenExpired
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("%w: spotify status %d", shared.ErrServiceUnavailable, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: spotify status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, "/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// TopArtists returns up to limit of the user's top artists for timeRange, in Spotify's affinity order.
func (s *SpotifyService) TopArtists(ctx context.Context, limit int, timeRange string) ([]Artist, error) {
	if limit <= 0 || limit > maxTopArtists {
		limit = maxTopArtists
	}
	if timeRange == "" {
		timeRange = "long_term"
	}
	if !slices.Contains(TimeRanges, timeRange) {
		return nil, fmt.Errorf("%w: time range %q", shared.ErrInvalidArgument, timeRange)
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("time_range", timeRange)

	var page SpotifyTopArtists
	if err := s.doRequest(ctx, "/me/top/artists?"+query.Encode(), &page); err != nil {
		return nil, err
	}

	artists := make([]Artist, 0, len(page.Items))
	for _, a := range page.Items {
		artists = append(artists, Artist{
			ID:         a.ID,
			Name:       a.Name,
			ImageURL:   a.largestImage(),
			Genres:     a.Genres,
			Popularity: a.Popularity,
		})
	}
	return artists, nil
}
