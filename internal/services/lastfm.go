package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/universe/internal/shared"
	"golang.org/x/time/rate"
)

// DefaultLastFMURL is the Last.fm 2.0 API root.
const DefaultLastFMURL = "http://ws.audioscrobbler.com/2.0/"

// lastfmArtistNotFound is the Last.fm error code for an unknown artist.
const lastfmArtistNotFound = 6

type lastfmStats struct {
	Listeners string `json:"listeners"`
	PlayCount string `json:"playcount"`
}

type lastfmArtistInfo struct {
	Artist *struct {
		Name  string      `json:"name"`
		Stats lastfmStats `json:"stats"`
	} `json:"artist"`
	Error   int    `json:"error"`
	Message string `json:"message"`
}

// LastFMService implements [PlayCounter] with artist.getinfo.
//
// Requests share one rate limiter so concurrent lookups stay under the API's limit.
type LastFMService struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewLastFMService creates a client. rps <= 0 disables rate limiting.
func NewLastFMService(apiKey, baseURL string, rps float64) *LastFMService {
	if baseURL == "" {
		baseURL = DefaultLastFMURL
	}

	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}

	return &LastFMService{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(limit, 1),
	}
}

// SetHTTPClient replaces the client used for requests.
func (s *LastFMService) SetHTTPClient(c *http.Client) {
	s.httpClient = c
}

func (s *LastFMService) Name() string {
	return "Last.fm"
}

// Enabled reports whether an API key is configured.
func (s *LastFMService) Enabled() bool {
	return s.apiKey != ""
}

// PlayCount returns the global Last.fm play count for artist.
//
// Without an API key every artist counts 0 and no request is made.
func (s *LastFMService) PlayCount(ctx context.Context, artist string) (int64, error) {
	if !s.Enabled() {
		return 0, nil
	}
	if strings.TrimSpace(artist) == "" {
		return 0, fmt.Errorf("%w: artist name", shared.ErrMissingArgument)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("%w: %v", shared.ErrTimeout, err)
	}

	query := url.Values{}
	query.Set("method", "artist.getinfo")
	query.Set("artist", artist)
	query.Set("api_key", s.apiKey)
	query.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	var info lastfmArtistInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return 0, fmt.Errorf("%w: failed to decode last.fm response (status %d): %v", shared.ErrAPIRequest, resp.StatusCode, err)
	}

	switch {
	case info.Error == lastfmArtistNotFound:
		return 0, fmt.Errorf("%w: %s", shared.ErrArtistNotFound, artist)
	case info.Error != 0:
		return 0, fmt.Errorf("%w: last.fm error %d: %s", shared.ErrAPIRequest, info.Error, info.Message)
	case resp.StatusCode != http.StatusOK:
		return 0, fmt.Errorf("%w: last.fm status %d", shared.ErrAPIRequest, resp.StatusCode)
	case info.Artist == nil || info.Artist.Stats.PlayCount == "":
		return 0, nil
	}

	count, err := strconv.ParseInt(info.Artist.Stats.PlayCount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid playcount %q", shared.ErrAPIRequest, info.Artist.Stats.PlayCount)
	}
	return count, nil
}
