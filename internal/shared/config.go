package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/oauth2"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Universe    UniverseConfig    `toml:"universe"`
	Images      ImagesConfig      `toml:"images"`
	Fetch       FetchConfig       `toml:"fetch"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
	LastFM  LastFMConfig  `toml:"lastfm"`
}

// SpotifyConfig contains Spotify OAuth client settings and the last issued token.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	AccessToken  string `toml:"access_token"`
	RefreshToken string `toml:"refresh_token"`
	TokenExpiry  string `toml:"token_expiry"`
}

// Map returns the credentials in the form expected by services.NewSpotifyService.
func (c SpotifyConfig) Map() map[string]string {
	return map[string]string{
		"client_id":     c.ClientID,
		"client_secret": c.ClientSecret,
		"redirect_uri":  c.RedirectURI,
	}
}

// Update stores a freshly issued token.
func (c *SpotifyConfig) Update(token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: empty token", ErrInvalidCredentials)
	}
	c.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		c.RefreshToken = token.RefreshToken
	}
	c.TokenExpiry = ""
	if !token.Expiry.IsZero() {
		c.TokenExpiry = token.Expiry.Format(time.RFC3339)
	}
	return nil
}

// Token rebuilds the stored token, or nil when none has been saved.
func (c SpotifyConfig) Token() *oauth2.Token {
	if c.AccessToken == "" {
		return nil
	}
	token := &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    "Bearer",
	}
	if expiry, err := time.Parse(time.RFC3339, c.TokenExpiry); err == nil {
		token.Expiry = expiry
	}
	return token
}

// Clear forgets the stored token.
func (c *SpotifyConfig) Clear() {
	c.AccessToken, c.RefreshToken, c.TokenExpiry = "", "", ""
}

// LastFMConfig contains the Last.fm API key used for scrobble counts.
type LastFMConfig struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// UniverseConfig holds the planet sizing and layout constants.
type UniverseConfig struct {
	SelectedDiameter   float64 `toml:"selected_diameter"`
	ComparisonDiameter float64 `toml:"comparison_diameter"`
	Gap                float64 `toml:"gap"`
	Margin             float64 `toml:"margin"`
	StartX             float64 `toml:"start_x"`
	ViewportWidth      float64 `toml:"viewport_width"`
	ViewportHeight     float64 `toml:"viewport_height"`
	TopArtists         int     `toml:"top_artists"`
	TimeRange          string  `toml:"time_range"`
}

// ImagesConfig controls where artist images are downloaded to.
type ImagesConfig struct {
	Dir            string `toml:"dir"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Timeout returns the per-image download timeout.
func (c ImagesConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// FetchConfig tunes the concurrent Last.fm lookups.
type FetchConfig struct {
	Workers       int     `toml:"workers"`
	RateLimit     float64 `toml:"rate_limit"`
	CacheTTLHours int     `toml:"cache_ttl_hours"`
}

// CacheTTL returns how long a cached scrobble count stays fresh.
func (c FetchConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLHours) * time.Hour
}

// Validate checks values the layout engine cannot work with.
func (c *Config) Validate() error {
	u := c.Universe
	switch {
	case u.SelectedDiameter <= 0:
		return fmt.Errorf("%w: universe.selected_diameter must be positive", ErrInvalidConfig)
	case u.ComparisonDiameter <= 0:
		return fmt.Errorf("%w: universe.comparison_diameter must be positive", ErrInvalidConfig)
	case u.Gap < 0 || u.Margin < 0:
		return fmt.Errorf("%w: universe.gap and universe.margin must not be negative", ErrInvalidConfig)
	case u.TopArtists < 1 || u.TopArtists > 50:
		return fmt.Errorf("%w: universe.top_artists must be between 1 and 50", ErrInvalidConfig)
	}

	switch u.TimeRange {
	case "short_term", "medium_term", "long_term":
	default:
		return fmt.Errorf("%w: universe.time_range %q", ErrInvalidConfig, u.TimeRange)
	}

	return nil
}

// ApplyEnv overrides secrets and the port from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Credentials.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Credentials.Spotify.ClientSecret = v
	}
	if v := os.Getenv("SPOTIFY_REDIRECT_URI"); v != "" {
		c.Credentials.Spotify.RedirectURI = v
	}
	if v := os.Getenv("LAST_FM_API_KEY"); v != "" {
		c.Credentials.LastFM.APIKey = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Missing keys fall back to the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig writes config to path, replacing any existing file.
//
// The file holds OAuth tokens so it is written owner-only.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
