package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Bandcamp   BandcampConfig   `toml:"bandcamp"`
	SoundCloud SoundCloudConfig `toml:"soundcloud"`
	Spotify    SpotifyConfig    `toml:"spotify"`
	Server     ServerConfig     `toml:"server"`
}

// BandcampConfig contains the Bandcamp session and client settings.
type BandcampConfig struct {
	Cookie      string   `toml:"cookie"`
	BaseURL     string   `toml:"base_url"`
	UserAgent   string   `toml:"user_agent"`
	Timeout     Duration `toml:"timeout"`
	PageSize    int      `toml:"page_size"`
	Concurrency int      `toml:"concurrency"`
	RateLimit   float64  `toml:"rate_limit"`
}

// SoundCloudConfig contains SoundCloud API credentials.
type SoundCloudConfig struct {
	ClientID      string `toml:"client_id"`
	ClientSecret  string `toml:"client_secret"`
	RedirectURI   string `toml:"redirect_uri"`
	CodeChallenge string `toml:"code_challenge"`
	CodeVerifier  string `toml:"code_verifier"`
	State         string `toml:"state"`
	AccessToken   string `toml:"access_token"`
	UserURN       string `toml:"user_urn"`
	AuthURL       string `toml:"auth_url"`
	TokenURL      string `toml:"token_url"`
	BaseURL       string `toml:"base_url"`
}

// SpotifyConfig contains the Spotify app credentials used to read public playlists.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	AccessToken  string `toml:"access_token"`
	TokenURL     string `toml:"token_url"`
	BaseURL      string `toml:"base_url"`
}

// Map returns the Spotify credentials in the form accepted by the Spotify service constructor.
func (c SpotifyConfig) Map() map[string]string {
	return map[string]string{
		"client_id":     c.ClientID,
		"client_secret": c.ClientSecret,
		"token_url":     c.TokenURL,
		"base_url":      c.BaseURL,
	}
}

// ServerConfig contains the OAuth callback server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Duration is a [time.Duration] that decodes from TOML strings such as "60s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFlag, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Map returns the SoundCloud credentials in the form accepted by the SoundCloud service constructor.
func (c SoundCloudConfig) Map() map[string]string {
	return map[string]string{
		"client_id":     c.ClientID,
		"client_secret": c.ClientSecret,
		"redirect_uri":  c.RedirectURI,
		"auth_url":      c.AuthURL,
		"token_url":     c.TokenURL,
		"base_url":      c.BaseURL,
	}
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
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

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadDotEnv loads variables from the given .env files into the process environment.
//
// Missing files are not an error. Variables already set in the environment win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}

	if len(existing) == 0 {
		return nil
	}

	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed loading env file: %w", err)
	}
	return nil
}

// ApplyEnv overrides config values with the matching environment variables when they are set.
func ApplyEnv(config *Config) {
	for name, target := range map[string]*string{
		"BANDCAMP_COOKIE":           &config.Bandcamp.Cookie,
		"SOUNDCLOUD_CLIENT_ID":      &config.SoundCloud.ClientID,
		"SOUNDCLOUD_CLIENT_SECRET":  &config.SoundCloud.ClientSecret,
		"SOUNDCLOUD_CODE_CHALLENGE": &config.SoundCloud.CodeChallenge,
		"SOUNDCLOUD_CODE_VERIFIER":  &config.SoundCloud.CodeVerifier,
		"SOUNDCLOUD_STATE":          &config.SoundCloud.State,
		"SOUNDCLOUD_ACCESS_TOKEN":   &config.SoundCloud.AccessToken,
		"SPOTIFY_CLIENT_ID":         &config.Spotify.ClientID,
		"SPOTIFY_CLIENT_SECRET":     &config.Spotify.ClientSecret,
		"SPOTIFY_ACCESS_TOKEN":      &config.Spotify.AccessToken,
	} {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			*target = v
		}
	}
}
