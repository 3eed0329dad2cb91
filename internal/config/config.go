package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Kaiz3n-ios/youtube-shorts-platform/internal/scoring"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Channels []string       `yaml:"channels"`
	YouTube  YouTube        `yaml:"youtube"`
	Scoring  scoring.Policy `yaml:"scoring"`
	Feed     Feed           `yaml:"feed"`
	Output   Output         `yaml:"output"`
	Server   Server         `yaml:"server"`
	Cache    Cache          `yaml:"cache"`
	Schedule Schedule       `yaml:"schedule"`
	Logging  Logging        `yaml:"logging"`
}

type YouTube struct {
	APIKeyEnv      string  `yaml:"api_key_env"`
	APIEndpoint    string  `yaml:"api_endpoint"`
	FeedURL        string  `yaml:"feed_url"`
	ChannelURL     string  `yaml:"channel_url"`
	RequestRate    float64 `yaml:"request_rate"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

type Feed struct {
	PageSize int `yaml:"page_size"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Cache struct {
	Enabled    bool   `yaml:"enabled"`
	Addr       string `yaml:"addr"`
	DB         int    `yaml:"db"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

type Schedule struct {
	Refresh string `yaml:"refresh"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for shortsradar.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "shortsradar")
}

// DataDir returns the XDG data directory for shortsradar.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "shortsradar")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/shortsradar/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'shortsradar init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		YouTube: YouTube{
			APIKeyEnv:      "YOUTUBE_API_KEY",
			FeedURL:        "https://www.youtube.com/feeds/videos.xml",
			ChannelURL:     "https://www.youtube.com/channel/",
			RequestRate:    5,
			TimeoutSeconds: 15,
		},
		Scoring: scoring.DefaultPolicy(),
		Feed:    Feed{PageSize: 50},
		Server:  Server{Port: 8000},
		Cache: Cache{
			Addr:       "localhost:6379",
			TTLSeconds: 300,
		},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Scoring = cfg.Scoring.WithDefaults()
	if err := cfg.Scoring.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scoring policy: %w", err)
	}
	cfg.Channels = dedupeChannels(cfg.Channels)

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// APIKey returns the YouTube Data API key from the configured environment
// variable, or "" when unset.
func (c *Config) APIKey() string {
	if c.YouTube.APIKeyEnv == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(c.YouTube.APIKeyEnv))
}

// FetchTimeout is the per-request timeout of the collector.
func (c *Config) FetchTimeout() time.Duration {
	if c.YouTube.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.YouTube.TimeoutSeconds) * time.Second
}

// CacheTTL is how long a served feed page stays cached.
func (c *Config) CacheTTL() time.Duration {
	if c.Cache.TTLSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

func dedupeChannels(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
