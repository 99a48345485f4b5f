package adapter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/mmcdole/casedesk/internal/listing"
	"github.com/spf13/viper"
)

// envPrefix is the prefix of environment overrides, e.g. CASEDESK_SERVER_URL
const envPrefix = "CASEDESK"

// Config holds all application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Paging  PagingConfig  `mapstructure:"paging"`
	UI      UIConfig      `mapstructure:"ui"`
	Logging LoggingConfig `mapstructure:"logging"`
	Cache   CacheConfig   `mapstructure:"cache"`
}

// ServerConfig holds execution server configuration
type ServerConfig struct {
	URL       string        `mapstructure:"url"`        // e.g. http://localhost:8080/kie-server/services/rest
	Username  string        `mapstructure:"username"`   // Basic auth user, also the comment author
	Password  string        `mapstructure:"password"`   // Basic auth password
	Container string        `mapstructure:"container"`  // Default container filter, empty for all
	Timeout   time.Duration `mapstructure:"timeout"`    // Per-request timeout
	RateLimit float64       `mapstructure:"rate_limit"` // Requests per second, 0 disables limiting
	Burst     int           `mapstructure:"burst"`
}

// PagingConfig holds list page sizes
type PagingConfig struct {
	CaseFetchSize      int `mapstructure:"case_fetch_size"`
	CommentFetchSize   int `mapstructure:"comment_fetch_size"`
	CommentDisplaySize int `mapstructure:"comment_display_size"`
}

// UIConfig holds UI configuration
type UIConfig struct {
	Theme        string `mapstructure:"theme"`
	ShowOverview bool   `mapstructure:"show_overview"` // Show the case overview above comments
	Browser      string `mapstructure:"browser"`       // Command used to open cases, empty for system default
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// CacheConfig holds local storage configuration
type CacheConfig struct {
	Dir string `mapstructure:"dir"` // Empty keeps recent cases and drafts in memory only
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Timeout:   30 * time.Second,
			RateLimit: 10,
			Burst:     5,
		},
		Paging: PagingConfig{
			CaseFetchSize:      2,
			CommentFetchSize:   20,
			CommentDisplaySize: 4,
		},
		UI: UIConfig{
			Theme:        "default",
			ShowOverview: true,
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
		Cache: CacheConfig{
			Dir: defaultCachePath(),
		},
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "casedesk", "casedesk.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "casedesk", "casedesk.log")
	}
}

// defaultConfigPath returns the config directory, honoring CASEDESK_CONFIG_DIR
func defaultConfigPath() string {
	if dir := os.Getenv(envPrefix + "_CONFIG_DIR"); dir != "" {
		return dir
	}
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "casedesk")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "casedesk")
	}
}

// defaultCachePath returns the default cache directory path for the current OS
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "casedesk", "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "casedesk", "cache")
	}
}

// newViper returns a viper instance seeded with every known key so that
// environment overrides apply even when the file omits a key
func newViper(cfg *Config) *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setValues(v.SetDefault, cfg)
	return v
}

// setValues writes every config field under its snake_case key
func setValues(set func(key string, value any), cfg *Config) {
	set("server.url", cfg.Server.URL)
	set("server.username", cfg.Server.Username)
	set("server.password", cfg.Server.Password)
	set("server.container", cfg.Server.Container)
	set("server.timeout", cfg.Server.Timeout.String())
	set("server.rate_limit", cfg.Server.RateLimit)
	set("server.burst", cfg.Server.Burst)

	set("paging.case_fetch_size", cfg.Paging.CaseFetchSize)
	set("paging.comment_fetch_size", cfg.Paging.CommentFetchSize)
	set("paging.comment_display_size", cfg.Paging.CommentDisplaySize)

	set("ui.theme", cfg.UI.Theme)
	set("ui.show_overview", cfg.UI.ShowOverview)
	set("ui.browser", cfg.UI.Browser)

	set("logging.file", cfg.Logging.File)
	set("logging.level", cfg.Logging.Level)

	set("cache.dir", cfg.Cache.Dir)
}

// LoadConfig loads configuration from file and environment
func LoadConfig() (*Config, error) {
	v := newViper(DefaultConfig())
	v.AddConfigPath(defaultConfigPath())
	v.AddConfigPath(".")

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values the list controllers cannot work with
func (c *Config) Validate() error {
	if c.Paging.CaseFetchSize < 1 {
		return fmt.Errorf("paging.case_fetch_size must be at least 1, got %d", c.Paging.CaseFetchSize)
	}
	if c.Paging.CommentFetchSize < 1 {
		return fmt.Errorf("paging.comment_fetch_size must be at least 1, got %d", c.Paging.CommentFetchSize)
	}
	if c.Paging.CommentDisplaySize < 1 {
		return fmt.Errorf("paging.comment_display_size must be at least 1, got %d", c.Paging.CommentDisplaySize)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit cannot be negative")
	}
	return nil
}

// SaveConfig saves the configuration to file
func SaveConfig(cfg *Config) error {
	configPath := defaultConfigPath()

	// Ensure config directory exists
	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	setValues(v.Set, cfg)

	configFile := filepath.Join(configPath, "config.yaml")
	if err := v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	// The file carries the password
	if err := os.Chmod(configFile, 0600); err != nil {
		return fmt.Errorf("failed to restrict config file: %w", err)
	}

	return nil
}

// IsConfigured returns true if the server URL and credentials are set
func (c *Config) IsConfigured() bool {
	return c.Server.URL != "" && c.Server.Username != ""
}

// CommentPaging returns the fetch and display page sizes of the comment list
func (c *Config) CommentPaging() listing.Paging {
	return listing.Paging{
		FetchSize:   c.Paging.CommentFetchSize,
		DisplaySize: c.Paging.CommentDisplaySize,
	}
}

// ClearServerConfig removes all server-related configuration (URL, credentials)
// while preserving other settings (paging, UI, logging, cache)
func ClearServerConfig() error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	cfg.Server.URL = ""
	cfg.Server.Username = ""
	cfg.Server.Password = ""
	cfg.Server.Container = ""

	return SaveConfig(cfg)
}

// ClearCache removes all locally stored data
func ClearCache(cfg *Config) error {
	cachePath := cfg.CachePath()
	if cachePath == "" {
		return nil
	}
	if err := os.RemoveAll(cachePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

// CachePath returns the cache directory with ~ expanded
func (c *Config) CachePath() string {
	return expandHome(c.Cache.Dir)
}

// expandHome replaces a leading ~ with the user's home directory
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
