package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"grabarr/internal/media"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
	APIBind string `toml:"api_bind"`
}

// Feed contains the Torznab feed identity and retention policy.
type Feed struct {
	Title         string `toml:"title"`
	Link          string `toml:"link"`
	Description   string `toml:"description"`
	Language      string `toml:"language"`
	Image         string `toml:"image"`
	APIKey        string `toml:"api_key"`
	RetentionDays int    `toml:"retention_days"`
}

// QBit contains the qBittorrent connection and tracker tag settings.
type QBit struct {
	URL           string            `toml:"url"`
	Username      string            `toml:"username"`
	Password      string            `toml:"password"`
	PreferredSite string            `toml:"preferred_site"`
	Trackers      map[string]string `toml:"trackers"`
}

// Library contains one Radarr/Sonarr style library connection.
type Library struct {
	Enabled bool   `toml:"enabled"`
	URL     string `toml:"url"`
	APIKey  string `toml:"api_key"`
}

// Libraries groups the configured library services by kind.
type Libraries struct {
	Movies Library `toml:"movies"`
	TV     Library `toml:"tv"`
}

// Search contains the search driver's polling behavior.
type Search struct {
	PollIntervalSeconds int     `toml:"poll_interval_seconds"`
	TimeoutSeconds      int     `toml:"timeout_seconds"`
	DryRunTimeoutSecs   int     `toml:"dry_run_timeout_seconds"`
	ResultLimit         int     `toml:"result_limit"`
	RequestsPerSecond   float64 `toml:"requests_per_second"`
}

// Health contains the startup readiness gate timings.
type Health struct {
	ArrRetrySeconds     int `toml:"arr_retry_seconds"`
	ArrDeadlineSeconds  int `toml:"arr_deadline_seconds"`
	QBitRetrySeconds    int `toml:"qbit_retry_seconds"`
	QBitDeadlineSeconds int `toml:"qbit_deadline_seconds"`
	LockTimeoutSeconds  int `toml:"lock_timeout_seconds"` // 0 waits forever
}

// Webhook contains the inbound notification endpoint settings.
type Webhook struct {
	Key         string `toml:"key"`
	WaitSeconds int    `toml:"wait_seconds"`
}

// Schedule contains the periodic refresh trigger settings.
type Schedule struct {
	Cron        string `toml:"cron"`
	MaxAgeHours int    `toml:"max_age_hours"`
}

// Download controls whether the top-scored result is sent to qBittorrent.
type Download struct {
	Enabled bool `toml:"enabled"`
}

// Runs contains run-history retention settings.
type Runs struct {
	KeepDays int `toml:"keep_days"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Grabarr.
//
// Configuration sections by subsystem:
//   - Paths: data/log directories and API bind address
//   - Feed: Torznab feed identity, API key, and retention
//   - QBit: qBittorrent connection and tracker tags
//   - Libraries: Radarr (movies) and Sonarr (tv) connections
//   - Search: search driver polling and limits
//   - Health: startup readiness gates and run lock timeout
//   - Webhook: inbound approval notification endpoint
//   - Schedule: cron-style periodic refresh
//   - Download: automatic download of the top result
//   - Runs: run history retention
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Feed      Feed      `toml:"feed"`
	QBit      QBit      `toml:"qbit"`
	Libraries Libraries `toml:"libraries"`
	Search    Search    `toml:"search"`
	Health    Health    `toml:"health"`
	Webhook   Webhook   `toml:"webhook"`
	Schedule  Schedule  `toml:"schedule"`
	Download  Download  `toml:"download"`
	Runs      Runs      `toml:"runs"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/grabarr/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The second return is
// the resolved path, the third whether the file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("grabarr.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// StoreFile returns the path of the published result store document.
func (c *Config) StoreFile() string {
	return filepath.Join(c.Paths.DataDir, "torrents.json")
}

// RunLogFile returns the path of the run history database.
func (c *Config) RunLogFile() string {
	return filepath.Join(c.Paths.DataDir, "runs.db")
}

// LockFile returns the path of the cross-process run lock.
func (c *Config) LockFile() string {
	return filepath.Join(c.Paths.DataDir, "grabarr.lock")
}

// LibraryFor returns the library connection settings for the given kind.
func (c *Config) LibraryFor(kind media.Kind) Library {
	if kind == media.KindTV {
		return c.Libraries.TV
	}
	return c.Libraries.Movies
}

// EnabledKinds lists the library kinds with an enabled connection, movies
// first.
func (c *Config) EnabledKinds() []media.Kind {
	var kinds []media.Kind
	if c.Libraries.Movies.Enabled {
		kinds = append(kinds, media.KindMovies)
	}
	if c.Libraries.TV.Enabled {
		kinds = append(kinds, media.KindTV)
	}
	return kinds
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ExpandPath resolves ~ and produces an absolute, cleaned path.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
