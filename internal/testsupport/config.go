// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"grabarr/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// Both libraries are enabled against placeholder endpoints and every timing
// is shortened so tests never sit in retry loops.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Feed.APIKey = "test-feed-key"
	cfg.QBit.URL = "http://127.0.0.1:1"
	cfg.Libraries.Movies = config.Library{Enabled: true, URL: "http://127.0.0.1:1", APIKey: "test"}
	cfg.Libraries.TV = config.Library{Enabled: true, URL: "http://127.0.0.1:1", APIKey: "test"}
	cfg.Search.PollIntervalSeconds = 0
	cfg.Search.TimeoutSeconds = 1
	cfg.Search.DryRunTimeoutSecs = 1
	cfg.Health.ArrRetrySeconds = 0
	cfg.Health.ArrDeadlineSeconds = 0
	cfg.Health.QBitRetrySeconds = 0
	cfg.Health.QBitDeadlineSeconds = 0
	cfg.Health.LockTimeoutSeconds = 1
	cfg.Webhook.Key = "test-webhook-key"
	cfg.Webhook.WaitSeconds = 0

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithLibraries enables or disables the two libraries.
func WithLibraries(movies, tv bool) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Libraries.Movies.Enabled = movies
		cfg.Libraries.TV.Enabled = tv
	}
}

// WithDownloads turns automatic download triggering on.
func WithDownloads() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Download.Enabled = true
	}
}
