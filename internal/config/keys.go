package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"
)

// EnsureKeys fills in a generated feed API key and webhook key when the user
// left them empty, so the Torznab endpoint and webhook are never open. It
// reports whether anything was generated; callers should persist the config
// with Save in that case.
func (c *Config) EnsureKeys() bool {
	generated := false
	if strings.TrimSpace(c.Feed.APIKey) == "" {
		c.Feed.APIKey = uuid.NewString()
		generated = true
	}
	if strings.TrimSpace(c.Webhook.Key) == "" {
		c.Webhook.Key = uuid.NewString()
		generated = true
	}
	return generated
}

// Save writes the configuration to path as TOML, atomically.
func Save(cfg *Config, path string) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp config: %w", err)
	}
	return nil
}
