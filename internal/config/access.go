package config

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// CheckDataDirAccess verifies the data directory exists and is usable for
// the store and lock files. Called once at startup after EnsureDirectories.
func (c *Config) CheckDataDirAccess() error {
	info, err := os.Stat(c.Paths.DataDir)
	if err != nil {
		return fmt.Errorf("stat data directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data path %q is not a directory", c.Paths.DataDir)
	}
	if err := unix.Access(c.Paths.DataDir, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return fmt.Errorf("data directory %q: insufficient permissions: %w", c.Paths.DataDir, err)
	}
	return nil
}
