package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"grabarr/internal/schedule"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateQBit(); err != nil {
		return err
	}
	if err := c.validateLibraries(); err != nil {
		return err
	}
	if err := c.validateSchedule(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateQBit() error {
	if strings.TrimSpace(c.QBit.URL) == "" {
		return errors.New("qbit.url is required (create a config with 'grabarr config init')")
	}
	if _, err := url.Parse(c.QBit.URL); err != nil {
		return fmt.Errorf("qbit.url: %w", err)
	}
	return nil
}

func (c *Config) validateLibraries() error {
	if !c.Libraries.Movies.Enabled && !c.Libraries.TV.Enabled {
		return errors.New("at least one library must be enabled (libraries.movies or libraries.tv)")
	}
	for _, lib := range []struct {
		name string
		lib  Library
	}{
		{"libraries.movies", c.Libraries.Movies},
		{"libraries.tv", c.Libraries.TV},
	} {
		if !lib.lib.Enabled {
			continue
		}
		if strings.TrimSpace(lib.lib.URL) == "" {
			return fmt.Errorf("%s.url is required when the library is enabled", lib.name)
		}
		if strings.TrimSpace(lib.lib.APIKey) == "" {
			return fmt.Errorf("%s.api_key is required when the library is enabled", lib.name)
		}
	}
	return nil
}

func (c *Config) validateSchedule() error {
	if _, err := schedule.Parse(c.Schedule.Cron); err != nil {
		return fmt.Errorf("schedule.cron: %w", err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
