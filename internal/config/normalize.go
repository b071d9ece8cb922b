package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeServices()
	c.normalizeTimings()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.APIBind) == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeServices() {
	c.QBit.URL = strings.TrimRight(strings.TrimSpace(c.QBit.URL), "/")
	c.Libraries.Movies.URL = strings.TrimRight(strings.TrimSpace(c.Libraries.Movies.URL), "/")
	c.Libraries.TV.URL = strings.TrimRight(strings.TrimSpace(c.Libraries.TV.URL), "/")
	c.Feed.Link = strings.TrimRight(strings.TrimSpace(c.Feed.Link), "/")
	if strings.TrimSpace(c.QBit.PreferredSite) == "" {
		c.QBit.PreferredSite = defaultPreferredSite
	}
}

func (c *Config) normalizeTimings() {
	if c.Search.PollIntervalSeconds <= 0 {
		c.Search.PollIntervalSeconds = defaultPollIntervalSeconds
	}
	if c.Search.TimeoutSeconds <= 0 {
		c.Search.TimeoutSeconds = defaultSearchTimeout
	}
	if c.Search.DryRunTimeoutSecs <= 0 {
		c.Search.DryRunTimeoutSecs = defaultDryRunTimeout
	}
	if c.Search.ResultLimit <= 0 {
		c.Search.ResultLimit = defaultResultLimit
	}
	if c.Search.RequestsPerSecond <= 0 {
		c.Search.RequestsPerSecond = defaultRequestsPerSecond
	}
	if c.Health.ArrRetrySeconds <= 0 {
		c.Health.ArrRetrySeconds = defaultArrRetrySeconds
	}
	if c.Health.ArrDeadlineSeconds <= 0 {
		c.Health.ArrDeadlineSeconds = defaultArrDeadlineSeconds
	}
	if c.Health.QBitRetrySeconds <= 0 {
		c.Health.QBitRetrySeconds = defaultQBitRetrySeconds
	}
	if c.Health.QBitDeadlineSeconds <= 0 {
		c.Health.QBitDeadlineSeconds = defaultQBitDeadlineSeconds
	}
	if c.Feed.RetentionDays <= 0 {
		c.Feed.RetentionDays = defaultRetentionDays
	}
	if c.Webhook.WaitSeconds < 0 {
		c.Webhook.WaitSeconds = defaultWebhookWaitSeconds
	}
	if strings.TrimSpace(c.Schedule.Cron) == "" {
		c.Schedule.Cron = defaultScheduleCron
	}
	if c.Schedule.MaxAgeHours <= 0 {
		c.Schedule.MaxAgeHours = defaultScheduleMaxAgeHours
	}
	if c.Runs.KeepDays <= 0 {
		c.Runs.KeepDays = defaultRunsKeepDays
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
