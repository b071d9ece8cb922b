package config

const (
	defaultDataDir             = "~/.local/share/grabarr/data"
	defaultLogDir              = "~/.local/share/grabarr/logs"
	defaultAPIBind             = "127.0.0.1:8333"
	defaultFeedTitle           = "Grabarr"
	defaultFeedLink            = "http://localhost:8333"
	defaultFeedDescription     = "Scored torrent results for wanted library items."
	defaultFeedLanguage        = "en"
	defaultRetentionDays       = 365
	defaultPreferredSite       = "https://torrents-csv.com"
	defaultPollIntervalSeconds = 10
	defaultSearchTimeout       = 30
	defaultDryRunTimeout       = 5
	defaultResultLimit         = 50
	defaultRequestsPerSecond   = 2.0
	defaultArrRetrySeconds     = 15
	defaultArrDeadlineSeconds  = 15
	defaultQBitRetrySeconds    = 60
	defaultQBitDeadlineSeconds = 60
	defaultWebhookWaitSeconds  = 30
	defaultScheduleCron        = "30 * * * *"
	defaultScheduleMaxAgeHours = 24
	defaultRunsKeepDays        = 90
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Feed: Feed{
			Title:         defaultFeedTitle,
			Link:          defaultFeedLink,
			Description:   defaultFeedDescription,
			Language:      defaultFeedLanguage,
			RetentionDays: defaultRetentionDays,
		},
		QBit: QBit{
			PreferredSite: defaultPreferredSite,
		},
		Search: Search{
			PollIntervalSeconds: defaultPollIntervalSeconds,
			TimeoutSeconds:      defaultSearchTimeout,
			DryRunTimeoutSecs:   defaultDryRunTimeout,
			ResultLimit:         defaultResultLimit,
			RequestsPerSecond:   defaultRequestsPerSecond,
		},
		Health: Health{
			ArrRetrySeconds:     defaultArrRetrySeconds,
			ArrDeadlineSeconds:  defaultArrDeadlineSeconds,
			QBitRetrySeconds:    defaultQBitRetrySeconds,
			QBitDeadlineSeconds: defaultQBitDeadlineSeconds,
		},
		Webhook: Webhook{
			WaitSeconds: defaultWebhookWaitSeconds,
		},
		Schedule: Schedule{
			Cron:        defaultScheduleCron,
			MaxAgeHours: defaultScheduleMaxAgeHours,
		},
		Runs: Runs{
			KeepDays: defaultRunsKeepDays,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
