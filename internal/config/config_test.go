package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"grabarr/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const minimalConfig = `
[qbit]
url = "http://localhost:8080/"

[libraries.movies]
enabled = true
url = "http://localhost:7878/"
api_key = "radarr-key"
`

func TestLoadMinimalConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, minimalConfig)

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved = %q exists = %v", resolved, exists)
	}
	// Trailing slashes are trimmed off service URLs.
	if cfg.QBit.URL != "http://localhost:8080" {
		t.Errorf("qbit url = %q", cfg.QBit.URL)
	}
	if cfg.Libraries.Movies.URL != "http://localhost:7878" {
		t.Errorf("movies url = %q", cfg.Libraries.Movies.URL)
	}
	if cfg.Libraries.TV.Enabled {
		t.Error("tv library enabled by default")
	}
	if cfg.Feed.RetentionDays != 365 {
		t.Errorf("retention = %d", cfg.Feed.RetentionDays)
	}
	if cfg.Search.PollIntervalSeconds != 10 || cfg.Search.TimeoutSeconds != 30 || cfg.Search.ResultLimit != 50 {
		t.Errorf("search defaults = %+v", cfg.Search)
	}
	if cfg.Schedule.Cron != "30 * * * *" || cfg.Schedule.MaxAgeHours != 24 {
		t.Errorf("schedule defaults = %+v", cfg.Schedule)
	}
	if !strings.HasSuffix(cfg.StoreFile(), "torrents.json") {
		t.Errorf("store file = %q", cfg.StoreFile())
	}
	if !filepath.IsAbs(cfg.Paths.DataDir) {
		t.Errorf("data dir not expanded: %q", cfg.Paths.DataDir)
	}
}

func TestLoadRejectsMissingQBitURL(t *testing.T) {
	path := writeConfig(t, `
[libraries.movies]
enabled = true
url = "http://localhost:7878"
api_key = "k"
`)
	if _, _, _, err := config.Load(path); err == nil || !strings.Contains(err.Error(), "qbit.url") {
		t.Fatalf("err = %v, want qbit.url error", err)
	}
}

func TestLoadRejectsNoEnabledLibraries(t *testing.T) {
	path := writeConfig(t, `
[qbit]
url = "http://localhost:8080"
`)
	if _, _, _, err := config.Load(path); err == nil || !strings.Contains(err.Error(), "library") {
		t.Fatalf("err = %v, want library error", err)
	}
}

func TestLoadRejectsEnabledLibraryWithoutAPIKey(t *testing.T) {
	path := writeConfig(t, `
[qbit]
url = "http://localhost:8080"

[libraries.tv]
enabled = true
url = "http://localhost:8989"
`)
	if _, _, _, err := config.Load(path); err == nil || !strings.Contains(err.Error(), "api_key") {
		t.Fatalf("err = %v, want api_key error", err)
	}
}

func TestLoadRejectsBadCron(t *testing.T) {
	path := writeConfig(t, minimalConfig+`
[schedule]
cron = "every hour"
`)
	if _, _, _, err := config.Load(path); err == nil || !strings.Contains(err.Error(), "schedule.cron") {
		t.Fatalf("err = %v, want schedule.cron error", err)
	}
}

func TestLoadRejectsBadLogging(t *testing.T) {
	path := writeConfig(t, minimalConfig+`
[logging]
format = "xml"
`)
	if _, _, _, err := config.Load(path); err == nil || !strings.Contains(err.Error(), "logging.format") {
		t.Fatalf("err = %v, want logging.format error", err)
	}
}

func TestEnsureKeysGeneratesMissingKeys(t *testing.T) {
	cfg := config.Default()
	if !cfg.EnsureKeys() {
		t.Fatal("EnsureKeys reported nothing generated for empty keys")
	}
	if cfg.Feed.APIKey == "" || cfg.Webhook.Key == "" {
		t.Fatalf("keys not generated: %+v %+v", cfg.Feed.APIKey, cfg.Webhook.Key)
	}
	feedKey, webhookKey := cfg.Feed.APIKey, cfg.Webhook.Key
	if cfg.EnsureKeys() {
		t.Fatal("EnsureKeys regenerated existing keys")
	}
	if cfg.Feed.APIKey != feedKey || cfg.Webhook.Key != webhookKey {
		t.Fatal("EnsureKeys mutated existing keys")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := config.Default()
	cfg.QBit.URL = "http://localhost:8080"
	cfg.Libraries.Movies = config.Library{Enabled: true, URL: "http://localhost:7878", APIKey: "k"}
	cfg.EnsureKeys()

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.Save(&cfg, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load after Save: %v", err)
	}
	if loaded.Feed.APIKey != cfg.Feed.APIKey || loaded.Webhook.Key != cfg.Webhook.Key {
		t.Fatal("keys did not survive the round trip")
	}
}

func TestEnabledKindsOrder(t *testing.T) {
	cfg := config.Default()
	cfg.Libraries.Movies.Enabled = true
	cfg.Libraries.TV.Enabled = true
	kinds := cfg.EnabledKinds()
	if len(kinds) != 2 || string(kinds[0]) != "Movies" || string(kinds[1]) != "TV" {
		t.Fatalf("kinds = %v", kinds)
	}
}

func TestCreateSampleProducesLoadableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"[qbit]", "[libraries.movies]", "[feed]", "[schedule]"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("sample missing %q", want)
		}
	}
}
