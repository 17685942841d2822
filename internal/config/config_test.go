package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

// isolate points every lookup location at fresh temp dirs.
func isolate(t *testing.T) (configHome, dataHome string) {
	t.Helper()
	configHome = t.TempDir()
	dataHome = t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)
	t.Setenv("XDG_DATA_HOME", dataHome)
	t.Chdir(t.TempDir())
	return configHome, dataHome
}

// unsetUntilCleanup removes key from the environment and restores it when
// the test ends, so values loaded from .env do not leak.
func unsetUntilCleanup(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	_, dataHome := isolate(t)

	cfg, err := Load(New(), "")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	dataDir := filepath.Join(dataHome, "confoo2026")
	tests := []struct {
		name string
		got  any
		want any
	}{
		{"base url", cfg.BaseURL, "https://confoo.ca"},
		{"year", cfg.Year, 2026},
		{"data dir", cfg.DataDir, dataDir},
		{"db path", cfg.DBPath, filepath.Join(dataDir, "confoo.db")},
		{"snapshot path", cfg.SnapshotPath, filepath.Join(dataDir, "confoo2026.json")},
		{"ratings path", cfg.RatingsPath, filepath.Join(dataDir, "speaker_ratings.json")},
		{"delay", cfg.PolitenessDelay, 500 * time.Millisecond},
		{"batch size", cfg.BatchSize, 50},
		{"grid timeout", cfg.GridTimeout, 30 * time.Second},
		{"page timeout", cfg.PageTimeout, 15 * time.Second},
		{"headless", cfg.Headless, true},
		{"config file", cfg.ConfigFile, ""},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestLoad_Precedence(t *testing.T) {
	configHome, _ := isolate(t)
	writeFile(t, filepath.Join(configHome, "confoo", "config.toml"), `
year = 2027
batch_size = 10
politeness_delay = "2s"
log_level = "debug"
`)
	writeFile(t, ".env", "CONFOO_USER_AGENT=from-dotenv\nCONFOO_LOG_LEVEL=warn\n")
	unsetUntilCleanup(t, "CONFOO_USER_AGENT")
	t.Setenv("CONFOO_LOG_LEVEL", "error")

	v := New()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("batch-size", 0, "")
	fs.String("unrelated", "", "")
	if err := BindFlags(v, fs); err != nil {
		t.Fatal(err)
	}
	if err := fs.Parse([]string{"--batch-size=30"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(v, "")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if !strings.HasSuffix(cfg.ConfigFile, "config.toml") {
		t.Errorf("ConfigFile = %q", cfg.ConfigFile)
	}
	if cfg.Year != 2027 {
		t.Errorf("Year = %d, want file value 2027", cfg.Year)
	}
	if cfg.PolitenessDelay != 2*time.Second {
		t.Errorf("PolitenessDelay = %s, want 2s", cfg.PolitenessDelay)
	}
	if cfg.UserAgent != "from-dotenv" {
		t.Errorf("UserAgent = %q, want .env value", cfg.UserAgent)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %q, want env value (env beats .env)", cfg.LogLevel)
	}
	if cfg.BatchSize != 30 {
		t.Errorf("BatchSize = %d, want flag value 30", cfg.BatchSize)
	}
	if !strings.HasSuffix(cfg.SnapshotPath, "confoo2027.json") {
		t.Errorf("SnapshotPath = %q, want year-derived name", cfg.SnapshotPath)
	}
}

func TestLoad_ExplicitYAMLFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "planner.yaml")
	writeFile(t, path, "db_path: /tmp/x.db\nheadless: false\nsync_interval: 30m\n")

	cfg, err := Load(New(), path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.DBPath != "/tmp/x.db" || cfg.Headless || cfg.SyncInterval != 30*time.Minute {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
	}{
		{"missing explicit file", func(t *testing.T) string {
			return filepath.Join(t.TempDir(), "nope.toml")
		}},
		{"malformed file", func(t *testing.T) string {
			path := filepath.Join(t.TempDir(), "bad.toml")
			writeFile(t, path, "year = [")
			return path
		}},
		{"invalid batch size", func(t *testing.T) string {
			t.Setenv("CONFOO_BATCH_SIZE", "0")
			return ""
		}},
		{"invalid interval", func(t *testing.T) string {
			t.Setenv("CONFOO_SYNC_INTERVAL", "-1m")
			return ""
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			if _, err := Load(New(), tt.setup(t)); err == nil {
				t.Error("Load() succeeded, want error")
			}
		})
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := expandHome("~/x.db"); got != filepath.Join(home, "x.db") {
		t.Errorf("expandHome(~/x.db) = %q", got)
	}
	if got := expandHome("/abs/x.db"); got != "/abs/x.db" {
		t.Errorf("expandHome(/abs/x.db) = %q", got)
	}
}

func TestConfig_WeekFollowsYear(t *testing.T) {
	isolate(t)
	t.Setenv("CONFOO_YEAR", "2025")

	cfg, err := Load(New(), "")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if got := cfg.Week().Start.Format("2006-01-02"); got != "2025-02-24" {
		t.Errorf("Week().Start = %s, want 2025-02-24", got)
	}
	if got := cfg.SnapshotPath; filepath.Base(got) != "confoo2025.json" {
		t.Errorf("SnapshotPath = %s, want confoo2025.json", got)
	}
}
