// Package config resolves runtime settings.
//
// Precedence, lowest first: built-in defaults, the config file
// ($XDG_CONFIG_HOME/confoo/config.{toml,yaml} or --config), a .env file in
// the working directory, CONFOO_* environment variables, command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/confoo-planner/confoo/internal/confoo/dayutil"
	"github.com/confoo-planner/confoo/internal/confoo/db"
	"github.com/confoo-planner/confoo/internal/confoo/extract"
	confoosync "github.com/confoo-planner/confoo/internal/confoo/sync"
)

// EnvPrefix is prepended to every environment variable, e.g. CONFOO_YEAR.
const EnvPrefix = "CONFOO"

// Keys understood by Load.
const (
	KeyBaseURL         = "base_url"
	KeyYear            = "year"
	KeyUserAgent       = "user_agent"
	KeyDataDir         = "data_dir"
	KeyDBPath          = "db_path"
	KeySnapshotPath    = "snapshot_path"
	KeyRatingsPath     = "ratings_path"
	KeyPolitenessDelay = "politeness_delay"
	KeyBatchSize       = "batch_size"
	KeyGridTimeout     = "grid_timeout"
	KeyPageTimeout     = "page_timeout"
	KeySyncInterval    = "sync_interval"
	KeyLogLevel        = "log_level"
	KeyLogFile         = "log_file"
	KeyDashboardAddr   = "dashboard_addr"
	KeyHeadless        = "headless"
)

// Config is the resolved configuration.
type Config struct {
	BaseURL         string        `mapstructure:"base_url"`
	Year            int           `mapstructure:"year"`
	UserAgent       string        `mapstructure:"user_agent"`
	DataDir         string        `mapstructure:"data_dir"`
	DBPath          string        `mapstructure:"db_path"`
	SnapshotPath    string        `mapstructure:"snapshot_path"`
	RatingsPath     string        `mapstructure:"ratings_path"`
	PolitenessDelay time.Duration `mapstructure:"politeness_delay"`
	BatchSize       int           `mapstructure:"batch_size"`
	GridTimeout     time.Duration `mapstructure:"grid_timeout"`
	PageTimeout     time.Duration `mapstructure:"page_timeout"`
	SyncInterval    time.Duration `mapstructure:"sync_interval"`
	LogLevel        string        `mapstructure:"log_level"`
	LogFile         string        `mapstructure:"log_file"`
	DashboardAddr   string        `mapstructure:"dashboard_addr"`
	Headless        bool          `mapstructure:"headless"`

	// ConfigFile is the file that was read, if any.
	ConfigFile string `mapstructure:"-"`
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyBaseURL, extract.DefaultBaseURL)
	v.SetDefault(KeyYear, extract.DefaultYear)
	v.SetDefault(KeyUserAgent, extract.DefaultUserAgent)
	v.SetDefault(KeyDataDir, defaultDataDir())
	v.SetDefault(KeyDBPath, "")
	v.SetDefault(KeySnapshotPath, "")
	v.SetDefault(KeyRatingsPath, "")
	v.SetDefault(KeyPolitenessDelay, confoosync.DefaultDelay)
	v.SetDefault(KeyBatchSize, db.DefaultBatchSize)
	v.SetDefault(KeyGridTimeout, extract.DefaultGridTimeout)
	v.SetDefault(KeyPageTimeout, extract.DefaultPageTimeout)
	v.SetDefault(KeySyncInterval, 6*time.Hour)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyDashboardAddr, "127.0.0.1:8080")
	v.SetDefault(KeyHeadless, true)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	return v
}

// BindFlags binds every flag in fs whose name, with dashes turned into
// underscores, is a known key. Unset flags do not override lower layers.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if !isKnownKey(key) {
			return
		}
		if bindErr := v.BindPFlag(key, f); bindErr != nil && err == nil {
			err = fmt.Errorf("failed to bind flag %s: %w", f.Name, bindErr)
		}
	})
	return err
}

func isKnownKey(key string) bool {
	switch key {
	case KeyBaseURL, KeyYear, KeyUserAgent, KeyDataDir, KeyDBPath, KeySnapshotPath,
		KeyRatingsPath, KeyPolitenessDelay, KeyBatchSize, KeyGridTimeout, KeyPageTimeout,
		KeySyncInterval, KeyLogLevel, KeyLogFile, KeyDashboardAddr, KeyHeadless:
		return true
	}
	return false
}

// Load reads the optional .env and config files into v and decodes the
// result. configFile overrides the search path; it must exist when given.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		if dir := configDir(); dir != "" {
			v.AddConfigPath(dir)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.ConfigFile = v.ConfigFileUsed()
	cfg.applyDerived()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDerived fills paths that default to files under DataDir.
func (c *Config) applyDerived() {
	c.DataDir = expandHome(c.DataDir)
	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.DataDir, "confoo.db")
	}
	if c.SnapshotPath == "" {
		c.SnapshotPath = filepath.Join(c.DataDir, fmt.Sprintf("confoo%d.json", c.Year))
	}
	if c.RatingsPath == "" {
		c.RatingsPath = filepath.Join(c.DataDir, "speaker_ratings.json")
	}
	c.DBPath = expandHome(c.DBPath)
	c.SnapshotPath = expandHome(c.SnapshotPath)
	c.RatingsPath = expandHome(c.RatingsPath)
	c.LogFile = expandHome(c.LogFile)
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return fmt.Errorf("%s must not be empty", KeyBaseURL)
	case c.Year < 2000:
		return fmt.Errorf("%s %d is not a conference year", KeyYear, c.Year)
	case c.BatchSize <= 0:
		return fmt.Errorf("%s must be positive, got %d", KeyBatchSize, c.BatchSize)
	case c.GridTimeout <= 0 || c.PageTimeout <= 0:
		return fmt.Errorf("%s and %s must be positive", KeyGridTimeout, KeyPageTimeout)
	case c.SyncInterval <= 0:
		return fmt.Errorf("%s must be positive, got %s", KeySyncInterval, c.SyncInterval)
	}
	return nil
}

// Site returns the conference site the config points at.
func (c *Config) Site() extract.Site {
	return extract.Site{BaseURL: strings.TrimRight(c.BaseURL, "/"), Year: c.Year}
}

// Week returns the conference week of the configured year.
func (c *Config) Week() dayutil.Week {
	return dayutil.ForYear(c.Year)
}

func configDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "confoo")
}

func defaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "confoo2026")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "data"
	}
	return filepath.Join(home, ".local", "share", "confoo2026")
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
