package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"

	"github.com/teamcutter/linebrew/internal/domain"
	"github.com/teamcutter/linebrew/internal/logging"
)

const appName = "linebrew"

// Duration reads and writes "5s"-style strings in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type Config struct {
	BrewPath        string   `toml:"brew_path"`
	CancelGrace     Duration `toml:"cancel_grace"`
	PollInterval    Duration `toml:"poll_interval"`
	LogLevel        string   `toml:"log_level"`
	LogFile         string   `toml:"log_file"`
	HistoryDB       string   `toml:"history_db"`
	HistoryCodec    string   `toml:"history_codec"`
	HistoryKeep     int      `toml:"history_keep"`
	DefaultCategory string   `toml:"default_category"`
	UpdateOnLaunch  bool     `toml:"update_on_launch"`
}

// Dir is $XDG_CONFIG_HOME/linebrew.
func Dir() string {
	return filepath.Join(xdg.ConfigHome, appName)
}

func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

func DefaultConfig() *Config {
	return &Config{
		CancelGrace:     Duration{5 * time.Second},
		PollInterval:    Duration{100 * time.Millisecond},
		LogLevel:        "warn",
		HistoryDB:       filepath.Join(xdg.StateHome, appName, "history.db"),
		HistoryCodec:    "zstd",
		HistoryKeep:     200,
		DefaultCategory: domain.CategoryInstalled.String(),
	}
}

func Load() (*Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads path over the defaults. A missing file is not an error.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if _, err := domain.ParseCategory(c.DefaultCategory); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.CancelGrace.Duration <= 0 {
		return fmt.Errorf("cancel_grace must be positive, got %s", c.CancelGrace)
	}
	if c.PollInterval.Duration <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval)
	}
	if c.HistoryKeep < -1 {
		return fmt.Errorf("history_keep must be -1 (keep everything) or more, got %d", c.HistoryKeep)
	}
	return nil
}

func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
