package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, 5*time.Second, cfg.CancelGrace.Duration)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "loading must not write the file")
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
brew_path = "/opt/brew/bin/brew"
cancel_grace = "2s"
poll_interval = "250ms"
log_level = "debug"
history_keep = 10
default_category = "outdated"
update_on_launch = true
`), 0644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/brew/bin/brew", cfg.BrewPath)
	assert.Equal(t, 2*time.Second, cfg.CancelGrace.Duration)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval.Duration)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 10, cfg.HistoryKeep)
	assert.Equal(t, "outdated", cfg.DefaultCategory)
	assert.True(t, cfg.UpdateOnLaunch)
	assert.Equal(t, "zstd", cfg.HistoryCodec)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"unknown key":     `colour = "red"`,
		"bad duration":    `cancel_grace = "soon"`,
		"zero grace":      `cancel_grace = "0s"`,
		"bad category":    `default_category = "casks"`,
		"bad level":       `log_level = "loud"`,
		"negative keep":   `history_keep = -2`,
		"not toml at all": `{`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0644))

			_, err := LoadFrom(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadKeepEverything(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("history_keep = -1\n"), 0644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, -1, cfg.HistoryKeep)
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	cfg := DefaultConfig()
	cfg.CancelGrace = Duration{1500 * time.Millisecond}
	cfg.LogFile = "/tmp/linebrew.log"

	require.NoError(t, Save(cfg, path))

	got, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestPathUnderConfigDir(t *testing.T) {
	assert.Equal(t, "config.toml", filepath.Base(Path()))
	assert.Equal(t, "linebrew", filepath.Base(Dir()))
}
