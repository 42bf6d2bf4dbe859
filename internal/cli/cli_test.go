package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamcutter/linebrew/internal/history"
)

const fakeBrew = `#!/bin/sh
state="%STATE%"
case "$1" in
  install)
    echo "==> Downloading $2"
    touch "$state/$2"
    echo "$2 successfully installed"
    ;;
  uninstall)
    if [ ! -e "$state/$2" ]; then
      echo "Error: No such keg: $2" >&2
      exit 1
    fi
    rm "$state/$2"
    ;;
  info)
    printf '{"formulae":['
    sep=""
    for f in "$state"/*; do
      [ -e "$f" ] || continue
      n=$(basename "$f")
      printf '%s{"name":"%s","desc":"the %s tool","homepage":"https://example.org/%s","versions":{"stable":"2.0"},"installed":[{"version":"1.0"}]}' "$sep" "$n" "$n" "$n"
      sep=","
    done
    printf '],"casks":[]}\n'
    ;;
  outdated)
    printf '{"formulae":['
    sep=""
    for f in "$state"/*; do
      [ -e "$f" ] || continue
      printf '%s{"name":"%s","installed_versions":["1.0"],"current_version":"2.0"}' "$sep" "$(basename "$f")"
      sep=","
    done
    printf '],"casks":[]}\n'
    ;;
  upgrade)
    echo "==> Upgrading ${2:-everything}"
    ;;
  formulae)
    printf 'curl\ngit\nwget\n'
    ;;
  leaves)
    for f in "$state"/*; do
      [ -e "$f" ] || continue
      basename "$f"
    done
    ;;
  tap)
    echo homebrew/core
    ;;
  doctor)
    echo "Your system is ready to brew."
    ;;
esac
`

type env struct {
	config  string
	history string
	state   string
}

func setup(t *testing.T, installed ...string) *env {
	t.Helper()
	color.NoColor = true
	dir := t.TempDir()

	e := &env{
		config:  filepath.Join(dir, "config.toml"),
		history: filepath.Join(dir, "history.db"),
		state:   filepath.Join(dir, "state"),
	}
	require.NoError(t, os.Mkdir(e.state, 0755))
	for _, name := range installed {
		require.NoError(t, os.WriteFile(filepath.Join(e.state, name), nil, 0644))
	}

	brew := filepath.Join(dir, "brew")
	require.NoError(t, os.WriteFile(brew, []byte(strings.ReplaceAll(fakeBrew, "%STATE%", e.state)), 0755))

	cfg := `brew_path = "` + brew + `"
history_db = "` + e.history + `"
log_level = "error"
poll_interval = "10ms"
cancel_grace = "1s"
`
	require.NoError(t, os.WriteFile(e.config, []byte(cfg), 0644))
	return e
}

func (e *env) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	var buf bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(append([]string{"--config", e.config}, args...))
	err := cmd.ExecuteContext(ctx)
	return buf.String(), err
}

func TestInstallThenList(t *testing.T) {
	e := setup(t, "git")

	out, err := e.run(t, "install", "wget")
	require.NoError(t, err)
	assert.Contains(t, out, "==> Downloading wget")
	assert.Contains(t, out, "wget successfully installed")
	assert.Contains(t, out, "✓ install wget")

	out, err = e.run(t, "list", "installed")
	require.NoError(t, err)
	assert.Contains(t, out, "2 installed formulae")
	assert.Contains(t, out, "wget-1.0")
	assert.Contains(t, out, "↑ 2.0")
}

func TestInstallSameTargetTwiceIsRefused(t *testing.T) {
	e := setup(t)

	out, err := e.run(t, "install", "wget", "wget")
	assert.Error(t, err)
	assert.Contains(t, out, "already running")
	assert.Contains(t, out, "✓ install wget")
}

func TestInstallSeveralTargetsPrefixesOutput(t *testing.T) {
	e := setup(t)

	out, err := e.run(t, "install", "wget", "git")
	require.NoError(t, err)
	assert.Contains(t, out, "[wget] wget successfully installed")
	assert.Contains(t, out, "[git] git successfully installed")
}

func TestUninstallMissingFails(t *testing.T) {
	e := setup(t)

	out, err := e.run(t, "uninstall", "doesnotexist")
	require.Error(t, err)
	assert.Contains(t, out, "doesnotexist is not installed")
	assert.Contains(t, out, "Error: No such keg: doesnotexist")
}

func TestHistoryRecordsJobs(t *testing.T) {
	e := setup(t)

	_, err := e.run(t, "install", "wget")
	require.NoError(t, err)
	_, err = e.run(t, "uninstall", "doesnotexist")
	require.Error(t, err)

	out, err := e.run(t, "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "✓")
	assert.Contains(t, out, "install wget")
	assert.Contains(t, out, "✗")
	assert.Contains(t, out, "uninstall doesnotexist")

	store, err := history.Open(e.history, history.CodecZstd)
	require.NoError(t, err)
	records, err := store.List(0)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	var id string
	for _, r := range records {
		if r.Class == "install" {
			id = r.ID
		}
	}
	require.NotEmpty(t, id)

	out, err = e.run(t, "history", "show", id[:8])
	require.NoError(t, err)
	assert.Contains(t, out, "install wget")
	assert.Contains(t, out, "wget successfully installed")
}

func TestListAllSortedByStatus(t *testing.T) {
	e := setup(t, "wget")

	out, err := e.run(t, "list", "all", "--sort", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "3 all formulae")
	assert.Less(t, strings.Index(out, "wget"), strings.Index(out, "curl"))
	assert.Contains(t, out, "(outdated)")
}

func TestListLeavesAndInstalledAreOverlaid(t *testing.T) {
	e := setup(t, "wget")

	out, err := e.run(t, "list", "leaves", "--sort", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "wget-1.0")
	assert.Contains(t, out, "(outdated)")
	assert.Contains(t, out, "leaf")

	out, err = e.run(t, "list", "installed")
	require.NoError(t, err)
	assert.Contains(t, out, "wget-1.0")
	assert.Contains(t, out, "leaf")
}

func TestListTaps(t *testing.T) {
	e := setup(t)

	out, err := e.run(t, "list", "taps")
	require.NoError(t, err)
	assert.Contains(t, out, "homebrew/core")
}

func TestSearch(t *testing.T) {
	e := setup(t, "wget")

	out, err := e.run(t, "search", "wg")
	require.NoError(t, err)
	assert.Contains(t, out, "Showing 1 of 1 results")
	assert.Contains(t, out, "the wget tool")

	out, err = e.run(t, "search", "zzz")
	require.NoError(t, err)
	assert.Contains(t, out, "No results found")
}

func TestSearchShowBounds(t *testing.T) {
	e := setup(t, "wget")

	out, err := e.run(t, "search", "wg", "--show", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "Showing 0 of 1 results")
	assert.NotContains(t, out, "the wget tool")
	assert.Contains(t, out, "1 more available")

	_, err = e.run(t, "search", "wg", "--show", "-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--show must not be negative")
}

func TestInfo(t *testing.T) {
	e := setup(t, "wget")

	out, err := e.run(t, "info", "wget")
	require.NoError(t, err)
	assert.Contains(t, out, "https://example.org/wget")
	assert.Contains(t, out, "installed: 1.0")
}

func TestUpgradeAndDoctor(t *testing.T) {
	e := setup(t, "wget")

	out, err := e.run(t, "upgrade")
	require.NoError(t, err)
	assert.Contains(t, out, "Outdated formulae:")
	assert.Contains(t, out, "==> Upgrading everything")

	out, err = e.run(t, "doctor")
	require.NoError(t, err)
	assert.Contains(t, out, "Your system is ready to brew.")
}

func TestBadArguments(t *testing.T) {
	e := setup(t)

	_, err := e.run(t, "list", "casks")
	assert.Error(t, err)

	_, err = e.run(t, "install", "--", "-x")
	assert.Error(t, err)

	_, err = e.run(t, "doctor", "extra")
	assert.Error(t, err)
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "linebrew", "config.toml")
	cmd := newRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"--config", path, "config", "init"})
	require.NoError(t, cmd.Execute())
	assert.FileExists(t, path)

	cmd = newRootCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{"--config", path, "config", "init"})
	assert.Error(t, cmd.Execute())
}
