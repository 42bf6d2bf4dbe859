package runner

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamcutter/linebrew/internal/domain"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "brew")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755))
	return path
}

func collect(t *testing.T, h *Handle, timeout time.Duration) []Event {
	t.Helper()
	var events []Event
	deadline := time.After(timeout)
	for {
		select {
		case ev, ok := <-h.Events():
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-deadline:
			t.Fatalf("timed out after %s with %d events", timeout, len(events))
		}
	}
}

func linesOf(events []Event, kind EventKind) []string {
	var out []string
	for _, ev := range events {
		if ev.Kind == kind {
			out = append(out, ev.Text)
		}
	}
	return out
}

func TestStartStreamsBothStreams(t *testing.T) {
	path := writeScript(t, `echo "==> one"
echo "warn" >&2
echo "two"
printf "three"
exit 3`)

	h, err := New(time.Second).Start(Spec{Path: path})
	require.NoError(t, err)

	events := collect(t, h, 5*time.Second)
	require.NotEmpty(t, events)

	assert.Equal(t, []string{"==> one", "two", "three"}, linesOf(events, KindStdout))
	assert.Equal(t, []string{"warn"}, linesOf(events, KindStderr))

	last := events[len(events)-1]
	assert.Equal(t, KindExited, last.Kind)
	assert.Equal(t, 3, last.Code)
	assert.Len(t, linesOf(events, KindExited), 1)

	select {
	case <-h.Done():
	default:
		t.Fatal("handle not done after exit event")
	}
}

func TestStartPassesArgsDirAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, `echo "$1-$2"
pwd
echo "$LINEBREW_TEST"`)

	h, err := New(time.Second).Start(Spec{
		Path: path,
		Args: []string{"install", "wget"},
		Dir:  dir,
		Env:  []string{"LINEBREW_TEST=yes", "PATH=/usr/bin:/bin"},
	})
	require.NoError(t, err)

	events := collect(t, h, 5*time.Second)
	resolved, _ := filepath.EvalSymlinks(dir)
	stdout := linesOf(events, KindStdout)
	require.Len(t, stdout, 3)
	assert.Equal(t, "install-wget", stdout[0])
	assert.Contains(t, []string{dir, resolved}, stdout[1])
	assert.Equal(t, "yes", stdout[2])
}

func TestStartMissingExecutable(t *testing.T) {
	h, err := New(time.Second).Start(Spec{Path: filepath.Join(t.TempDir(), "missing")})
	assert.Nil(t, h)

	var spawnErr *domain.SpawnError
	require.True(t, errors.As(err, &spawnErr))
	assert.Contains(t, spawnErr.Path, "missing")
}

func TestStartNotExecutable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brew")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\necho hi\n"), 0644))

	_, err := New(time.Second).Start(Spec{Path: path})

	var spawnErr *domain.SpawnError
	assert.True(t, errors.As(err, &spawnErr))
}

func TestCancelTerminatesChild(t *testing.T) {
	path := writeScript(t, `echo started
sleep 30
echo never`)

	h, err := New(2 * time.Second).Start(Spec{Path: path})
	require.NoError(t, err)

	first := <-h.Events()
	require.Equal(t, "started", first.Text)

	h.Cancel()
	events := collect(t, h, 5*time.Second)

	assert.True(t, h.Cancelled())
	assert.NotContains(t, linesOf(events, KindStdout), "never")
	last := events[len(events)-1]
	assert.Equal(t, KindExited, last.Kind)
	assert.Equal(t, ExitKilled, last.Code)
}

func TestCancelEscalatesWhenTermIgnored(t *testing.T) {
	path := writeScript(t, `trap '' TERM
echo started
while true; do sleep 0.1; done`)

	h, err := New(200 * time.Millisecond).Start(Spec{Path: path})
	require.NoError(t, err)

	first := <-h.Events()
	require.Equal(t, "started", first.Text)

	h.Cancel()
	events := collect(t, h, 5*time.Second)

	last := events[len(events)-1]
	assert.Equal(t, KindExited, last.Kind)
	assert.Equal(t, ExitKilled, last.Code)
}

func TestCancelAfterExitIsHarmless(t *testing.T) {
	path := writeScript(t, `exit 0`)

	h, err := New(time.Second).Start(Spec{Path: path})
	require.NoError(t, err)

	events := collect(t, h, 5*time.Second)
	h.Cancel()
	h.Cancel()

	require.Len(t, events, 1)
	assert.Equal(t, 0, events[0].Code)
}

func TestCancelAfterExitEventKeepsFailure(t *testing.T) {
	path := writeScript(t, `echo "Error: broken" >&2
exit 3`)

	h, err := New(time.Second).Start(Spec{Path: path})
	require.NoError(t, err)

	var exited Event
	deadline := time.After(5 * time.Second)
	for exited.Kind != KindExited {
		select {
		case ev, ok := <-h.Events():
			require.True(t, ok, "stream closed before the exit event")
			exited = ev
		case <-deadline:
			t.Fatal("timed out waiting for the exit event")
		}
	}

	// The exit event is enqueued before Done closes; cancelling in that
	// window must not relabel the failure.
	h.Cancel()

	assert.Equal(t, 3, exited.Code)
	assert.False(t, h.Cancelled())

	<-h.Done()
	assert.False(t, h.Cancelled())
}

func TestLineWriterSplitsAcrossWrites(t *testing.T) {
	out := make(chan Event, 10)
	w := &lineWriter{kind: KindStdout, out: out}

	_, _ = w.Write([]byte("par"))
	_, _ = w.Write([]byte("tial\r\nnext\nta"))
	_, _ = w.Write([]byte("il"))
	w.flush()
	close(out)

	var got []string
	for ev := range out {
		got = append(got, ev.Text)
	}
	assert.Equal(t, []string{"partial", "next", "tail"}, got)
}
