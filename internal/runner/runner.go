// Package runner starts the external executable and exposes its output as an
// ordered stream of line events followed by exactly one exit event.
package runner

import (
	"bytes"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/teamcutter/linebrew/internal/domain"
	"github.com/teamcutter/linebrew/internal/logging"
	"github.com/teamcutter/linebrew/internal/pipe"
)

// ExitKilled is reported when the child was terminated by a signal rather
// than exiting on its own.
const ExitKilled = -1

const DefaultGrace = 5 * time.Second

type EventKind int

const (
	KindStdout EventKind = iota
	KindStderr
	KindExited
)

func (k EventKind) String() string {
	switch k {
	case KindStdout:
		return "stdout"
	case KindStderr:
		return "stderr"
	default:
		return "exited"
	}
}

type Event struct {
	Kind EventKind
	Text string
	Code int
}

type Spec struct {
	Path string
	Args []string
	Dir  string
	Env  []string
}

type Runner struct {
	grace time.Duration
	log   zerolog.Logger
}

// New returns a runner that waits grace between the termination signal and a
// forced kill when a handle is cancelled.
func New(grace time.Duration) *Runner {
	if grace <= 0 {
		grace = DefaultGrace
	}
	return &Runner{
		grace: grace,
		log:   logging.GetLogger("runner"),
	}
}

// Check resolves path to an executable file. A missing or non-executable
// file yields a *domain.SpawnError.
func Check(path string) (string, error) {
	resolved, err := exec.LookPath(path)
	if err != nil {
		return "", &domain.SpawnError{Path: path, Err: err}
	}
	return resolved, nil
}

// Start launches one child process. Errors are synchronous and mean no
// process exists and no events will follow.
func (r *Runner) Start(spec Spec) (*Handle, error) {
	path, err := Check(spec.Path)
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(path, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = spec.Env
	cmd.WaitDelay = r.grace
	setProcessGroup(cmd)

	raw := make(chan Event, 64)
	stdout := &lineWriter{kind: KindStdout, out: raw}
	stderr := &lineWriter{kind: KindStderr, out: raw}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	logging.LogCommand(r.log, path, spec.Args)
	if err := cmd.Start(); err != nil {
		return nil, &domain.SpawnError{Path: path, Err: err}
	}

	h := &Handle{
		cmd:    cmd,
		events: pipe.Unbounded(raw),
		done:   make(chan struct{}),
		grace:  r.grace,
		log:    r.log.With().Int("pid", cmd.Process.Pid).Logger(),
	}
	go h.wait(stdout, stderr, raw)

	return h, nil
}

// Handle is one running child. Events must be drained by a single consumer;
// Cancel may be called from anywhere.
type Handle struct {
	cmd        *exec.Cmd
	events     <-chan Event
	done       chan struct{}
	grace      time.Duration
	cancelOnce sync.Once
	cancelled  atomic.Bool
	log        zerolog.Logger

	// mu orders signalling against reaping. Once reaped is set the pid may
	// be reused and must not be signalled.
	mu     sync.Mutex
	reaped bool
}

func (h *Handle) Events() <-chan Event {
	return h.events
}

// Done is closed once the child has been reaped.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

func (h *Handle) Pid() int {
	return h.cmd.Process.Pid
}

// Cancelled reports whether the termination signal reached a live child.
func (h *Handle) Cancelled() bool {
	return h.cancelled.Load()
}

// Cancel sends the termination signal to the child's process group and
// escalates to a kill if it is still alive after the grace period. The exit
// event is still delivered. Cancelling a child that was already reaped does
// nothing, so its own exit status stands.
func (h *Handle) Cancel() {
	h.cancelOnce.Do(func() {
		h.mu.Lock()
		if h.reaped {
			h.mu.Unlock()
			return
		}
		h.log.Info().Msg("Terminating child process")
		err := terminate(h.cmd)
		if err == nil {
			h.cancelled.Store(true)
		}
		h.mu.Unlock()

		if err != nil {
			h.log.Debug().Err(err).Msg("Termination signal not delivered")
			return
		}

		go func() {
			timer := time.NewTimer(h.grace)
			defer timer.Stop()

			select {
			case <-h.done:
			case <-timer.C:
				h.mu.Lock()
				defer h.mu.Unlock()
				if h.reaped {
					return
				}
				h.log.Warn().Dur("grace", h.grace).Msg("Child ignored termination, killing")
				if err := kill(h.cmd); err != nil {
					h.log.Debug().Err(err).Msg("Kill signal not delivered")
				}
			}
		}()
	})
}

func (h *Handle) wait(stdout, stderr *lineWriter, raw chan<- Event) {
	err := h.cmd.Wait()

	h.mu.Lock()
	h.reaped = true
	h.mu.Unlock()

	// Wait returns only after the copying goroutines are finished, so the
	// writers are no longer in use.
	stdout.flush()
	stderr.flush()

	code := exitCode(h.cmd)
	h.log.Debug().AnErr("wait", err).Int("code", code).Bool("cancelled", h.Cancelled()).Msg("Child exited")

	raw <- Event{Kind: KindExited, Code: code}
	close(raw)
	close(h.done)
}

func exitCode(cmd *exec.Cmd) int {
	ps := cmd.ProcessState
	if ps == nil {
		return ExitKilled
	}
	if code := ps.ExitCode(); code >= 0 {
		return code
	}
	return ExitKilled
}

// lineWriter splits a byte stream into line events. Each writer is used by a
// single copying goroutine.
type lineWriter struct {
	kind EventKind
	out  chan<- Event
	buf  []byte
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)

	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.emit(w.buf[:i])
		n := copy(w.buf, w.buf[i+1:])
		w.buf = w.buf[:n]
	}

	return len(p), nil
}

func (w *lineWriter) flush() {
	if len(w.buf) > 0 {
		w.emit(w.buf)
		w.buf = nil
	}
}

func (w *lineWriter) emit(line []byte) {
	line = bytes.TrimSuffix(line, []byte("\r"))
	w.out <- Event{Kind: w.kind, Text: string(line)}
}
