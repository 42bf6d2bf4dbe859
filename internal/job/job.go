package job

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/teamcutter/linebrew/internal/domain"
	"github.com/teamcutter/linebrew/internal/runner"
)

type EventKind int

const (
	EventStarted EventKind = iota
	EventLine
	EventFinished
)

type Line struct {
	Stream runner.EventKind
	Text   string
	Tag    domain.Tag
}

// Event is what the background context enqueues for the consumer.
// EventFinished is always the last event of a job.
type Event struct {
	Kind      EventKind
	Line      Line
	Code      int
	Cancelled bool
	Err       error
}

// Job is one invocation of the external executable.
//
// Everything except Cancel belongs to the consumer goroutine: the state and
// output are only ever changed by the Next/TryNext/NextTimeout calls that
// dequeue events, so they must not be read concurrently from elsewhere.
type Job struct {
	ID          string
	Class       domain.CommandClass
	Target      string
	Args        []string
	SubmittedAt time.Time

	events     <-chan Event
	cancelCh   chan struct{}
	cancelOnce sync.Once

	state      domain.JobState
	output     []Line
	exitCode   int
	err        error
	finishedAt time.Time
}

func (j *Job) State() domain.JobState {
	return j.state
}

func (j *Job) Done() bool {
	return j.state.Terminal()
}

// ExitCode is only meaningful once the job is terminal.
func (j *Job) ExitCode() (int, bool) {
	return j.exitCode, j.state.Terminal()
}

// Err reports why a terminal job did not succeed: a *domain.RuntimeError,
// domain.ErrCancelled or a *domain.SpawnError.
func (j *Job) Err() error {
	return j.err
}

func (j *Job) FinishedAt() time.Time {
	return j.finishedAt
}

func (j *Job) Output() []Line {
	out := make([]Line, len(j.output))
	copy(out, j.output)
	return out
}

// Transcript returns every output line, both streams, in arrival order.
func (j *Job) Transcript() []string {
	lines := make([]string, len(j.output))
	for i, l := range j.output {
		lines[i] = l.Text
	}
	return lines
}

// Stdout joins the stdout lines only; listings are parsed from this.
func (j *Job) Stdout() string {
	var b strings.Builder
	for _, l := range j.output {
		if l.Stream == runner.KindStdout {
			b.WriteString(l.Text)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Cancel requests termination of the child. The job only becomes terminal
// once the child has actually exited. Safe from any goroutine.
func (j *Job) Cancel() {
	j.cancelOnce.Do(func() {
		close(j.cancelCh)
	})
}

// Next blocks until the next event, applying it to the job. It returns
// io.EOF after the final event has been consumed.
func (j *Job) Next(ctx context.Context) (Event, error) {
	select {
	case ev, ok := <-j.events:
		if !ok {
			return Event{}, io.EOF
		}
		j.apply(ev)
		return ev, nil
	case <-ctx.Done():
		return Event{}, ctx.Err()
	}
}

// TryNext dequeues an event only if one is already available.
func (j *Job) TryNext() (Event, bool) {
	select {
	case ev, ok := <-j.events:
		if !ok {
			return Event{}, false
		}
		j.apply(ev)
		return ev, true
	default:
		return Event{}, false
	}
}

// NextTimeout waits at most d for an event so the caller can wake up
// periodically.
func (j *Job) NextTimeout(d time.Duration) (Event, bool) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case ev, ok := <-j.events:
		if !ok {
			return Event{}, false
		}
		j.apply(ev)
		return ev, true
	case <-timer.C:
		return Event{}, false
	}
}

// Wait drains the job to its terminal state. If ctx ends first the job is
// cancelled and still drained, so Wait returns only once the child is gone.
func (j *Job) Wait(ctx context.Context) error {
	for {
		_, err := j.Next(ctx)
		switch {
		case err == io.EOF:
			return j.err
		case err != nil:
			j.Cancel()
			ctx = context.Background()
		}
	}
}

func (j *Job) apply(ev Event) {
	if j.state.Terminal() {
		return
	}

	switch ev.Kind {
	case EventStarted:
		j.state = domain.JobRunning
	case EventLine:
		j.output = append(j.output, ev.Line)
	case EventFinished:
		j.exitCode = ev.Code
		j.finishedAt = time.Now()

		switch {
		case ev.Err != nil:
			j.state = domain.JobFailed
			j.err = ev.Err
		case ev.Code == 0:
			j.state = domain.JobSucceeded
		case ev.Cancelled:
			j.state = domain.JobCancelled
			j.err = domain.ErrCancelled
		default:
			j.state = domain.JobFailed
			j.err = &domain.RuntimeError{Code: ev.Code, Output: j.Transcript()}
		}
	}
}
