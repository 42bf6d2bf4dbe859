// Package job wraps single invocations of the external executable as
// cancellable jobs whose events are consumed by one goroutine.
package job

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/teamcutter/linebrew/internal/domain"
	"github.com/teamcutter/linebrew/internal/logging"
	"github.com/teamcutter/linebrew/internal/pipe"
	"github.com/teamcutter/linebrew/internal/runner"
)

// ArgsFunc turns a target into the concrete argument list.
type ArgsFunc func(target string) ([]string, error)

type Engine struct {
	binary string
	env    []string
	runner *runner.Runner
	log    zerolog.Logger
}

func NewEngine(binary string, env []string, r *runner.Runner) *Engine {
	return &Engine{
		binary: binary,
		env:    env,
		runner: r,
		log:    logging.GetLogger("job"),
	}
}

func (e *Engine) Binary() string {
	return e.binary
}

// Submit starts a job in its own goroutine and returns its handle in the
// Pending state. A missing or non-executable binary is reported here as a
// *domain.SpawnError and no job is created.
func (e *Engine) Submit(class domain.CommandClass, target string, build ArgsFunc) (*Job, error) {
	args, err := build(target)
	if err != nil {
		return nil, err
	}

	if _, err := runner.Check(e.binary); err != nil {
		e.log.Error().Err(err).Str("class", class.String()).Msg("Cannot submit job")
		return nil, err
	}

	raw := make(chan Event, 16)
	j := &Job{
		ID:          uuid.NewString(),
		Class:       class,
		Target:      target,
		Args:        args,
		SubmittedAt: time.Now(),
		events:      pipe.Unbounded(raw),
		cancelCh:    make(chan struct{}),
		state:       domain.JobPending,
	}

	e.log.Debug().
		Str("job", j.ID).
		Str("class", class.String()).
		Str("target", target).
		Strs("args", args).
		Msg("Job submitted")

	go e.run(j, raw)
	return j, nil
}

// Cancel forwards to the job's child process.
func (e *Engine) Cancel(j *Job) {
	e.log.Info().Str("job", j.ID).Msg("Cancellation requested")
	j.Cancel()
}

// run is the job's background context. It only ever enqueues.
func (e *Engine) run(j *Job, raw chan<- Event) {
	defer close(raw)
	log := e.log.With().Str("job", j.ID).Logger()

	select {
	case <-j.cancelCh:
		log.Info().Msg("Job cancelled before start")
		raw <- Event{Kind: EventFinished, Code: runner.ExitKilled, Cancelled: true}
		return
	default:
	}

	h, err := e.runner.Start(runner.Spec{Path: e.binary, Args: j.Args, Env: e.env})
	if err != nil {
		log.Error().Err(err).Msg("Spawn failed")
		raw <- Event{Kind: EventFinished, Code: runner.ExitKilled, Err: err}
		return
	}
	raw <- Event{Kind: EventStarted}

	go func() {
		select {
		case <-j.cancelCh:
			h.Cancel()
		case <-h.Done():
		}
	}()

	for ev := range h.Events() {
		if ev.Kind == runner.KindExited {
			log.Debug().Int("code", ev.Code).Bool("cancelled", h.Cancelled()).Msg("Job finished")
			raw <- Event{Kind: EventFinished, Code: ev.Code, Cancelled: h.Cancelled()}
			continue
		}
		raw <- Event{
			Kind: EventLine,
			Line: Line{Stream: ev.Kind, Text: ev.Text, Tag: Classify(ev.Text)},
		}
	}
}
