package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/teamcutter/linebrew/internal/domain"
	"github.com/teamcutter/linebrew/internal/job"
)

// perform submits one job per target and drains them all from this
// goroutine, the only consumer. A nil targets slice runs the class once
// without a target.
func (a *app) perform(ctx context.Context, class domain.CommandClass, targets []string) error {
	if len(targets) == 0 {
		targets = []string{""}
	}

	var jobs []*job.Job
	var errs []error
	for _, t := range targets {
		j, err := a.mgr.Perform(class, t)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", describe(class, t), err))
			continue
		}
		jobs = append(jobs, j)
	}

	a.drain(ctx, jobs, len(jobs) > 1)

	fmt.Fprintln(a.out)
	for _, j := range jobs {
		a.summarize(j)
		if err := j.Err(); err != nil && !errors.Is(err, domain.ErrCancelled) {
			errs = append(errs, fmt.Errorf("%s: %w", describe(j.Class, j.Target), err))
		}
	}
	for _, err := range errs {
		fmt.Fprintf(a.out, "%s %v\n", red("✗"), err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%d of %d operation(s) failed", len(errs), len(targets))
	}
	return nil
}

// drain polls every job in turn, waking each poll interval, until all are
// terminal. When ctx ends every job is cancelled and draining continues
// until the children are gone.
func (a *app) drain(ctx context.Context, jobs []*job.Job, prefix bool) {
	if len(jobs) == 0 {
		return
	}

	ticker := time.NewTicker(a.cfg.PollInterval.Duration)
	defer ticker.Stop()

	cancelled := false
	for {
		pending := 0
		for _, j := range jobs {
			for _, ev := range a.mgr.Poll(j) {
				a.printEvent(j, ev, prefix)
			}
			if !j.Done() {
				pending++
			}
		}
		if pending == 0 {
			return
		}

		if !cancelled && ctx.Err() != nil {
			cancelled = true
			fmt.Fprintf(a.out, "\n%s Cancelling %d job(s)...\n", yellow("!"), pending)
			for _, j := range jobs {
				a.mgr.Cancel(j)
			}
		}
		<-ticker.C
	}
}

func (a *app) printEvent(j *job.Job, ev job.Event, prefix bool) {
	if ev.Kind != job.EventLine {
		return
	}
	if prefix {
		fmt.Fprintf(a.out, "%s %s\n", dim("["+j.Target+"]"), colorize(ev.Line.Tag, ev.Line.Text))
		return
	}
	fmt.Fprintln(a.out, colorize(ev.Line.Tag, ev.Line.Text))
}

func (a *app) summarize(j *job.Job) {
	what := bold(describe(j.Class, j.Target))
	took := dim(fmt.Sprintf("(%s)", j.FinishedAt().Sub(j.SubmittedAt).Round(10*time.Millisecond)))

	switch j.State() {
	case domain.JobSucceeded:
		fmt.Fprintf(a.out, "%s %s %s\n", green("✓"), what, took)
	case domain.JobCancelled:
		fmt.Fprintf(a.out, "%s %s cancelled\n", yellow("!"), what)
	}
}

func describe(class domain.CommandClass, target string) string {
	if target == "" {
		return class.String()
	}
	return class.String() + " " + target
}

// refreshStale reloads whatever the finished jobs invalidated.
func (a *app) refreshStale(ctx context.Context) error {
	if ctx.Err() != nil {
		return nil
	}
	stop := withSpinner(ctx, "Refreshing...")
	defer stop()
	return a.mgr.RefreshStale(ctx)
}

// refresh loads categories under a spinner.
func (a *app) refresh(ctx context.Context, categories ...domain.Category) error {
	stop := withSpinner(ctx, "Reading catalog...")
	defer stop()
	return a.mgr.Refresh(ctx, categories...)
}

// updateOnLaunch runs `update` first when the config asks for it.
func (a *app) updateOnLaunch(ctx context.Context) {
	if !a.cfg.UpdateOnLaunch {
		return
	}

	j, err := a.mgr.Perform(domain.ClassUpdate, "")
	if err != nil {
		fmt.Fprintf(a.out, "%s update: %v\n", yellow("!"), err)
		return
	}

	stop := withSpinner(ctx, "Updating Homebrew...")
	err = a.mgr.Drain(ctx, j, nil)
	stop()
	if err != nil {
		fmt.Fprintf(a.out, "%s update: %v\n", yellow("!"), err)
	}
}
