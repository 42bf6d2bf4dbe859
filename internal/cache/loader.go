package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/teamcutter/linebrew/internal/brew"
	"github.com/teamcutter/linebrew/internal/domain"
	"github.com/teamcutter/linebrew/internal/index"
	"github.com/teamcutter/linebrew/internal/job"
	"github.com/teamcutter/linebrew/internal/logging"
)

var ErrNoSuchFormula = errors.New("no such formula")

// JobLoader reads categories by running read-class jobs. Each job is
// drained by the goroutine that called Load, its only consumer.
type JobLoader struct {
	engine *job.Engine
	log    zerolog.Logger
}

func NewJobLoader(engine *job.Engine) *JobLoader {
	return &JobLoader{
		engine: engine,
		log:    logging.GetLogger("loader"),
	}
}

func (l *JobLoader) Load(ctx context.Context, category domain.Category) (*domain.Listing, error) {
	stdout, err := l.run(ctx, "", func(string) ([]string, error) {
		return brew.ListArgs(category)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", category, err)
	}

	listing := index.Parse(category, stdout)
	l.warn(listing.Warnings)
	return listing, nil
}

// Info looks up a single formula, installed or not.
func (l *JobLoader) Info(ctx context.Context, name string) (*domain.FormulaRecord, error) {
	stdout, err := l.run(ctx, name, brew.InfoArgs)
	if err != nil {
		return nil, fmt.Errorf("failed to get info for %s: %w", name, err)
	}

	records, warnings := index.ParseInfo(domain.CategoryAll, stdout)
	l.warn(warnings)
	for i := range records {
		if records[i].Name == name {
			return &records[i], nil
		}
	}
	if len(records) == 1 {
		// Aliases and full tap names resolve to the canonical name.
		return &records[0], nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNoSuchFormula, name)
}

func (l *JobLoader) run(ctx context.Context, target string, build job.ArgsFunc) ([]byte, error) {
	j, err := l.engine.Submit(domain.ClassRead, target, build)
	if err != nil {
		return nil, err
	}
	if err := j.Wait(ctx); err != nil {
		return nil, err
	}
	return []byte(j.Stdout()), nil
}

func (l *JobLoader) warn(warnings []domain.ParseWarning) {
	for _, w := range warnings {
		l.log.Warn().
			Str("category", w.Category.String()).
			Int("block", w.Block).
			Str("text", w.Text).
			Msg(w.Reason)
	}
}
