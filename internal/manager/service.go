// Package manager is the single entry point of the presentation layer: it
// runs mutating jobs, keeps the catalog consistent with their outcome and
// answers catalog queries.
package manager

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/teamcutter/linebrew/internal/brew"
	"github.com/teamcutter/linebrew/internal/cache"
	"github.com/teamcutter/linebrew/internal/domain"
	"github.com/teamcutter/linebrew/internal/index"
	"github.com/teamcutter/linebrew/internal/job"
	"github.com/teamcutter/linebrew/internal/logging"
)

var ErrBusy = errors.New("an operation is already running")

const DefaultPollInterval = 100 * time.Millisecond

// Detailer looks up a single formula.
type Detailer interface {
	Info(ctx context.Context, name string) (*domain.FormulaRecord, error)
}

// Notification is emitted once per mutating job, when it becomes terminal.
type Notification struct {
	Job         *job.Job
	State       domain.JobState
	Code        int
	Err         error
	Output      []string
	Invalidated []domain.Category
}

func (n Notification) Succeeded() bool {
	return n.State == domain.JobSucceeded
}

type Manager struct {
	engine  *job.Engine
	catalog *cache.Catalog
	details Detailer
	poll    time.Duration
	log     zerolog.Logger

	mu       sync.Mutex
	inflight map[string]*job.Job
	subs     []func(Notification)
}

func New(engine *job.Engine, catalog *cache.Catalog, details Detailer, poll time.Duration) *Manager {
	if poll <= 0 {
		poll = DefaultPollInterval
	}

	return &Manager{
		engine:   engine,
		catalog:  catalog,
		details:  details,
		poll:     poll,
		log:      logging.GetLogger("manager"),
		inflight: make(map[string]*job.Job),
	}
}

// Perform submits a mutating job. It fails with ErrBusy, without submitting
// anything, while another job holds the same target.
func (m *Manager) Perform(class domain.CommandClass, target string) (*job.Job, error) {
	if class == domain.ClassRead {
		return nil, fmt.Errorf("%w: read jobs go through Refresh", brew.ErrInvalidTarget)
	}

	key := domain.TargetKey(class, target)

	m.mu.Lock()
	defer m.mu.Unlock()

	if running, ok := m.inflight[key]; ok {
		m.log.Warn().Str("key", key).Str("job", running.ID).Msg("Target busy")
		return nil, fmt.Errorf("%w on %s (%s)", ErrBusy, key, running.Class)
	}

	j, err := m.engine.Submit(class, target, func(t string) ([]string, error) {
		return brew.Args(class, t)
	})
	if err != nil {
		return nil, err
	}

	m.inflight[key] = j
	m.log.Info().Str("job", j.ID).Str("class", class.String()).Str("target", target).Msg("Operation started")
	return j, nil
}

// Busy reports whether a job of class on target would be refused.
func (m *Manager) Busy(class domain.CommandClass, target string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.inflight[domain.TargetKey(class, target)]
	return ok
}

// Running returns the jobs currently holding a target.
func (m *Manager) Running() []*job.Job {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*job.Job, 0, len(m.inflight))
	for _, j := range m.inflight {
		out = append(out, j)
	}
	return out
}

func (m *Manager) Cancel(j *job.Job) {
	m.engine.Cancel(j)
}

func (m *Manager) CancelAll() {
	for _, j := range m.Running() {
		m.engine.Cancel(j)
	}
}

// Subscribe registers fn for notifications. fn runs on whichever goroutine
// drains the finished job and must not block.
func (m *Manager) Subscribe(fn func(Notification)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
}

// Poll applies the events already queued for j without blocking and returns
// them. It is meant for an event loop that drains several jobs in turn.
func (m *Manager) Poll(j *job.Job) []job.Event {
	var events []job.Event
	for {
		ev, ok := j.TryNext()
		if !ok {
			return events
		}
		events = append(events, ev)
		m.observe(j, ev)
	}
}

// Drain consumes j until it is terminal, calling fn for every event. It
// wakes every poll interval to notice ctx; when ctx ends the job is
// cancelled and draining continues until the child has exited.
func (m *Manager) Drain(ctx context.Context, j *job.Job, fn func(job.Event)) error {
	cancelled := false
	for !j.Done() {
		if !cancelled && ctx.Err() != nil {
			cancelled = true
			m.engine.Cancel(j)
		}

		ev, ok := j.NextTimeout(m.poll)
		if !ok {
			continue
		}
		if fn != nil {
			fn(ev)
		}
		m.observe(j, ev)
	}
	return j.Err()
}

func (m *Manager) observe(j *job.Job, ev job.Event) {
	if ev.Kind == job.EventFinished && j.Done() {
		m.complete(j)
	}
}

func (m *Manager) complete(j *job.Job) {
	key := domain.TargetKey(j.Class, j.Target)

	m.mu.Lock()
	if m.inflight[key] == j {
		delete(m.inflight, key)
	}
	subs := append([]func(Notification){}, m.subs...)
	m.mu.Unlock()

	code, _ := j.ExitCode()
	n := Notification{
		Job:    j,
		State:  j.State(),
		Code:   code,
		Err:    j.Err(),
		Output: j.Transcript(),
	}

	if n.Succeeded() {
		n.Invalidated = Invalidates(j.Class)
		m.catalog.Invalidate(n.Invalidated...)
	}

	m.log.Info().
		Str("job", j.ID).
		Str("class", j.Class.String()).
		Str("target", j.Target).
		Str("state", n.State.String()).
		Int("code", code).
		Msg("Operation finished")

	for _, fn := range subs {
		fn(n)
	}
}

// overlays lists, per category, the other categories whose records fill in
// what its own listing lacks. Earlier layers win.
var overlays = map[domain.Category][]domain.Category{
	domain.CategoryAll: {
		domain.CategoryOutdated, domain.CategoryInstalled,
		domain.CategoryPinned, domain.CategoryLeaves,
	},
	domain.CategoryInstalled: {domain.CategoryLeaves},
	domain.CategoryLeaves:    {domain.CategoryInstalled},
}

// Layers returns the categories Category overlays onto category. They have to
// be loaded for the overlaid view to be complete.
func Layers(category domain.Category) []domain.Category {
	return slices.Clone(overlays[category])
}

// Category returns the cached entry overlaid with whatever its layers know:
// All only has names, Installed lacks the leaf flag and Leaves lacks
// versions.
func (m *Manager) Category(category domain.Category) cache.Entry {
	e := m.catalog.Get(category)
	layers := overlays[category]
	if len(layers) == 0 || len(e.Records) == 0 {
		return e
	}

	records := make([][]domain.FormulaRecord, len(layers))
	for i, cat := range layers {
		records[i] = m.catalog.Get(cat).Records
	}
	e.Records = index.Overlay(e.Records, records...)
	return e
}

// Refresh reloads the given categories in parallel.
func (m *Manager) Refresh(ctx context.Context, categories ...domain.Category) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, cat := range categories {
		g.Go(func() error {
			_, err := m.catalog.Refresh(ctx, cat)
			return err
		})
	}
	return g.Wait()
}

// RefreshStale reloads every category that was loaded before and has since
// been invalidated.
func (m *Manager) RefreshStale(ctx context.Context) error {
	return m.Refresh(ctx, m.catalog.Stale()...)
}

func (m *Manager) RefreshAsync(category domain.Category) <-chan cache.Result {
	return m.catalog.RefreshAsync(category)
}

// Search matches query against the cached records of category.
func (m *Manager) Search(category domain.Category, query string) iter.Seq[domain.FormulaRecord] {
	return index.Search(m.Category(category).Records, query)
}

func (m *Manager) Sort(records []domain.FormulaRecord, key index.SortKey) []domain.FormulaRecord {
	return index.Sort(records, key)
}

func (m *Manager) Info(ctx context.Context, name string) (*domain.FormulaRecord, error) {
	return m.details.Info(ctx, name)
}
