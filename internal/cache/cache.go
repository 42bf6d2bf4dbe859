// Package cache holds the in-memory catalog: one entry per category,
// refreshed by read-only invocations and marked stale by mutating ones.
package cache

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/teamcutter/linebrew/internal/domain"
	"github.com/teamcutter/linebrew/internal/logging"
)

// Entry is a snapshot of one category. Records and Taps are replaced
// wholesale on refresh and never modified afterwards, so a returned Entry
// stays valid after later refreshes.
type Entry struct {
	Category   domain.Category
	Records    []domain.FormulaRecord
	Taps       []string
	Warnings   []domain.ParseWarning
	Fresh      bool
	Generation uint64
	UpdatedAt  time.Time
}

// Loaded reports whether the category was ever read successfully.
func (e Entry) Loaded() bool {
	return e.Generation > 0
}

// Result is delivered once per RefreshAsync call. Shared is set when the
// refresh was coalesced with another caller's.
type Result struct {
	Entry  Entry
	Err    error
	Shared bool
}

type Catalog struct {
	sync.RWMutex
	loader  domain.Loader
	entries map[domain.Category]*Entry
	// epochs counts invalidations per category. A refresh that started
	// before the latest invalidation completes stale.
	epochs map[domain.Category]uint64
	group  singleflight.Group
	log    zerolog.Logger
}

func New(loader domain.Loader) *Catalog {
	return &Catalog{
		loader:  loader,
		entries: make(map[domain.Category]*Entry),
		epochs:  make(map[domain.Category]uint64),
		log:     logging.GetLogger("cache"),
	}
}

// Get returns the current entry without blocking. A category that was never
// loaded comes back empty with Fresh false and Generation 0.
func (c *Catalog) Get(category domain.Category) Entry {
	c.RLock()
	defer c.RUnlock()

	if e, ok := c.entries[category]; ok {
		return *e
	}
	return Entry{Category: category}
}

// Refresh reloads category and waits for the result. Concurrent refreshes
// of one category share a single load. ctx only bounds the wait: the load
// itself continues for the other callers.
func (c *Catalog) Refresh(ctx context.Context, category domain.Category) (Entry, error) {
	select {
	case r := <-c.RefreshAsync(category):
		return r.Entry, r.Err
	case <-ctx.Done():
		return c.Get(category), ctx.Err()
	}
}

// RefreshAsync starts (or joins) the refresh of category and returns a
// channel that receives exactly one Result.
func (c *Catalog) RefreshAsync(category domain.Category) <-chan Result {
	out := make(chan Result, 1)
	ch := c.group.DoChan(category.String(), func() (any, error) {
		return c.load(category)
	})

	go func() {
		r := <-ch
		res := Result{Err: r.Err, Shared: r.Shared}
		if r.Err == nil {
			res.Entry = r.Val.(Entry)
		} else {
			res.Entry = c.Get(category)
		}
		if r.Shared {
			c.log.Debug().Str("category", category.String()).Msg("Joined in-flight refresh")
		}
		out <- res
	}()

	return out
}

// Invalidate marks the given categories stale. Their data is kept for
// display until the next successful refresh.
func (c *Catalog) Invalidate(categories ...domain.Category) {
	if len(categories) == 0 {
		return
	}

	c.Lock()
	defer c.Unlock()

	for _, cat := range categories {
		c.epochs[cat]++
		if e, ok := c.entries[cat]; ok {
			e.Fresh = false
		}
	}

	c.log.Info().Strs("categories", names(categories)).Msg("Categories invalidated")
}

// Stale lists the categories that were loaded at least once and are no
// longer fresh, in category order.
func (c *Catalog) Stale() []domain.Category {
	c.RLock()
	defer c.RUnlock()

	var out []domain.Category
	for _, cat := range domain.Categories() {
		if e, ok := c.entries[cat]; ok && !e.Fresh {
			out = append(out, cat)
		}
	}
	return out
}

func (c *Catalog) load(category domain.Category) (Entry, error) {
	c.RLock()
	epoch := c.epochs[category]
	c.RUnlock()

	start := time.Now()
	c.log.Debug().Str("category", category.String()).Msg("Refresh started")

	listing, err := c.loader.Load(context.Background(), category)
	if err != nil {
		c.log.Error().Err(err).Str("category", category.String()).Msg("Refresh failed")
		return Entry{}, err
	}

	c.Lock()
	defer c.Unlock()

	var gen uint64
	if old, ok := c.entries[category]; ok {
		gen = old.Generation
	}

	e := &Entry{
		Category:   category,
		Records:    slices.Clip(listing.Records),
		Taps:       slices.Clip(listing.Taps),
		Warnings:   listing.Warnings,
		Fresh:      c.epochs[category] == epoch,
		Generation: gen + 1,
		UpdatedAt:  time.Now(),
	}
	c.entries[category] = e

	c.log.Info().
		Str("category", category.String()).
		Uint64("generation", e.Generation).
		Int("records", len(e.Records)).
		Int("taps", len(e.Taps)).
		Int("warnings", len(e.Warnings)).
		Bool("fresh", e.Fresh).
		Dur("took", time.Since(start)).
		Msg("Refresh completed")

	return *e, nil
}

func names(categories []domain.Category) []string {
	out := make([]string, len(categories))
	for i, c := range categories {
		out[i] = c.String()
	}
	return out
}
