package history

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/teamcutter/linebrew/internal/logging"
	"github.com/teamcutter/linebrew/internal/manager"
	"github.com/teamcutter/linebrew/internal/pipe"
)

// Recorder writes notifications to the store on its own goroutine, so the
// goroutine delivering them never waits on disk I/O.
type Recorder struct {
	store *Store
	keep  int
	in    chan *Record
	wg    sync.WaitGroup
	once  sync.Once
	log   zerolog.Logger
}

// NewRecorder starts a recorder that prunes the store down to keep rows
// after every write. A keep of -1 disables pruning.
func NewRecorder(store *Store, keep int) *Recorder {
	r := &Recorder{
		store: store,
		keep:  keep,
		in:    make(chan *Record),
		log:   logging.GetLogger("history"),
	}

	out := pipe.Unbounded(r.in)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for rec := range out {
			r.write(rec)
		}
	}()

	return r
}

// Notify is meant to be passed to manager.Manager.Subscribe.
func (r *Recorder) Notify(n manager.Notification) {
	j := n.Job
	r.in <- &Record{
		ID:          j.ID,
		Class:       j.Class.String(),
		Target:      j.Target,
		Args:        j.Args,
		State:       n.State.String(),
		Code:        n.Code,
		SubmittedAt: j.SubmittedAt,
		FinishedAt:  j.FinishedAt(),
		Output:      n.Output,
	}
}

// Close flushes pending records. Notify must not be called afterwards.
func (r *Recorder) Close() {
	r.once.Do(func() {
		close(r.in)
	})
	r.wg.Wait()
}

func (r *Recorder) write(rec *Record) {
	if err := r.store.Add(rec); err != nil {
		r.log.Error().Err(err).Str("job", rec.ID).Msg("Failed to record job")
		return
	}
	r.log.Debug().Str("job", rec.ID).Str("state", rec.State).Msg("Job recorded")

	if r.keep < 0 {
		return
	}
	if n, err := r.store.Prune(r.keep); err != nil {
		r.log.Error().Err(err).Msg("Failed to prune history")
	} else if n > 0 {
		r.log.Debug().Int64("pruned", n).Msg("History pruned")
	}
}
