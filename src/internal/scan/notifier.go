package scan

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rjeczalik/notify"

	"gitlab.com/mipimipi/dbupdate/src/internal/dbtree"
)

// Watch is the fsnotify-driven Trigger, grounded on the teacher's
// content/notifier.go: inotify events accumulate under a mutex-protected
// slice, and a periodic tick drains and translates them into scoped
// UpdateQueue requests, batched so a flurry of events for one path within
// a drain interval produces a single request rather than one per event;
// events for different paths in the same directory each produce their own
// request.
type Watch struct {
	mapper *dbtree.PathMapper
	queue  *UpdateQueue

	changes    []notify.EventInfo
	mutChanges sync.Mutex

	drainInterval time.Duration
	errs          chan error
}

// NewWatch creates a Trigger that watches mapper's music root recursively.
func NewWatch(mapper *dbtree.PathMapper, queue *UpdateQueue, drainInterval time.Duration) *Watch {
	return &Watch{
		mapper:        mapper,
		queue:         queue,
		drainInterval: drainInterval,
		errs:          make(chan error),
	}
}

// Run implements Trigger.
func (w *Watch) Run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	log.Trace("running watch update trigger ...")

	chgs := make(chan notify.EventInfo, 1)
	if err := notify.Watch(w.mapper.Root()+"/...", chgs, notify.All); err != nil {
		w.errs <- errors.Wrapf(err, "cannot watch '%s'", w.mapper.Root())
	}

	ticker := time.NewTicker(w.drainInterval)
	defer func() {
		notify.Stop(chgs)
		close(chgs)
		ticker.Stop()
		close(w.errs)
		log.Trace("watch update trigger stopped")
	}()

	for {
		select {
		case chg := <-chgs:
			w.mutChanges.Lock()
			w.changes = append(w.changes, chg)
			w.mutChanges.Unlock()

		case <-ticker.C:
			w.processChanges()

		case <-ctx.Done():
			return
		}
	}
}

// Errors implements Trigger.
func (w *Watch) Errors() <-chan error {
	return w.errs
}

func (w *Watch) processChanges() {
	w.mutChanges.Lock()
	if len(w.changes) == 0 {
		w.mutChanges.Unlock()
		return
	}
	changes := w.changes
	w.changes = nil
	w.mutChanges.Unlock()

	seen := make(map[string]struct{})
	for _, chg := range changes {
		logical, ok := w.mapper.LogicalPath(chg.Path())
		if !ok {
			continue
		}
		if _, done := seen[logical]; done {
			continue
		}
		seen[logical] = struct{}{}
		log.Tracef("%s :: %s", chg.Event().String(), chg.Path())
		w.queue.Request(logical)
	}
}
