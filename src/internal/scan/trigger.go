package scan

import (
	"context"
	"sync"
	"time"
)

// Trigger decides when a scan of the music directory is warranted. Two
// implementations exist, selected by configuration (Cfg.Update.Mode),
// mirroring the teacher's dual scanner/notifier updater (§10): Periodic
// re-scans on a fixed interval, Watch reacts to filesystem notifications.
// Both only ever call UpdateQueue.Request, never touch the tree directly.
type Trigger interface {
	Run(ctx context.Context, wg *sync.WaitGroup)
	Errors() <-chan error
}

// Periodic re-requests a full scan every interval.
type Periodic struct {
	interval time.Duration
	queue    *UpdateQueue
	errs     chan error
}

// NewPeriodic creates a Trigger that requests a whole-tree scan every
// interval.
func NewPeriodic(interval time.Duration, queue *UpdateQueue) *Periodic {
	return &Periodic{interval: interval, queue: queue, errs: make(chan error)}
}

// Run implements Trigger.
func (p *Periodic) Run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	log.Trace("running periodic update trigger ...")

	ticker := time.NewTicker(p.interval)
	defer func() {
		ticker.Stop()
		close(p.errs)
		log.Trace("periodic update trigger stopped")
	}()

	for {
		select {
		case <-ticker.C:
			p.queue.Request("")
		case <-ctx.Done():
			return
		}
	}
}

// Errors implements Trigger.
func (p *Periodic) Errors() <-chan error {
	return p.errs
}
