package server

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/errors"
	l "github.com/sirupsen/logrus"

	"gitlab.com/mipimipi/dbupdate/src/internal/archive"
	"gitlab.com/mipimipi/dbupdate/src/internal/config"
	"gitlab.com/mipimipi/dbupdate/src/internal/dbtree"
	"gitlab.com/mipimipi/dbupdate/src/internal/decoder"
	"gitlab.com/mipimipi/dbupdate/src/internal/persist"
	"gitlab.com/mipimipi/dbupdate/src/internal/playlist"
	"gitlab.com/mipimipi/dbupdate/src/internal/scan"
)

var log *l.Entry = l.WithFields(l.Fields{"srv": "server"})

const dbFilename = "db.json"

// watchDrainInterval is how often the notify-mode trigger batches
// accumulated filesystem events into UpdateQueue requests.
const watchDrainInterval = 2 * time.Second

// Run implements the main control loop of the service thread: it loads the
// persisted tree, performs an initial full scan, then processes OS
// signals, update triggers and scan-thread events until told to stop.
// version is the dbupdate version; it is stored in the context under
// config.KeyVersion.
func Run(version string) (err error) {
	var cfg config.Cfg
	if cfg, err = config.Load(); err != nil {
		err = errors.Wrap(err, "cannot run dbupdate")
		return
	}
	if err = cfg.Validate(); err != nil {
		err = errors.Wrap(err, "cannot run dbupdate")
		return
	}

	// set up logging: no log entries possible before this statement!
	if err = setupLogging(cfg.LogDir, cfg.LogLevel); err != nil {
		err = errors.Wrap(err, "cannot run dbupdate")
		return
	}

	log.Trace("running ...")

	ctx := context.WithValue(context.Background(), config.KeyCfg, cfg)
	ctx = context.WithValue(ctx, config.KeyVersion, version)

	mapper := dbtree.NewPathMapper(cfg.Update.MusicDir)
	store := persist.New(filepath.Join(cfg.CacheDir, dbFilename))

	tree, err := store.Load()
	if err != nil {
		err = errors.Wrap(err, "cannot run dbupdate")
		return
	}

	plist := playlist.New()
	idle := playlist.NewIdleBus()
	stats := newStats()

	bridge := scan.NewBridge()
	broker := scan.NewDeleteBroker(bridge)

	symlinks := scan.NewSymlinkPolicy(cfg.Update.FollowInside(), cfg.Update.FollowOutside())
	cycles := scan.NewCycleGuard(mapper)
	scanner := scan.NewDirectoryScanner(mapper, symlinks, cycles, decoder.New(), archive.New(), cfg.Update.EnableArchives)

	queue := scan.NewUpdateQueue(tree, scanner, broker, bridge, cfg.Update.QueueCapacity, func() {
		stats.refresh(tree)
	})

	var trigger scan.Trigger
	switch cfg.Update.Mode {
	case "notify":
		trigger = scan.NewWatch(mapper, queue, watchDrainInterval)
	default:
		trigger = scan.NewPeriodic(cfg.Update.Interval*time.Second, queue)
	}

	ctx, cancel := context.WithCancel(ctx)

	var wg sync.WaitGroup

	// initial full scan, processed synchronously so no signal or trigger is
	// handled before the tree reflects what's on disk right now
	initialID := queue.Request("")
	for {
		ev := <-bridge.Events()
		finishedID, finished := handleEvent(ev, plist, idle, queue, broker)
		if finished && finishedID == initialID {
			break
		}
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	wg.Add(1)
	go trigger.Run(ctx, &wg)

	// main control loop
	wg.Add(1)
	go func(wg *sync.WaitGroup) {
		defer wg.Done()

		for {
			select {
			case sig := <-interrupt:
				log.Tracef("signal received: %v", sig)
				log.Trace("stopping ...")
				cancel()
				log.Trace("stopped")
				return

			case ev := <-bridge.Events():
				handleEvent(ev, plist, idle, queue, broker)

			case err := <-trigger.Errors():
				log.Tracef("update trigger error received: %v", err)
				log.Trace("stopping ...")
				cancel()
				log.Trace("stopped")
				return
			}
		}
	}(&wg)

	wg.Wait()

	return
}

// handleEvent processes one event from the scan bridge. It returns the
// finished job's id and true iff ev was a job-finished event.
//
// It must never touch tree itself: queue.Finish may spawn the next pending
// job before returning, and that job's scanner goroutine starts mutating
// tree immediately, concurrently with the service thread. Stats are
// refreshed only by queue's own refreshStats callback, which runs on the
// drain-to-Idle path where no successor job is live (§5).
func handleEvent(
	ev scan.Event,
	plist *playlist.Playlist,
	idle *playlist.IdleBus,
	queue *scan.UpdateQueue,
	broker *scan.DeleteBroker,
) (scan.JobID, bool) {
	switch ev.Kind {
	case scan.EventDeleteRequest:
		plist.Remove(ev.Song)
		broker.Ack()
		return 0, false

	case scan.EventJobFinished:
		modified := queue.Finish(ev.Job)
		if modified {
			idle.Emit(playlist.IdleDatabase)
		}
		return ev.Job.ID(), true
	}
	return 0, false
}
