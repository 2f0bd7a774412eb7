package scan

import (
	"sync"

	"gitlab.com/mipimipi/dbupdate/src/internal/dbtree"
)

// Progress is the UpdateQueue's state machine (§4.8).
type Progress int

const (
	Idle Progress = iota
	Running
	Done
)

// defaultQueueCapacity is the FIFO bound from §4.8 ("fixed capacity 32"),
// used whenever configuration leaves queue_capacity unset or non-positive.
const defaultQueueCapacity = 32

type pendingRequest struct {
	path   string
	scoped bool
}

// UpdateQueue is the service thread's only handle on job lifecycle: it
// owns progress, the active job id, and the bounded FIFO of requests that
// arrived while a job was already running. Finish is called from the
// service thread; Request is also called from the Periodic and Watch
// trigger goroutines, and mu serializes all methods across those callers.
type UpdateQueue struct {
	mu sync.Mutex

	progress    Progress
	lastID      JobID
	activeJobID JobID
	pending     []pendingRequest

	tree     *dbtree.Tree
	scanner  *DirectoryScanner
	broker   dbtree.Broker
	bridge   *Bridge
	capacity int

	refreshStats func()
}

// NewUpdateQueue creates an idle queue bound to tree, with a pending-FIFO
// bound of capacity (non-positive falls back to defaultQueueCapacity).
// refreshStats is invoked (still on the service thread, via Finish)
// whenever the queue drains back to Idle.
func NewUpdateQueue(tree *dbtree.Tree, scanner *DirectoryScanner, broker dbtree.Broker, bridge *Bridge, capacity int, refreshStats func()) *UpdateQueue {
	if capacity <= 0 {
		capacity = defaultQueueCapacity
	}
	return &UpdateQueue{
		tree:         tree,
		scanner:      scanner,
		broker:       broker,
		bridge:       bridge,
		capacity:     capacity,
		refreshStats: refreshStats,
	}
}

// Request enqueues or immediately spawns a scan of path ("" means the
// whole tree). It implements §4.8's request operation and corresponds to
// directory_update_init in the external-interface mapping (§6).
func (q *UpdateQueue) Request(path string) JobID {
	q.mu.Lock()
	defer q.mu.Unlock()

	switch q.progress {
	case Idle:
		id := q.nextJobID()
		q.activeJobID = id
		q.progress = Running
		q.spawn(id, path, path != "")
		return id

	default: // Running or Done
		if len(q.pending) >= q.capacity {
			return 0
		}
		q.pending = append(q.pending, pendingRequest{path: path, scoped: path != ""})
		return wrapJobID(q.activeJobID + JobID(len(q.pending)))
	}
}

// IsUpdating returns the active job id unless the queue is idle.
func (q *UpdateQueue) IsUpdating() (JobID, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.progress == Idle {
		return 0, false
	}
	return q.activeJobID, true
}

// Finish is called by the service thread upon receiving EventJobFinished.
// It reports whether the finished job modified the tree, then either
// spawns the next pending request or transitions to Idle and refreshes
// aggregate statistics.
func (q *UpdateQueue) Finish(job *Job) (modified bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	modified = job.Modified()
	q.progress = Done

	if len(q.pending) > 0 {
		next := q.pending[0]
		q.pending = q.pending[1:]
		id := q.nextJobID()
		q.activeJobID = id
		q.progress = Running
		q.spawn(id, next.path, next.scoped)
		return modified
	}

	q.progress = Idle
	if q.refreshStats != nil {
		q.refreshStats()
	}
	return modified
}

func (q *UpdateQueue) nextJobID() JobID {
	id := q.lastID + 1
	if id > maxJobID {
		id = 1
	}
	q.lastID = id
	return id
}

func wrapJobID(id JobID) JobID {
	for id > maxJobID {
		id -= maxJobID
	}
	return id
}

// spawn starts the scanner-thread goroutine for a job. Must be called with
// q.mu held; the goroutine itself never touches UpdateQueue state, only
// the bridge.
func (q *UpdateQueue) spawn(id JobID, path string, scoped bool) {
	job := newJob(id, path, scoped, q.broker)
	go func() {
		job.run(q.tree, q.scanner)
		q.bridge.emit(Event{Kind: EventJobFinished, Job: job})
	}()
}
