package analysis

import (
	"sync"
	"time"

	"titantron/internal/store"
)

// defaultRetention is how long a terminal snapshot stays visible before the
// tracker forgets it. Pollers get a short window to observe the final state;
// afterwards the persisted run row is the source of truth.
const defaultRetention = 5 * time.Second

// Snapshot is the live view of one in-flight or recently finished run.
// Progress and TotalSteps count seconds of media processed in the current
// phase; TotalSteps is zero while the remaining work is unknown.
type Snapshot struct {
	VideoID    int64
	RunID      string
	Phase      store.Phase
	Status     store.RunStatus
	Progress   int
	TotalSteps int
	Message    string
	UpdatedAt  time.Time
}

// Tracker holds live progress for concurrent runs. It is safe for use from
// multiple goroutines.
type Tracker struct {
	mu        sync.Mutex
	snapshots map[int64]Snapshot
	retention time.Duration
}

// NewTracker constructs a tracker. A non-positive retention uses the default.
func NewTracker(retention time.Duration) *Tracker {
	if retention <= 0 {
		retention = defaultRetention
	}
	return &Tracker{
		snapshots: make(map[int64]Snapshot),
		retention: retention,
	}
}

// Update records the latest snapshot for a video. Terminal snapshots are
// dropped after the retention window unless a newer run replaced them.
func (t *Tracker) Update(snapshot Snapshot) {
	snapshot.UpdatedAt = time.Now()

	t.mu.Lock()
	t.snapshots[snapshot.VideoID] = snapshot
	t.mu.Unlock()

	if !snapshot.Status.Terminal() {
		return
	}
	runID := snapshot.RunID
	videoID := snapshot.VideoID
	time.AfterFunc(t.retention, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if current, ok := t.snapshots[videoID]; ok && current.RunID == runID {
			delete(t.snapshots, videoID)
		}
	})
}

// Get returns the live snapshot for a video, if any.
func (t *Tracker) Get(videoID int64) (Snapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	snapshot, ok := t.snapshots[videoID]
	return snapshot, ok
}

// Active returns snapshots for all runs that have not reached a terminal
// state, in no particular order.
func (t *Tracker) Active() []Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	active := make([]Snapshot, 0, len(t.snapshots))
	for _, snapshot := range t.snapshots {
		if !snapshot.Status.Terminal() {
			active = append(active, snapshot)
		}
	}
	return active
}
