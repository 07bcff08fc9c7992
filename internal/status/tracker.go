package status

import (
	"sync"
	"time"

	"github.com/aaronromeo/mailtriage/internal/syncer"
	"github.com/aaronromeo/mailtriage/internal/watchrunner"
)

// Snapshot is the JSON body of GET /status.
type Snapshot struct {
	RunID      string    `json:"run_id"`
	State      string    `json:"state"`
	Since      time.Time `json:"since"`
	Watermark  uint32    `json:"watermark"`
	Generation uint32    `json:"generation"`
	Passes     int       `json:"passes"`
	Observed   int       `json:"observed"`
	Moved      int       `json:"moved"`
	Skipped    int       `json:"skipped"`
	LastError  string    `json:"last_error,omitempty"`
}

// Tracker accumulates runner progress for the status endpoint. It is written
// from the watch loop and read from HTTP handlers.
type Tracker struct {
	mu   sync.Mutex
	snap Snapshot
	now  func() time.Time
}

func NewTracker(runID string) *Tracker {
	t := &Tracker{now: time.Now}
	t.snap = Snapshot{RunID: runID, State: "starting", Since: t.now()}
	return t
}

// Progress records a runner state transition.
func (t *Tracker) Progress(p watchrunner.Progress) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.snap.State != string(p.State) {
		t.snap.Since = t.now()
	}
	t.snap.State = string(p.State)
	t.snap.Watermark = p.Watermark.Next
	t.snap.Generation = p.Watermark.Generation
	if p.Err != nil {
		t.snap.LastError = p.Err.Error()
	}
}

// Pass adds the counts of one sync pass.
func (t *Tracker) Pass(s syncer.Stats) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.snap.Passes++
	t.snap.Observed += s.Observed
	t.snap.Moved += s.Moved
	t.snap.Skipped += s.Skipped
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snap
}

// Healthy is false once the runner stopped on an error.
func (t *Tracker) Healthy() bool {
	snap := t.Snapshot()
	return !(snap.State == string(watchrunner.Stopped) && snap.LastError != "")
}
