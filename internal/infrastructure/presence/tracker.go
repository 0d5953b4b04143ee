// Package presence tracks last-known pointer coordinates per participant.
// Entries are ephemeral: never persisted, evicted once stale.
package presence

import (
	"sync"
	"time"
)

const (
	DefaultSweepInterval = time.Second
	DefaultStaleness     = 5 * time.Second
)

type Entry struct {
	UserName    string    `json:"userName"`
	X           float64   `json:"x"`
	Y           float64   `json:"y"`
	LastUpdated time.Time `json:"lastUpdated"`
}

type key struct {
	roomID   string
	userName string
}

// Tracker is the one component with its own background task: a periodic
// sweep that evicts entries older than the staleness threshold. The sweep
// runs independently of connection activity and stops on Close.
type Tracker struct {
	mu        sync.RWMutex
	entries   map[key]Entry
	staleness time.Duration

	sweepTick *time.Ticker
	done      chan struct{}
	closeOnce sync.Once
}

func NewTracker(sweepInterval, staleness time.Duration) *Tracker {
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}
	if staleness <= 0 {
		staleness = DefaultStaleness
	}

	t := &Tracker{
		entries:   make(map[key]Entry),
		staleness: staleness,
		sweepTick: time.NewTicker(sweepInterval),
		done:      make(chan struct{}),
	}
	go t.startSweep()

	return t
}

// Observe inserts or overwrites the participant's entry and refreshes its
// timestamp.
func (t *Tracker) Observe(roomID, userName string, x, y float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries[key{roomID, userName}] = Entry{
		UserName:    userName,
		X:           x,
		Y:           y,
		LastUpdated: time.Now(),
	}
}

// Forget drops the participant's entry immediately, without waiting for the
// sweep. Used when a participant leaves the room.
func (t *Tracker) Forget(roomID, userName string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.entries, key{roomID, userName})
}

// Snapshot returns the room's live entries in unspecified order.
func (t *Tracker) Snapshot(roomID string) []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Entry, 0)
	for k, e := range t.entries {
		if k.roomID == roomID {
			out = append(out, e)
		}
	}
	return out
}

func (t *Tracker) startSweep() {
	for {
		select {
		case <-t.sweepTick.C:
			t.removeStale(time.Now())
		case <-t.done:
			return
		}
	}
}

func (t *Tracker) removeStale(now time.Time) {
	cutoff := now.Add(-t.staleness)

	t.mu.Lock()
	defer t.mu.Unlock()

	for k, e := range t.entries {
		if e.LastUpdated.Before(cutoff) {
			delete(t.entries, k)
		}
	}
}

func (t *Tracker) Close() {
	t.closeOnce.Do(func() {
		close(t.done)
		t.sweepTick.Stop()
	})
}
