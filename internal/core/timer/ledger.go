package timer

import (
	"maps"
	"sync"
	"time"
)

// Ledger accumulates active time per task id. Values are never negative.
type Ledger struct {
	mu      sync.RWMutex
	entries map[string]time.Duration
}

// NewLedger returns a ledger seeded with the given totals.
func NewLedger(seed map[string]time.Duration) *Ledger {
	l := &Ledger{entries: make(map[string]time.Duration, len(seed))}
	for id, d := range seed {
		if d > 0 {
			l.entries[id] = d
		}
	}
	return l
}

// Add credits d to the task, creating the entry at zero if needed, and
// returns the new total. Negative durations credit nothing.
func (l *Ledger) Add(taskID string, d time.Duration) time.Duration {
	if d < 0 {
		d = 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[taskID] += d
	return l.entries[taskID]
}

// Replace discards every entry and loads totals instead.
func (l *Ledger) Replace(totals map[string]time.Duration) {
	entries := make(map[string]time.Duration, len(totals))
	for id, d := range totals {
		if d > 0 {
			entries[id] = d
		}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = entries
}

// Get returns the accumulated time for a task.
func (l *Ledger) Get(taskID string) time.Duration {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.entries[taskID]
}

// Snapshot returns a copy of all entries.
func (l *Ledger) Snapshot() map[string]time.Duration {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return maps.Clone(l.entries)
}

// Len returns the number of tasks with an entry.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
