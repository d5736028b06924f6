package ledger

import (
	"sync"
	"time"
)

// MemoryLedger is a non-durable ledger for tests and single-run setups.
type MemoryLedger struct {
	mu      sync.RWMutex
	entries map[string]time.Time
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{entries: map[string]time.Time{}}
}

func (l *MemoryLedger) Get(userID string) (time.Time, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t, ok := l.entries[userID]
	return t, ok, nil
}

func (l *MemoryLedger) Put(userID string, completedAt time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[userID] = completedAt
	return nil
}

func (l *MemoryLedger) Snapshot() (map[string]time.Time, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]time.Time, len(l.entries))
	for uid, t := range l.entries {
		out[uid] = t
	}
	return out, nil
}

func (l *MemoryLedger) Delete(userID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.entries[userID]; !ok {
		return false, nil
	}
	delete(l.entries, userID)
	return true, nil
}
