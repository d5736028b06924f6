// Package ledger provides the durable cooldown ledger: one completion
// timestamp per user, overwritten on each completed quiz.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// legacy timestamps were written without a zone offset; treat them as UTC.
const legacyTimeLayout = "2006-01-02T15:04:05.999999999"

// FileLedger stores the ledger as a single JSON document mapping user ID to
// an ISO-8601 timestamp. Every write re-reads, merges and atomically
// replaces the whole file; the mutex keeps one writer at a time so
// concurrent finalizations cannot lose each other's entries.
type FileLedger struct {
	mu   sync.Mutex
	path string
}

func NewFileLedger(path string) (*FileLedger, error) {
	if path == "" {
		return nil, errors.New("ledger path is required")
	}
	l := &FileLedger{path: path}
	// A missing file is an empty ledger; anything else unreadable is not.
	if _, err := l.load(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *FileLedger) load() (map[string]string, error) {
	raw, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger %s: %w", l.path, err)
	}
	doc := map[string]string{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("parse ledger %s: %w", l.path, err)
		}
	}
	return doc, nil
}

func (l *FileLedger) replace(doc map[string]string) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create ledger dir: %w", err)
		}
	}
	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write ledger temp file: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("replace ledger %s: %w", l.path, err)
	}
	return nil
}

func parseStamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(legacyTimeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse ledger timestamp %q: %w", s, err)
	}
	return t, nil
}

func (l *FileLedger) Get(userID string) (time.Time, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	doc, err := l.load()
	if err != nil {
		return time.Time{}, false, err
	}
	s, ok := doc[userID]
	if !ok {
		return time.Time{}, false, nil
	}
	t, err := parseStamp(s)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

func (l *FileLedger) Put(userID string, completedAt time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	doc, err := l.load()
	if err != nil {
		return err
	}
	doc[userID] = completedAt.UTC().Format(time.RFC3339)
	return l.replace(doc)
}

func (l *FileLedger) Snapshot() (map[string]time.Time, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	doc, err := l.load()
	if err != nil {
		return nil, err
	}
	out := make(map[string]time.Time, len(doc))
	for uid, s := range doc {
		t, err := parseStamp(s)
		if err != nil {
			return nil, err
		}
		out[uid] = t
	}
	return out, nil
}

func (l *FileLedger) Delete(userID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	doc, err := l.load()
	if err != nil {
		return false, err
	}
	if _, ok := doc[userID]; !ok {
		return false, nil
	}
	delete(doc, userID)
	if err := l.replace(doc); err != nil {
		return false, err
	}
	return true, nil
}
