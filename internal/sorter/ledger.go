package sorter

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofrs/flock"

	"github.com/turbosort/turbosort/internal/utils"
)

// ErrLedgerLocked means another process holds the ledger lock.
var ErrLedgerLocked = errors.New("ledger is locked by another process")

// Record is one delivered source item. At most one record exists per source
// key; redelivery with a changed identity replaces the record in place.
type Record struct {
	Destination string    `json:"destination"`
	Identity    string    `json:"identity"`
	Size        int64     `json:"size"`
	Timestamp   time.Time `json:"timestamp"`
}

// Ledger is the persisted map of source key to delivery record. The whole
// map is rewritten to disk after every mutation, so an unexpected
// termination loses at most the in-flight copy.
type Ledger struct {
	path    string
	entries map[string]*Record
	flock   *flock.Flock
}

// OpenLedger loads the ledger at path. A missing file starts empty; a
// corrupt file is logged loudly and also starts empty, because forward
// progress beats preserving broken history.
func OpenLedger(path string) (*Ledger, error) {
	l := &Ledger{
		path:    path,
		entries: make(map[string]*Record),
		flock:   flock.New(path + ".lock"),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, fmt.Errorf("read ledger %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &l.entries); err != nil {
		slog.Warn("ledger is corrupt, starting with empty history", "path", path, "error", err)
		l.entries = make(map[string]*Record)
		return l, nil
	}

	slog.Info("loaded history", "entries", len(l.entries))
	return l, nil
}

// Acquire takes the ledger lock. Only mutating callers (the daemon, scan,
// clear) need it; read-only display does not.
func (l *Ledger) Acquire() error {
	if err := utils.EnsureParent(l.flock.Path()); err != nil {
		return fmt.Errorf("create lock dir: %w", err)
	}
	locked, err := l.flock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire ledger lock: %w", err)
	}
	if !locked {
		return ErrLedgerLocked
	}
	return nil
}

func (l *Ledger) Close() error {
	return l.flock.Unlock()
}

func (l *Ledger) Get(key string) (*Record, bool) {
	rec, ok := l.entries[key]
	return rec, ok
}

// Set inserts or replaces the record for key and persists immediately.
// A persistence failure is logged, not propagated: the in-memory ledger
// stays authoritative for the rest of the run.
func (l *Ledger) Set(key string, rec *Record) {
	l.entries[key] = rec
	if err := l.save(); err != nil {
		slog.Error("ledger persist failed, in-memory history is ahead of disk", "path", l.path, "error", err)
	}
}

// Remove deletes the entry for key without persisting; callers batch their
// own Save.
func (l *Ledger) Remove(key string) {
	delete(l.entries, key)
}

// Prune removes every entry whose source item no longer exists, persisting
// once at the end if anything changed. Returns the number removed.
func (l *Ledger) Prune(exists func(key string) bool) int {
	removed := 0
	for key := range l.entries {
		if !exists(key) {
			delete(l.entries, key)
			removed++
		}
	}
	if removed > 0 {
		if err := l.save(); err != nil {
			slog.Error("ledger persist failed after prune", "path", l.path, "error", err)
		}
	}
	return removed
}

// Clear drops all history and persists the empty map.
func (l *Ledger) Clear() error {
	l.entries = make(map[string]*Record)
	return l.save()
}

func (l *Ledger) Save() error {
	return l.save()
}

func (l *Ledger) Count() int {
	return len(l.entries)
}

// TotalSize returns the byte sum of all recorded deliveries.
func (l *Ledger) TotalSize() int64 {
	var total int64
	for _, rec := range l.entries {
		total += rec.Size
	}
	return total
}

// Keys returns all source keys in sorted order.
func (l *Ledger) Keys() []string {
	keys := make([]string, 0, len(l.entries))
	for key := range l.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (l *Ledger) save() error {
	if err := utils.EnsureParent(l.path); err != nil {
		return err
	}
	data, err := json.MarshalIndent(l.entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(l.path, data, 0o644)
}
