package sorter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/turbosort/turbosort/internal/source"
	"github.com/turbosort/turbosort/internal/utils"
)

// Engine decides copy-or-skip for every item beside a marker and keeps the
// ledger in step with what was delivered. ProcessDirectory invocations are
// never run concurrently, so neither the ledger nor the stats need a lock
// on the engine's behalf.
type Engine struct {
	provider source.Provider
	resolver *Resolver
	ledger   *Ledger
	stats    *Stats
	force    bool
}

func NewEngine(provider source.Provider, resolver *Resolver, ledger *Ledger, force bool) *Engine {
	return &Engine{
		provider: provider,
		resolver: resolver,
		ledger:   ledger,
		stats:    &Stats{},
		force:    force,
	}
}

func (e *Engine) Stats() *Stats {
	return e.stats
}

func (e *Engine) Ledger() *Ledger {
	return e.ledger
}

// ProcessDirectory delivers every item sitting beside dir's marker file.
// Processing the same directory twice with no source changes performs zero
// copies the second time. A single failing item never aborts the batch.
func (e *Engine) ProcessDirectory(ctx context.Context, dir string) {
	dest, err := e.provider.ReadMarker(ctx, dir)
	if err != nil {
		if errors.Is(err, source.ErrNoMarker) {
			return
		}
		slog.Warn("unreadable marker", "dir", dir, "error", err)
		return
	}
	if dest == "" {
		slog.Warn("empty destination in marker", "dir", dir)
		return
	}

	target, err := e.resolver.Resolve(dest)
	if err != nil {
		slog.Error("destination resolution failed", "dir", dir, "dest", dest, "error", err)
		return
	}

	if err := utils.EnsureDir(target); err != nil {
		slog.Error("cannot create target directory", "target", target, "error", err)
		return
	}

	items, err := e.provider.Children(ctx, dir)
	if err != nil {
		slog.Error("cannot enumerate directory", "dir", dir, "error", err)
		return
	}

	for _, item := range items {
		select {
		case <-ctx.Done():
			return
		default:
		}
		e.processItem(ctx, item, target)
	}
}

func (e *Engine) processItem(ctx context.Context, item *source.Item, target string) {
	identity, size, err := e.provider.StatIdentity(ctx, item.Key)
	if err != nil {
		if errors.Is(err, source.ErrNotExist) {
			// raced with a delete between enumeration and processing
			slog.Warn("item vanished before copy", "key", item.Key)
			return
		}
		slog.Error("identity computation failed", "key", item.Key, "error", err)
		return
	}

	if prev, ok := e.ledger.Get(item.Key); ok && prev.Identity == identity && !e.force {
		e.stats.RecordSkip()
		return
	}

	dstPath := filepath.Join(target, item.Name)
	if err := e.provider.Fetch(ctx, item, dstPath); err != nil {
		slog.Error("copy failed", "key", item.Key, "dst", dstPath, "error", err)
		e.stats.RecordError()
		return
	}

	// identity and size come from the same stat observation
	e.ledger.Set(item.Key, &Record{
		Destination: dstPath,
		Identity:    identity,
		Size:        size,
		Timestamp:   time.Now().UTC(),
	})
	e.stats.RecordCopy(size)
	slog.Info("copied", "name", item.Name, "dst", dstPath)
}

// ScanAll prunes stale ledger entries, then processes every directory that
// currently holds a marker file.
func (e *Engine) ScanAll(ctx context.Context) error {
	slog.Info("scanning for marker files")

	if removed := e.Reconcile(ctx); removed > 0 {
		slog.Info("pruned stale history entries", "removed", removed)
	}

	dirs, err := e.provider.ListMarkerDirs(ctx)
	if err != nil {
		return fmt.Errorf("list marker dirs: %w", err)
	}

	for _, dir := range dirs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		e.ProcessDirectory(ctx, dir)
	}

	return nil
}

// Reconcile removes ledger entries whose source item no longer exists, so a
// deleted-then-recreated file is treated as new again. An existence probe
// failure keeps the entry; dropping history on a transient error would
// cause a spurious re-copy later.
func (e *Engine) Reconcile(ctx context.Context) int {
	return e.ledger.Prune(func(key string) bool {
		ok, err := e.provider.Exists(ctx, key)
		if err != nil {
			slog.Warn("existence probe failed, keeping history entry", "key", key, "error", err)
			return true
		}
		return ok
	})
}
