package sorter

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/rjeczalik/notify"

	"github.com/turbosort/turbosort/internal/config"
	"github.com/turbosort/turbosort/internal/source"
)

// LocalTrigger subscribes to OS file events under the source root and turns
// them into directory reconciliations. Marker events dispatch immediately;
// everything else lands in a pending set drained after a quiet interval, so
// a burst of dropped files becomes a single pass.
type LocalTrigger struct {
	provider *source.Local
	engine   *Engine

	events  chan notify.EventInfo
	pending mapset.Set[string]

	quiet      time.Duration
	drainEvery time.Duration
	rescan     time.Duration
}

func NewLocalTrigger(provider *source.Local, engine *Engine, cfg *config.Config) *LocalTrigger {
	return &LocalTrigger{
		provider:   provider,
		engine:     engine,
		events:     make(chan notify.EventInfo, 64),
		pending:    mapset.NewThreadUnsafeSet[string](),
		quiet:      config.DefaultDebounceQuiet,
		drainEvery: config.DefaultDebounceDrain,
		rescan:     cfg.RescanInterval,
	}
}

// Run watches the source tree until ctx is cancelled. Events, the drain
// tick and the full-rescan tick are all consumed on this one goroutine;
// the pending set is never touched from anywhere else.
func (t *LocalTrigger) Run(ctx context.Context) error {
	root := t.provider.Root()
	slog.Info("file watcher start", "dir", root)

	recursivePath := filepath.Join(root, "...")
	if err := notify.Watch(recursivePath, t.events, notify.Create|notify.Write|notify.Remove|notify.Rename); err != nil {
		return err
	}
	defer notify.Stop(t.events)

	drainTicker := time.NewTicker(t.drainEvery)
	defer drainTicker.Stop()

	// timer, not ticker: a slow rescan must not queue up follow-on ticks
	rescanTimer := time.NewTimer(t.rescan)
	defer rescanTimer.Stop()

	var lastEvent time.Time

	for {
		select {
		case <-ctx.Done():
			slog.Info("file watcher stop")
			return ctx.Err()

		case ev, ok := <-t.events:
			if !ok {
				return nil
			}
			t.handleEvent(ctx, ev)
			lastEvent = time.Now()

		case <-drainTicker.C:
			if t.pending.Cardinality() == 0 || time.Since(lastEvent) < t.quiet {
				continue
			}
			t.drain(ctx)

		case <-rescanTimer.C:
			if err := t.engine.ScanAll(ctx); err != nil {
				slog.Error("periodic rescan failed", "error", err)
			}
			rescanTimer.Reset(t.rescan)
		}
	}
}

func (t *LocalTrigger) handleEvent(ctx context.Context, ev notify.EventInfo) {
	path := ev.Path()

	if filepath.Base(path) == source.MarkerName {
		switch ev.Event() {
		case notify.Create, notify.Write:
			slog.Info("marker file changed", "path", path)
			t.engine.ProcessDirectory(ctx, filepath.Dir(path))
		case notify.Remove, notify.Rename:
			// cleanup of delivered files is the pruning pass's concern
			slog.Info("marker file removed", "path", path)
		}
		return
	}

	if ev.Event() != notify.Create && ev.Event() != notify.Write {
		return
	}

	if dir := t.nearestMarkerDir(filepath.Dir(path)); dir != "" {
		t.pending.Add(dir)
	}
}

// drain processes every queued directory once and clears the set.
func (t *LocalTrigger) drain(ctx context.Context) {
	dirs := t.pending.ToSlice()
	t.pending.Clear()

	slog.Debug("draining pending directories", "count", len(dirs))
	for _, dir := range dirs {
		t.engine.ProcessDirectory(ctx, dir)
	}
}

// nearestMarkerDir walks from start up toward the watched root and returns
// the first ancestor that directly contains a marker file, or "".
func (t *LocalTrigger) nearestMarkerDir(start string) string {
	root := t.provider.Root()
	dir := start
	for {
		if !strings.HasPrefix(dir, root) {
			return ""
		}
		if t.provider.HasMarker(dir) {
			return dir
		}
		if dir == root {
			return ""
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
