package sorter

import (
	"context"
	"log/slog"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/turbosort/turbosort/internal/config"
	"github.com/turbosort/turbosort/internal/source"
)

// RemoteTrigger polls the bucket listing and reconciles the parent prefixes
// of every new or modified key. An independent full-rescan timer re-walks
// all marker prefixes in case a diff was missed, e.g. after a transient
// listing failure. Both timers are consumed on one goroutine and never
// overlap.
type RemoteTrigger struct {
	provider *source.S3
	engine   *Engine

	pollEvery   time.Duration
	rescanEvery time.Duration

	lastListing map[string]*source.Item
}

func NewRemoteTrigger(provider *source.S3, engine *Engine, cfg *config.Config) *RemoteTrigger {
	return &RemoteTrigger{
		provider:    provider,
		engine:      engine,
		pollEvery:   cfg.PollInterval,
		rescanEvery: cfg.RescanInterval,
	}
}

func (t *RemoteTrigger) Run(ctx context.Context) error {
	slog.Info("remote poller start", "prefix", t.provider.Prefix(), "interval", t.pollEvery)

	// seed the baseline so the first poll doesn't re-announce everything
	// the initial scan already delivered
	if listing, err := t.provider.Listing(ctx); err != nil {
		slog.Warn("initial listing failed, first poll will treat all keys as new", "error", err)
	} else {
		t.lastListing = listing
	}

	pollTimer := time.NewTimer(t.pollEvery)
	defer pollTimer.Stop()

	rescanTimer := time.NewTimer(t.rescanEvery)
	defer rescanTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("remote poller stop")
			return ctx.Err()

		case <-pollTimer.C:
			t.poll(ctx)
			pollTimer.Reset(t.pollEvery)

		case <-rescanTimer.C:
			if err := t.engine.ScanAll(ctx); err != nil {
				slog.Error("periodic remote rescan failed", "error", err)
			}
			rescanTimer.Reset(t.rescanEvery)
		}
	}
}

func (t *RemoteTrigger) poll(ctx context.Context) {
	listing, err := t.provider.Listing(ctx)
	if err != nil {
		// keep the old baseline; wiping it would make the next successful
		// poll re-announce the whole bucket
		slog.Error("listing failed, skipping poll tick", "error", err)
		return
	}

	changed, deleted := DiffListings(t.lastListing, listing)
	t.lastListing = listing

	for _, key := range deleted {
		slog.Debug("remote key deleted", "key", key)
	}

	if len(changed) == 0 {
		return
	}

	// reconcile each distinct parent prefix once
	prefixes := mapset.NewThreadUnsafeSet[string]()
	for _, key := range changed {
		prefixes.Add(source.ParentKey(key))
	}

	slog.Info("remote changes detected", "keys", len(changed), "prefixes", prefixes.Cardinality())
	for prefix := range prefixes.Iter() {
		t.engine.ProcessDirectory(ctx, prefix)
	}
}

// DiffListings compares two listings and returns the keys that are new or
// have a different content tag, and the keys that disappeared.
func DiffListings(prev, curr map[string]*source.Item) (changed, deleted []string) {
	for key, item := range curr {
		old, ok := prev[key]
		if !ok || old.ETag != item.ETag {
			changed = append(changed, key)
		}
	}
	for key := range prev {
		if _, ok := curr[key]; !ok {
			deleted = append(deleted, key)
		}
	}
	return changed, deleted
}
