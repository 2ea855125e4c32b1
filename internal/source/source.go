package source

import (
	"context"
	"errors"
	"time"
)

// MarkerName is the file whose content declares the destination subpath for
// everything else in its directory.
const MarkerName = ".turbosort"

var (
	// ErrNoMarker is returned by ReadMarker when the directory holds no
	// marker file. Not an error condition for callers, just a no-op.
	ErrNoMarker = errors.New("no marker file in directory")

	// ErrNotExist is returned when a source item vanished between listing
	// and processing.
	ErrNotExist = errors.New("source item no longer exists")
)

// Item is one deliverable file sitting beside a marker.
type Item struct {
	// Key uniquely identifies the item at its source: an absolute local
	// path, or a remote object key.
	Key     string
	Name    string
	Size    int64
	ModTime time.Time
	ETag    string // remote only
}

// Provider abstracts a source location. The delivery engine is written once
// against this interface; local filesystem and S3 implementations exist.
type Provider interface {
	// ListMarkerDirs returns every directory (or key prefix) under the
	// source root that directly contains a marker file.
	ListMarkerDirs(ctx context.Context) ([]string, error)

	// ReadMarker returns the trimmed content of the marker file inside dir,
	// or ErrNoMarker.
	ReadMarker(ctx context.Context, dir string) (string, error)

	// Children enumerates the items directly inside dir, excluding the
	// marker file itself and any subdirectories.
	Children(ctx context.Context, dir string) ([]*Item, error)

	// StatIdentity re-reads the item's current attributes and returns its
	// identity fingerprint and size from the same observation, or
	// ErrNotExist if it vanished.
	StatIdentity(ctx context.Context, key string) (string, int64, error)

	// Exists reports whether the item behind key is still present. A
	// failed probe is an error, never a false.
	Exists(ctx context.Context, key string) (bool, error)

	// Fetch copies the item to dstPath, preserving metadata where the
	// source supports it.
	Fetch(ctx context.Context, item *Item, dstPath string) error
}
