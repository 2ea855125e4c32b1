package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/turbosort/turbosort/internal/utils"
)

// Local serves items from a directory tree on the local filesystem.
type Local struct {
	root string
}

func NewLocal(root string) (*Local, error) {
	absRoot, err := utils.ResolvePath(root)
	if err != nil {
		return nil, fmt.Errorf("resolve source root: %w", err)
	}
	if err := utils.EnsureDir(absRoot); err != nil {
		return nil, fmt.Errorf("create source root: %w", err)
	}
	return &Local{root: absRoot}, nil
}

func (l *Local) Root() string {
	return l.root
}

// HasMarker reports whether dir directly contains a marker file.
func (l *Local) HasMarker(dir string) bool {
	return utils.FileExists(filepath.Join(dir, MarkerName))
}

// ListMarkerDirs walks the tree iteratively with an explicit work queue so
// deep trees can't exhaust the call stack.
func (l *Local) ListMarkerDirs(ctx context.Context) ([]string, error) {
	var dirs []string
	queue := []string{l.root}

	for len(queue) > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		dir := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		entries, err := os.ReadDir(dir)
		if err != nil {
			if dir == l.root {
				return nil, fmt.Errorf("read source root: %w", err)
			}
			// directory vanished mid-scan
			slog.Warn("skipping unreadable directory", "dir", dir, "error", err)
			continue
		}

		hasMarker := false
		for _, entry := range entries {
			if entry.IsDir() {
				queue = append(queue, filepath.Join(dir, entry.Name()))
			} else if entry.Name() == MarkerName {
				hasMarker = true
			}
		}

		if hasMarker {
			dirs = append(dirs, dir)
		}
	}

	return dirs, nil
}

func (l *Local) ReadMarker(_ context.Context, dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, MarkerName))
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNoMarker
		}
		return "", fmt.Errorf("read marker: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (l *Local) Children(_ context.Context, dir string) ([]*Item, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	items := make([]*Item, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == MarkerName {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// vanished between ReadDir and Info
			slog.Warn("skipping unstatable file", "dir", dir, "name", entry.Name(), "error", err)
			continue
		}
		items = append(items, &Item{
			Key:     filepath.Join(dir, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	return items, nil
}

func (l *Local) StatIdentity(_ context.Context, key string) (string, int64, error) {
	info, err := os.Stat(key)
	if err != nil {
		if os.IsNotExist(err) {
			return "", 0, ErrNotExist
		}
		return "", 0, fmt.Errorf("stat %s: %w", key, err)
	}
	if !info.Mode().IsRegular() {
		return "", 0, ErrNotExist
	}
	return LocalIdentity(key, info.Size(), info.ModTime()), info.Size(), nil
}

func (l *Local) Exists(_ context.Context, key string) (bool, error) {
	info, err := os.Stat(key)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", key, err)
	}
	return info.Mode().IsRegular(), nil
}

func (l *Local) Fetch(_ context.Context, item *Item, dstPath string) error {
	return utils.CopyFile(item.Key, dstPath)
}
