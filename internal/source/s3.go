package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/turbosort/turbosort/internal/blob"
	"github.com/turbosort/turbosort/internal/utils"
)

// S3 serves items from an S3-compatible bucket. Keys always use forward
// slashes; a "directory" is the prefix shared by a marker object and its
// siblings.
type S3 struct {
	client *blob.Client
	prefix string
}

func NewS3(client *blob.Client, prefix string) *S3 {
	return &S3{
		client: client,
		prefix: strings.Trim(prefix, "/"),
	}
}

func (s *S3) Prefix() string {
	return s.prefix
}

func (s *S3) ListMarkerDirs(ctx context.Context) ([]string, error) {
	objects, err := s.client.ListObjects(ctx, s.listPrefix())
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var dirs []string
	for _, obj := range objects {
		if path.Base(obj.Key) != MarkerName {
			continue
		}
		dir := ParentKey(obj.Key)
		if _, ok := seen[dir]; !ok {
			seen[dir] = struct{}{}
			dirs = append(dirs, dir)
		}
	}

	return dirs, nil
}

func (s *S3) ReadMarker(ctx context.Context, dir string) (string, error) {
	resp, err := s.client.GetObject(ctx, joinKey(dir, MarkerName))
	if err != nil {
		if blob.IsNotFound(err) {
			return "", ErrNoMarker
		}
		return "", fmt.Errorf("fetch marker: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read marker body: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *S3) Children(ctx context.Context, dir string) ([]*Item, error) {
	listPrefix := ""
	if dir != "" {
		listPrefix = dir + "/"
	}

	objects, err := s.client.ListObjects(ctx, listPrefix)
	if err != nil {
		return nil, err
	}

	return directChildren(objects, dir), nil
}

// directChildren filters a listing down to the items sitting directly under
// dir, excluding the marker itself and anything below a deeper prefix.
func directChildren(objects []*blob.ObjectInfo, dir string) []*Item {
	listPrefix := ""
	if dir != "" {
		listPrefix = dir + "/"
	}

	items := make([]*Item, 0, len(objects))
	for _, obj := range objects {
		if !strings.HasPrefix(obj.Key, listPrefix) {
			continue
		}
		rest := strings.TrimPrefix(obj.Key, listPrefix)
		if rest == "" || rest == MarkerName || strings.Contains(rest, "/") {
			continue
		}
		items = append(items, &Item{
			Key:     obj.Key,
			Name:    rest,
			Size:    obj.Size,
			ModTime: obj.LastModified,
			ETag:    obj.ETag,
		})
	}

	return items
}

func (s *S3) StatIdentity(ctx context.Context, key string) (string, int64, error) {
	info, err := s.client.HeadObject(ctx, key)
	if err != nil {
		return "", 0, fmt.Errorf("head %s: %w", key, err)
	}
	if info == nil {
		return "", 0, ErrNotExist
	}
	return RemoteIdentity(key, info.ETag), info.Size, nil
}

func (s *S3) Exists(ctx context.Context, key string) (bool, error) {
	info, err := s.client.HeadObject(ctx, key)
	if err != nil {
		return false, fmt.Errorf("head %s: %w", key, err)
	}
	return info != nil, nil
}

func (s *S3) Fetch(ctx context.Context, item *Item, dstPath string) error {
	resp, err := s.client.GetObject(ctx, item.Key)
	if err != nil {
		return fmt.Errorf("get %s: %w", item.Key, err)
	}
	defer resp.Body.Close()

	if err := utils.EnsureParent(dstPath); err != nil {
		return fmt.Errorf("create destination dir: %w", err)
	}

	f, err := os.OpenFile(dstPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return fmt.Errorf("download contents: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close destination: %w", err)
	}

	if !resp.Info.LastModified.IsZero() {
		if err := os.Chtimes(dstPath, resp.Info.LastModified, resp.Info.LastModified); err != nil {
			return fmt.Errorf("preserve mtime: %w", err)
		}
	}

	return nil
}

// Listing returns every object under the configured prefix keyed by object
// key. Used by the polling trigger to diff consecutive listings.
func (s *S3) Listing(ctx context.Context) (map[string]*Item, error) {
	objects, err := s.client.ListObjects(ctx, s.listPrefix())
	if err != nil {
		return nil, err
	}

	listing := make(map[string]*Item, len(objects))
	for _, obj := range objects {
		listing[obj.Key] = &Item{
			Key:     obj.Key,
			Name:    path.Base(obj.Key),
			Size:    obj.Size,
			ModTime: obj.LastModified,
			ETag:    obj.ETag,
		}
	}
	return listing, nil
}

func (s *S3) listPrefix() string {
	if s.prefix == "" {
		return ""
	}
	return s.prefix + "/"
}

// ParentKey returns the prefix a key lives under, "" for bucket root.
func ParentKey(key string) string {
	dir := path.Dir(key)
	if dir == "." || dir == "/" {
		return ""
	}
	return dir
}

func joinKey(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}
