package source

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turbosort/turbosort/internal/blob"
)

func obj(key string, size int64) *blob.ObjectInfo {
	return &blob.ObjectInfo{
		Key:          key,
		Size:         size,
		ETag:         "etag-" + key,
		LastModified: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestDirectChildren(t *testing.T) {
	objects := []*blob.ObjectInfo{
		obj("job/"+MarkerName, 10),
		obj("job/a.txt", 3),
		obj("job/b.txt", 2),
		obj("job/sub/c.txt", 5),
		obj("job/sub/deep/d.txt", 7),
		obj("job/sub/"+MarkerName, 9),
		obj("other/x.txt", 1),
	}

	items := directChildren(objects, "job")
	require.Len(t, items, 2)

	names := []string{items[0].Name, items[1].Name}
	assert.ElementsMatch(t, []string{"a.txt", "b.txt"}, names)
	for _, item := range items {
		assert.Equal(t, "job/"+item.Name, item.Key)
		assert.NotEmpty(t, item.ETag)
	}
}

func TestDirectChildrenBucketRoot(t *testing.T) {
	objects := []*blob.ObjectInfo{
		obj(MarkerName, 10),
		obj("a.txt", 3),
		obj("job/b.txt", 2),
	}

	items := directChildren(objects, "")
	require.Len(t, items, 1)
	assert.Equal(t, "a.txt", items[0].Name)
}

func TestDirectChildrenEmptyListing(t *testing.T) {
	assert.Empty(t, directChildren(nil, "job"))
}

func TestParentKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"a/b/file.txt", "a/b"},
		{"a/file.txt", "a"},
		{"file.txt", ""},
		{"a/b/" + MarkerName, "a/b"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, ParentKey(tt.key))
		})
	}
}

func TestJoinKey(t *testing.T) {
	assert.Equal(t, "a/b/"+MarkerName, joinKey("a/b", MarkerName))
	assert.Equal(t, MarkerName, joinKey("", MarkerName))
}
