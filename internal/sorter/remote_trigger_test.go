package sorter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/turbosort/turbosort/internal/source"
)

func listing(items ...*source.Item) map[string]*source.Item {
	m := make(map[string]*source.Item, len(items))
	for _, item := range items {
		m[item.Key] = item
	}
	return m
}

func obj(key, etag string) *source.Item {
	return &source.Item{Key: key, ETag: etag}
}

func TestDiffListingsNewKeys(t *testing.T) {
	prev := listing(obj("a/.turbosort", "e1"))
	curr := listing(obj("a/.turbosort", "e1"), obj("a/file.txt", "e2"))

	changed, deleted := DiffListings(prev, curr)
	assert.ElementsMatch(t, []string{"a/file.txt"}, changed)
	assert.Empty(t, deleted)
}

func TestDiffListingsModifiedETag(t *testing.T) {
	prev := listing(obj("a/file.txt", "e1"))
	curr := listing(obj("a/file.txt", "e2"))

	changed, deleted := DiffListings(prev, curr)
	assert.ElementsMatch(t, []string{"a/file.txt"}, changed)
	assert.Empty(t, deleted)
}

func TestDiffListingsDeleted(t *testing.T) {
	prev := listing(obj("a/file.txt", "e1"), obj("b/file.txt", "e2"))
	curr := listing(obj("b/file.txt", "e2"))

	changed, deleted := DiffListings(prev, curr)
	assert.Empty(t, changed)
	assert.ElementsMatch(t, []string{"a/file.txt"}, deleted)
}

func TestDiffListingsUnchanged(t *testing.T) {
	prev := listing(obj("a/file.txt", "e1"))
	curr := listing(obj("a/file.txt", "e1"))

	changed, deleted := DiffListings(prev, curr)
	assert.Empty(t, changed)
	assert.Empty(t, deleted)
}

func TestDiffListingsEmptyBaseline(t *testing.T) {
	// nil baseline means every current key is new
	changed, deleted := DiffListings(nil, listing(obj("a/x", "e1"), obj("b/y", "e2")))
	assert.Len(t, changed, 2)
	assert.Empty(t, deleted)
}
