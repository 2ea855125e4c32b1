package source

import (
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
)

// A fingerprint is a change detector, not a security boundary, so a fast
// 64-bit digest is enough.

// LocalIdentity fingerprints a local file from its path, size and
// modification time.
func LocalIdentity(absPath string, size int64, modTime time.Time) string {
	h := xxhash.New()
	fmt.Fprintf(h, "%s:%d:%d", absPath, size, modTime.UnixNano())
	return strconv.FormatUint(h.Sum64(), 16)
}

// RemoteIdentity fingerprints a remote object from its key and content tag.
func RemoteIdentity(key, etag string) string {
	h := xxhash.New()
	fmt.Fprintf(h, "%s:%s", key, etag)
	return strconv.FormatUint(h.Sum64(), 16)
}
