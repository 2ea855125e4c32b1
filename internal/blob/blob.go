package blob

import (
	"io"
	"time"
)

// ObjectInfo is the metadata the sorter cares about for a single object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	LastModified time.Time
}

// GetObjectResponse wraps the object body with its metadata.
type GetObjectResponse struct {
	Body io.ReadCloser
	Info ObjectInfo
}

// Config holds the connection settings for an S3-compatible bucket.
type Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}
