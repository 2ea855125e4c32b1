package blob

import (
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// IsNotFound reports whether err means the object key does not exist.
func IsNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noSuchKey) || errors.As(err, &notFound)
}
