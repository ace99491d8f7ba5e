package objectstore

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrStoreUnavailable is returned when the bucket cannot be listed. Without a
	// complete listing the batch cannot be filtered, so callers treat it as fatal.
	ErrStoreUnavailable = errors.New("object store unavailable")

	// ErrFetch is returned when a single object cannot be downloaded or decoded.
	ErrFetch = errors.New("fetch failed")
)

// Object describes one stored file as returned by a listing.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Store is a bucket that can be listed in full and read object by object.
type Store interface {
	ListAll(ctx context.Context) ([]Object, error)
	Fetch(ctx context.Context, key string) ([]byte, error)
	Bucket() string
}
