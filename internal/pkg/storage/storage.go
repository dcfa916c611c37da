package storage

import (
	"context"
	"errors"
	"io"
	"strings"
)

// ErrBucketRequired is returned when an operation is attempted without a bucket.
var ErrBucketRequired = errors.New("storage: bucket is required")

// Storage defines the object operations used by the application.
type Storage interface {
	io.Closer

	// PutObject stores data under key and returns object metadata.
	PutObject(ctx context.Context, key string, r io.Reader, opts PutOptions) (ObjectInfo, error)
	// DeleteObject removes the object. Missing objects are not an error.
	DeleteObject(ctx context.Context, key string) error
	// URL returns the public address of an object.
	URL(key string) string
}

// PutOptions configures upload behavior.
type PutOptions struct {
	// Size is the expected content length, -1 when unknown.
	Size int64
	// ContentType is the MIME type for the object.
	ContentType string
	// Metadata includes custom key/value metadata.
	Metadata map[string]string
}

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Bucket      string
	Key         string
	Size        int64
	ETag        string
	ContentType string
}

// publicURL joins base and key with exactly one slash.
func publicURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
