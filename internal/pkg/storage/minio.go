package storage

import (
	"context"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIO implements Storage on a single MinIO bucket.
type MinIO struct {
	client     *minio.Client
	bucket     string
	publicBase string
}

// MinIOOptions configures MinIO client initialization.
type MinIOOptions struct {
	Bucket string
	// Endpoint is the MinIO server address (host:port).
	Endpoint string
	// AccessKey is the access key ID.
	AccessKey string
	// SecretKey is the secret access key.
	SecretKey string
	// SessionToken is the optional session token.
	SessionToken string
	// Region is the MinIO region.
	Region string
	// UseSSL toggles TLS for MinIO connections.
	UseSSL bool
	// PublicBaseURL prefixes object keys in URL. Defaults to the path-style bucket address.
	PublicBaseURL string
}

// NewMinIO constructs a MinIO adapter with the provided options.
func NewMinIO(opts MinIOOptions) (*MinIO, error) {
	if strings.TrimSpace(opts.Bucket) == "" {
		return nil, ErrBucketRequired
	}

	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, opts.SessionToken),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, err
	}

	base := opts.PublicBaseURL
	if base == "" {
		base = client.EndpointURL().String() + "/" + opts.Bucket
	}

	return &MinIO{client: client, bucket: opts.Bucket, publicBase: base}, nil
}

// PutObject stores data in the configured bucket.
func (m *MinIO) PutObject(ctx context.Context, key string, r io.Reader, opts PutOptions) (ObjectInfo, error) {
	size := opts.Size
	if size == 0 {
		size = -1
	}

	info, err := m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{
		ContentType:  opts.ContentType,
		UserMetadata: opts.Metadata,
	})
	if err != nil {
		return ObjectInfo{}, err
	}

	return ObjectInfo{
		Bucket:      m.bucket,
		Key:         key,
		Size:        info.Size,
		ETag:        info.ETag,
		ContentType: opts.ContentType,
	}, nil
}

// DeleteObject removes the object from the configured bucket.
func (m *MinIO) DeleteObject(ctx context.Context, key string) error {
	return m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{})
}

// URL returns the public address of key.
func (m *MinIO) URL(key string) string {
	return publicURL(m.publicBase, key)
}

// Close is a no-op for the MinIO client.
func (m *MinIO) Close() error {
	return nil
}
