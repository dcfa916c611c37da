package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Driver names accepted by NewFromDriver (storage.driver in config).
const (
	DriverS3    = "s3"
	DriverMinIO = "minio"
)

// ErrUnknownDriver indicates an unsupported storage driver.
var ErrUnknownDriver = errors.New("storage: unknown driver")

// FactoryOptions carries the settings of both backends; only the selected
// driver's section is read.
type FactoryOptions struct {
	S3    S3Options
	MinIO MinIOOptions
}

// NewFromDriver builds the avatar object store for driver. Names are
// case-insensitive.
func NewFromDriver(ctx context.Context, driver string, opts FactoryOptions) (Storage, error) {
	switch d := strings.ToLower(strings.TrimSpace(driver)); d {
	case DriverS3:
		return NewS3(ctx, opts.S3)
	case DriverMinIO:
		return NewMinIO(opts.MinIO)
	default:
		return nil, fmt.Errorf("%w: %q (supported: %s, %s)", ErrUnknownDriver, driver, DriverS3, DriverMinIO)
	}
}
