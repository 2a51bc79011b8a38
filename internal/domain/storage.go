package domain

import (
	"context"
	"time"
)

// UploadOptions control a single object upload. Replace=false turns an
// existing key into an ErrKeyExists conflict instead of overwriting it.
type UploadOptions struct {
	Replace       bool
	EncryptAtRest bool
}

// ObjectStore is pure transport: keys are composed by the caller, the
// store never invents names. Download returns the path of a local
// temporary file owned by the caller.
type ObjectStore interface {
	Upload(ctx context.Context, localPath, key string, opts UploadOptions) error
	Download(ctx context.Context, key string) (string, error)
	ListKeys(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, key string) error
	OldKeys(ctx context.Context, prefix string, cutoff time.Time) ([]string, error)
}
