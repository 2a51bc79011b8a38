package domain

import "context"

// Dumper produces a local dump artifact for one database using an
// external dump utility. The password travels via the child process
// environment only.
type Dumper interface {
	Dump(ctx context.Context, secret *Secret, dbName, extraParams, outputPath string) error
}

// Encryptor encrypts a local artifact and returns the encrypted file's
// path. The artifact is whole or absent, never partially written.
type Encryptor interface {
	Encrypt(ctx context.Context, sourcePath string) (string, error)
}

// Hasher computes a streaming content digest. WriteDigest stores the hex
// digest in a sibling artifact file and returns its path, so checksums
// ride the same upload/cleanup path as binary artifacts.
type Hasher interface {
	Sum(path string) (string, error)
	WriteDigest(path string) (string, error)
}

// Notifier reports task outcomes to an external channel. Notification
// failures never fail the task.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}
