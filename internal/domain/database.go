package domain

import (
	"context"
	"io"
)

// Row is one fetched record, column values in query order.
type Row []any

// Database is the single capability surface over a live connection.
// Dump-style, row-batch and COPY-streaming tasks all drive the same
// implementation; variants are configuration, not subtypes. The owner
// must Close on every exit path.
type Database interface {
	// Run executes a statement with bound parameters.
	Run(ctx context.Context, sql string, args ...any) error
	// Fetch materializes the full result set in memory. Fine for
	// operator-sized queries, not for bulk data; bulk data goes through
	// CopyOut/CopyIn.
	Fetch(ctx context.Context, sql string, args ...any) ([]Row, error)
	// BulkInsert writes all rows into table and reports the count.
	BulkInsert(ctx context.Context, table string, columns []string, rows []Row) (int64, error)
	// CopyOut streams "COPY (query) TO STDOUT" into w, NULLs rendered
	// as empty strings. Returns the exported row count.
	CopyOut(ctx context.Context, w io.Writer, query string) (int64, error)
	// CopyIn streams r into table via COPY FROM STDIN inside a single
	// transaction committed on success. Returns the loaded row count.
	CopyIn(ctx context.Context, r io.Reader, table string, columns []string) (int64, error)
	Close(ctx context.Context) error
}

// ConnectionOverrides are caller-supplied values that win over what the
// secret says. Empty fields defer to the secret.
type ConnectionOverrides struct {
	Host     string
	Database string
}

// ConnectionFactory resolves a secret name into an open connection.
// Failures propagate untouched from the secret stage (ErrSecretNotFound
// and friends) or surface as ErrConnection from the connect call.
type ConnectionFactory interface {
	Resolve(ctx context.Context, secretName string, ov ConnectionOverrides) (Database, error)
}
