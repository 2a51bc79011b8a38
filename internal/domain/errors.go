package domain

import "errors"

// Stage errors. Tasks wrap these with fmt.Errorf("%w: ...") so callers can
// match the failing stage with errors.Is. None of them are retried here;
// retry policy belongs to whatever schedules the task.
var (
	ErrSecretNotFound       = errors.New("secret not found")
	ErrSecretAccessDenied   = errors.New("secret access denied")
	ErrInvalidSecretRequest = errors.New("invalid secret request")
	ErrConnection           = errors.New("database connection failed")
	ErrDumpFailed           = errors.New("dump failed")
	ErrEncryptionFailed     = errors.New("encryption failed")
	ErrHashFailed           = errors.New("hash computation failed")
	ErrTransferFailed       = errors.New("transfer failed")

	// ErrKeyExists reports an upload conflict when overwriting is not allowed.
	ErrKeyExists = errors.New("object key already exists")
)
