// Package usecase holds the data-movement tasks: dump-to-object-store,
// relational-to-relational copy, COPY-based export and import, and plain
// SQL execution. Each task is one sequential run: resolve credentials,
// open scoped resources, move data, clean up. Failures surface as a
// single fatal error; nothing here retries.
package usecase

type Logger interface {
	Infof(template string, args ...interface{})
	Errorf(template string, args ...interface{})
	Warnf(template string, args ...interface{})
}
