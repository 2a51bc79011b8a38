package usecase

import (
	"context"
	"os"
	"time"

	"github.com/pgporter/pgporter/internal/domain"
)

// Cleaner removes local temporary artifacts. Removal failures, missing
// files included, are logged and swallowed: cleanup never decides a
// task's outcome.
type Cleaner struct {
	logger Logger
}

func NewCleaner(logger Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

func (c *Cleaner) Remove(path string) {
	c.logger.Infof("Removing file safely: [%s]", path)
	if err := os.Remove(path); err != nil {
		c.logger.Warnf("Cleanup: %v", err)
		return
	}
	c.logger.Infof("File removed successfully.")
}

// Retention sweeps remote keys older than the retention window. Runs as
// its own scheduled task, independent of the data-movement tasks.
type Retention struct {
	store         domain.ObjectStore
	prefix        string
	retentionDays int
	logger        Logger
}

func NewRetention(store domain.ObjectStore, prefix string, retentionDays int, logger Logger) *Retention {
	return &Retention{
		store:         store,
		prefix:        prefix,
		retentionDays: retentionDays,
		logger:        logger,
	}
}

func (uc *Retention) Execute(ctx context.Context) error {
	uc.logger.Infof("Starting retention sweep, retention: %d days", uc.retentionDays)

	cutoff := time.Now().AddDate(0, 0, -uc.retentionDays)
	keys, err := uc.store.OldKeys(ctx, uc.prefix, cutoff)
	if err != nil {
		return err
	}

	deleted := 0
	for _, key := range keys {
		uc.logger.Infof("Deleting expired artifact: %s", key)
		if err := uc.store.Delete(ctx, key); err != nil {
			uc.logger.Errorf("Failed to delete %s: %v", key, err)
			continue
		}
		deleted++
	}

	uc.logger.Infof("Retention sweep completed, deleted %d artifact(s)", deleted)
	return nil
}
