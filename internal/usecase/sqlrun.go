package usecase

import (
	"context"
	"fmt"

	"github.com/pgporter/pgporter/internal/domain"
)

// SQLRun executes a configured statement against a secret-resolved
// connection. Covers the maintenance statements that bracket the bigger
// transfers: truncates, partition swaps, grant refreshes.
type SQLRun struct {
	factory domain.ConnectionFactory
	conn    ConnSpec
	logger  Logger

	sql    string
	params []any
}

func NewSQLRun(factory domain.ConnectionFactory, conn ConnSpec, logger Logger, sql string, params []any) *SQLRun {
	return &SQLRun{
		factory: factory,
		conn:    conn,
		logger:  logger,
		sql:     sql,
		params:  params,
	}
}

func (uc *SQLRun) Execute(ctx context.Context) error {
	uc.logger.Infof("Executing query: %s", uc.sql)

	db, err := uc.factory.Resolve(ctx, uc.conn.SecretName, uc.conn.Overrides)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	if err := db.Run(ctx, uc.sql, uc.params...); err != nil {
		return fmt.Errorf("run statement: %w", err)
	}

	return nil
}
