package database

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/pgporter/pgporter/internal/domain"
)

type Logger interface {
	Infof(template string, args ...interface{})
	Errorf(template string, args ...interface{})
}

// Factory opens PostgreSQL connections from Secrets Manager credentials.
// Caller overrides win over secret-supplied host/dbname; the port comes
// from the secret (already defaulted to 5432 by ParseSecret).
type Factory struct {
	secrets domain.SecretSource
	log     Logger
}

func NewFactory(secrets domain.SecretSource, log Logger) *Factory {
	return &Factory{secrets: secrets, log: log}
}

func (f *Factory) Resolve(ctx context.Context, secretName string, ov domain.ConnectionOverrides) (domain.Database, error) {
	secret, err := f.ResolveSecret(ctx, secretName)
	if err != nil {
		return nil, err
	}

	host := secret.Host
	if ov.Host != "" {
		host = ov.Host
	}
	dbname := secret.DBName
	if ov.Database != "" {
		dbname = ov.Database
	}

	f.log.Infof("Connecting to database [%s] on host [%s:%d]", dbname, host, secret.Port)

	cfg, err := pgx.ParseConfig(fmt.Sprintf(
		"host=%s port=%d user=%s dbname=%s",
		host, secret.Port, secret.Username, dbname,
	))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConnection, err)
	}
	cfg.Password = secret.Password

	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %s:%d/%s: %v", domain.ErrConnection, host, secret.Port, dbname, err)
	}

	return &Postgres{conn: conn}, nil
}

// ResolveSecret fetches and parses the credential payload without
// opening a connection. The dump task needs the raw Secret because
// pg_dump connects on its own.
func (f *Factory) ResolveSecret(ctx context.Context, secretName string) (*domain.Secret, error) {
	raw, err := f.secrets.GetSecret(ctx, secretName)
	if err != nil {
		return nil, err
	}
	return domain.ParseSecret(raw)
}

// Postgres implements domain.Database over a single pgx connection.
type Postgres struct {
	conn *pgx.Conn
}

func (p *Postgres) Run(ctx context.Context, sql string, args ...any) error {
	_, err := p.conn.Exec(ctx, sql, args...)
	return err
}

func (p *Postgres) Fetch(ctx context.Context, sql string, args ...any) ([]domain.Row, error) {
	rows, err := p.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Row
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, err
		}
		out = append(out, domain.Row(vals))
	}
	return out, rows.Err()
}

func (p *Postgres) BulkInsert(ctx context.Context, table string, columns []string, rows []domain.Row) (int64, error) {
	src := make([][]any, len(rows))
	for i, r := range rows {
		src[i] = r
	}
	return p.conn.CopyFrom(ctx, tableIdent(table), columns, pgx.CopyFromRows(src))
}

func (p *Postgres) CopyOut(ctx context.Context, w io.Writer, query string) (int64, error) {
	// NULL renders as an empty string so the flat file round-trips
	// through systems that have no NULL marker.
	stmt := fmt.Sprintf("COPY (%s) TO STDOUT WITH (NULL '')", query)
	tag, err := p.conn.PgConn().CopyTo(ctx, w, stmt)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (p *Postgres) CopyIn(ctx context.Context, r io.Reader, table string, columns []string) (int64, error) {
	cols := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = pgx.Identifier{c}.Sanitize()
	}
	stmt := fmt.Sprintf("COPY %s (%s) FROM STDIN", tableIdent(table).Sanitize(), strings.Join(cols, ", "))

	// One transaction around the load, committed exactly once.
	tx, err := p.conn.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Conn().PgConn().CopyFrom(ctx, r, stmt)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (p *Postgres) Close(ctx context.Context) error {
	return p.conn.Close(ctx)
}

func tableIdent(table string) pgx.Identifier {
	return pgx.Identifier(strings.Split(table, "."))
}
