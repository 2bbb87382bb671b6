package recordlog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPostgresPool connects to the database holding both logs when
// records.driver is postgres.
func NewPostgresPool(ctx context.Context, dsn string, maxConns int) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// PostgresTable stores one log in a Postgres table.
type PostgresTable[T any] struct {
	pool   *pgxpool.Pool
	schema Schema[T]
	name   string
	table  string
	cols   string
}

func NewPostgresTable[T any](ctx context.Context, pool *pgxpool.Pool, schema Schema[T]) (*PostgresTable[T], error) {
	name := tableName(schema.Name())
	t := &PostgresTable[T]{
		pool:   pool,
		schema: schema,
		name:   name,
		table:  pgx.Identifier{name}.Sanitize(),
		cols:   columnList(schema.Header()),
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (seq BIGSERIAL PRIMARY KEY, %s)`,
		t.table, columnDefs(schema.Header()))
	if _, err := pool.Exec(ctx, ddl); err != nil {
		return nil, fmt.Errorf("create table %s: %w", name, err)
	}
	return t, nil
}

func (t *PostgresTable[T]) Append(ctx context.Context, row T) error {
	q := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		t.table, t.cols, placeholders(len(t.schema.Header()), dollar))
	if _, err := t.pool.Exec(ctx, q, toArgs(t.schema.Encode(row))...); err != nil {
		return fmt.Errorf("insert into %s: %w", t.name, err)
	}
	return nil
}

func (t *PostgresTable[T]) ReadAll(ctx context.Context) ([]T, error) {
	rows, err := t.pool.Query(ctx, fmt.Sprintf(`SELECT %s FROM %s ORDER BY seq`, t.cols, t.table))
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", t.name, err)
	}
	n := len(t.schema.Header())
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (T, error) {
		cols := make([]string, n)
		ptrs := make([]any, n)
		for i := range cols {
			ptrs[i] = &cols[i]
		}
		if err := row.Scan(ptrs...); err != nil {
			var zero T
			return zero, err
		}
		return t.schema.Decode(cols)
	})
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", t.name, err)
	}
	return out, nil
}

// RewriteAll replaces the table content inside one transaction. COPY keeps
// the input order, so seq follows the slice.
func (t *PostgresTable[T]) RewriteAll(ctx context.Context, rows []T) error {
	return pgx.BeginFunc(ctx, t.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s`, t.table)); err != nil {
			return fmt.Errorf("clear %s: %w", t.name, err)
		}
		data := make([][]any, len(rows))
		for i, row := range rows {
			data[i] = toArgs(t.schema.Encode(row))
		}
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{t.name}, t.schema.Header(), pgx.CopyFromRows(data)); err != nil {
			return fmt.Errorf("copy into %s: %w", t.name, err)
		}
		return nil
	})
}
