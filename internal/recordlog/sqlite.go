package recordlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// OpenSQLite opens (creating if needed) the embedded database that holds
// both logs when records.driver is sqlite.
func OpenSQLite(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps writers from tripping over SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

// SQLiteTable stores one log in a table of an embedded SQLite database.
type SQLiteTable[T any] struct {
	db     *sql.DB
	schema Schema[T]
	table  string
	cols   string
}

func NewSQLiteTable[T any](ctx context.Context, db *sql.DB, schema Schema[T]) (*SQLiteTable[T], error) {
	t := &SQLiteTable[T]{
		db:     db,
		schema: schema,
		table:  quoteIdent(tableName(schema.Name())),
		cols:   columnList(schema.Header()),
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (seq INTEGER PRIMARY KEY AUTOINCREMENT, %s)`,
		t.table, columnDefs(schema.Header()))
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return nil, fmt.Errorf("create table %s: %w", t.table, err)
	}
	return t, nil
}

func (t *SQLiteTable[T]) insertSQL() string {
	return fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		t.table, t.cols, placeholders(len(t.schema.Header()), question))
}

func (t *SQLiteTable[T]) Append(ctx context.Context, row T) error {
	if _, err := t.db.ExecContext(ctx, t.insertSQL(), toArgs(t.schema.Encode(row))...); err != nil {
		return fmt.Errorf("insert into %s: %w", t.table, err)
	}
	return nil
}

func (t *SQLiteTable[T]) ReadAll(ctx context.Context) ([]T, error) {
	rows, err := t.db.QueryContext(ctx, fmt.Sprintf(`SELECT %s FROM %s ORDER BY seq`, t.cols, t.table))
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", t.table, err)
	}
	defer func() { _ = rows.Close() }()

	n := len(t.schema.Header())
	var out []T
	for rows.Next() {
		cols := make([]string, n)
		ptrs := make([]any, n)
		for i := range cols {
			ptrs[i] = &cols[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.table, err)
		}
		row, err := t.schema.Decode(cols)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (t *SQLiteTable[T]) RewriteAll(ctx context.Context, rows []T) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, t.table)); err != nil {
		return fmt.Errorf("clear %s: %w", t.table, err)
	}
	stmt, err := tx.PrepareContext(ctx, t.insertSQL())
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()
	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, toArgs(t.schema.Encode(row))...); err != nil {
			return fmt.Errorf("insert into %s: %w", t.table, err)
		}
	}
	return tx.Commit()
}

func toArgs(cols []string) []any {
	args := make([]any, len(cols))
	for i, c := range cols {
		args[i] = c
	}
	return args
}
