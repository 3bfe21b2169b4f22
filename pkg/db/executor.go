package db

import (
	"context"
	"database/sql"
)

// DBExecutor is satisfied by both *sql.DB and *sql.Tx so the statement
// functions can run inside or outside a transaction.
type DBExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// boolInt maps a flag to the 0/1 stored in SQLite.
func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
