package db

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Open opens the vocabulary database at path (":memory:" for a private
// in-memory database) with foreign keys enforced. The pool is limited to a
// single connection: the store has one writer and in-memory databases are
// per connection.
func Open(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=10000", path)
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, &StoreError{Op: "open", Err: err}
	}
	conn.SetMaxOpenConns(1)
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, &StoreError{Op: "open", Err: err}
	}
	return conn, nil
}

// InitDB creates the schema. It is idempotent.
func InitDB(ctx context.Context, db *sql.DB) error {
	for _, s := range strings.Split(schemaSQL, ";") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, s); err != nil {
			return &StoreError{Op: "init schema", Err: err}
		}
	}
	return nil
}
