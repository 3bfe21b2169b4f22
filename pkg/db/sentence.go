package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// EnsureSentence inserts the sentence if missing and returns its id.
func EnsureSentence(ctx context.Context, db DBExecutor, text string) (int64, error) {
	if _, err := db.ExecContext(ctx, `INSERT OR IGNORE INTO sentences (sentence) VALUES (?)`, text); err != nil {
		return 0, fmt.Errorf("insert sentence: %w", err)
	}
	var id int64
	if err := db.QueryRowContext(ctx, `SELECT id FROM sentences WHERE sentence = ?`, text).Scan(&id); err != nil {
		return 0, fmt.Errorf("select sentence id: %w", err)
	}
	return id, nil
}

// ExampleSentence returns the earliest imported sentence the expression
// occurred in.
func ExampleSentence(ctx context.Context, db DBExecutor, expression string) (string, error) {
	var s string
	err := db.QueryRowContext(ctx, `SELECT s.sentence FROM sentences s
		JOIN occurrences o ON o.sentence_id = s.id
		JOIN expressions e ON e.id = o.expression_id
		WHERE e.expression = ?
		ORDER BY s.id LIMIT 1`, expression).Scan(&s)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("sentence for %q: %w", expression, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("select sentence for %q: %w", expression, err)
	}
	return s, nil
}
