package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// UpsertExpression inserts the expression with frequency 1, or bumps the
// frequency of the existing row, and returns its id.
func UpsertExpression(ctx context.Context, db DBExecutor, text string) (int64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, fmt.Errorf("expression must be non-empty")
	}
	var id int64
	err := db.QueryRowContext(ctx, `INSERT INTO expressions (expression) VALUES (?)
		ON CONFLICT(expression) DO UPDATE SET frequency = expressions.frequency + 1
		RETURNING id`, text).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert expression %q: %w", text, err)
	}
	return id, nil
}

// GetExpression returns the expression row for text or ErrNotFound.
func GetExpression(ctx context.Context, db DBExecutor, text string) (Expression, error) {
	var e Expression
	err := db.QueryRowContext(ctx, `SELECT id, expression, frequency, is_excluded, is_learned, in_flashcard_set
		FROM expressions WHERE expression = ?`, text).
		Scan(&e.ID, &e.Text, &e.Frequency, &e.IsExcluded, &e.IsLearned, &e.InFlashcardSet)
	if errors.Is(err, sql.ErrNoRows) {
		return Expression{}, fmt.Errorf("expression %q: %w", text, ErrNotFound)
	}
	if err != nil {
		return Expression{}, fmt.Errorf("get expression %q: %w", text, err)
	}
	return e, nil
}

// UpdateExpressionExcluded sets is_excluded and reports whether a row matched.
func UpdateExpressionExcluded(ctx context.Context, db DBExecutor, text string, excluded bool) (bool, error) {
	return updateExpressionFlag(ctx, db, "is_excluded", text, excluded)
}

// UpdateExpressionLearned sets is_learned and reports whether a row matched.
func UpdateExpressionLearned(ctx context.Context, db DBExecutor, text string, learned bool) (bool, error) {
	return updateExpressionFlag(ctx, db, "is_learned", text, learned)
}

// UpdateExpressionInFlashcardSet sets in_flashcard_set and reports whether a
// row matched.
func UpdateExpressionInFlashcardSet(ctx context.Context, db DBExecutor, text string, in bool) (bool, error) {
	return updateExpressionFlag(ctx, db, "in_flashcard_set", text, in)
}

// column is one of the fixed flag names above, never user input.
func updateExpressionFlag(ctx context.Context, db DBExecutor, column, text string, v bool) (bool, error) {
	res, err := db.ExecContext(ctx, `UPDATE expressions SET `+column+` = ? WHERE expression = ?`, boolInt(v), text)
	if err != nil {
		return false, fmt.Errorf("update %s for %q: %w", column, text, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ResetInFlashcardSet clears in_flashcard_set on every expression.
func ResetInFlashcardSet(ctx context.Context, db DBExecutor) error {
	if _, err := db.ExecContext(ctx, `UPDATE expressions SET in_flashcard_set = 0 WHERE in_flashcard_set = 1`); err != nil {
		return fmt.Errorf("reset in_flashcard_set: %w", err)
	}
	return nil
}
