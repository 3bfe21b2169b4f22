package db

import (
	"context"
	"fmt"
)

// EnsurePos inserts the tag if missing and returns its id.
func EnsurePos(ctx context.Context, db DBExecutor, tag string) (int64, error) {
	if _, err := db.ExecContext(ctx, `INSERT OR IGNORE INTO pos (pos) VALUES (?)`, tag); err != nil {
		return 0, fmt.Errorf("insert pos %q: %w", tag, err)
	}
	var id int64
	if err := db.QueryRowContext(ctx, `SELECT id FROM pos WHERE pos = ?`, tag).Scan(&id); err != nil {
		return 0, fmt.Errorf("select pos id %q: %w", tag, err)
	}
	return id, nil
}

// UpdatePosExcluded sets is_excluded on a tag and reports whether it exists.
func UpdatePosExcluded(ctx context.Context, db DBExecutor, tag string, excluded bool) (bool, error) {
	res, err := db.ExecContext(ctx, `UPDATE pos SET is_excluded = ? WHERE pos = ?`, boolInt(excluded), tag)
	if err != nil {
		return false, fmt.Errorf("update pos %q: %w", tag, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// PosForExpression returns the distinct tags the expression occurred under,
// in first-seen order.
func PosForExpression(ctx context.Context, db DBExecutor, expression string) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT p.pos FROM pos p
		JOIN occurrences o ON o.pos_id = p.id
		JOIN expressions e ON e.id = o.expression_id
		WHERE e.expression = ?
		GROUP BY p.id ORDER BY p.id`, expression)
	if err != nil {
		return nil, fmt.Errorf("select pos for %q: %w", expression, err)
	}
	return scanStrings(rows)
}

// ExpressionsForPos returns every expression that occurred under tag.
func ExpressionsForPos(ctx context.Context, db DBExecutor, tag string) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT DISTINCT e.expression FROM expressions e
		JOIN occurrences o ON o.expression_id = e.id
		JOIN pos p ON p.id = o.pos_id
		WHERE p.pos = ?
		ORDER BY e.id`, tag)
	if err != nil {
		return nil, fmt.Errorf("select expressions for pos %q: %w", tag, err)
	}
	return scanStrings(rows)
}

// ExpressionsOnlyUnderExcludedPos returns the expressions that occurred under
// tag and under no tag that is currently included.
func ExpressionsOnlyUnderExcludedPos(ctx context.Context, db DBExecutor, tag string) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT DISTINCT e.expression FROM expressions e
		JOIN occurrences o ON o.expression_id = e.id
		JOIN pos p ON p.id = o.pos_id
		WHERE p.pos = ?
		AND NOT EXISTS (
			SELECT 1 FROM occurrences o2
			JOIN pos p2 ON p2.id = o2.pos_id
			WHERE o2.expression_id = e.id AND p2.is_excluded = 0
		)
		ORDER BY e.id`, tag)
	if err != nil {
		return nil, fmt.Errorf("select exclusive expressions for pos %q: %w", tag, err)
	}
	return scanStrings(rows)
}
