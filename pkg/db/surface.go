package db

import (
	"context"
	"fmt"
)

// EnsureSurfaceForm inserts the surface form if missing and returns its id.
func EnsureSurfaceForm(ctx context.Context, db DBExecutor, text string) (int64, error) {
	if _, err := db.ExecContext(ctx, `INSERT OR IGNORE INTO surface_forms (surface_form) VALUES (?)`, text); err != nil {
		return 0, fmt.Errorf("insert surface form %q: %w", text, err)
	}
	var id int64
	if err := db.QueryRowContext(ctx, `SELECT id FROM surface_forms WHERE surface_form = ?`, text).Scan(&id); err != nil {
		return 0, fmt.Errorf("select surface form id %q: %w", text, err)
	}
	return id, nil
}
