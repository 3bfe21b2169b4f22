package db

import (
	"context"
	"fmt"

	"github.com/japaniel/vocabulist/pkg/tokenizer"
)

// InsertOccurrence links the four rows. Inserting an existing link is a no-op.
func InsertOccurrence(ctx context.Context, db DBExecutor, o Occurrence) error {
	_, err := db.ExecContext(ctx, `INSERT INTO occurrences (expression_id, pos_id, sentence_id, surface_form_id)
		VALUES (?, ?, ?, ?)
		ON CONFLICT DO NOTHING`, o.ExpressionID, o.PosID, o.SentenceID, o.SurfaceFormID)
	if err != nil {
		return fmt.Errorf("insert occurrence %+v: %w", o, err)
	}
	return nil
}

// UpsertOccurrence records one token: it creates the expression, tag,
// sentence and surface form rows as needed, bumps the expression frequency
// when it already existed and links them.
func UpsertOccurrence(ctx context.Context, db DBExecutor, t tokenizer.Token) error {
	var (
		o   Occurrence
		err error
	)
	if o.ExpressionID, err = UpsertExpression(ctx, db, t.Expression); err != nil {
		return err
	}
	if o.PosID, err = EnsurePos(ctx, db, t.PartOfSpeech); err != nil {
		return err
	}
	if o.SentenceID, err = EnsureSentence(ctx, db, t.Sentence); err != nil {
		return err
	}
	if o.SurfaceFormID, err = EnsureSurfaceForm(ctx, db, t.SurfaceForm); err != nil {
		return err
	}
	return InsertOccurrence(ctx, db, o)
}
