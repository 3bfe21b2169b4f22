package db

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"

	"github.com/japaniel/vocabulist/pkg/progress"
	"github.com/japaniel/vocabulist/pkg/tokenizer"
)

// Store is the vocabulary database. Every write runs in its own transaction
// and either commits completely or not at all.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// NewStore wraps an opened and initialized database.
func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{db: db, log: logger.With("component", "store")}
}

// DB exposes the underlying handle for read-only queries.
func (s *Store) DB() *sql.DB { return s.db }

// WithTx runs fn in a transaction, rolling back when fn fails.
func (s *Store) WithTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrap(op, err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.log.Error("rollback failed", slog.String("op", op), slog.Any("error", rbErr))
		}
		return wrap(op, err)
	}
	if err := tx.Commit(); err != nil {
		return wrap(op, err)
	}
	return nil
}

// InsertTokens stores a batch of tokens in one transaction. Stage "store"
// progress is reported once per token.
func (s *Store) InsertTokens(ctx context.Context, tokens []tokenizer.Token, obs progress.Observer) error {
	obs = progress.OrNop(obs)
	err := s.WithTx(ctx, "insert tokens", func(tx *sql.Tx) error {
		for i, t := range tokens {
			if err := UpsertOccurrence(ctx, tx, t); err != nil {
				return err
			}
			obs.Observe(progress.Event{Stage: "store", Done: i + 1, Total: len(tokens), Item: t.Expression})
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Debug("stored tokens", slog.Int("count", len(tokens)))
	return nil
}

// SelectExpressions runs q against the database.
func (s *Store) SelectExpressions(ctx context.Context, q ExpressionQuery) ([]Expression, error) {
	out, err := SelectExpressions(ctx, s.db, q)
	return out, wrap("select expressions", err)
}

// SelectPosList lists part-of-speech tags.
func (s *Store) SelectPosList(ctx context.Context, q PosQuery) ([]PartOfSpeech, error) {
	out, err := SelectPosList(ctx, s.db, q)
	return out, wrap("select pos", err)
}

// ExistingSentences returns which candidates have been imported before.
func (s *Store) ExistingSentences(ctx context.Context, candidates []string) (map[string]struct{}, error) {
	out, err := SelectExistingSentences(ctx, s.db, candidates)
	return out, wrap("select sentences", err)
}

// LookupExpression returns the row for text, or an error wrapping
// ErrNotFound.
func (s *Store) LookupExpression(ctx context.Context, text string) (Expression, error) {
	e, err := GetExpression(ctx, s.db, text)
	if errors.Is(err, ErrNotFound) {
		return e, err
	}
	return e, wrap("lookup expression", err)
}

// PosForExpression returns the tags text has occurred under.
func (s *Store) PosForExpression(ctx context.Context, text string) ([]string, error) {
	out, err := PosForExpression(ctx, s.db, text)
	return out, wrap("pos for expression", err)
}

// ExampleSentence returns the earliest sentence containing text. It wraps
// ErrNotFound when the expression has no occurrence.
func (s *Store) ExampleSentence(ctx context.Context, text string) (string, error) {
	out, err := ExampleSentence(ctx, s.db, text)
	if errors.Is(err, ErrNotFound) {
		return "", err
	}
	return out, wrap("example sentence", err)
}

// SetExcluded flags the given expressions and returns those that do not
// exist.
func (s *Store) SetExcluded(ctx context.Context, texts []string, excluded bool) ([]string, error) {
	return s.setFlag(ctx, "set excluded", texts, excluded, UpdateExpressionExcluded)
}

// SetLearned flags the given expressions as learned (or not) and returns
// those that do not exist.
func (s *Store) SetLearned(ctx context.Context, texts []string, learned bool) ([]string, error) {
	return s.setFlag(ctx, "set learned", texts, learned, UpdateExpressionLearned)
}

func (s *Store) setFlag(ctx context.Context, op string, texts []string, v bool,
	update func(context.Context, DBExecutor, string, bool) (bool, error)) ([]string, error) {
	var missing []string
	err := s.WithTx(ctx, op, func(tx *sql.Tx) error {
		missing = missing[:0]
		for _, t := range texts {
			ok, err := update(ctx, tx, t, v)
			if err != nil {
				return err
			}
			if !ok {
				missing = append(missing, t)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return missing, nil
}

// SetPosExcluded flags the given tags and cascades to their expressions.
// Excluding a tag excludes every expression that has no occurrence under a
// tag that is still included; an expression also seen under an included tag
// keeps its flag. Including a tag re-includes every expression seen under
// it. Unknown tags are returned.
func (s *Store) SetPosExcluded(ctx context.Context, tags []string, excluded bool) ([]string, error) {
	var missing []string
	err := s.WithTx(ctx, "set pos excluded", func(tx *sql.Tx) error {
		missing = missing[:0]
		var known []string
		for _, tag := range tags {
			ok, err := UpdatePosExcluded(ctx, tx, tag, excluded)
			if err != nil {
				return err
			}
			if !ok {
				missing = append(missing, tag)
				continue
			}
			known = append(known, tag)
		}
		// Cascade after every tag is flagged so an expression seen under two
		// excluded tags is caught regardless of argument order.
		for _, tag := range known {
			var (
				exprs []string
				err   error
			)
			if excluded {
				exprs, err = ExpressionsOnlyUnderExcludedPos(ctx, tx, tag)
			} else {
				exprs, err = ExpressionsForPos(ctx, tx, tag)
			}
			if err != nil {
				return err
			}
			for _, e := range exprs {
				if _, err := UpdateExpressionExcluded(ctx, tx, e, excluded); err != nil {
					return err
				}
			}
			s.log.Debug("pos cascade",
				slog.String("pos", tag),
				slog.Bool("excluded", excluded),
				slog.Int("expressions", len(exprs)),
			)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return missing, nil
}

// MarkInFlashcardSet records that text has been exported.
func (s *Store) MarkInFlashcardSet(ctx context.Context, text string) error {
	ok, err := UpdateExpressionInFlashcardSet(ctx, s.db, text, true)
	if err != nil {
		return wrap("mark in flashcard set", err)
	}
	if !ok {
		s.log.Warn("marking unknown expression", slog.String("expression", text))
	}
	return nil
}

// ResetFlashcardSetMembership clears the in-flashcard-set flag everywhere.
func (s *Store) ResetFlashcardSetMembership(ctx context.Context) error {
	return wrap("reset flashcard set", ResetInFlashcardSet(ctx, s.db))
}

// ReplaceFlashcardSet makes texts the exact flashcard set in one
// transaction and returns the texts that are not in the database.
func (s *Store) ReplaceFlashcardSet(ctx context.Context, texts []string) ([]string, error) {
	var missing []string
	err := s.WithTx(ctx, "replace flashcard set", func(tx *sql.Tx) error {
		missing = missing[:0]
		if err := ResetInFlashcardSet(ctx, tx); err != nil {
			return err
		}
		for _, t := range texts {
			ok, err := UpdateExpressionInFlashcardSet(ctx, tx, t, true)
			if err != nil {
				return err
			}
			if !ok {
				missing = append(missing, t)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return missing, nil
}
