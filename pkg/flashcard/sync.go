package flashcard

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/japaniel/vocabulist/pkg/anki"
	"github.com/japaniel/vocabulist/pkg/db"
)

// DeckReader lists the values of one field across a deck.
type DeckReader interface {
	DeckValues(ctx context.Context, deck, field string) ([]string, error)
}

// SyncReport summarizes a Sync run.
type SyncReport struct {
	Notes   int
	Missing []string // expressions in the deck but not in the database
}

// Syncer makes the store's flashcard-set flags match an Anki deck.
type Syncer struct {
	Store    *db.Store
	Deck     DeckReader
	Template anki.NoteTemplate
	Logger   *slog.Logger
}

// NewSyncer creates a Syncer.
func NewSyncer(store *db.Store, deck DeckReader, tmpl anki.NoteTemplate, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Syncer{Store: store, Deck: deck, Template: tmpl, Logger: logger.With("component", "sync")}
}

// Sync reads the expression field of every note in the deck and makes that
// the exact set of expressions flagged in-flashcard-set.
func (s *Syncer) Sync(ctx context.Context) (SyncReport, error) {
	field, ok := s.Template.Fields.Field(anki.RoleExpression)
	if !ok {
		return SyncReport{}, fmt.Errorf("sync: no field has the %s role", anki.RoleExpression)
	}
	values, err := s.Deck.DeckValues(ctx, s.Template.DeckName, field)
	if err != nil {
		return SyncReport{}, err
	}

	seen := make(map[string]struct{}, len(values))
	texts := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		texts = append(texts, v)
	}

	missing, err := s.Store.ReplaceFlashcardSet(ctx, texts)
	if err != nil {
		return SyncReport{}, err
	}
	s.Logger.InfoContext(ctx, "synced",
		slog.String("deck", s.Template.DeckName),
		slog.Int("notes", len(values)),
		slog.Int("missing", len(missing)),
	)
	return SyncReport{Notes: len(values), Missing: missing}, nil
}
