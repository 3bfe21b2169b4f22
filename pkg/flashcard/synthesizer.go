// Package flashcard turns stored expressions into Anki notes: definitions
// are resolved from the dictionary, narrowed by the parts of speech the
// expression was seen under, and exported together with readings, an
// example sentence and pronunciation audio.
package flashcard

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/japaniel/vocabulist/pkg/anki"
	"github.com/japaniel/vocabulist/pkg/db"
	"github.com/japaniel/vocabulist/pkg/dictionary"
	"github.com/japaniel/vocabulist/pkg/progress"
)

// StageGenerate is the progress stage of Generate.
const StageGenerate = "generate"

// Resolver looks up dictionary senses and readings.
type Resolver interface {
	Resolve(ctx context.Context, expression string) ([]dictionary.Sense, bool, error)
	Readings(ctx context.Context, expression string) ([]string, error)
}

// Exporter receives finished notes.
type Exporter interface {
	AddNote(ctx context.Context, note anki.Note) (int64, error)
}

// Draft is the synthesized content for one expression.
type Draft struct {
	Expression    string
	Card          anki.Card
	Senses        int // 0 means the dictionary has no entry
	PosSpecific   bool
	KanjiSpecific bool
	// Err is the ResolutionError that stopped this expression, if any.
	Err error
}

// Synthesizer builds and exports flashcards.
type Synthesizer struct {
	Store    *db.Store
	Resolver Resolver
	Exporter Exporter
	Template anki.NoteTemplate
	// Workers bounds concurrent dictionary lookups in Prepare.
	Workers  int
	Observer progress.Observer
	Logger   *slog.Logger
}

// NewSynthesizer creates a Synthesizer with a single worker.
func NewSynthesizer(store *db.Store, resolver Resolver, exporter Exporter, tmpl anki.NoteTemplate, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Synthesizer{
		Store:    store,
		Resolver: resolver,
		Exporter: exporter,
		Template: tmpl,
		Workers:  1,
		Logger:   logger.With("component", "flashcard"),
	}
}

// draft gathers everything the card for text needs. It only reads.
func (s *Synthesizer) draft(ctx context.Context, text string) (Draft, error) {
	senses, kanjiSpecific, err := s.Resolver.Resolve(ctx, text)
	if err != nil {
		return Draft{}, err
	}
	d := Draft{Expression: text, Senses: len(senses), KanjiSpecific: kanjiSpecific}
	if len(senses) == 0 {
		return d, nil
	}

	pos, err := s.Store.PosForExpression(ctx, text)
	if err != nil {
		return Draft{}, err
	}
	glosses, posSpecific := dictionary.FilterByPos(senses, dictionary.ConvertPosList(pos))
	d.PosSpecific = posSpecific

	readings, err := s.Resolver.Readings(ctx, text)
	if err != nil {
		return Draft{}, err
	}
	sentence, err := s.Store.ExampleSentence(ctx, text)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return Draft{}, err
	}

	d.Card = anki.Card{
		Expression: text,
		Reading:    FormatReadings(readings),
		Definition: FormatDefinition(glosses, posSpecific, kanjiSpecific),
		Sentence:   sentence,
		Audio:      AudioFor(text, readings),
	}
	return d, nil
}

// Synthesize builds the card for text. When the dictionary has no sense for
// it the expression is marked excluded and ok is false.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) (card anki.Card, ok bool, err error) {
	d, err := s.draft(ctx, text)
	if err != nil {
		return anki.Card{}, false, err
	}
	return s.settle(ctx, d)
}

// settle excludes a draft without senses; ok reports whether its card
// should be exported.
func (s *Synthesizer) settle(ctx context.Context, d Draft) (card anki.Card, ok bool, err error) {
	if d.Senses == 0 {
		return anki.Card{}, false, s.exclude(ctx, d.Expression)
	}
	return d.Card, true, nil
}

func (s *Synthesizer) exclude(ctx context.Context, text string) error {
	s.Logger.InfoContext(ctx, "no definition, excluding", slog.String("expression", text))
	_, err := s.Store.SetExcluded(ctx, []string{text}, true)
	return err
}

// Prepare drafts every text concurrently, keeping input order. A
// ResolutionError is recorded on its Draft; any other error aborts.
func (s *Synthesizer) Prepare(ctx context.Context, texts []string) ([]Draft, error) {
	drafts := make([]Draft, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, s.Workers))
	for i, text := range texts {
		i, text := i, text
		g.Go(func() error {
			d, err := s.draft(gctx, text)
			var re *dictionary.ResolutionError
			if errors.As(err, &re) {
				drafts[i] = Draft{Expression: text, Err: err}
				return nil
			}
			if err != nil {
				return err
			}
			drafts[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return drafts, nil
}

// Export sends card to the exporter and, once accepted, marks the expression
// as part of the flashcard set.
func (s *Synthesizer) Export(ctx context.Context, card anki.Card) error {
	note := s.Template.Note(card)
	id, err := s.Exporter.AddNote(ctx, note)
	if err != nil {
		return err
	}
	s.Logger.DebugContext(ctx, "exported", slog.String("expression", card.Expression), slog.Int64("note", id))
	return s.Store.MarkInFlashcardSet(ctx, card.Expression)
}
