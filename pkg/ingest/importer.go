package ingest

import (
	"context"
	"io"
	"log/slog"

	"github.com/japaniel/vocabulist/pkg/db"
	"github.com/japaniel/vocabulist/pkg/progress"
)

// Result summarizes one ingestion batch.
type Result struct {
	Sentences int   // distinct non-empty sentences offered
	Skipped   int   // sentences already imported earlier
	Tokens    int   // tokens written to the store
	Malformed int64 // analyzer lines skipped during this batch
}

// malformedCounter is implemented by the process-backed tokenizers.
type malformedCounter interface {
	Malformed() int64
}

// Importer runs one ingestion batch: dedup, tokenize, store.
type Importer struct {
	Store        *db.Store
	Orchestrator *Orchestrator
	Observer     progress.Observer
	Logger       *slog.Logger
}

// NewImporter wires an importer over store and orchestrator.
func NewImporter(store *db.Store, orch *Orchestrator, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Importer{Store: store, Orchestrator: orch, Logger: logger.With("component", "importer")}
}

// Import stores the tokens of every sentence not seen before. The whole
// batch is written in one transaction: on error nothing is stored.
// Sentences already in the store are not tokenized again. A new sentence
// repeated within the batch is tokenized once and stored once per repeat.
func (im *Importer) Import(ctx context.Context, sentences []string) (Result, error) {
	filter := Filter{Lookup: im.Store}
	fresh, known, err := filter.NewSentences(ctx, sentences)
	if err != nil {
		return Result{}, err
	}
	res := Result{Sentences: len(fresh) + len(known), Skipped: len(known)}
	if len(fresh) == 0 {
		im.Logger.Info("nothing new to import", slog.Int("skipped", res.Skipped))
		return res, nil
	}

	var before int64
	mc, counts := im.Orchestrator.Tokenizer.(malformedCounter)
	if counts {
		before = mc.Malformed()
	}

	orch := *im.Orchestrator
	if orch.Observer == nil {
		orch.Observer = im.Observer
	}
	tokens, err := orch.Run(ctx, fresh)
	if err != nil {
		return res, err
	}
	if counts {
		res.Malformed = mc.Malformed() - before
	}
	tokens = PerOccurrence(sentences, FilterNewTokens(tokens, known), known)

	if err := im.Store.InsertTokens(ctx, tokens, im.Observer); err != nil {
		return res, err
	}
	res.Tokens = len(tokens)

	attrs := []any{
		slog.Int("sentences", res.Sentences),
		slog.Int("skipped", res.Skipped),
		slog.Int("tokens", res.Tokens),
	}
	if res.Malformed > 0 {
		im.Logger.Warn("imported batch with malformed analyzer lines", append(attrs, slog.Int64("malformed", res.Malformed))...)
	} else {
		im.Logger.Info("imported batch", attrs...)
	}
	return res, nil
}
