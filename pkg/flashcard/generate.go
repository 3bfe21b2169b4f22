package flashcard

import (
	"context"
	"errors"
	"log/slog"

	"github.com/japaniel/vocabulist/pkg/anki"
	"github.com/japaniel/vocabulist/pkg/db"
	"github.com/japaniel/vocabulist/pkg/progress"
)

// Report summarizes a Generate run.
type Report struct {
	Candidates int
	Exported   int
	Skipped    int // no definition; now excluded
	Failed     int // resolution or export failures
}

// Generate exports up to n new flashcards, most frequent expressions first.
// Twice n candidates are fetched since skipped and failed ones do not count
// toward n. A failure on one expression is logged and the next candidate is
// tried; store errors abort.
func (s *Synthesizer) Generate(ctx context.Context, n int) (Report, error) {
	var r Report
	if n < 1 {
		return r, nil
	}
	candidates, err := s.Store.SelectExpressions(ctx, db.ExpressionQuery{Limit: 2 * n})
	if err != nil {
		return r, err
	}
	r.Candidates = len(candidates)

	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Text
	}
	drafts, err := s.Prepare(ctx, texts)
	if err != nil {
		return r, err
	}

	obs := progress.OrNop(s.Observer)
	for _, d := range drafts {
		if r.Exported >= n {
			break
		}
		if err := ctx.Err(); err != nil {
			return r, err
		}
		if d.Err != nil {
			r.Failed++
			s.Logger.WarnContext(ctx, "resolution failed", slog.String("expression", d.Expression), slog.Any("error", d.Err))
			continue
		}
		card, ok, err := s.settle(ctx, d)
		if err != nil {
			return r, err
		}
		if !ok {
			r.Skipped++
			continue
		}
		if err := s.Export(ctx, card); err != nil {
			var ee *anki.ExportError
			if !errors.As(err, &ee) {
				return r, err
			}
			r.Failed++
			s.Logger.WarnContext(ctx, "export failed", slog.String("expression", d.Expression), slog.Any("error", err))
			continue
		}
		r.Exported++
		obs.Observe(progress.Event{Stage: StageGenerate, Done: r.Exported, Total: n, Item: d.Expression})
	}

	if r.Exported < n {
		s.Logger.InfoContext(ctx, "ran out of candidates",
			slog.Int("requested", n),
			slog.Int("exported", r.Exported),
		)
	}
	return r, nil
}
