// Package ingest drives tokenization over batches of sentences, drops
// sentences that were imported before and hands the remaining tokens to
// the store in a single transaction per batch.
package ingest

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/japaniel/vocabulist/pkg/progress"
	"github.com/japaniel/vocabulist/pkg/tokenizer"
)

// StageTokenize is the progress stage reported by Orchestrator.
const StageTokenize = "tokenize"

// Orchestrator runs a Tokenizer over a list of sentences.
type Orchestrator struct {
	Tokenizer tokenizer.Tokenizer
	// Workers above 1 tokenizes sentences in parallel on a WorkerPool.
	Workers  int
	Observer progress.Observer
	Logger   *slog.Logger

	// PoolFactory allows tests to inject custom worker pool implementations.
	PoolFactory func(workers, queue int) Pool
}

// NewOrchestrator returns a sequential orchestrator for t.
func NewOrchestrator(t tokenizer.Tokenizer, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{Tokenizer: t, Workers: 1, Logger: logger}
}

func (o *Orchestrator) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.Logger
}

// Run tokenizes sentences and returns their tokens, in input order. The
// observer sees exactly one event per sentence, including sentences that
// produce no tokens. The first tokenizer error aborts the run and is
// returned.
func (o *Orchestrator) Run(ctx context.Context, sentences []string) ([]tokenizer.Token, error) {
	if o.Workers > 1 && len(sentences) > 1 {
		return o.runParallel(ctx, sentences)
	}
	obs := progress.OrNop(o.Observer)
	var out []tokenizer.Token
	for i, s := range sentences {
		toks, err := o.Tokenizer.Tokenize(ctx, s)
		if err != nil {
			return nil, err
		}
		out = append(out, toks...)
		obs.Observe(progress.Event{Stage: StageTokenize, Done: i + 1, Total: len(sentences), Item: s})
	}
	return out, nil
}

// runParallel tokenizes on a worker pool. Each job writes only its own slot
// of results; the counter behind progress events is advanced under a lock so
// Done stays monotonic even though sentences finish out of order.
func (o *Orchestrator) runParallel(ctx context.Context, sentences []string) ([]tokenizer.Token, error) {
	obs := progress.OrNop(o.Observer)
	log := o.logger()

	var wp Pool
	if o.PoolFactory != nil {
		wp = o.PoolFactory(o.Workers, o.Workers*2)
	} else {
		wp = NewWorkerPool(o.Workers, o.Workers*2)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		results  = make([][]tokenizer.Token, len(sentences))
		mu       sync.Mutex
		done     int
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
		cancel()
	}

	wp.Start(ctx)
	for i, s := range sentences {
		idx, sentence := i, s
		job := func(ctx context.Context) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			toks, err := o.Tokenizer.Tokenize(ctx, sentence)
			if err != nil {
				fail(err)
				return err
			}
			results[idx] = toks
			mu.Lock()
			done++
			obs.Observe(progress.Event{Stage: StageTokenize, Done: done, Total: len(sentences), Item: sentence})
			mu.Unlock()
			return nil
		}
		if err := wp.SubmitCtx(ctx, job); err != nil {
			if ctx.Err() == nil {
				fail(err)
			}
			break
		}
	}
	wp.Close()

	mu.Lock()
	err, finished := firstErr, done
	mu.Unlock()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if finished != len(sentences) {
		// A pool that dropped jobs without reporting an error.
		return nil, ErrPoolClosed
	}

	var out []tokenizer.Token
	for _, toks := range results {
		out = append(out, toks...)
	}
	log.Debug("tokenized batch",
		slog.Int("sentences", len(sentences)),
		slog.Int("tokens", len(out)),
		slog.Int("workers", o.Workers),
	)
	return out, nil
}
