package ingest

import (
	"context"

	"github.com/japaniel/vocabulist/pkg/tokenizer"
)

// SentenceLookup reports which candidate sentences are already stored.
// *db.Store implements it.
type SentenceLookup interface {
	ExistingSentences(ctx context.Context, candidates []string) (map[string]struct{}, error)
}

// Filter drops material that was imported in an earlier batch. It works at
// sentence granularity: once a sentence is stored, every token derived from
// it in a later run is dropped, even if the tokenizer would now produce
// different tokens.
type Filter struct {
	Lookup SentenceLookup
}

// AlreadyImported returns the subset of candidates that exist in the store.
func (f Filter) AlreadyImported(ctx context.Context, candidates []string) (map[string]struct{}, error) {
	return f.Lookup.ExistingSentences(ctx, candidates)
}

// NewSentences returns the candidates not yet imported, in input order and
// without repeats.
func (f Filter) NewSentences(ctx context.Context, candidates []string) ([]string, map[string]struct{}, error) {
	uniq := Unique(candidates)
	known, err := f.AlreadyImported(ctx, uniq)
	if err != nil {
		return nil, nil, err
	}
	out := make([]string, 0, len(uniq))
	for _, s := range uniq {
		if _, ok := known[s]; !ok {
			out = append(out, s)
		}
	}
	return out, known, nil
}

// FilterNewTokens drops every token whose sentence is in known.
func FilterNewTokens(tokens []tokenizer.Token, known map[string]struct{}) []tokenizer.Token {
	if len(known) == 0 {
		return tokens
	}
	out := make([]tokenizer.Token, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := known[t.Sentence]; ok {
			continue
		}
		out = append(out, t)
	}
	return out
}

// PerOccurrence lays tokens out once per appearance of their sentence in
// sentences, in input order. tokens holds the analysis of each distinct
// sentence once; sentences in known and empty ones contribute nothing, so a
// line repeated within a batch counts every time it appears.
func PerOccurrence(sentences []string, tokens []tokenizer.Token, known map[string]struct{}) []tokenizer.Token {
	bySentence := make(map[string][]tokenizer.Token)
	for _, t := range tokens {
		bySentence[t.Sentence] = append(bySentence[t.Sentence], t)
	}
	out := make([]tokenizer.Token, 0, len(tokens))
	for _, s := range sentences {
		if _, ok := known[s]; ok {
			continue
		}
		out = append(out, bySentence[s]...)
	}
	return out
}

// Unique removes empty and repeated sentences, keeping first occurrences.
func Unique(sentences []string) []string {
	seen := make(map[string]struct{}, len(sentences))
	out := make([]string, 0, len(sentences))
	for _, s := range sentences {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
