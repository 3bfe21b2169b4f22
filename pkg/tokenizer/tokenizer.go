// Package tokenizer turns Japanese sentences into lexical tokens using a
// morphological analyzer backend.
//
// Three backends are supported: Juman++ and MeCab, which run as external
// processes and are parsed from their line-oriented output, and Kagome,
// which runs in process with the embedded IPA dictionary.
package tokenizer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"unicode/utf8"
)

// Token is one morpheme-like unit extracted from a sentence.
type Token struct {
	Expression   string // dictionary (canonical) form, e.g. "行く"
	PartOfSpeech string // primary part-of-speech tag, e.g. "動詞"
	Sentence     string // the source sentence, verbatim
	SurfaceForm  string // the literal string in the sentence, e.g. "行っ"
}

// Tokenizer is implemented by every backend adapter.
type Tokenizer interface {
	// Name identifies the backend ("jumanpp", "mecab", "kagome").
	Name() string
	// Tokenize analyzes a single sentence.
	Tokenize(ctx context.Context, sentence string) ([]Token, error)
}

// ErrUndecodable is wrapped by TokenizerError when backend output is not
// valid UTF-8.
var ErrUndecodable = errors.New("backend output is not valid UTF-8")

// TokenizerError reports that a backend could not analyze a sentence.
type TokenizerError struct {
	Backend  string
	Sentence string
	Err      error
}

func (e *TokenizerError) Error() string {
	return fmt.Sprintf("tokenizer %s: sentence %q: %v", e.Backend, e.Sentence, e.Err)
}

func (e *TokenizerError) Unwrap() error { return e.Err }

// Backend names accepted by New.
const (
	BackendJumanpp = "jumanpp"
	BackendMecab   = "mecab"
	BackendKagome  = "kagome"
)

// Options configures New.
type Options struct {
	// Path of the analyzer binary. Empty means the backend name on $PATH.
	Path   string
	Logger *slog.Logger
}

// New builds the adapter for the named backend.
func New(backend string, opts Options) (Tokenizer, error) {
	name := strings.ToLower(backend)
	path := opts.Path
	if path == "" {
		path = name
	}
	switch name {
	case BackendJumanpp:
		return NewJumanpp(&ExecRunner{Path: path}, opts.Logger), nil
	case BackendMecab:
		return NewMecab(&ExecRunner{Path: path}, opts.Logger), nil
	case BackendKagome:
		return NewKagome(opts.Logger)
	default:
		return nil, fmt.Errorf("unknown tokenizer backend %q", backend)
	}
}

// lineParser holds what the process-backed adapters share: the runner, a
// logger and the count of malformed lines skipped so far.
type lineParser struct {
	name      string
	runner    Runner
	log       *slog.Logger
	malformed atomic.Int64
}

func newLineParser(name string, runner Runner, logger *slog.Logger) *lineParser {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &lineParser{name: name, runner: runner, log: logger.With("backend", name)}
}

func (p *lineParser) Name() string { return p.name }

// Malformed returns how many output lines were skipped because their field
// count did not match the backend grammar.
func (p *lineParser) Malformed() int64 { return p.malformed.Load() }

// run sends the sentence to the backend and returns its decoded output lines.
func (p *lineParser) run(ctx context.Context, sentence string) ([]string, error) {
	out, err := p.runner.Run(ctx, sentence)
	if err != nil {
		return nil, &TokenizerError{Backend: p.name, Sentence: sentence, Err: err}
	}
	if !utf8.Valid(out) {
		return nil, &TokenizerError{Backend: p.name, Sentence: sentence, Err: ErrUndecodable}
	}
	return strings.Split(strings.ReplaceAll(string(out), "\r\n", "\n"), "\n"), nil
}

func (p *lineParser) skip(sentence, line string) {
	p.malformed.Add(1)
	p.log.Warn("skipping malformed analyzer line",
		slog.String("sentence", sentence),
		slog.String("line", line),
	)
}
