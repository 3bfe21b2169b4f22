package tokenizer

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

const kagomeSymbol = "記号"

// Kagome runs the Kagome analyzer in process with the IPA dictionary. It
// needs no external binary, which makes it the fallback backend.
type Kagome struct {
	t   *tokenizer.Tokenizer
	log *slog.Logger
}

// NewKagome loads the embedded IPA dictionary.
func NewKagome(logger *slog.Logger) (*Kagome, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, &TokenizerError{Backend: BackendKagome, Err: err}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Kagome{t: t, log: logger.With("backend", BackendKagome)}, nil
}

func (k *Kagome) Name() string { return BackendKagome }

func (k *Kagome) Tokenize(ctx context.Context, sentence string) ([]Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, &TokenizerError{Backend: BackendKagome, Sentence: sentence, Err: err}
	}

	var tokens []Token
	for _, tok := range k.t.Tokenize(sentence) {
		if tok.Class == tokenizer.DUMMY {
			continue
		}
		if strings.TrimSpace(tok.Surface) == "" {
			continue
		}

		// IPA features:
		// 0 pos, 1-3 sub-pos, 4 conjugation type, 5 conjugation form,
		// 6 base form, 7 reading, 8 pronunciation
		features := tok.Features()
		if len(features) == 0 {
			k.log.Warn("skipping token without features",
				slog.String("sentence", sentence),
				slog.String("surface", tok.Surface),
			)
			continue
		}
		if features[0] == kagomeSymbol {
			continue
		}

		base := tok.Surface
		if len(features) > 6 && features[6] != "*" {
			base = features[6]
		}

		tokens = append(tokens, Token{
			Expression:   base,
			PartOfSpeech: features[0],
			Sentence:     sentence,
			SurfaceForm:  tok.Surface,
		})
	}
	return tokens, nil
}
