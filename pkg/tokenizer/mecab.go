package tokenizer

import (
	"context"
	"log/slog"
	"regexp"
)

// MeCab (IPA dictionary) output, split on tabs and commas:
//
//	surface pos subpos1 subpos2 subpos3 conj_type conj_form base reading pronunciation
const (
	mecabSurface = 0
	mecabPOS     = 1
	mecabBase    = 7
	mecabFields  = 10

	mecabEOS    = "EOS"
	mecabSymbol = "記号"
)

var mecabSeparator = regexp.MustCompile(`[,\t]`)

// Mecab adapts the MeCab analyzer. Unknown words, which MeCab prints without
// reading fields, do not have the full field count and are skipped.
type Mecab struct {
	*lineParser
}

// NewMecab returns a MeCab adapter that talks to the analyzer via r.
func NewMecab(r Runner, logger *slog.Logger) *Mecab {
	return &Mecab{lineParser: newLineParser(BackendMecab, r, logger)}
}

func (m *Mecab) Tokenize(ctx context.Context, sentence string) ([]Token, error) {
	lines, err := m.run(ctx, sentence)
	if err != nil {
		return nil, err
	}
	return m.parse(sentence, lines), nil
}

func (m *Mecab) parse(sentence string, lines []string) []Token {
	var tokens []Token
	for _, line := range lines {
		if line == "" || line == mecabEOS {
			continue
		}
		fields := mecabSeparator.Split(line, -1)
		if len(fields) != mecabFields {
			m.skip(sentence, line)
			continue
		}
		if fields[mecabPOS] == mecabSymbol {
			continue
		}
		tokens = append(tokens, Token{
			Expression:   fields[mecabBase],
			PartOfSpeech: fields[mecabPOS],
			Sentence:     sentence,
			SurfaceForm:  fields[mecabSurface],
		})
	}
	return tokens
}
