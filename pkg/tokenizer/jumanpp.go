package tokenizer

import (
	"context"
	"log/slog"
	"strings"
)

// Juman++ output fields (space separated):
//
//	surface reading base pos pos_id subpos subpos_id conj_type conj_type_id conj_form conj_form_id [semantic info]
const (
	jumanppSurface   = 0
	jumanppBase      = 2
	jumanppPOS       = 3
	jumanppMinFields = 11

	jumanppEOS         = "EOS"
	jumanppAlternative = "@"
	jumanppSymbol      = "特殊"
)

// Jumanpp adapts the Juman++ analyzer.
type Jumanpp struct {
	*lineParser
}

// NewJumanpp returns a Juman++ adapter that talks to the analyzer via r.
func NewJumanpp(r Runner, logger *slog.Logger) *Jumanpp {
	return &Jumanpp{lineParser: newLineParser(BackendJumanpp, r, logger)}
}

func (j *Jumanpp) Tokenize(ctx context.Context, sentence string) ([]Token, error) {
	lines, err := j.run(ctx, sentence)
	if err != nil {
		return nil, err
	}
	return j.parse(sentence, lines), nil
}

func (j *Jumanpp) parse(sentence string, lines []string) []Token {
	var tokens []Token
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, " ")
		// Ambiguity candidates start with "@" and repeat a morpheme already
		// emitted on the preceding line.
		if fields[0] == jumanppEOS || fields[0] == jumanppAlternative {
			continue
		}
		if len(fields) < jumanppMinFields {
			j.skip(sentence, line)
			continue
		}
		if fields[jumanppPOS] == jumanppSymbol {
			continue
		}
		tokens = append(tokens, Token{
			Expression:   fields[jumanppBase],
			PartOfSpeech: fields[jumanppPOS],
			Sentence:     sentence,
			SurfaceForm:  fields[jumanppSurface],
		})
	}
	return tokens
}
