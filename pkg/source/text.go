// Package source turns raw input (text files in several Japanese encodings,
// or web articles) into the cleaned sentence lists the importer consumes.
package source

import (
	"regexp"
	"strings"
)

// stripped are removed before segmentation: quotation brackets would
// otherwise make the same sentence look different depending on context.
var stripped = strings.NewReplacer("「", "", "」", "", "『", "", "』", "", "…", "")

// SplitSentences cleans text and splits it after 。, ！ and ？ and at line
// breaks. Sentences are trimmed and empty ones dropped.
func SplitSentences(text string) []string {
	text = stripped.Replace(text)
	var sentences []string
	var current strings.Builder
	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			sentences = append(sentences, s)
		}
		current.Reset()
	}
	for _, r := range text {
		if r == '\n' || r == '\r' {
			flush()
			continue
		}
		current.WriteRune(r)
		// 。(3002), ！(FF01), ？(FF1F)
		if r == '。' || r == '！' || r == '？' {
			flush()
		}
	}
	flush()
	return sentences
}

var (
	// (?s) allows dot to match newlines
	// (?i) makes it case-insensitive
	reRT = regexp.MustCompile(`(?si)<rt\b[^>]*>.*?</rt>`)
	reRP = regexp.MustCompile(`(?si)<rp\b[^>]*>.*?</rp>`)
)

// SanitizeRuby removes ruby text (<rt>...</rt>) and ruby parentheses (<rp>...</rp>)
// from HTML content. Readability extracts all text including furigana, which
// leads to duplication (e.g. "漢字" becomes "漢字かんじ").
// It operates on bytes and is safe for Shift_JIS as well, because <, >, r, t,
// p are ASCII and < is not a trailing byte in Shift_JIS.
func SanitizeRuby(content []byte) []byte {
	cleaned := reRT.ReplaceAll(content, []byte{})
	cleaned = reRP.ReplaceAll(cleaned, []byte{})
	return cleaned
}
