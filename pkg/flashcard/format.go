package flashcard

import (
	"net/url"
	"strings"

	"github.com/japaniel/vocabulist/pkg/anki"
)

const (
	posWarning   = "WARNING: Not filtered by pos.<br>\n"
	kanjiWarning = "WARNING: Not filtered by kanji. <br>\n"

	audioEndpoint = "https://assets.languagepod101.com/dictionary/japanese/audiomp3.php"
)

// FormatDefinition renders gloss lists as an HTML ordered list, one item per
// sense. A warning line is prepended when the senses were not narrowed by
// part of speech, or else when they were not narrowed by written form.
func FormatDefinition(glosses [][]string, posSpecific, kanjiSpecific bool) string {
	var b strings.Builder
	switch {
	case !posSpecific:
		b.WriteString(posWarning)
	case !kanjiSpecific:
		b.WriteString(kanjiWarning)
	}
	b.WriteString("<ol>\n")
	for _, g := range glosses {
		b.WriteString(" <li>")
		b.WriteString(strings.Join(g, "; "))
		b.WriteString("</li>\n")
	}
	b.WriteString("</ol>")
	return b.String()
}

// FormatReadings joins readings with "; ".
func FormatReadings(readings []string) string {
	return strings.Join(readings, "; ")
}

// AudioFor returns one pronunciation file per reading. Without readings the
// expression itself is used as the reading.
func AudioFor(expression string, readings []string) []anki.Audio {
	if len(readings) == 0 {
		readings = []string{expression}
	}
	out := make([]anki.Audio, 0, len(readings))
	for _, r := range readings {
		out = append(out, anki.Audio{
			URL:      audioEndpoint + "?kanji=" + url.QueryEscape(expression) + "&kana=" + url.QueryEscape(r),
			Filename: "vocabulist_" + expression + "_" + r,
		})
	}
	return out
}
