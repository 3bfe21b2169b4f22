package dictionary

import (
	"encoding/json"
	"fmt"
	"io"
)

// JMdictEntry matches the structure of jmdict-simplified entries.
type JMdictEntry struct {
	Id    string          `json:"id"`
	Kanji []JMdictElement `json:"kanji"`
	Kana  []JMdictElement `json:"kana"`
	Sense []JMdictSense   `json:"sense"`
}

type JMdictElement struct {
	Text   string   `json:"text"`
	Common bool     `json:"common"`
	Tags   []string `json:"tags"`
}

type JMdictSense struct {
	PartOfSpeech []string      `json:"partOfSpeech"`
	Gloss        []JMdictGloss `json:"gloss"`
}

type JMdictGloss struct {
	Text string `json:"text"`
	Lang string `json:"lang"` // defaults to 'eng' if missing
}

// StreamJMdictSimplified decodes entries one at a time from r and calls fn
// for each. The input is either the release wrapper object
// {"words": [...], ...} or a bare array of entries. Real files are large, so
// the entries are never held in memory together.
func StreamJMdictSimplified(r io.Reader, fn func(JMdictEntry) error) error {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("read dictionary: %w", err)
	}
	switch tok {
	case json.Delim('['):
		return streamEntries(dec, fn)
	case json.Delim('{'):
	default:
		return fmt.Errorf("failed to parse dictionary as object or array: unexpected %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("read dictionary: %w", err)
		}
		key, _ := keyTok.(string)
		if key != "words" {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return fmt.Errorf("read dictionary field %q: %w", key, err)
			}
			continue
		}
		open, err := dec.Token()
		if err != nil {
			return fmt.Errorf("read dictionary words: %w", err)
		}
		if open != json.Delim('[') {
			return fmt.Errorf("dictionary words is not an array")
		}
		return streamEntries(dec, fn)
	}
	return fmt.Errorf("dictionary has no words array")
}

func streamEntries(dec *json.Decoder, fn func(JMdictEntry) error) error {
	for dec.More() {
		var e JMdictEntry
		if err := dec.Decode(&e); err != nil {
			return fmt.Errorf("decode dictionary entry: %w", err)
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("read dictionary: %w", err)
	}
	return nil
}
