package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/japaniel/vocabulist/pkg/anki"
	"github.com/japaniel/vocabulist/pkg/source"
	"github.com/japaniel/vocabulist/pkg/tokenizer"
)

// ConfigError reports an invalid configuration value.
type ConfigError struct {
	Key string
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Key, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func invalid(key, format string, args ...any) *ConfigError {
	return &ConfigError{Key: key, Err: fmt.Errorf(format, args...)}
}

var (
	backends        = []string{tokenizer.BackendJumanpp, tokenizer.BackendMecab, tokenizer.BackendKagome}
	encodings       = []string{source.EncodingAuto, source.EncodingUTF8, source.EncodingShiftJIS, source.EncodingEUCJP, source.EncodingISO2022}
	logLevels       = []string{"debug", "info", "warn", "warning", "error"}
	logFormats      = []string{"text", "json"}
	duplicateScopes = []string{"deck", "collection"}
)

// Validate checks the loaded configuration. Load calls it automatically.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return invalid("database_path", "must not be empty")
	}
	if !slices.Contains(backends, c.Backend) {
		return invalid("backend", "unknown backend %q (want one of %s)", c.Backend, strings.Join(backends, ", "))
	}
	if c.Workers < 1 {
		return invalid("workers", "must be >= 1 (got %d)", c.Workers)
	}
	if !slices.Contains(encodings, strings.ToLower(c.InputEncoding)) {
		return invalid("input_encoding", "unknown encoding %q", c.InputEncoding)
	}
	if !slices.Contains(logLevels, strings.ToLower(c.Log.Level)) {
		return invalid("log.level", "unknown level %q", c.Log.Level)
	}
	if !slices.Contains(logFormats, strings.ToLower(c.Log.Format)) {
		return invalid("log.format", "unknown format %q", c.Log.Format)
	}
	return c.Anki.validate()
}

func (a *AnkiConfig) validate() error {
	if a.DeckName == "" {
		return invalid("anki.deck_name", "must not be empty")
	}
	if a.ModelName == "" {
		return invalid("anki.model_name", "must not be empty")
	}
	if !slices.Contains(duplicateScopes, a.DuplicateScope) {
		return invalid("anki.duplicate_scope", "unknown scope %q", a.DuplicateScope)
	}
	m, err := a.Mapping()
	if err != nil {
		return err
	}
	if _, ok := m.Field(anki.RoleExpression); !ok {
		return invalid("anki.fields", "no field has the %s role", anki.RoleExpression)
	}
	return nil
}

// Mapping parses Fields into a field mapping.
func (a *AnkiConfig) Mapping() (anki.FieldMapping, error) {
	if len(a.Fields) != 2 {
		return nil, invalid("anki.fields", "want 2 rows (names, roles), got %d", len(a.Fields))
	}
	m, err := anki.NewFieldMapping(a.Fields[0], a.Fields[1])
	if err != nil {
		return nil, &ConfigError{Key: "anki.fields", Err: err}
	}
	return m, nil
}

// NoteTemplate returns the note layout described by the anki section.
func (a *AnkiConfig) NoteTemplate() (anki.NoteTemplate, error) {
	m, err := a.Mapping()
	if err != nil {
		return anki.NoteTemplate{}, err
	}
	return anki.NoteTemplate{
		DeckName:        a.DeckName,
		ModelName:       a.ModelName,
		AllowDuplicates: a.AllowDuplicates,
		DuplicateScope:  a.DuplicateScope,
		Audio:           a.Audio,
		Fields:          m,
		Tags:            a.Tags,
	}, nil
}
