// Package config loads the vocabulist configuration file.
package config

import (
	"io"
	"log/slog"
	"strings"
)

// Config is the root configuration.
type Config struct {
	DatabasePath   string     `yaml:"database_path"   env:"VOCABULIST_DATABASE_PATH"   env-default:"vocabulist.db"`
	DictionaryPath string     `yaml:"dictionary_path" env:"VOCABULIST_DICTIONARY_PATH" env-default:"jmdict.db"`
	Backend        string     `yaml:"backend"         env:"VOCABULIST_BACKEND"         env-default:"mecab"`
	BackendPath    string     `yaml:"backend_path"    env:"VOCABULIST_BACKEND_PATH"`
	Workers        int        `yaml:"workers"         env:"VOCABULIST_WORKERS"         env-default:"1"`
	InputEncoding  string     `yaml:"input_encoding"  env:"VOCABULIST_INPUT_ENCODING"  env-default:"auto"`
	Log            LogConfig  `yaml:"log"`
	Anki           AnkiConfig `yaml:"anki"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"VOCABULIST_LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"VOCABULIST_LOG_FORMAT" env-default:"text"`
}

// AnkiConfig holds the AnkiConnect endpoint and note layout.
//
// Fields is a pair of rows: note field names, then the role each one
// receives (expression, reading, definition, sentence or audio).
type AnkiConfig struct {
	URL             string     `yaml:"url"              env:"VOCABULIST_ANKI_URL"              env-default:"http://localhost:8765"`
	DeckName        string     `yaml:"deck_name"        env:"VOCABULIST_ANKI_DECK"             env-default:"Default"`
	ModelName       string     `yaml:"model_name"       env:"VOCABULIST_ANKI_MODEL"            env-default:"Basic"`
	AllowDuplicates bool       `yaml:"allow_duplicates" env:"VOCABULIST_ANKI_ALLOW_DUPLICATES"`
	DuplicateScope  string     `yaml:"duplicate_scope"  env:"VOCABULIST_ANKI_DUPLICATE_SCOPE"  env-default:"deck"`
	Audio           bool       `yaml:"audio"            env:"VOCABULIST_ANKI_AUDIO"`
	Fields          [][]string `yaml:"fields"`
	Tags            []string   `yaml:"tags"             env:"VOCABULIST_ANKI_TAGS"             env-default:"vocabulist"`
}

// DefaultFields maps a Basic note: expression on the front, definition on
// the back.
func DefaultFields() [][]string {
	return [][]string{{"Front", "Back"}, {"expression", "definition"}}
}

// Default returns the configuration written by init.
func Default() *Config {
	return &Config{
		DatabasePath:   "vocabulist.db",
		DictionaryPath: "jmdict.db",
		Backend:        "mecab",
		Workers:        1,
		InputEncoding:  "auto",
		Log:            LogConfig{Level: "info", Format: "text"},
		Anki: AnkiConfig{
			URL:            "http://localhost:8765",
			DeckName:       "Default",
			ModelName:      "Basic",
			DuplicateScope: "deck",
			Fields:         DefaultFields(),
			Tags:           []string{"vocabulist"},
		},
	}
}

// SlogLevel maps Level to a slog level. Unknown values mean info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds a logger writing to w in the configured format.
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: l.SlogLevel()}
	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
