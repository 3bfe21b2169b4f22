package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/vocabulist/pkg/anki"
)

func writeYAML(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadOrInitWritesDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg, created, err := LoadOrInit(path)
	require.NoError(t, err)
	assert.True(t, created)
	assert.FileExists(t, path)

	assert.Equal(t, "mecab", cfg.Backend)
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, filepath.Join(dir, "nested", "vocabulist.db"), cfg.DatabasePath)
	assert.Equal(t, "Default", cfg.Anki.DeckName)
	assert.Equal(t, "Basic", cfg.Anki.ModelName)
	assert.False(t, cfg.Anki.AllowDuplicates)
	assert.False(t, cfg.Anki.Audio)
	assert.Equal(t, DefaultFields(), cfg.Anki.Fields)
	assert.Equal(t, []string{"vocabulist"}, cfg.Anki.Tags)

	_, created, err = LoadOrInit(path)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestLoadPartialUsesDefaults(t *testing.T) {
	path := writeYAML(t, t.TempDir(), `
backend: kagome
database_path: /var/lib/vocab.db
anki:
  deck_name: Japanese
  audio: true
  fields:
    - [Expression, Meaning, Sound]
    - [expression, Definition, AUDIO]
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "kagome", cfg.Backend)
	assert.Equal(t, "/var/lib/vocab.db", cfg.DatabasePath)
	assert.Equal(t, "auto", cfg.InputEncoding)
	assert.Equal(t, "deck", cfg.Anki.DuplicateScope)

	tmpl, err := cfg.Anki.NoteTemplate()
	require.NoError(t, err)
	assert.Equal(t, "Japanese", tmpl.DeckName)
	assert.True(t, tmpl.Audio)
	assert.Equal(t, []string{"Sound"}, tmpl.Fields.Fields(anki.RoleAudio))
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("VOCABULIST_BACKEND", "jumanpp")
	t.Setenv("VOCABULIST_WORKERS", "4")
	path := writeYAML(t, t.TempDir(), "backend: mecab\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "jumanpp", cfg.Backend)
	assert.Equal(t, 4, cfg.Workers)
}

func TestLoadInvalid(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		key  string
	}{
		{"unknown backend", "backend: chasen\n", "backend"},
		{"zero workers", "workers: -2\n", "workers"},
		{"bad encoding", "input_encoding: latin1\n", "input_encoding"},
		{"field length mismatch", "anki:\n  fields: [[Front, Back], [expression]]\n", "anki.fields"},
		{"unknown role", "anki:\n  fields: [[Front], [furigana]]\n", "anki.fields"},
		{"no expression field", "anki:\n  fields: [[Back], [definition]]\n", "anki.fields"},
		{"single row", "anki:\n  fields: [[Front]]\n", "anki.fields"},
		{"bad scope", "anki:\n  duplicate_scope: everywhere\n", "anki.duplicate_scope"},
		{"bad log level", "log:\n  level: loud\n", "log.level"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeYAML(t, t.TempDir(), tc.yaml)
			_, err := Load(path)
			var ce *ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tc.key, ce.Key)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestResolvePath(t *testing.T) {
	t.Setenv(EnvPath, "/etc/vocabulist.yaml")

	p, err := ResolvePath("/tmp/flag.yaml")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/flag.yaml", p)

	p, err = ResolvePath("")
	require.NoError(t, err)
	assert.Equal(t, "/etc/vocabulist.yaml", p)

	t.Setenv(EnvPath, "")
	t.Setenv("HOME", "/home/kanji")
	p, err = ResolvePath("")
	require.NoError(t, err)
	assert.Equal(t, "/home/kanji/.vocabulist/config.yaml", p)
}

func TestLogConfig(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, LogConfig{Level: "DEBUG"}.SlogLevel())
	assert.Equal(t, slog.LevelWarn, LogConfig{Level: "warn"}.SlogLevel())
	assert.Equal(t, slog.LevelInfo, LogConfig{Level: ""}.SlogLevel())
	assert.NotNil(t, LogConfig{Format: "json"}.NewLogger(os.Stderr))
}
