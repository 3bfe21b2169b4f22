package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

// EnvPath names the variable that overrides the default config location.
const EnvPath = "VOCABULIST_CONFIG"

// ResolvePath picks the config file: flag, then $VOCABULIST_CONFIG, then
// ~/.vocabulist/config.yaml.
func ResolvePath(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if p := os.Getenv(EnvPath); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: locate home: %w", err)
	}
	return filepath.Join(home, ".vocabulist", "config.yaml"), nil
}

// Load reads configuration from the YAML file at path plus environment
// variables. Priority: ENV > YAML > defaults. Relative database and
// dictionary paths are resolved against the file's directory.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if len(cfg.Anki.Fields) == 0 {
		cfg.Anki.Fields = DefaultFields()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	cfg.DatabasePath = resolve(dir, cfg.DatabasePath)
	cfg.DictionaryPath = resolve(dir, cfg.DictionaryPath)
	return &cfg, nil
}

// LoadOrInit loads path, writing Default there first when it does not exist.
// created reports whether the file was written.
func LoadOrInit(path string) (cfg *Config, created bool, err error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := WriteDefault(path); err != nil {
			return nil, false, err
		}
		created = true
	} else if err != nil {
		return nil, false, fmt.Errorf("config: file %s: %w", path, err)
	}
	cfg, err = Load(path)
	return cfg, created, err
}

// WriteDefault writes Default as YAML to path, creating its directory.
func WriteDefault(path string) error {
	return Write(path, Default())
}

// Write serializes cfg to path.
func Write(path string, cfg *Config) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create dir: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

func resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
