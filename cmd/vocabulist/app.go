package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/japaniel/vocabulist/pkg/anki"
	"github.com/japaniel/vocabulist/pkg/config"
	"github.com/japaniel/vocabulist/pkg/db"
	"github.com/japaniel/vocabulist/pkg/dictionary"
	"github.com/japaniel/vocabulist/pkg/progress"
)

// app holds what the commands share. Resources are opened on first use.
type app struct {
	cfg    *config.Config
	log    *slog.Logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	store    *db.Store
	resolver *dictionary.Resolver
	closers  []func() error
}

func newApp(cfg *config.Config, stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{
		cfg:    cfg,
		log:    cfg.Log.NewLogger(stderr),
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("close", slog.Any("error", err))
		}
	}
}

func (a *app) observer() progress.Observer {
	return progress.Logger{Log: a.log, Every: 100}
}

func (a *app) openStore(ctx context.Context) (*db.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	conn, err := db.Open(a.cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.closers = append(a.closers, conn.Close)
	if err := db.InitDB(ctx, conn); err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}
	a.log.Debug("database ready", slog.String("path", a.cfg.DatabasePath))
	a.store = db.NewStore(conn, a.log)
	return a.store, nil
}

func (a *app) openResolver() (*dictionary.Resolver, error) {
	if a.resolver != nil {
		return a.resolver, nil
	}
	if _, err := os.Stat(a.cfg.DictionaryPath); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("dictionary %s not found; run `vocabulist dict download` first", a.cfg.DictionaryPath)
	}
	r, err := dictionary.Open(a.cfg.DictionaryPath, a.log)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, r.Close)
	a.resolver = r
	return r, nil
}

func (a *app) ankiClient() *anki.Client {
	return anki.NewClient(a.cfg.Anki.URL, a.log)
}

// flagSet returns a flag set for a subcommand that reports errors on stderr.
func (a *app) flagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

// readWords returns the whitespace separated words of the given files, or
// of stdin when there are none.
func (a *app) readWords(paths []string) ([]string, error) {
	if len(paths) == 0 {
		return scanWords(a.stdin)
	}
	var out []string
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return nil, err
		}
		words, err := scanWords(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		out = append(out, words...)
	}
	return out, nil
}

func scanWords(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	sc.Split(bufio.ScanWords)
	var out []string
	for sc.Scan() {
		if w := strings.TrimSpace(sc.Text()); w != "" {
			out = append(out, w)
		}
	}
	return out, sc.Err()
}

func (a *app) reportMissing(kind string, missing []string) {
	for _, m := range missing {
		fmt.Fprintf(a.stderr, "unknown %s: %s\n", kind, m)
	}
}
