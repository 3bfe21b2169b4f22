// Command vocabulist builds a personal Japanese vocabulary database from
// text and turns the most frequent words into Anki flashcards.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/japaniel/vocabulist/pkg/config"
)

const usage = `usage: vocabulist [--config path] <command> [flags] [args]

commands:
  init                     write the default configuration file
  import [path...]         import text files or directories (--url to import a web page)
  list                     list expressions (--pos lists part-of-speech tags)
  exclude [file...]        exclude the words (or --pos tags) listed in files or stdin
  include [file...]        include the words (or --pos tags) listed in files or stdin
  learn [file...]          mark the listed words as learned (--unset to clear)
  generate N               export N new flashcards to Anki
  sync                     mark exactly the expressions found in the Anki deck
  dict download            download and build the JMdict dictionary
  dict build <json>        build the dictionary from a jmdict-simplified JSON file
`

func main() {
	// Setup context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "vocabulist: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("vocabulist", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SetInterspersed(false)
	configFlag := fs.StringP("config", "c", "", "Path to the configuration file")
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return pflag.ErrHelp
	}

	path, err := config.ResolvePath(*configFlag)
	if err != nil {
		return err
	}
	cfg, created, err := config.LoadOrInit(path)
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(stdout, "Wrote default configuration to %s\n", path)
	}

	a := newApp(cfg, stdin, stdout, stderr)
	defer a.close()

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "init":
		if !created {
			fmt.Fprintf(stdout, "Configuration already exists at %s\n", path)
		}
		return nil
	case "import":
		return a.cmdImport(ctx, rest)
	case "list":
		return a.cmdList(ctx, rest)
	case "exclude":
		return a.cmdExclude(ctx, rest, true)
	case "include":
		return a.cmdExclude(ctx, rest, false)
	case "learn":
		return a.cmdLearn(ctx, rest)
	case "generate":
		return a.cmdGenerate(ctx, rest)
	case "sync":
		return a.cmdSync(ctx, rest)
	case "dict":
		return a.cmdDict(ctx, rest)
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}
