package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"

	"github.com/japaniel/vocabulist/pkg/db"
	"github.com/japaniel/vocabulist/pkg/dictionary"
	"github.com/japaniel/vocabulist/pkg/flashcard"
	"github.com/japaniel/vocabulist/pkg/ingest"
	"github.com/japaniel/vocabulist/pkg/source"
	"github.com/japaniel/vocabulist/pkg/tokenizer"
)

func (a *app) cmdImport(ctx context.Context, args []string) error {
	fs := a.flagSet("import")
	urlFlag := fs.String("url", "", "Import the article at this URL")
	encFlag := fs.String("encoding", "", "Input encoding (auto, utf-8, shift_jis, euc-jp, iso-2022-jp)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *urlFlag == "" && fs.NArg() == 0 {
		return fmt.Errorf("import: give a file, a directory or --url")
	}
	enc := a.cfg.InputEncoding
	if *encFlag != "" {
		enc = *encFlag
	}

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	tok, err := tokenizer.New(a.cfg.Backend, tokenizer.Options{Path: a.cfg.BackendPath, Logger: a.log})
	if err != nil {
		return err
	}
	orch := ingest.NewOrchestrator(tok, a.log)
	orch.Workers = a.cfg.Workers
	im := ingest.NewImporter(store, orch, a.log)
	im.Observer = a.observer()

	if *urlFlag != "" {
		fmt.Fprintf(a.stdout, "Fetching %s...\n", *urlFlag)
		article, err := source.NewFetcher(a.log).FetchArticle(ctx, *urlFlag)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "Title: %s\n", article.Title)
		if err := a.importBatch(ctx, im, article.URL, article.Sentences); err != nil {
			return err
		}
	}

	for _, arg := range fs.Args() {
		files, err := source.Files(arg)
		if err != nil {
			return err
		}
		// One batch per file: a bad file does not roll back the ones before it.
		for _, f := range files {
			sentences, err := source.LoadFile(f, enc)
			if err != nil {
				return err
			}
			if err := a.importBatch(ctx, im, f, sentences); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *app) importBatch(ctx context.Context, im *ingest.Importer, name string, sentences []string) error {
	res, err := im.Import(ctx, sentences)
	if err != nil {
		return fmt.Errorf("import %s: %w", name, err)
	}
	fmt.Fprintf(a.stdout, "%s: %d sentences (%d already imported), %d tokens stored\n",
		name, res.Sentences, res.Skipped, res.Tokens)
	if res.Malformed > 0 {
		a.log.Warn("skipped malformed analyzer lines", slog.String("source", name), slog.Int64("lines", res.Malformed))
	}
	return nil
}

func (a *app) cmdList(ctx context.Context, args []string) error {
	fs := a.flagSet("list")
	inAnki := fs.Bool("anki", false, "Include expressions already in Anki")
	learned := fs.Bool("learned", false, "Include learned expressions")
	excluded := fs.Bool("excluded", false, "Include excluded expressions (or tags with --pos)")
	order := fs.String("order", string(db.OrderFrequency), "Sort by frequency, expression or id")
	asc := fs.Bool("asc", false, "Sort ascending")
	limit := fs.IntP("limit", "n", db.Unbounded, "Maximum rows, -1 for all")
	pos := fs.Bool("pos", false, "List part-of-speech tags instead")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}

	if *pos {
		tags, err := store.SelectPosList(ctx, db.PosQuery{IncludeExcluded: *excluded, Ascending: *asc, Limit: *limit})
		if err != nil {
			return err
		}
		for _, t := range tags {
			if t.IsExcluded {
				fmt.Fprintf(a.stdout, "%s\t(excluded)\n", t.Tag)
				continue
			}
			fmt.Fprintln(a.stdout, t.Tag)
		}
		return nil
	}

	o, err := db.ParseOrder(*order)
	if err != nil {
		return err
	}
	exprs, err := store.SelectExpressions(ctx, db.ExpressionQuery{
		Filter: db.Filter{
			IncludeInFlashcardSet: *inAnki,
			IncludeExcluded:       *excluded,
			IncludeLearned:        *learned,
		},
		OrderBy:   o,
		Ascending: *asc,
		Limit:     *limit,
	})
	if err != nil {
		return err
	}
	for _, e := range exprs {
		fmt.Fprintf(a.stdout, "%d\t%s\n", e.Frequency, e.Text)
	}
	return nil
}

func (a *app) cmdExclude(ctx context.Context, args []string, excluded bool) error {
	name := "include"
	if excluded {
		name = "exclude"
	}
	fs := a.flagSet(name)
	pos := fs.Bool("pos", false, "The input lists part-of-speech tags")
	if err := fs.Parse(args); err != nil {
		return err
	}
	words, err := a.readWords(fs.Args())
	if err != nil {
		return err
	}
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}

	if *pos {
		missing, err := store.SetPosExcluded(ctx, words, excluded)
		if err != nil {
			return err
		}
		a.reportMissing("part of speech", missing)
		fmt.Fprintf(a.stdout, "%sd %d tags\n", name, len(words)-len(missing))
		return nil
	}
	missing, err := store.SetExcluded(ctx, words, excluded)
	if err != nil {
		return err
	}
	a.reportMissing("expression", missing)
	fmt.Fprintf(a.stdout, "%sd %d expressions\n", name, len(words)-len(missing))
	return nil
}

func (a *app) cmdLearn(ctx context.Context, args []string) error {
	fs := a.flagSet("learn")
	unset := fs.Bool("unset", false, "Clear the learned flag instead")
	if err := fs.Parse(args); err != nil {
		return err
	}
	words, err := a.readWords(fs.Args())
	if err != nil {
		return err
	}
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	missing, err := store.SetLearned(ctx, words, !*unset)
	if err != nil {
		return err
	}
	a.reportMissing("expression", missing)
	fmt.Fprintf(a.stdout, "updated %d expressions\n", len(words)-len(missing))
	return nil
}

func (a *app) cmdGenerate(ctx context.Context, args []string) error {
	fs := a.flagSet("generate")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("generate: want the number of flashcards")
	}
	n, err := strconv.Atoi(fs.Arg(0))
	if err != nil || n < 1 {
		return fmt.Errorf("generate: invalid count %q", fs.Arg(0))
	}

	tmpl, err := a.cfg.Anki.NoteTemplate()
	if err != nil {
		return err
	}
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	resolver, err := a.openResolver()
	if err != nil {
		return err
	}

	s := flashcard.NewSynthesizer(store, resolver, a.ankiClient(), tmpl, a.log)
	s.Workers = a.cfg.Workers
	s.Observer = a.observer()
	report, err := s.Generate(ctx, n)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Exported %d of %d flashcards (%d without definition, %d failed)\n",
		report.Exported, n, report.Skipped, report.Failed)
	return nil
}

func (a *app) cmdSync(ctx context.Context, args []string) error {
	fs := a.flagSet("sync")
	if err := fs.Parse(args); err != nil {
		return err
	}
	tmpl, err := a.cfg.Anki.NoteTemplate()
	if err != nil {
		return err
	}
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	report, err := flashcard.NewSyncer(store, a.ankiClient(), tmpl, a.log).Sync(ctx)
	if err != nil {
		return err
	}
	a.reportMissing("expression", report.Missing)
	fmt.Fprintf(a.stdout, "Synced %d notes from deck %q\n", report.Notes, tmpl.DeckName)
	return nil
}

func (a *app) cmdDict(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("dict: want download or build")
	}
	fs := a.flagSet("dict " + args[0])
	jsonFlag := fs.String("json", "", "Where to keep the downloaded JSON release")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	var src string
	switch args[0] {
	case "download":
		src = *jsonFlag
		if src == "" {
			src = filepath.Join(filepath.Dir(a.cfg.DictionaryPath), "jmdict-eng.json")
		}
		if err := dictionary.NewDownloader(a.log).Ensure(ctx, src); err != nil {
			return err
		}
	case "build":
		if fs.NArg() != 1 {
			return fmt.Errorf("dict build: want the path of a jmdict-simplified JSON file")
		}
		src = fs.Arg(0)
	default:
		return fmt.Errorf("dict: unknown subcommand %q", args[0])
	}

	b := &dictionary.Builder{Observer: a.observer(), Logger: a.log}
	n, err := b.BuildFile(ctx, src, a.cfg.DictionaryPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Built dictionary with %d entries at %s\n", n, a.cfg.DictionaryPath)
	return nil
}
