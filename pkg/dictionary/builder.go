package dictionary

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/japaniel/vocabulist/pkg/progress"
)

//go:embed schema.sql
var schemaSQL string

// StageBuild is the progress stage reported by Builder.
const StageBuild = "dict build"

// Builder converts a jmdict-simplified JSON release into the SQLite layout
// the Resolver reads.
type Builder struct {
	Observer progress.Observer
	Logger   *slog.Logger
}

// BuildFile converts the JSON file at src into a dictionary database at dst.
// The database is written next to dst and renamed into place once complete,
// so an interrupted build never leaves a half-filled dictionary behind.
func (b *Builder) BuildFile(ctx context.Context, src, dst string) (int, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("open dictionary source: %w", err)
	}
	defer in.Close()

	tmp := dst + ".tmp"
	_ = os.Remove(tmp)
	n, err := b.build(ctx, in, tmp)
	if err != nil {
		_ = os.Remove(tmp)
		return 0, err
	}
	if err := os.Rename(tmp, dst); err != nil {
		return 0, fmt.Errorf("install dictionary: %w", err)
	}
	return n, nil
}

func (b *Builder) build(ctx context.Context, r io.Reader, path string) (int, error) {
	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_journal_mode=OFF&_synchronous=OFF", path))
	if err != nil {
		return 0, err
	}
	defer conn.Close()
	conn.SetMaxOpenConns(1)
	if err := createSchema(ctx, conn); err != nil {
		return 0, err
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	w, err := newEntryWriter(ctx, tx)
	if err != nil {
		return 0, err
	}
	defer w.close()

	log := b.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	obs := progress.OrNop(b.Observer)
	count := 0
	err = StreamJMdictSimplified(r, func(e JMdictEntry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		count++
		if err := w.write(ctx, count, e); err != nil {
			return fmt.Errorf("entry %s: %w", e.Id, err)
		}
		obs.Observe(progress.Event{Stage: StageBuild, Done: count, Item: e.Id})
		return nil
	})
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	log.Info("dictionary built", slog.String("path", path), slog.Int("entries", count))
	return count, nil
}

func createSchema(ctx context.Context, conn *sql.DB) error {
	for _, s := range strings.Split(schemaSQL, ";") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, err := conn.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("create dictionary schema: %w", err)
		}
	}
	return nil
}

// entryWriter holds the prepared statements for one build transaction.
type entryWriter struct {
	entry, keb, entryKeb, reb, entryReb     *sql.Stmt
	sense, gloss, senseGloss, pos, sensePos *sql.Stmt
	posIDs                                  map[string]int64
}

func newEntryWriter(ctx context.Context, tx *sql.Tx) (*entryWriter, error) {
	w := &entryWriter{posIDs: make(map[string]int64)}
	stmts := []struct {
		dst   **sql.Stmt
		query string
	}{
		{&w.entry, `INSERT OR IGNORE INTO entry (ent_seq) VALUES (?)`},
		{&w.keb, `INSERT INTO keb (keb) VALUES (?)`},
		{&w.entryKeb, `INSERT OR IGNORE INTO entry_keb (ent_seq, keb_id) VALUES (?, ?)`},
		{&w.reb, `INSERT INTO reb (reb) VALUES (?)`},
		{&w.entryReb, `INSERT OR IGNORE INTO entry_reb (ent_seq, reb_id) VALUES (?, ?)`},
		{&w.sense, `INSERT INTO sense (ent_seq) VALUES (?)`},
		{&w.gloss, `INSERT INTO gloss (gloss) VALUES (?)`},
		{&w.senseGloss, `INSERT OR IGNORE INTO sense_gloss (sense_id, gloss_id) VALUES (?, ?)`},
		{&w.pos, `INSERT INTO pos (pos) VALUES (?) ON CONFLICT(pos) DO UPDATE SET pos = excluded.pos RETURNING id`},
		{&w.sensePos, `INSERT OR IGNORE INTO sense_pos (sense_id, pos_id) VALUES (?, ?)`},
	}
	for _, s := range stmts {
		stmt, err := tx.PrepareContext(ctx, s.query)
		if err != nil {
			w.close()
			return nil, err
		}
		*s.dst = stmt
	}
	return w, nil
}

func (w *entryWriter) close() {
	for _, s := range []*sql.Stmt{w.entry, w.keb, w.entryKeb, w.reb, w.entryReb, w.sense, w.gloss, w.senseGloss, w.pos, w.sensePos} {
		if s != nil {
			s.Close()
		}
	}
}

func insertID(ctx context.Context, stmt *sql.Stmt, args ...any) (int64, error) {
	res, err := stmt.ExecContext(ctx, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// write stores one entry. seq is used when the entry id is not numeric.
func (w *entryWriter) write(ctx context.Context, seq int, e JMdictEntry) error {
	entSeq, err := strconv.ParseInt(e.Id, 10, 64)
	if err != nil {
		entSeq = int64(seq)
	}
	if _, err := w.entry.ExecContext(ctx, entSeq); err != nil {
		return err
	}
	for _, k := range e.Kanji {
		id, err := insertID(ctx, w.keb, k.Text)
		if err != nil {
			return err
		}
		if _, err := w.entryKeb.ExecContext(ctx, entSeq, id); err != nil {
			return err
		}
	}
	for _, k := range e.Kana {
		id, err := insertID(ctx, w.reb, k.Text)
		if err != nil {
			return err
		}
		if _, err := w.entryReb.ExecContext(ctx, entSeq, id); err != nil {
			return err
		}
	}
	for _, s := range e.Sense {
		senseID, err := insertID(ctx, w.sense, entSeq)
		if err != nil {
			return err
		}
		for _, g := range s.Gloss {
			if g.Lang != "" && g.Lang != "eng" {
				continue
			}
			glossID, err := insertID(ctx, w.gloss, g.Text)
			if err != nil {
				return err
			}
			if _, err := w.senseGloss.ExecContext(ctx, senseID, glossID); err != nil {
				return err
			}
		}
		for _, p := range s.PartOfSpeech {
			posID, ok := w.posIDs[p]
			if !ok {
				if err := w.pos.QueryRowContext(ctx, p).Scan(&posID); err != nil {
					return err
				}
				w.posIDs[p] = posID
			}
			if _, err := w.sensePos.ExecContext(ctx, senseID, posID); err != nil {
				return err
			}
		}
	}
	return nil
}
