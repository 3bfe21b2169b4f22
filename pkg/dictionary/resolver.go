// Package dictionary resolves expressions against a read-only JMdict SQLite
// database and provides the tooling to download and build that database
// from the jmdict-simplified JSON releases.
package dictionary

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"
)

const (
	selectSenseIDsForKeb = `SELECT DISTINCT sense.id FROM sense
		INNER JOIN entry_keb ON entry_keb.ent_seq = sense.ent_seq
		INNER JOIN keb ON keb.id = entry_keb.keb_id
		WHERE keb.keb = ?
		ORDER BY sense.id`

	selectSenseIDsForReb = `SELECT DISTINCT sense.id FROM sense
		INNER JOIN entry_reb ON entry_reb.ent_seq = sense.ent_seq
		INNER JOIN reb ON reb.id = entry_reb.reb_id
		WHERE reb.reb = ?
		ORDER BY sense.id`

	selectGlossForSense = `SELECT gloss.gloss FROM gloss
		INNER JOIN sense_gloss ON sense_gloss.gloss_id = gloss.id
		WHERE sense_gloss.sense_id = ?
		ORDER BY gloss.id`

	selectPosForSense = `SELECT pos.pos FROM pos
		INNER JOIN sense_pos ON sense_pos.pos_id = pos.id
		WHERE sense_pos.sense_id = ?
		ORDER BY pos.id`

	selectReadingsForKeb = `SELECT reb.reb FROM reb
		INNER JOIN entry_reb ON entry_reb.reb_id = reb.id
		INNER JOIN entry_keb ON entry_keb.ent_seq = entry_reb.ent_seq
		INNER JOIN keb ON keb.id = entry_keb.keb_id
		WHERE keb.keb = ?
		ORDER BY reb.id`
)

// Sense is one definition unit of a dictionary entry.
type Sense struct {
	Glosses []string
	PosTags []string
}

// Resolver looks expressions up in a JMdict database.
type Resolver struct {
	db  *sql.DB
	log *slog.Logger
}

// Open opens the dictionary at path read-only. A missing file is an error.
func Open(path string, logger *slog.Logger) (*Resolver, error) {
	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return nil, fmt.Errorf("open dictionary: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("open dictionary %s: %w", path, err)
	}
	return NewResolver(conn, logger), nil
}

// NewResolver wraps an already opened dictionary database.
func NewResolver(conn *sql.DB, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Resolver{db: conn, log: logger.With("component", "dictionary")}
}

// Close releases the database.
func (r *Resolver) Close() error { return r.db.Close() }

// Resolve returns the senses of expression in dictionary order. Senses are
// looked up by written (kanji) form first; when there are none the reading
// form is tried and kanjiSpecific is false. No senses and a nil error means
// the dictionary has no entry.
func (r *Resolver) Resolve(ctx context.Context, expression string) (senses []Sense, kanjiSpecific bool, err error) {
	kanjiSpecific = true
	ids, err := r.ids(ctx, selectSenseIDsForKeb, expression)
	if err != nil {
		return nil, false, &ResolutionError{Expression: expression, Err: err}
	}
	if len(ids) == 0 {
		kanjiSpecific = false
		if ids, err = r.ids(ctx, selectSenseIDsForReb, expression); err != nil {
			return nil, false, &ResolutionError{Expression: expression, Err: err}
		}
	}

	for _, id := range ids {
		glosses, err := r.strings(ctx, selectGlossForSense, id)
		if err != nil {
			return nil, false, &ResolutionError{Expression: expression, Err: err}
		}
		tags, err := r.strings(ctx, selectPosForSense, id)
		if err != nil {
			return nil, false, &ResolutionError{Expression: expression, Err: err}
		}
		senses = append(senses, Sense{Glosses: glosses, PosTags: tags})
	}
	r.log.Debug("resolved",
		slog.String("expression", expression),
		slog.Int("senses", len(senses)),
		slog.Bool("kanji_specific", kanjiSpecific),
	)
	return senses, kanjiSpecific, nil
}

// Readings returns the readings listed for the written form expression, in
// dictionary order.
func (r *Resolver) Readings(ctx context.Context, expression string) ([]string, error) {
	all, err := r.strings(ctx, selectReadingsForKeb, expression)
	if err != nil {
		return nil, &ResolutionError{Expression: expression, Err: err}
	}
	// Homographs in separate entries often share a reading.
	seen := make(map[string]struct{}, len(all))
	out := all[:0]
	for _, reading := range all {
		if _, ok := seen[reading]; ok {
			continue
		}
		seen[reading] = struct{}{}
		out = append(out, reading)
	}
	return out, nil
}

func (r *Resolver) ids(ctx context.Context, query string, arg any) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *Resolver) strings(ctx context.Context, query string, arg any) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
