package db

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// Unbounded as a Limit selects every matching row.
const Unbounded = -1

// Order columns accepted by ExpressionQuery.
type Order string

const (
	OrderFrequency  Order = "frequency"
	OrderExpression Order = "expression"
	OrderID         Order = "id" // insertion order
)

// ParseOrder maps a user supplied name to an Order.
func ParseOrder(s string) (Order, error) {
	switch o := Order(s); o {
	case OrderFrequency, OrderExpression, OrderID:
		return o, nil
	case "":
		return OrderFrequency, nil
	}
	return "", fmt.Errorf("unknown order %q (want frequency, expression or id)", s)
}

// Filter widens a selection. The zero value selects expressions that are
// not excluded, not learned and not yet in the flashcard set.
type Filter struct {
	IncludeInFlashcardSet bool
	IncludeExcluded       bool
	IncludeLearned        bool
}

// ExpressionQuery describes a filtered, ordered, limited projection of the
// expressions table. The zero value orders by descending frequency with no
// limit.
type ExpressionQuery struct {
	Filter
	OrderBy   Order
	Ascending bool
	// Limit below 1 (see Unbounded) returns all rows.
	Limit int
}

func (q ExpressionQuery) builder() (sq.SelectBuilder, error) {
	b := sq.Select("id", "expression", "frequency", "is_excluded", "is_learned", "in_flashcard_set").
		From("expressions")
	if !q.IncludeInFlashcardSet {
		b = b.Where(sq.Eq{"in_flashcard_set": 0})
	}
	if !q.IncludeExcluded {
		b = b.Where(sq.Eq{"is_excluded": 0})
	}
	if !q.IncludeLearned {
		b = b.Where(sq.Eq{"is_learned": 0})
	}
	order, err := ParseOrder(string(q.OrderBy))
	if err != nil {
		return b, err
	}
	dir := "DESC"
	if q.Ascending {
		dir = "ASC"
	}
	b = b.OrderBy(fmt.Sprintf("%s %s", order, dir))
	if order != OrderID {
		b = b.OrderBy("id ASC")
	}
	if q.Limit > 0 {
		b = b.Limit(uint64(q.Limit))
	}
	return b, nil
}

// SelectExpressions runs q.
func SelectExpressions(ctx context.Context, db DBExecutor, q ExpressionQuery) ([]Expression, error) {
	b, err := q.builder()
	if err != nil {
		return nil, err
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build expression query: %w", err)
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select expressions: %w", err)
	}
	defer rows.Close()
	var out []Expression
	for rows.Next() {
		var e Expression
		if err := rows.Scan(&e.ID, &e.Text, &e.Frequency, &e.IsExcluded, &e.IsLearned, &e.InFlashcardSet); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// PosQuery selects part-of-speech tags.
type PosQuery struct {
	IncludeExcluded bool
	Ascending       bool
	Limit           int
}

// SelectPosList lists tags ordered by tag text.
func SelectPosList(ctx context.Context, db DBExecutor, q PosQuery) ([]PartOfSpeech, error) {
	b := sq.Select("id", "pos", "is_excluded").From("pos")
	if !q.IncludeExcluded {
		b = b.Where(sq.Eq{"is_excluded": 0})
	}
	if q.Ascending {
		b = b.OrderBy("pos ASC")
	} else {
		b = b.OrderBy("pos DESC")
	}
	if q.Limit > 0 {
		b = b.Limit(uint64(q.Limit))
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build pos query: %w", err)
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select pos: %w", err)
	}
	defer rows.Close()
	var out []PartOfSpeech
	for rows.Next() {
		var p PartOfSpeech
		if err := rows.Scan(&p.ID, &p.Tag, &p.IsExcluded); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// sentenceChunk keeps IN lists well under SQLite's bound parameter limit.
const sentenceChunk = 500

// SelectExistingSentences returns the subset of candidates already stored.
func SelectExistingSentences(ctx context.Context, db DBExecutor, candidates []string) (map[string]struct{}, error) {
	found := make(map[string]struct{})
	for start := 0; start < len(candidates); start += sentenceChunk {
		end := min(start+sentenceChunk, len(candidates))
		query, args, err := sq.Select("sentence").From("sentences").
			Where(sq.Eq{"sentence": candidates[start:end]}).
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("build sentence query: %w", err)
		}
		rows, err := db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("select sentences: %w", err)
		}
		existing, err := scanStrings(rows)
		if err != nil {
			return nil, err
		}
		for _, s := range existing {
			found[s] = struct{}{}
		}
	}
	return found, nil
}
