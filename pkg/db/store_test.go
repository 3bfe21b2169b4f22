package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/vocabulist/pkg/progress"
	"github.com/japaniel/vocabulist/pkg/tokenizer"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	conn, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, InitDB(context.Background(), conn))
	// Running the schema twice must be harmless.
	require.NoError(t, InitDB(context.Background(), conn))
	return NewStore(conn, nil)
}

func tok(expr, pos, sentence, surface string) tokenizer.Token {
	return tokenizer.Token{Expression: expr, PartOfSpeech: pos, Sentence: sentence, SurfaceForm: surface}
}

func namaeTokens() []tokenizer.Token {
	const s = "名前は何ですか"
	return []tokenizer.Token{
		tok("名前", "名詞", s, "名前"),
		tok("は", "助詞", s, "は"),
		tok("何", "名詞", s, "何"),
		tok("です", "助動詞", s, "です"),
		tok("か", "助詞", s, "か"),
	}
}

func countRows(t *testing.T, s *Store, table string) int {
	t.Helper()
	var n int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestInsertTokens(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	rec := &progress.Recorder{}

	require.NoError(t, s.InsertTokens(ctx, namaeTokens(), rec))

	exprs, err := s.SelectExpressions(ctx, ExpressionQuery{OrderBy: OrderID, Ascending: true})
	require.NoError(t, err)
	require.Len(t, exprs, 5)
	for _, e := range exprs {
		assert.Equal(t, 1, e.Frequency, e.Text)
	}
	assert.Equal(t, "名前", exprs[0].Text)
	assert.Equal(t, 1, countRows(t, s, "sentences"))
	assert.Equal(t, 3, countRows(t, s, "pos"))
	assert.Equal(t, 5, countRows(t, s, "occurrences"))

	events := rec.Events()
	require.Len(t, events, 5)
	assert.Equal(t, 5, events[4].Done)
	assert.Equal(t, 5, events[4].Total)
}

func TestInsertTokensRepeatWithinSentence(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	const sentence = "猫と猫"
	require.NoError(t, s.InsertTokens(ctx, []tokenizer.Token{
		tok("猫", "名詞", sentence, "猫"),
		tok("と", "助詞", sentence, "と"),
		tok("猫", "名詞", sentence, "猫"),
	}, nil))

	e, err := s.LookupExpression(ctx, "猫")
	require.NoError(t, err)
	assert.Equal(t, 2, e.Frequency)
	// The repeated 4-tuple is linked once.
	assert.Equal(t, 2, countRows(t, s, "occurrences"))
}

func TestFrequencyMonotonic(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	batches := [][]tokenizer.Token{
		{tok("行く", "動詞", "学校に行く", "行く")},
		{tok("行く", "動詞", "明日行った", "行っ")},
		{tok("来る", "動詞", "友達が来る", "来る")},
	}
	prev := 0
	for _, b := range batches {
		require.NoError(t, s.InsertTokens(ctx, b, nil))
		e, err := s.LookupExpression(ctx, "行く")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, e.Frequency, prev)
		prev = e.Frequency
	}
	assert.Equal(t, 2, prev)
	assert.Equal(t, 3, countRows(t, s, "surface_forms"))
}

func TestInsertTokensRollsBackBatch(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	err := s.InsertTokens(ctx, []tokenizer.Token{
		tok("犬", "名詞", "犬がいる", "犬"),
		tok("", "助詞", "犬がいる", "が"),
	}, nil)

	var se *StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "insert tokens", se.Op)
	for _, table := range []string{"expressions", "pos", "sentences", "surface_forms", "occurrences"} {
		assert.Zero(t, countRows(t, s, table), table)
	}
}

func TestJoinIntegrity(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.InsertTokens(ctx, namaeTokens(), nil))

	var orphans int
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM occurrences o
		LEFT JOIN expressions e ON e.id = o.expression_id
		LEFT JOIN pos p ON p.id = o.pos_id
		LEFT JOIN sentences s ON s.id = o.sentence_id
		LEFT JOIN surface_forms f ON f.id = o.surface_form_id
		WHERE e.id IS NULL OR p.id IS NULL OR s.id IS NULL OR f.id IS NULL`).Scan(&orphans))
	assert.Zero(t, orphans)

	err := InsertOccurrence(ctx, s.DB(), Occurrence{ExpressionID: 999, PosID: 1, SentenceID: 1, SurfaceFormID: 1})
	assert.Error(t, err, "foreign keys must be enforced")

	_, err = s.DB().Exec(`DELETE FROM sentences`)
	require.NoError(t, err)
	assert.Zero(t, countRows(t, s, "occurrences"))
}

func TestSelectExpressionsOrdering(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	var tokens []tokenizer.Token
	for i, sentence := range []string{"一", "二", "三", "四", "五"} {
		tokens = append(tokens, tok("猫", "名詞", sentence, "猫"))
		if i < 3 {
			tokens = append(tokens, tok("犬", "名詞", sentence, "犬"))
		}
	}
	require.NoError(t, s.InsertTokens(ctx, tokens, nil))

	got, err := s.SelectExpressions(ctx, ExpressionQuery{Limit: Unbounded})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "猫", got[0].Text)
	assert.Equal(t, 5, got[0].Frequency)
	assert.Equal(t, "犬", got[1].Text)
	assert.Equal(t, 3, got[1].Frequency)

	got, err = s.SelectExpressions(ctx, ExpressionQuery{Ascending: true, Limit: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "犬", got[0].Text)

	_, err = s.SelectExpressions(ctx, ExpressionQuery{OrderBy: "bogus"})
	assert.Error(t, err)
}

func TestSelectExpressionsFilters(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.InsertTokens(ctx, namaeTokens(), nil))

	missing, err := s.SetExcluded(ctx, []string{"は", "存在しない"}, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"存在しない"}, missing)
	_, err = s.SetLearned(ctx, []string{"か"}, true)
	require.NoError(t, err)
	require.NoError(t, s.MarkInFlashcardSet(ctx, "名前"))

	got, err := s.SelectExpressions(ctx, ExpressionQuery{OrderBy: OrderID, Ascending: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"何", "です"}, texts(got))

	got, err = s.SelectExpressions(ctx, ExpressionQuery{
		Filter:  Filter{IncludeExcluded: true, IncludeLearned: true, IncludeInFlashcardSet: true},
		OrderBy: OrderID, Ascending: true,
	})
	require.NoError(t, err)
	assert.Len(t, got, 5)
	assert.True(t, got[0].InFlashcardSet)
	assert.True(t, got[1].IsExcluded)
	assert.True(t, got[4].IsLearned)
}

func texts(es []Expression) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.Text
	}
	return out
}

func TestSetPosExcludedCascade(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.InsertTokens(ctx, []tokenizer.Token{
		tok("は", "助詞", "私は学生", "は"),
		tok("学生", "名詞", "私は学生", "学生"),
		// 一 is seen both as a noun and as a prefix.
		tok("一", "名詞", "一が好き", "一"),
		tok("一", "接頭詞", "一日", "一"),
		tok("日", "名詞", "一日", "日"),
	}, nil))

	missing, err := s.SetPosExcluded(ctx, []string{"助詞", "接頭詞", "形容詞"}, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"形容詞"}, missing)

	ha, err := s.LookupExpression(ctx, "は")
	require.NoError(t, err)
	assert.True(t, ha.IsExcluded)
	ichi, err := s.LookupExpression(ctx, "一")
	require.NoError(t, err)
	assert.False(t, ichi.IsExcluded, "still seen under an included tag")

	list, err := s.SelectPosList(ctx, PosQuery{Ascending: true})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "名詞", list[0].Tag)

	_, err = s.SetPosExcluded(ctx, []string{"名詞"}, true)
	require.NoError(t, err)
	ichi, err = s.LookupExpression(ctx, "一")
	require.NoError(t, err)
	assert.True(t, ichi.IsExcluded)

	_, err = s.SetPosExcluded(ctx, []string{"助詞"}, false)
	require.NoError(t, err)
	ha, err = s.LookupExpression(ctx, "は")
	require.NoError(t, err)
	assert.False(t, ha.IsExcluded)

	all, err := s.SelectPosList(ctx, PosQuery{IncludeExcluded: true, Limit: Unbounded})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestExampleSentenceAndPos(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.InsertTokens(ctx, []tokenizer.Token{
		tok("見る", "動詞", "映画を見る", "見る"),
		tok("見る", "動詞", "空を見た", "見"),
	}, nil))

	got, err := s.ExampleSentence(ctx, "見る")
	require.NoError(t, err)
	assert.Equal(t, "映画を見る", got)

	_, err = s.ExampleSentence(ctx, "聞く")
	assert.ErrorIs(t, err, ErrNotFound)

	pos, err := s.PosForExpression(ctx, "見る")
	require.NoError(t, err)
	assert.Equal(t, []string{"動詞"}, pos)

	_, err = s.LookupExpression(ctx, "聞く")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExistingSentences(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.InsertTokens(ctx, namaeTokens(), nil))

	candidates := []string{"名前は何ですか", "新しい文"}
	for i := 0; i < 2*sentenceChunk; i++ {
		candidates = append(candidates, "filler")
	}
	got, err := s.ExistingSentences(ctx, candidates)
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"名前は何ですか": {}}, got)

	got, err = s.ExistingSentences(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReplaceFlashcardSet(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.InsertTokens(ctx, namaeTokens(), nil))
	require.NoError(t, s.MarkInFlashcardSet(ctx, "は"))

	missing, err := s.ReplaceFlashcardSet(ctx, []string{"名前", "猫"})
	require.NoError(t, err)
	assert.Equal(t, []string{"猫"}, missing)

	got, err := s.SelectExpressions(ctx, ExpressionQuery{Filter: Filter{IncludeInFlashcardSet: true}, OrderBy: OrderID, Ascending: true})
	require.NoError(t, err)
	var in []string
	for _, e := range got {
		if e.InFlashcardSet {
			in = append(in, e.Text)
		}
	}
	assert.Equal(t, []string{"名前"}, in)

	require.NoError(t, s.ResetFlashcardSetMembership(ctx))
	got, err = s.SelectExpressions(ctx, ExpressionQuery{})
	require.NoError(t, err)
	assert.Len(t, got, 5)
}
