package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/vocabulist/pkg/db"
	"github.com/japaniel/vocabulist/pkg/progress"
	"github.com/japaniel/vocabulist/pkg/tokenizer"
)

// fakeTokenizer splits a sentence on "|" and tags every piece as a noun.
// Sentences listed in fail return a TokenizerError.
type fakeTokenizer struct {
	fail map[string]bool
}

func (f *fakeTokenizer) Name() string { return "fake" }

func (f *fakeTokenizer) Tokenize(ctx context.Context, sentence string) ([]tokenizer.Token, error) {
	if f.fail[sentence] {
		return nil, &tokenizer.TokenizerError{Backend: "fake", Sentence: sentence, Err: errors.New("boom")}
	}
	var out []tokenizer.Token
	for _, p := range strings.Split(sentence, "|") {
		if p == "" {
			continue
		}
		out = append(out, tokenizer.Token{Expression: p, PartOfSpeech: "名詞", Sentence: sentence, SurfaceForm: p})
	}
	return out, nil
}

func setupStore(t *testing.T) *db.Store {
	t.Helper()
	conn, err := db.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.InitDB(context.Background(), conn))
	return db.NewStore(conn, nil)
}

func expressions(es []tokenizer.Token) []string {
	out := make([]string, len(es))
	for i, t := range es {
		out[i] = t.Expression
	}
	return out
}

func TestOrchestratorSequential(t *testing.T) {
	rec := &progress.Recorder{}
	o := NewOrchestrator(&fakeTokenizer{}, nil)
	o.Observer = rec

	tokens, err := o.Run(context.Background(), []string{"a|b", "", "c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, expressions(tokens))

	events := rec.Events()
	require.Len(t, events, 3, "one event per sentence, even without tokens")
	for i, e := range events {
		assert.Equal(t, StageTokenize, e.Stage)
		assert.Equal(t, i+1, e.Done)
		assert.Equal(t, 3, e.Total)
	}
}

func TestOrchestratorParallelKeepsOrder(t *testing.T) {
	var sentences []string
	var want []string
	for i := 0; i < 200; i++ {
		a, b := fmt.Sprintf("w%da", i), fmt.Sprintf("w%db", i)
		sentences = append(sentences, a+"|"+b)
		want = append(want, a, b)
	}
	rec := &progress.Recorder{}
	o := &Orchestrator{Tokenizer: &fakeTokenizer{}, Workers: 8, Observer: rec}

	tokens, err := o.Run(context.Background(), sentences)
	require.NoError(t, err)
	assert.Equal(t, want, expressions(tokens))

	events := rec.Events()
	require.Len(t, events, len(sentences))
	for i, e := range events {
		assert.Equal(t, i+1, e.Done, "progress must be monotonic")
	}
}

func TestOrchestratorStopsOnTokenizerError(t *testing.T) {
	for _, workers := range []int{1, 4} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			var sentences []string
			for i := 0; i < 20; i++ {
				sentences = append(sentences, fmt.Sprintf("s%d", i))
			}
			o := &Orchestrator{Tokenizer: &fakeTokenizer{fail: map[string]bool{"s7": true}}, Workers: workers}
			_, err := o.Run(context.Background(), sentences)
			var te *tokenizer.TokenizerError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, "s7", te.Sentence)
		})
	}
}

// failingPool always returns an error on Submit to simulate producer error.
type failingPool struct{}

func (f *failingPool) Start(ctx context.Context) {}
func (f *failingPool) Submit(job Job) error      { return errors.New("submit failed") }
func (f *failingPool) SubmitCtx(ctx context.Context, job Job) error {
	return errors.New("submit failed")
}
func (f *failingPool) Close() {}

func TestOrchestratorHandlesSubmitError(t *testing.T) {
	o := &Orchestrator{
		Tokenizer:   &fakeTokenizer{},
		Workers:     4,
		PoolFactory: func(workers, queue int) Pool { return &failingPool{} },
	}
	_, err := o.Run(context.Background(), []string{"a", "b", "c"})
	assert.EqualError(t, err, "submit failed")
}

func TestOrchestratorCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	o := &Orchestrator{Tokenizer: &fakeTokenizer{}, Workers: 4}
	_, err := o.Run(ctx, []string{"a", "b", "c"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFilter(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	require.NoError(t, s.InsertTokens(ctx, []tokenizer.Token{
		{Expression: "犬", PartOfSpeech: "名詞", Sentence: "犬", SurfaceForm: "犬"},
	}, nil))

	f := Filter{Lookup: s}
	known, err := f.AlreadyImported(ctx, []string{"犬", "猫"})
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"犬": {}}, known)

	fresh, _, err := f.NewSentences(ctx, []string{"猫", "犬", "", "猫", "鳥"})
	require.NoError(t, err)
	assert.Equal(t, []string{"猫", "鳥"}, fresh)

	tokens := []tokenizer.Token{
		{Expression: "犬", Sentence: "犬"},
		{Expression: "猫", Sentence: "猫"},
	}
	assert.Equal(t, tokens[1:], FilterNewTokens(tokens, known))
	assert.Equal(t, tokens, FilterNewTokens(tokens, nil))

	assert.Equal(t,
		[]tokenizer.Token{tokens[1], tokens[1]},
		PerOccurrence([]string{"猫", "犬", "", "猫"}, tokens, known))
}

func TestImportIsIdempotent(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	mecabOut := "名前\t名詞,一般,*,*,*,*,名前,ナマエ,ナマエ\n" +
		"は\t助詞,係助詞,*,*,*,*,は,ハ,ワ\n" +
		"何\t名詞,代名詞,一般,*,*,*,何,ナニ,ナニ\n" +
		"です\t助動詞,*,*,*,特殊・デス,基本形,です,デス,デス\n" +
		"か\t助詞,副助詞／並立助詞／終助詞,*,*,*,*,か,カ,カ\n" +
		"EOS\n"
	calls := 0
	tok := tokenizer.NewMecab(tokenizer.RunnerFunc(func(ctx context.Context, input string) ([]byte, error) {
		calls++
		return []byte(mecabOut), nil
	}), nil)
	im := NewImporter(s, NewOrchestrator(tok, nil), nil)

	res, err := im.Import(ctx, []string{"名前は何ですか"})
	require.NoError(t, err)
	assert.Equal(t, Result{Sentences: 1, Tokens: 5}, res)

	res, err = im.Import(ctx, []string{"名前は何ですか"})
	require.NoError(t, err)
	assert.Equal(t, Result{Sentences: 1, Skipped: 1}, res)
	assert.Equal(t, 1, calls, "known sentences are not tokenized again")

	exprs, err := s.SelectExpressions(ctx, db.ExpressionQuery{Limit: db.Unbounded})
	require.NoError(t, err)
	require.Len(t, exprs, 5)
	for _, e := range exprs {
		assert.Equal(t, 1, e.Frequency, e.Text)
	}
	var occurrences int
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM occurrences`).Scan(&occurrences))
	assert.Equal(t, 5, occurrences)
}

func TestImportCountsMalformedLines(t *testing.T) {
	s := setupStore(t)
	tok := tokenizer.NewMecab(tokenizer.RunnerFunc(func(ctx context.Context, input string) ([]byte, error) {
		return []byte("猫\t名詞,一般,*,*,*,*,猫,ネコ,ネコ\nbad line\nEOS\n"), nil
	}), nil)
	im := NewImporter(s, NewOrchestrator(tok, nil), nil)

	res, err := im.Import(context.Background(), []string{"猫だ"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Tokens)
	assert.Equal(t, int64(1), res.Malformed)
}

func TestImportTokenizerErrorStoresNothing(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	im := NewImporter(s, &Orchestrator{Tokenizer: &fakeTokenizer{fail: map[string]bool{"bad": true}}, Workers: 2}, nil)

	_, err := im.Import(ctx, []string{"a|b", "bad", "c"})
	var te *tokenizer.TokenizerError
	require.ErrorAs(t, err, &te)

	exprs, err := s.SelectExpressions(ctx, db.ExpressionQuery{Filter: db.Filter{IncludeExcluded: true}})
	require.NoError(t, err)
	assert.Empty(t, exprs)
}

func TestImportReportsProgress(t *testing.T) {
	s := setupStore(t)
	rec := &progress.Recorder{}
	im := NewImporter(s, NewOrchestrator(&fakeTokenizer{}, nil), nil)
	im.Observer = rec

	_, err := im.Import(context.Background(), []string{"a|b", "c"})
	require.NoError(t, err)

	var stages []string
	for _, e := range rec.Events() {
		stages = append(stages, e.Stage)
	}
	assert.Equal(t, []string{StageTokenize, StageTokenize, "store", "store", "store"}, stages)
}

func TestImportCountsRepeatedSentences(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	calls := map[string]int{}
	tok := &countingTokenizer{Tokenizer: &fakeTokenizer{}, calls: calls}
	im := NewImporter(s, NewOrchestrator(tok, nil), nil)

	res, err := im.Import(ctx, []string{"はい", "猫|犬", "はい"})
	require.NoError(t, err)
	assert.Equal(t, Result{Sentences: 2, Tokens: 4}, res)
	assert.Equal(t, 1, calls["はい"], "a repeated sentence is analyzed once")

	frequency := func(text string) int {
		t.Helper()
		e, err := s.LookupExpression(ctx, text)
		require.NoError(t, err)
		return e.Frequency
	}
	assert.Equal(t, 2, frequency("はい"))
	assert.Equal(t, 1, frequency("猫"))

	var occurrences int
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM occurrences`).Scan(&occurrences))
	assert.Equal(t, 3, occurrences)

	// Repeats of an already imported sentence still count for nothing.
	res, err = im.Import(ctx, []string{"はい", "はい", "鳥"})
	require.NoError(t, err)
	assert.Equal(t, Result{Sentences: 2, Skipped: 1, Tokens: 1}, res)
	assert.Equal(t, 2, frequency("はい"))
}

type countingTokenizer struct {
	tokenizer.Tokenizer
	calls map[string]int
}

func (c *countingTokenizer) Tokenize(ctx context.Context, sentence string) ([]tokenizer.Token, error) {
	c.calls[sentence]++
	return c.Tokenizer.Tokenize(ctx, sentence)
}
