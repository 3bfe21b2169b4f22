package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

func TestSplitSentences(t *testing.T) {
	text := "「こんにちは。」と言った。\n\n  元気ですか？はい！『本』を読む…\r\n最後の文"
	assert.Equal(t, []string{
		"こんにちは。",
		"と言った。",
		"元気ですか？",
		"はい！",
		"本を読む",
		"最後の文",
	}, SplitSentences(text))

	assert.Empty(t, SplitSentences(" \n\t\n"))
}

func TestSanitizeRuby(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Simple Ruby",
			input:    "<ruby>漢字<rt>かんじ</rt></ruby>",
			expected: "<ruby>漢字</ruby>",
		},
		{
			name:     "Ruby with RP",
			input:    "<ruby>漢字<rp>(</rp><rt>かんじ</rt><rp>)</rp></ruby>",
			expected: "<ruby>漢字</ruby>",
		},
		{
			name:     "Multiple Ruby",
			input:    "<ruby>私<rt>わたし</rt></ruby>は<ruby>猫<rt>ねこ</rt></ruby>である",
			expected: "<ruby>私</ruby>は<ruby>猫</ruby>である",
		},
		{
			name:     "Attributes in tags",
			input:    "<ruby class='test'>漢字<RT class='reading'>かんじ</RT></ruby>",
			expected: "<ruby class='test'>漢字</ruby>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(SanitizeRuby([]byte(tt.input))))
		})
	}
}

const sampleText = "吾輩は猫である。名前はまだ無い。どこで生れたかとんと見当がつかぬ。" +
	"何でも薄暗いじめじめした所でニャーニャー泣いていた事だけは記憶している。" +
	"吾輩はここで始めて人間というものを見た。"

func encode(t *testing.T, s string, enc transform.Transformer) []byte {
	t.Helper()
	out, _, err := transform.Bytes(enc, []byte(s))
	require.NoError(t, err)
	return out
}

func TestDecode(t *testing.T) {
	sjis := encode(t, sampleText, japanese.ShiftJIS.NewEncoder())
	euc := encode(t, sampleText, japanese.EUCJP.NewEncoder())

	got, err := Decode(sjis, "Shift_JIS")
	require.NoError(t, err)
	assert.Equal(t, sampleText, got)

	got, err = Decode(euc, EncodingEUCJP)
	require.NoError(t, err)
	assert.Equal(t, sampleText, got)

	got, err = Decode(append([]byte{0xEF, 0xBB, 0xBF}, sampleText...), EncodingUTF8)
	require.NoError(t, err)
	assert.Equal(t, sampleText, got)

	_, err = Decode(sjis, EncodingUTF8)
	assert.Error(t, err)

	_, err = Decode(sjis, "latin1")
	assert.ErrorContains(t, err, "unsupported encoding")
}

func TestDetectEncoding(t *testing.T) {
	assert.Equal(t, EncodingUTF8, DetectEncoding([]byte(sampleText)))
	sjis := encode(t, strings.Repeat(sampleText, 4), japanese.ShiftJIS.NewEncoder())
	assert.Equal(t, EncodingShiftJIS, DetectEncoding(sjis))

	got, err := Decode(sjis, EncodingAuto)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat(sampleText, 4), got)
}

func TestLoadFileAndFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("二つ目。"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"),
		encode(t, "一つ目。「二つ目」？", japanese.ShiftJIS.NewEncoder()), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	files, err := Files(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt")}, files)

	single, err := Files(files[1])
	require.NoError(t, err)
	assert.Equal(t, files[1:], single)

	sentences, err := LoadFile(files[0], EncodingShiftJIS)
	require.NoError(t, err)
	assert.Equal(t, []string{"一つ目。", "二つ目？"}, sentences)

	_, err = Files(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestFetchArticle(t *testing.T) {
	body, err := os.ReadFile("testdata/furigana.html")
	require.NoError(t, err)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla/5.0")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(body)
	}))
	defer srv.Close()

	a, err := NewFetcher(nil).FetchArticle(context.Background(), srv.URL+"/kanji")
	require.NoError(t, err)
	assert.Contains(t, a.Title, "漢字の読み方")
	assert.Contains(t, a.Text, "漢字は中国から伝わった文字です。")
	assert.NotContains(t, a.Text, "漢字かんじ")
	assert.Contains(t, a.Sentences, "学校という言葉は、毎日の生活でよく使われます。")
}

func TestFetchArticleStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewFetcher(nil).FetchArticle(context.Background(), srv.URL)
	assert.ErrorContains(t, err, "status 403")
}
