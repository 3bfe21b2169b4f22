package source

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gogs/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Input encodings accepted by Decode.
const (
	EncodingAuto     = "auto"
	EncodingUTF8     = "utf-8"
	EncodingShiftJIS = "shift_jis"
	EncodingEUCJP    = "euc-jp"
	EncodingISO2022  = "iso-2022-jp"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.ReplaceAll(name, "_", "-")) {
	case "", EncodingUTF8, "utf8":
		return unicode.UTF8, nil
	case "shift-jis", "sjis", "cp932", "windows-31j":
		return japanese.ShiftJIS, nil
	case EncodingEUCJP, "eucjp":
		return japanese.EUCJP, nil
	case EncodingISO2022:
		return japanese.ISO2022JP, nil
	}
	return nil, fmt.Errorf("unsupported encoding %q", name)
}

// DetectEncoding guesses the encoding of raw. Valid UTF-8 always wins;
// otherwise the best Japanese candidate of the charset detector is used.
func DetectEncoding(raw []byte) string {
	if utf8.Valid(raw) {
		return EncodingUTF8
	}
	results, err := chardet.NewTextDetector().DetectAll(raw)
	if err == nil {
		for _, r := range results {
			switch strings.ToLower(r.Charset) {
			case "shift_jis":
				return EncodingShiftJIS
			case "euc-jp":
				return EncodingEUCJP
			case "iso-2022-jp":
				return EncodingISO2022
			}
		}
	}
	return EncodingShiftJIS
}

// Decode converts raw bytes in the named encoding ("auto" to detect) to a
// UTF-8 string.
func Decode(raw []byte, enc string) (string, error) {
	if strings.EqualFold(enc, EncodingAuto) {
		enc = DetectEncoding(raw)
	}
	e, err := lookupEncoding(enc)
	if err != nil {
		return "", err
	}
	if e == unicode.UTF8 {
		raw = bytes.TrimPrefix(raw, utf8BOM)
		if !utf8.Valid(raw) {
			return "", fmt.Errorf("input is not valid UTF-8")
		}
		return string(raw), nil
	}
	out, _, err := transform.Bytes(e.NewDecoder(), raw)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", enc, err)
	}
	return string(out), nil
}

// LoadFile reads a text file and returns its sentences.
func LoadFile(path, enc string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text, err := Decode(raw, enc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return SplitSentences(text), nil
}

// Files expands path into the regular files to import: path itself, or
// the files directly inside it in lexical order.
func Files(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.Type().IsRegular() && !strings.HasPrefix(e.Name(), ".") {
			out = append(out, filepath.Join(path, e.Name()))
		}
	}
	return out, nil
}
