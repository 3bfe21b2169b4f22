package dictionary

var (
	adjTags  = []string{"adj-f", "adj-i", "adj-ix", "adj-ku", "adj-na", "adj-nari", "adj-no", "adj-pn", "adj-shiku", "adj-t", "aux-adj"}
	advTags  = []string{"adv-to", "adv"}
	auxVTags = []string{"aux-v"}
	conjTags = []string{"conj"}
	intTags  = []string{"int"}
	nounTags = []string{"n-adv", "n-pr", "n-pref", "n-suf", "n-t", "n"}
	prtTags  = []string{"prt"}
	prefTags = []string{"pref"}
	sufTags  = []string{"suf"}
	verbTags = []string{
		"v1-s", "v1", "v2a-s", "v2b-k", "v2d-s", "v2g-k", "v2g-s", "v2h-k", "v2h-s", "v2k-k", "v2k-s",
		"v2m-s", "v2n-s", "v2r-k", "v2r-s", "v2s-s", "v2t-k", "v2t-s", "v2w-s", "v2y-k", "v2y-s", "v2z-s",
		"v4b", "v4g", "v4h", "v4k", "v4m", "v4r", "v4s", "v4t", "v5aru", "v5b", "v5g", "v5k-s", "v5k",
		"v5m", "v5n", "v5r-i", "v5r", "v5s", "v5t", "v5u-s", "v5u", "vi", "vk", "vn", "vr", "vs-c",
		"vs-i", "vs-s", "vs", "vt", "vz",
	}
)

// posConversion maps analyzer tags to JMdict part-of-speech codes. Juman++
// and MeCab (IPA) disagree on a few names, so both spellings are listed.
var posConversion = map[string][]string{
	"形容詞": adjTags,
	"連体詞": {"adj-pn"},
	"副詞":  advTags,
	"助動詞": auxVTags,
	"接続詞": conjTags,
	"感動詞": intTags,
	"名詞":  nounTags,
	"助詞":  prtTags,
	"接頭辞": prefTags,
	"接頭詞": prefTags,
	"接尾辞": sufTags,
	"動詞":  verbTags,
}

// ConvertPosList returns the JMdict codes compatible with the given analyzer
// tags. Tags without a mapping contribute nothing.
func ConvertPosList(tags []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, t := range tags {
		for _, code := range posConversion[t] {
			if _, ok := seen[code]; ok {
				continue
			}
			seen[code] = struct{}{}
			out = append(out, code)
		}
	}
	return out
}
