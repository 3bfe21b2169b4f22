package dictionary

import "strings"

// FilterByPos keeps the senses whose part-of-speech codes intersect allowed.
// A sense without codes inherits those of the sense before it. When nothing
// survives, every sense is returned and specific is false, so a non-empty
// input never yields an empty result. Identical gloss lists are kept once.
func FilterByPos(senses []Sense, allowed []string) (glosses [][]string, specific bool) {
	allow := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		allow[a] = struct{}{}
	}

	var inherited []string
	for _, s := range senses {
		tags := s.PosTags
		if len(tags) == 0 {
			tags = inherited
		}
		for _, t := range tags {
			if _, ok := allow[t]; ok {
				glosses = append(glosses, s.Glosses)
				break
			}
		}
		inherited = tags
	}

	specific = true
	if len(glosses) == 0 {
		specific = false
		for _, s := range senses {
			glosses = append(glosses, s.Glosses)
		}
	}
	return dedupGlosses(glosses), specific
}

func dedupGlosses(in [][]string) [][]string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0:0]
	for _, g := range in {
		key := strings.Join(g, "\x00")
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, g)
	}
	return out
}
