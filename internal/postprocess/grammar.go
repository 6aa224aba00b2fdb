package postprocess

import (
	"sort"
	"strings"

	"github.com/antzucaro/matchr"
)

const (
	grammarPhoneticThreshold = 0.88
	grammarFuzzyThreshold    = 0.92
)

// wordSpan is a contiguous ASCII-letter run in the source text, identified
// by its byte offsets.
type wordSpan struct {
	start, end int
	text       string
}

// grammarCorrector is an offline spell/grammar correction step built on
// Double Metaphone phonetic filtering plus Jaro-Winkler ranking (the same
// two-stage strategy used elsewhere in this codebase for fuzzy entity
// matching), checked against a curated base dictionary plus the user's
// personal dictionary. It never touches all-uppercase tokens (acronyms
// fused upstream) or anything already present in either dictionary.
type grammarCorrector struct {
	dictionary []string
	codes      map[string]map[string]struct{} // word -> its Double Metaphone codes
	known      map[string]struct{}
}

func newGrammarCorrector(personal []string) *grammarCorrector {
	dict := make([]string, 0, len(baseDictionary)+len(personal))
	dict = append(dict, baseDictionary...)
	dict = append(dict, personal...)

	known := make(map[string]struct{}, len(dict))
	codes := make(map[string]map[string]struct{}, len(dict))
	for _, w := range dict {
		lower := strings.ToLower(w)
		known[lower] = struct{}{}
		codes[lower] = doubleMetaphoneCodes(lower)
	}
	return &grammarCorrector{dictionary: dict, codes: codes, known: known}
}

func doubleMetaphoneCodes(word string) map[string]struct{} {
	p, s := matchr.DoubleMetaphone(word)
	out := make(map[string]struct{}, 2)
	if p != "" {
		out[p] = struct{}{}
	}
	if s != "" {
		out[s] = struct{}{}
	}
	return out
}

func (g *grammarCorrector) process(text string) string {
	if text == "" {
		return text
	}

	spans := wordSpans(text)
	type edit struct {
		start, end int
		repl       string
	}
	var edits []edit

	for _, sp := range spans {
		lower := strings.ToLower(sp.text)
		if _, ok := g.known[lower]; ok {
			continue
		}
		if isAllUpper(sp.text) && len(sp.text) > 1 {
			continue // protected acronym/technical term
		}
		if len(sp.text) < 3 {
			continue // too short to fuzzy-match reliably
		}

		suggestion, ok := g.suggest(lower)
		if !ok {
			continue
		}
		edits = append(edits, edit{start: sp.start, end: sp.end, repl: matchCase(sp.text, suggestion)})
	}

	if len(edits) == 0 {
		return text
	}

	sort.Slice(edits, func(i, j int) bool { return edits[i].start > edits[j].start })

	result := text
	for _, e := range edits {
		if e.start < 0 || e.end > len(result) || e.start > e.end {
			continue
		}
		result = result[:e.start] + e.repl + result[e.end:]
	}
	return result
}

// suggest finds the best dictionary candidate for word using phonetic
// filtering then Jaro-Winkler ranking, mirroring the two-stage strategy:
// prefer a phonetic match above grammarPhoneticThreshold; otherwise fall
// back to pure fuzzy similarity above the stricter grammarFuzzyThreshold.
func (g *grammarCorrector) suggest(word string) (string, bool) {
	wordCodes := doubleMetaphoneCodes(word)

	var bestPhonetic string
	var bestPhoneticScore float64
	var bestFuzzy string
	var bestFuzzyScore float64

	for _, candidate := range g.dictionary {
		lower := strings.ToLower(candidate)
		if lower == word {
			return "", false
		}
		score := matchr.JaroWinkler(word, lower, false)
		if codesOverlap(wordCodes, g.codes[lower]) {
			if score > bestPhoneticScore {
				bestPhoneticScore = score
				bestPhonetic = lower
			}
		}
		if score > bestFuzzyScore {
			bestFuzzyScore = score
			bestFuzzy = lower
		}
	}

	if bestPhonetic != "" && bestPhoneticScore >= grammarPhoneticThreshold {
		return bestPhonetic, true
	}
	if bestFuzzy != "" && bestFuzzyScore >= grammarFuzzyThreshold {
		return bestFuzzy, true
	}
	return "", false
}

func codesOverlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}

// wordSpans finds contiguous ASCII-letter runs (optionally containing a
// single internal apostrophe, to keep contractions like "don't" intact)
// along with their byte offsets in text.
func wordSpans(text string) []wordSpan {
	var spans []wordSpan
	start := -1
	for i := 0; i < len(text); i++ {
		c := text[i]
		isLetter := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		isApostrophe := c == '\'' && start >= 0
		if isLetter || isApostrophe {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			spans = append(spans, wordSpan{start: start, end: i, text: text[start:i]})
			start = -1
		}
	}
	if start >= 0 {
		spans = append(spans, wordSpan{start: start, end: len(text), text: text[start:]})
	}
	return spans
}

func isAllUpper(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// matchCase reapplies the original token's capitalization pattern to a
// lowercase suggestion: all-caps stays all-caps, title-case stays
// title-case, otherwise the suggestion is used verbatim.
func matchCase(original, suggestion string) string {
	if original == "" || suggestion == "" {
		return suggestion
	}
	if isAllUpper(original) {
		return strings.ToUpper(suggestion)
	}
	first := original[0]
	if first >= 'A' && first <= 'Z' {
		return strings.ToUpper(suggestion[:1]) + suggestion[1:]
	}
	return suggestion
}
