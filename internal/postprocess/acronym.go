package postprocess

import "strings"

// defaultAcronyms is the curated set of uppercase acronyms recognized by
// fusion. UserDictionary entries merge into a working copy of this set at
// Pipeline construction time.
var defaultAcronyms = map[string]struct{}{
	"API": {}, "HTTP": {}, "HTTPS": {}, "URL": {}, "URI": {}, "JSON": {},
	"XML": {}, "YAML": {}, "SQL": {}, "HTML": {}, "CSS": {}, "CPU": {},
	"GPU": {}, "RAM": {}, "SSH": {}, "TCP": {}, "UDP": {}, "DNS": {},
	"IP": {}, "ID": {}, "UUID": {}, "CLI": {}, "GUI": {}, "OS": {},
	"IO": {}, "CI": {}, "CD": {}, "PR": {}, "VM": {}, "AI": {}, "ML": {},
}

// acronymFuser replaces runs of 2–5 single alphabetic tokens whose
// uppercased concatenation matches a curated acronym. Longest match wins.
type acronymFuser struct {
	acronyms map[string]struct{}
}

func newAcronymFuser(extra map[string]struct{}) *acronymFuser {
	merged := make(map[string]struct{}, len(defaultAcronyms)+len(extra))
	for k := range defaultAcronyms {
		merged[k] = struct{}{}
	}
	for k := range extra {
		merged[strings.ToUpper(k)] = struct{}{}
	}
	return &acronymFuser{acronyms: merged}
}

const (
	minAcronymRun = 2
	maxAcronymRun = 5
)

func (f *acronymFuser) process(text string) string {
	if text == "" {
		return text
	}
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return text
	}

	out := make([]string, 0, len(tokens))
	i := 0
	for i < len(tokens) {
		matched := false
		maxRun := maxAcronymRun
		if remaining := len(tokens) - i; remaining < maxRun {
			maxRun = remaining
		}
		for run := maxRun; run >= minAcronymRun; run-- {
			candidate := tokens[i : i+run]
			if !allSingleAlpha(candidate) {
				continue
			}
			concat := strings.ToUpper(strings.Join(candidate, ""))
			if _, ok := f.acronyms[concat]; ok {
				out = append(out, concat)
				i += run
				matched = true
				break
			}
		}
		if !matched {
			out = append(out, tokens[i])
			i++
		}
	}
	return strings.Join(out, " ")
}

func allSingleAlpha(tokens []string) bool {
	for _, t := range tokens {
		if len(t) != 1 {
			return false
		}
		c := t[0]
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')) {
			return false
		}
	}
	return true
}
