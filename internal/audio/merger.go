package audio

import "strings"

// MergeChunks concatenates texts, removing duplicated words at adjacent
// boundaries. For each adjacent pair (A, B) it picks the largest overlapLen
// from min(10, len(words(A)), len(words(B))) down to 1 such that A's last
// overlapLen words equal B's first overlapLen words, ASCII case-insensitive,
// and drops that prefix from B before appending. Empty inputs are absorbed.
func MergeChunks(texts []string) string {
	var nonEmpty []string
	for _, t := range texts {
		if t != "" {
			nonEmpty = append(nonEmpty, t)
		}
	}
	if len(nonEmpty) == 0 {
		return ""
	}

	merged := nonEmpty[0]
	for i := 1; i < len(nonEmpty); i++ {
		merged = mergePair(merged, nonEmpty[i])
	}
	return merged
}

func mergePair(a, b string) string {
	aWords := strings.Fields(a)
	bWords := strings.Fields(b)

	maxOverlap := len(aWords)
	if len(bWords) < maxOverlap {
		maxOverlap = len(bWords)
	}
	if maxOverlap > 10 {
		maxOverlap = 10
	}

	for overlapLen := maxOverlap; overlapLen >= 1; overlapLen-- {
		if wordsEqualASCIIFold(aWords[len(aWords)-overlapLen:], bWords[:overlapLen]) {
			remaining := strings.Join(bWords[overlapLen:], " ")
			if remaining == "" {
				return a
			}
			return a + " " + remaining
		}
	}

	return a + " " + b
}

func wordsEqualASCIIFold(a, b []string) bool {
	for i := range a {
		if asciiLower(a[i]) != asciiLower(b[i]) {
			return false
		}
	}
	return true
}

func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
