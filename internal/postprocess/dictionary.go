package postprocess

// baseDictionary is a small curated set of common English words the
// grammar/spell step trusts as correct. Input words of at least 3 letters
// that are in neither this set nor the personal dictionary, and are not
// all-uppercase (acronyms), are candidates for suggestion.
var baseDictionary = []string{
	"the", "a", "an", "and", "or", "but", "is", "are", "was", "were",
	"be", "been", "being", "have", "has", "had", "do", "does", "did",
	"will", "would", "should", "could", "can", "may", "might", "must",
	"this", "that", "these", "those", "i", "you", "he", "she", "it",
	"we", "they", "my", "your", "his", "her", "its", "our", "their",
	"to", "of", "in", "on", "at", "by", "for", "with", "about", "into",
	"through", "during", "before", "after", "above", "below", "from",
	"up", "down", "out", "off", "over", "under", "again", "further",
	"then", "once", "here", "there", "when", "where", "why", "how",
	"all", "any", "both", "each", "few", "more", "most", "other",
	"some", "such", "no", "nor", "not", "only", "own", "same", "so",
	"than", "too", "very", "just", "now", "test", "word", "sentence",
	"correct", "run", "file", "path", "command", "terminal", "echo",
	"home", "check", "hello", "world", "name", "amazing", "wow",
}
