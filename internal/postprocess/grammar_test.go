package postprocess

import "testing"

func TestGrammarCorrectorEmpty(t *testing.T) {
	g := newGrammarCorrector(nil)
	if got := g.process(""); got != "" {
		t.Fatalf("got %q", got)
	}
}

func TestGrammarCorrectorLeavesKnownWordsUnchanged(t *testing.T) {
	g := newGrammarCorrector(nil)
	in := "this is a correct sentence"
	if got := g.process(in); got != in {
		t.Fatalf("got %q, want unchanged %q", got, in)
	}
}

func TestGrammarCorrectorPreservesAcronyms(t *testing.T) {
	g := newGrammarCorrector(nil)
	in := "the API endpoint returns JSON data"
	got := g.process(in)
	if !containsAll(got, "API", "JSON") {
		t.Fatalf("expected acronyms preserved, got %q", got)
	}
}

func TestGrammarCorrectorFixesCloseMisspelling(t *testing.T) {
	g := newGrammarCorrector([]string{"sentence"})
	got := g.process("this is a sentense")
	if got != "this is a sentence" {
		t.Fatalf("got %q", got)
	}
}

func TestWordSpansTracksByteOffsets(t *testing.T) {
	spans := wordSpans("hello, world!")
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d: %+v", len(spans), spans)
	}
	if spans[0].text != "hello" || spans[1].text != "world" {
		t.Fatalf("unexpected spans: %+v", spans)
	}
}

func TestMatchCasePreservesCapitalization(t *testing.T) {
	if got := matchCase("Sentense", "sentence"); got != "Sentence" {
		t.Fatalf("got %q", got)
	}
	if got := matchCase("SENTENSE", "sentence"); got != "SENTENCE" {
		t.Fatalf("got %q", got)
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		found := false
		for i := 0; i+len(sub) <= len(s); i++ {
			if s[i:i+len(sub)] == sub {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
