package postprocess

import "testing"

func TestCapitalizeFixupFirstWord(t *testing.T) {
	if got := capitalizeFixup("hello there"); got != "Hello there" {
		t.Fatalf("got %q", got)
	}
}

func TestCapitalizeFixupSentenceBoundaries(t *testing.T) {
	got := capitalizeFixup("first sentence. second sentence. third sentence.")
	want := "First sentence. Second sentence. Third sentence."
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestCapitalizeFixupQuestionAndExclamation(t *testing.T) {
	got := capitalizeFixup("is this ok? yes it is! great.")
	want := "Is this ok? Yes it is! Great."
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestCapitalizeFixupStandalonePronounI(t *testing.T) {
	got := capitalizeFixup("i think i'm ready")
	want := "I think I'm ready"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestCapitalizeFixupEmpty(t *testing.T) {
	if got := capitalizeFixup(""); got != "" {
		t.Fatalf("got %q", got)
	}
}
