package focus

import (
	"context"
	"os"
	"testing"

	"github.com/speakdesk/dictd/internal/postprocess"
)

func TestClassifyMatchesKnownPatterns(t *testing.T) {
	cases := map[string]postprocess.AppCategory{
		"org.alacritty.Alacritty":  postprocess.AppTerminal,
		"firefox":                  postprocess.AppBrowser,
		"code - main.go":           postprocess.AppEditor,
		"Slack | #general":         postprocess.AppChat,
		"some-unrelated-app-title": postprocess.AppGeneral,
	}
	for identifier, want := range cases {
		if got := classify(identifier); got != want {
			t.Fatalf("classify(%q) = %v, want %v", identifier, got, want)
		}
	}
}

func TestDetectUsesEnvOverride(t *testing.T) {
	t.Setenv("DICTD_APP_CATEGORY", "terminal")
	d := NewCommandDetector("this-tool-should-not-exist-anywhere")
	if got := d.Detect(context.Background()); got != postprocess.AppTerminal {
		t.Fatalf("got %v, want AppTerminal", got)
	}
}

func TestDetectFallsBackToGeneralWhenToolMissing(t *testing.T) {
	os.Unsetenv("DICTD_APP_CATEGORY")
	d := NewCommandDetector("this-tool-should-not-exist-anywhere")
	if got := d.Detect(context.Background()); got != postprocess.AppGeneral {
		t.Fatalf("got %v, want AppGeneral", got)
	}
}
