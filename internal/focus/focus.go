// Package focus determines the AppCategory of the currently focused
// window so the Post-Processing Pipeline's sanitization step can apply the
// right rules. Precise window introspection is desktop/compositor
// specific and out of scope; this package provides the Detector contract
// plus a best-effort external-tool-backed implementation.
package focus

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/speakdesk/dictd/internal/postprocess"
)

// Detector reports the AppCategory of the focused window.
type Detector interface {
	Detect(ctx context.Context) postprocess.AppCategory
}

// categoryPatterns maps substrings found in a window identifier (app_id,
// WM_CLASS, or title) to AppCategory, checked in order.
var categoryPatterns = []struct {
	category postprocess.AppCategory
	patterns []string
}{
	{postprocess.AppTerminal, []string{"term", "alacritty", "kitty", "konsole", "foot", "wezterm"}},
	{postprocess.AppBrowser, []string{"firefox", "chrome", "chromium", "brave", "webkit"}},
	{postprocess.AppEditor, []string{"code", "vim", "emacs", "jetbrains", "zed", "sublime"}},
	{postprocess.AppChat, []string{"slack", "discord", "telegram", "signal", "element"}},
}

// CommandDetector runs an external window-introspection command (e.g. a
// compositor's IPC query tool) and classifies its output against
// categoryPatterns. A DICTD_APP_CATEGORY environment variable, when set,
// overrides detection entirely — useful for testing and for compositors
// with no supported introspection tool.
type CommandDetector struct {
	commandName string
	args        []string
	log         *logrus.Entry
}

// NewCommandDetector records commandName and its arguments; Detect resolves
// the tool via exec.LookPath on each call and falls back to AppGeneral
// whenever the tool is unavailable or its output matches nothing.
func NewCommandDetector(commandName string, args ...string) *CommandDetector {
	return &CommandDetector{
		commandName: commandName,
		args:        args,
		log:         logrus.WithField("component", "focus.detector"),
	}
}

// Detect returns the focused window's AppCategory, falling back to
// AppGeneral on any failure. Detection must never block the Processing
// step for long; callers should bound ctx.
func (d *CommandDetector) Detect(ctx context.Context) postprocess.AppCategory {
	if override := os.Getenv("DICTD_APP_CATEGORY"); override != "" {
		if cat, ok := parseCategory(override); ok {
			return cat
		}
	}

	path, err := exec.LookPath(d.commandName)
	if err != nil {
		d.log.Debug("focus introspection tool unavailable, defaulting to general")
		return postprocess.AppGeneral
	}

	out, err := exec.CommandContext(ctx, path, d.args...).Output()
	if err != nil {
		d.log.WithError(err).Debug("focus introspection command failed, defaulting to general")
		return postprocess.AppGeneral
	}

	return classify(string(out))
}

func classify(windowIdentifier string) postprocess.AppCategory {
	lower := strings.ToLower(windowIdentifier)
	for _, entry := range categoryPatterns {
		for _, p := range entry.patterns {
			if strings.Contains(lower, p) {
				return entry.category
			}
		}
	}
	return postprocess.AppGeneral
}

func parseCategory(s string) (postprocess.AppCategory, bool) {
	switch strings.ToLower(s) {
	case "terminal":
		return postprocess.AppTerminal, true
	case "browser":
		return postprocess.AppBrowser, true
	case "editor":
		return postprocess.AppEditor, true
	case "chat":
		return postprocess.AppChat, true
	case "general":
		return postprocess.AppGeneral, true
	default:
		return postprocess.AppGeneral, false
	}
}
