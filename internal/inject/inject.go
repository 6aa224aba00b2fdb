// Package inject wraps the two external command-line tools the daemon
// invokes as separate processes at the end of a Processing cycle: a
// keystroke-injection tool and a clipboard-copy tool. Neither tool's
// presence is assumed; both degrade to a logged warning when missing.
package inject

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/sirupsen/logrus"
)

// Injector types the focused-window text-typing tool (e.g. ydotool/wtype
// on Wayland) invoked once per Confirm.
type Injector struct {
	path string
	log  *logrus.Entry
}

// NewInjector resolves toolName via exec.LookPath. A missing tool is not an
// error here — Available() reports it, and Type logs a warning and skips
// injection, consistent with the degrade-with-a-logged-warning policy for
// external tools.
func NewInjector(toolName string) *Injector {
	path, _ := exec.LookPath(toolName)
	return &Injector{path: path, log: logrus.WithField("component", "inject.keystroke")}
}

// Available reports whether the keystroke tool was found in PATH.
func (i *Injector) Available() bool {
	return i.path != ""
}

// Type invokes the keystroke tool to type text into the focused window.
func (i *Injector) Type(ctx context.Context, text string) error {
	if !i.Available() {
		i.log.Warn("keystroke tool unavailable, skipping injection")
		return nil
	}

	cmd := exec.CommandContext(ctx, i.path, text)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("inject: keystroke tool failed: %w: %s", err, stderr.String())
	}
	return nil
}

// Clipboard types the clipboard-copy tool (e.g. wl-copy) invoked once per
// Confirm, non-blockingly, before keystroke injection.
type Clipboard struct {
	path string
	log  *logrus.Entry
}

// NewClipboard resolves toolName via exec.LookPath.
func NewClipboard(toolName string) *Clipboard {
	path, _ := exec.LookPath(toolName)
	return &Clipboard{path: path, log: logrus.WithField("component", "inject.clipboard")}
}

// Available reports whether the clipboard tool was found in PATH.
func (c *Clipboard) Available() bool {
	return c.path != ""
}

// Copy spawns the clipboard tool with text on stdin and does not wait for
// it to exit; clipboard failures are non-fatal per the error-handling
// policy, so a spawn failure is only logged.
func (c *Clipboard) Copy(text string) {
	if !c.Available() {
		c.log.Warn("clipboard tool unavailable, skipping copy")
		return
	}

	cmd := exec.Command(c.path)
	cmd.Stdin = bytes.NewBufferString(text)
	if err := cmd.Start(); err != nil {
		c.log.WithError(err).Warn("failed to spawn clipboard tool")
		return
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			c.log.WithError(err).Debug("clipboard tool exited with error")
		}
	}()
}
