package daemon

import (
	"context"
	"time"

	"github.com/speakdesk/dictd/internal/engine"
	"github.com/speakdesk/dictd/internal/overlay"
)

const closingDisplayDelay = 350 * time.Millisecond

// runProcessing implements the one-shot Processing-state sequence: signal
// the overlay before any blocking work, obtain the raw final text (reusing
// the preview's cached text when preview and final models are identical,
// otherwise running the final engine), post-process, sanitize for the
// focused app, copy to the clipboard, inject as keystrokes, then signal
// closing and return to Idle.
func (d *Daemon) runProcessing(sess *Session) {
	ctx := context.Background()

	d.overlayBus.Publish(overlay.Message{Type: overlay.MessageSetProcessing})

	rawText, err := d.finalText(ctx, sess)
	if err != nil {
		d.log.WithError(err).Error("final engine failed, aborting processing")
		d.overlayBus.Publish(overlay.Message{Type: overlay.MessageSetHidden})
		return
	}

	processed := d.currentPipeline().RunFinal(rawText)
	category := d.focusDetector.Detect(ctx)
	sanitized := d.currentPipeline().Sanitize(processed, category)

	d.clipboard.Copy(sanitized)

	if err := d.injector.Type(ctx, sanitized); err != nil {
		d.log.WithError(err).Warn("keystroke injection failed, clipboard preserved")
	}

	d.overlayBus.Publish(overlay.Message{Type: overlay.MessageSetClosing})
	time.Sleep(closingDisplayDelay)
	d.overlayBus.Publish(overlay.Message{Type: overlay.MessageSetHidden})
}

// finalText resolves the raw text to post-process: the preview engine's
// cached text directly when preview and final specs are identical (no
// re-inference), otherwise a fresh final-engine pass over the session's
// full audio buffer.
func (d *Daemon) finalText(ctx context.Context, sess *Session) (string, error) {
	if d.previewSpec.Equal(d.finalSpec) {
		return sess.Engine.GetCurrentText(), nil
	}

	finalEngine, err := d.getOrLoadFinalEngine()
	if err != nil {
		return "", err
	}

	buf := sess.Engine.GetAudioBuffer()
	finalEngine.Reset()
	if err := finalEngine.ProcessAudio(buf); err != nil {
		return "", err
	}
	return finalEngine.GetFinalResult(ctx)
}

// getOrLoadFinalEngine lazily loads the final engine on first Confirm and
// reuses it thereafter. A load failure aborts the Processing cycle.
func (d *Daemon) getOrLoadFinalEngine() (engine.Engine, error) {
	d.finalMu.RLock()
	eng := d.finalEngine
	d.finalMu.RUnlock()
	if eng != nil {
		return eng, nil
	}

	d.finalMu.Lock()
	defer d.finalMu.Unlock()
	if d.finalEngine != nil {
		return d.finalEngine, nil
	}

	built, err := d.engineFactory.Build(d.finalSpec)
	if err != nil {
		return nil, err
	}
	d.finalEngine = built
	return built, nil
}
