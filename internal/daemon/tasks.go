package daemon

import (
	"time"

	"github.com/speakdesk/dictd/internal/audio"
	"github.com/speakdesk/dictd/internal/overlay"
)

const (
	spectrumChunkSamples = 512
	previewTickInterval  = 100 * time.Millisecond
	vadSettleWindow      = 300 * time.Millisecond
)

// audioTask drains the muxer's output channel into sess.Engine until the
// session's cancellation signal fires, then keeps consuming until the
// trailing deadline it arms is reached. Forwards fixed-size chunks of the
// raw samples to the overlay as spectrum frames for visualization.
func (d *Daemon) audioTask(out <-chan audio.Chunk, sess *Session) {
	defer sess.wg.Done()

	cancelCh := sess.cancel.Done()
	var spectrumBuf []int16

	for {
		var timeout <-chan time.Time
		if deadline, fired := sess.cancel.Deadline(); fired {
			if !time.Now().Before(deadline) {
				return
			}
			timeout = time.After(time.Until(deadline))
		}

		select {
		case <-cancelCh:
			sess.cancel.Fire(d.cfg.TrailingBufferDuration())
			cancelCh = nil // already observed; avoid re-selecting a closed channel forever

		case chunk, ok := <-out:
			if !ok {
				return
			}
			if err := sess.Engine.ProcessAudio(chunk.Samples); err != nil {
				d.log.WithError(err).Debug("engine failed to process audio chunk")
			}
			spectrumBuf = append(spectrumBuf, chunk.Samples...)
			for len(spectrumBuf) >= spectrumChunkSamples {
				d.overlayBus.Publish(overlay.Message{
					Type: overlay.MessageUpdateSpectrum,
					Data: append([]int16(nil), spectrumBuf[:spectrumChunkSamples]...),
				})
				spectrumBuf = spectrumBuf[spectrumChunkSamples:]
			}

		case <-timeout:
			return
		}
	}
}

// previewTask polls Engine.GetCurrentText every previewTickInterval, runs
// preview post-processing, and emits UpdateTranscription and UpdateVadState
// to the overlay. "Is speaking" means the preview text is non-empty; "text
// settled" means it has not changed for vadSettleWindow. Exits as soon as
// the session's cancellation signal fires.
func (d *Daemon) previewTask(sess *Session) {
	defer sess.wg.Done()

	ticker := time.NewTicker(previewTickInterval)
	defer ticker.Stop()

	var lastText string
	var lastChange time.Time

	for {
		select {
		case <-sess.cancel.Done():
			return
		case <-ticker.C:
			text := d.currentPipeline().RunPreview(sess.Engine.GetCurrentText())
			now := time.Now()
			if text != lastText {
				lastText = text
				lastChange = now
			}
			settled := !lastChange.IsZero() && now.Sub(lastChange) >= vadSettleWindow
			speaking := text != ""

			d.overlayBus.Publish(overlay.Message{
				Type: overlay.MessageUpdateTranscription,
				Data: overlay.UpdateTranscriptionData{Text: text, IsFinal: false},
			})
			d.overlayBus.Publish(overlay.Message{
				Type: overlay.MessageUpdateVadState,
				Data: overlay.UpdateVadStateData{IsSpeaking: speaking, TextSettled: settled},
			})
		}
	}
}
