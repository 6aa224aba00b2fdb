// Package daemon implements the Idle/Recording/Processing state machine
// that owns the device manager, the preview and final transcription
// engines, and coordinates the audio/preview tasks, cancellation,
// drainage, and final typing.
package daemon

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/speakdesk/dictd/internal/audio"
	"github.com/speakdesk/dictd/internal/config"
	"github.com/speakdesk/dictd/internal/control"
	"github.com/speakdesk/dictd/internal/engine"
	"github.com/speakdesk/dictd/internal/focus"
	"github.com/speakdesk/dictd/internal/overlay"
	"github.com/speakdesk/dictd/internal/postprocess"
)

// State is one of the three daemon states.
type State string

const (
	StateIdle       State = "idle"
	StateRecording  State = "recording"
	StateProcessing State = "processing"
)

// Deps bundles every collaborator the Daemon orchestrates but does not
// construct itself — built and wired by cmd/dictd's main(). DeviceManager,
// Muxer, and EngineFactory are accepted as interfaces so the state machine
// can be exercised without real capture hardware or model files; production
// wiring passes the concrete *audio.DeviceManager, *audio.Muxer, and
// *engine.Factory, which all satisfy them.
type Deps struct {
	Config        config.Config
	DeviceManager deviceManager
	Muxer         muxerSource
	EngineFactory engineBuilder
	OverlayBus    *overlay.Bus
	StatusCh      overlay.StatusChannel
	FocusDetector focus.Detector
	Injector      keystrokeInjector
	Clipboard     clipboardCopier
}

// Daemon is the state machine. Only the state-machine goroutine touches
// DeviceManager, the session, and the final-engine handle; other tasks
// reach the session's Engine and the overlay bus only.
type Daemon struct {
	cfg config.Config

	deviceManager deviceManager
	muxer         muxerSource
	engineFactory engineBuilder
	overlayBus    *overlay.Bus
	statusCh      overlay.StatusChannel
	focusDetector focus.Detector
	injector      keystrokeInjector
	clipboard     clipboardCopier
	pipeline      *postprocess.Pipeline

	previewSpec engine.Spec
	finalSpec   engine.Spec

	mu      sync.Mutex
	state   State
	session *Session

	previewEngine engine.Engine

	finalMu     sync.RWMutex
	finalEngine engine.Engine

	log *logrus.Entry
}

var _ control.Commands = (*Daemon)(nil)

// New constructs a Daemon in the Idle state with the preview engine
// eagerly loaded (a preview-model load failure is returned so the caller
// can abort startup, per the error-handling taxonomy: "Start fails if the
// preview model is unavailable at startup" generalizes to daemon
// construction itself, since the preview engine is shared across every
// session's lifetime).
func New(deps Deps) (*Daemon, error) {
	previewSpec, err := engine.ParseSpec(deps.Config.PreviewModel)
	if err != nil {
		return nil, fmt.Errorf("daemon: preview model: %w", err)
	}
	finalSpec, err := engine.ParseSpec(deps.Config.FinalModel)
	if err != nil {
		return nil, fmt.Errorf("daemon: final model: %w", err)
	}

	previewEngine, err := deps.EngineFactory.Build(previewSpec)
	if err != nil {
		return nil, fmt.Errorf("daemon: load preview engine: %w", err)
	}

	pipelineCfg := postprocess.Config{
		EnableAcronyms:    deps.Config.EnableAcronyms,
		EnablePunctuation: deps.Config.EnablePunctuation,
		EnableGrammar:     deps.Config.EnableGrammar,
	}

	d := &Daemon{
		cfg:           deps.Config,
		deviceManager: deps.DeviceManager,
		muxer:         deps.Muxer,
		engineFactory: deps.EngineFactory,
		overlayBus:    deps.OverlayBus,
		statusCh:      deps.StatusCh,
		focusDetector: deps.FocusDetector,
		injector:      deps.Injector,
		clipboard:     deps.Clipboard,
		pipeline:      postprocess.New(pipelineCfg, nil, nil),
		previewSpec:   previewSpec,
		finalSpec:     finalSpec,
		previewEngine: previewEngine,
		state:         StateIdle,
		log:           logrus.WithField("component", "daemon"),
	}

	if previewSpec.Equal(finalSpec) {
		d.finalEngine = previewEngine
	}

	return d, nil
}

// SetPipeline replaces the post-processing pipeline. cmd/dictd calls it once
// at startup with the user dictionary's words; a later reload of the user
// dictionary files does not rebuild the pipeline.
func (d *Daemon) SetPipeline(p *postprocess.Pipeline) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pipeline = p
}

// currentPipeline returns the active pipeline under the state-machine
// lock, since SetPipeline can swap it concurrently with an in-flight
// session's audio/preview tasks or Processing pass.
func (d *Daemon) currentPipeline() *postprocess.Pipeline {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pipeline
}

// State reports the daemon's current state.
func (d *Daemon) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Status implements control.Commands.
func (d *Daemon) Status() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return string(d.state), d.session != nil
}

// HealthCheck implements control.Commands. The GUI overlay's health is
// reported unknown here — only the overlay process itself observes its
// own readiness, relayed via StatusCh; the monitor and audio subsystems
// are assessed directly.
func (d *Daemon) HealthCheck() (gui, monitor, audioStatus control.HealthStatus) {
	d.mu.Lock()
	state := d.state
	d.mu.Unlock()

	monitor = control.HealthHealthy

	audioStatus = control.HealthIdle
	if state == StateRecording {
		audioStatus = control.HealthHealthy
	}

	return control.HealthUnknown, monitor, audioStatus
}

// StartRecording implements control.Commands: Idle → Recording.
func (d *Daemon) StartRecording() error {
	d.mu.Lock()
	if d.state != StateIdle {
		d.mu.Unlock()
		return fmt.Errorf("daemon: StartRecording: not idle (state=%s)", d.state)
	}
	d.mu.Unlock()

	ctx := context.Background()

	drainStale(d.muxer.Output())

	if err := d.deviceManager.Start(ctx); err != nil {
		d.log.WithError(err).Error("device manager failed to start, staying idle")
		return err
	}

	d.previewEngine.Reset()

	d.overlayBus.Publish(overlay.Message{Type: overlay.MessageSetListening})

	sess := newSession(d.previewEngine)
	d.log.WithField("session_id", sess.ID).Info("recording started")
	sess.wg.Add(2)
	go d.audioTask(d.muxer.Output(), sess)
	go d.previewTask(sess)

	d.mu.Lock()
	d.state = StateRecording
	d.session = sess
	d.mu.Unlock()

	return nil
}

// drainStale discards any samples queued on the muxer's output channel
// from before the user asked to record.
func drainStale(out <-chan audio.Chunk) {
	for {
		select {
		case <-out:
		default:
			return
		}
	}
}

// StopRecording implements control.Commands: Recording → Idle.
func (d *Daemon) StopRecording() error {
	sess, err := d.beginSessionTeardown()
	if err != nil {
		return err
	}
	d.awaitSessionTasks(sess)

	d.overlayBus.Publish(overlay.Message{Type: overlay.MessageSetHidden})

	d.mu.Lock()
	d.state = StateIdle
	d.session = nil
	d.mu.Unlock()
	return nil
}

// Confirm implements control.Commands: Recording → Processing → Idle.
func (d *Daemon) Confirm() error {
	sess, err := d.beginSessionTeardown()
	if err != nil {
		return err
	}
	d.awaitSessionTasks(sess)

	d.mu.Lock()
	d.state = StateProcessing
	d.mu.Unlock()

	d.runProcessing(sess)

	d.mu.Lock()
	d.state = StateIdle
	d.session = nil
	d.mu.Unlock()
	return nil
}

// beginSessionTeardown implements the shared Recording→{Idle,Processing}
// preamble: stop the device, flush the muxer, fire the session's
// cancellation signal.
func (d *Daemon) beginSessionTeardown() (*Session, error) {
	d.mu.Lock()
	if d.state != StateRecording || d.session == nil {
		state := d.state
		d.mu.Unlock()
		return nil, fmt.Errorf("daemon: not recording (state=%s)", state)
	}
	sess := d.session
	d.mu.Unlock()

	if err := d.deviceManager.Stop(); err != nil {
		d.log.WithError(err).Warn("device manager stop failed")
	}
	d.deviceManager.Flush()

	sess.cancel.Fire(d.cfg.TrailingBufferDuration())

	return sess, nil
}

func (d *Daemon) awaitSessionTasks(sess *Session) {
	sess.wg.Wait()
}

// Shutdown implements control.Commands.
func (d *Daemon) Shutdown() error {
	d.mu.Lock()
	state := d.state
	sess := d.session
	d.mu.Unlock()

	if state == StateRecording && sess != nil {
		sess.cancel.Fire(d.cfg.TrailingBufferDuration())
		d.awaitSessionTasks(sess)
	}

	d.overlayBus.Publish(overlay.Message{Type: overlay.MessageExit})
	d.overlayBus.Stop()
	return nil
}

// CheckIdleTimeout should be called periodically (the 100ms Tick event)
// by the caller's main loop while Idle, forwarding to the device manager's
// idle-release policy.
func (d *Daemon) CheckIdleTimeout() bool {
	return d.deviceManager.CheckIdleTimeout()
}

// Run starts the device manager's hotplug supervision. Call once at
// startup; stop via ctx cancellation.
func (d *Daemon) Run(ctx context.Context) {
	d.deviceManager.Run(ctx)
}

// idleTickLoop periodically invokes CheckIdleTimeout while Idle on a 100ms
// tick. Intended to run as a background goroutine for the daemon's
// lifetime.
func (d *Daemon) idleTickLoop(ctx context.Context) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if d.State() == StateIdle {
				d.CheckIdleTimeout()
			}
		}
	}
}

// RunIdleTicks starts the idle-timeout poll loop in the background.
func (d *Daemon) RunIdleTicks(ctx context.Context) {
	go d.idleTickLoop(ctx)
}

// RunStatusLoop drains the overlay's status-report channel, logging
// transition failures and readiness events until ctx is done.
func (d *Daemon) RunStatusLoop(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-d.statusCh:
				if !ok {
					return
				}
				switch ev.Type {
				case overlay.StatusError:
					d.log.WithField("from", ev.From).WithField("to", ev.To).Error(ev.Err)
				default:
					d.log.WithField("from", ev.From).WithField("to", ev.To).Debug(string(ev.Type))
				}
			}
		}
	}()
}
