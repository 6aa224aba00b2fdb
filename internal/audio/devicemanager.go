package audio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/thejerf/suture/v4"
)

const (
	startRetries   = 3
	startRetryWait = 500 * time.Millisecond
)

// DeviceManagerConfig carries the policy knobs for backend lifecycle:
// idle-release timeout and which backend variant to prefer.
type DeviceManagerConfig struct {
	Backend           BackendConfig
	BackendKind        BackendKind
	IdleReleaseTimeout time.Duration // 0 releases immediately on stop
}

// BackendKind selects which concrete Audio Backend variant to construct.
type BackendKind int

const (
	BackendAuto BackendKind = iota
	BackendExclusive
	BackendShared
)

// DeviceManager is a lifecycle wrapper over one Audio Backend: it owns
// pre-creation, start/stop, the idle-release timer, and hotplug-triggered
// recreation with bounded retry. It is owned exclusively by the daemon's
// state-machine task; no other task touches it.
type DeviceManager struct {
	cfg   DeviceManagerConfig
	muxer *Muxer

	mu             sync.Mutex
	backend        Backend
	stoppedAt      time.Time
	hasStoppedAt   bool
	needsRecreate  bool

	hotplug *hotplugWatcher
	log     *logrus.Entry
}

// NewDeviceManager builds a DeviceManager over muxer, with an optional
// hotplug watcher rooted at watchPath (typically "/dev/snd"; pass "" to
// disable).
func NewDeviceManager(cfg DeviceManagerConfig, muxer *Muxer, watchPath string) *DeviceManager {
	dm := &DeviceManager{
		cfg:   cfg,
		muxer: muxer,
		log:   logrus.WithField("component", "devicemanager"),
	}
	if watchPath != "" {
		dm.hotplug = newHotplugWatcher(watchPath, dm.onHotplug)
	}
	return dm
}

func (dm *DeviceManager) onHotplug() {
	dm.mu.Lock()
	dm.needsRecreate = true
	dm.mu.Unlock()
	dm.log.Info("hotplug event observed, backend will recreate on next Start")
}

// Run starts the hotplug watcher under a suture supervisor, if configured,
// so a dead fsnotify watch is restarted with backoff instead of leaving
// hotplug detection silently disabled for the rest of the process
// lifetime. Call once at daemon startup; stop via ctx cancellation.
func (dm *DeviceManager) Run(ctx context.Context) {
	if dm.hotplug == nil {
		return
	}
	supervisor := suture.NewSimple("audio-hotplug")
	supervisor.Add(dm.hotplug)
	go supervisor.Serve(ctx)
}

// Start clears any pending idle timer; if no backend exists (or one needs
// recreating after a hotplug event), creates one with up to 3 retries at
// 500ms delay, then starts it.
func (dm *DeviceManager) Start(ctx context.Context) error {
	dm.mu.Lock()
	dm.hasStoppedAt = false

	if dm.backend != nil && dm.needsRecreate {
		dm.discardBackendLocked()
	}
	dm.needsRecreate = false

	backend := dm.backend
	dm.mu.Unlock()

	if backend != nil {
		if err := backend.Start(ctx); err != nil {
			return fmt.Errorf("devicemanager: backend start: %w", err)
		}
		return nil
	}

	backend, err := dm.createAndStartWithRetry(ctx)
	if err != nil {
		return fmt.Errorf("devicemanager: start: %w", err)
	}
	dm.mu.Lock()
	dm.backend = backend
	dm.mu.Unlock()
	return nil
}

// createAndStartWithRetry builds a fresh backend and starts it, retrying up
// to startRetries times with startRetryWait between attempts on failure.
// Device creation itself cannot fail for these backends (errors surface
// from Start, e.g. transient enumeration failures), so each attempt
// constructs a new backend instance before starting it.
func (dm *DeviceManager) createAndStartWithRetry(ctx context.Context) (Backend, error) {
	var lastErr error
	for attempt := 0; attempt < startRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(startRetryWait)
		}
		backend := dm.newBackend()
		if err := backend.Start(ctx); err != nil {
			lastErr = err
			dm.log.WithError(err).WithField("attempt", attempt+1).Warn("backend start failed, retrying")
			continue
		}
		return backend, nil
	}
	return nil, fmt.Errorf("exhausted %d retries: %w", startRetries, lastErr)
}

func (dm *DeviceManager) newBackend() Backend {
	kind := dm.cfg.BackendKind
	if kind == BackendAuto {
		kind = resolveAutoBackend()
	}
	switch kind {
	case BackendShared:
		return NewSharedBackend(dm.cfg.Backend, dm.muxer)
	default:
		return NewExclusiveBackend(dm.cfg.Backend, dm.muxer)
	}
}

// resolveAutoBackend picks the "auto" backend kind: prefer shared-native
// when available, falling back deterministically to exclusive otherwise.
func resolveAutoBackend() BackendKind {
	if devices, err := enumerateCaptureDevices(); err == nil && len(devices) > 0 {
		return BackendShared
	}
	return BackendExclusive
}

// Stop stops the backend; if ReleasesOnStop() and IdleReleaseTimeout > 0 it
// records a stop timestamp for later idle-timeout release. If the timeout
// is 0, the backend is released immediately. Sharing-capable backends are
// kept alive regardless.
func (dm *DeviceManager) Stop() error {
	dm.mu.Lock()
	backend := dm.backend
	dm.mu.Unlock()

	if backend == nil {
		return nil
	}
	if err := backend.Stop(); err != nil {
		return fmt.Errorf("devicemanager: stop: %w", err)
	}

	dm.mu.Lock()
	defer dm.mu.Unlock()

	if !backend.ReleasesOnStop() {
		return nil
	}
	if dm.cfg.IdleReleaseTimeout <= 0 {
		dm.discardBackendLocked()
		return nil
	}
	dm.stoppedAt = time.Now()
	dm.hasStoppedAt = true
	return nil
}

// Flush forwards to the current backend, if any.
func (dm *DeviceManager) Flush() {
	dm.mu.Lock()
	backend := dm.backend
	dm.mu.Unlock()
	if backend != nil {
		backend.Flush()
	}
}

// CheckIdleTimeout is called periodically from the state machine; if
// elapsed time since the recorded stop reaches IdleReleaseTimeout, it drops
// the backend. Returns whether a release happened.
func (dm *DeviceManager) CheckIdleTimeout() bool {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if !dm.hasStoppedAt || dm.cfg.IdleReleaseTimeout <= 0 {
		return false
	}
	if time.Since(dm.stoppedAt) < dm.cfg.IdleReleaseTimeout {
		return false
	}
	dm.discardBackendLocked()
	return true
}

// discardBackendLocked drops the owned backend. Samples from the old
// backend are discarded; callers must hold dm.mu.
func (dm *DeviceManager) discardBackendLocked() {
	if closer, ok := dm.backend.(*SharedBackend); ok {
		closer.Close()
	}
	dm.backend = nil
	dm.hasStoppedAt = false
}
