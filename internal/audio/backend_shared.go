package audio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/sirupsen/logrus"
)

const sharedFramesPerBuffer = 512

type sharedCmd int

const (
	sharedCmdStop sharedCmd = iota
	sharedCmdFlush
	sharedCmdQuit
)

// SharedBackend is the "Shared-native" audio backend variant, typified by
// PipeWire-class capture subsystems: it does not release devices on stop,
// enumerates audio sources (filtering monitor/loopback/HDMI), and opens one
// capture stream per remaining source, each identified by its PortAudio
// device name standing in for an object serial. Each stream's lifecycle
// runs on a dedicated goroutine driven by a bounded command channel.
type SharedBackend struct {
	cfg   BackendConfig
	muxer *Muxer

	mu       sync.Mutex
	sessions map[string]*sharedSession // keyed by device name, standing in for object serial
	started  bool

	log *logrus.Entry
}

type sharedSession struct {
	stream *portaudio.Stream
	id     StreamID
	cmd    chan sharedCmd
}

// NewSharedBackend builds a SharedBackend over muxer.
func NewSharedBackend(cfg BackendConfig, muxer *Muxer) *SharedBackend {
	return &SharedBackend{
		cfg:      cfg,
		muxer:    muxer,
		sessions: make(map[string]*sharedSession),
		log:      logrus.WithField("component", "audio.shared"),
	}
}

func (b *SharedBackend) ReleasesOnStop() bool { return false }

// Start enumerates capture devices (honoring DeviceName == "all" to include
// every hardware input plus the virtual default, or an exact-match single
// device otherwise) and opens one PortAudio stream per target.
func (b *SharedBackend) Start(ctx context.Context) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("audio: portaudio init: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	targets, err := b.resolveTargets()
	if err != nil {
		return err
	}

	sampleRate := float64(b.cfg.SampleRate)
	if sampleRate <= 0 {
		sampleRate = 16000
	}

	for _, device := range targets {
		key := device.Name
		if existing, ok := b.sessions[key]; ok {
			// Resume a session paused by Stop in place.
			if err := existing.stream.Start(); err != nil {
				b.log.WithError(err).WithField("device", device.Name).Warn("failed to resume shared stream")
			}
			continue
		}
		sess := &sharedSession{id: StreamID(device.Name), cmd: make(chan sharedCmd, 4)}

		params := portaudio.StreamParameters{
			Input: portaudio.StreamDeviceParameters{
				Device:   device,
				Channels: 1,
				Latency:  device.DefaultLowInputLatency,
			},
			SampleRate:      sampleRate,
			FramesPerBuffer: sharedFramesPerBuffer,
		}

		callback := b.makeCallback(sess.id)
		stream, err := portaudio.OpenStream(params, callback)
		if err != nil {
			b.log.WithError(err).WithField("device", device.Name).Warn("failed to open shared stream, skipping")
			continue
		}
		if err := stream.Start(); err != nil {
			b.log.WithError(err).WithField("device", device.Name).Warn("failed to start shared stream, skipping")
			stream.Close() //nolint:errcheck
			continue
		}

		sess.stream = stream
		b.sessions[key] = sess
		b.muxer.AddStream(sess.id)
		go b.runSession(sess)
		b.log.WithField("device", device.Name).Info("shared capture stream started")
	}

	b.started = true
	return nil
}

func (b *SharedBackend) makeCallback(id StreamID) func(in []float32) {
	return func(in []float32) {
		samples := float32ToInt16(in)
		b.muxer.PushSamples(id, samples)
	}
}

func (b *SharedBackend) runSession(s *sharedSession) {
	for cmd := range s.cmd {
		switch cmd {
		case sharedCmdStop:
			s.stream.Stop() //nolint:errcheck
		case sharedCmdFlush:
			// No-op at the session level; Muxer.Flush() is invoked once by
			// the backend, not per-session.
		case sharedCmdQuit:
			s.stream.Stop()  //nolint:errcheck
			s.stream.Close() //nolint:errcheck
			return
		}
	}
}

func (b *SharedBackend) resolveTargets() ([]*portaudio.DeviceInfo, error) {
	switch b.cfg.DeviceName {
	case "", "default":
		dev, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("default input device: %w", err)
		}
		return []*portaudio.DeviceInfo{dev}, nil
	case "all":
		devices, err := enumerateCaptureDevices()
		if err != nil {
			return nil, err
		}
		dflt, err := portaudio.DefaultInputDevice()
		if err == nil {
			devices = append([]*portaudio.DeviceInfo{dflt}, devices...)
		}
		return devices, nil
	default:
		devices, err := enumerateCaptureDevices()
		if err != nil {
			return nil, err
		}
		for _, d := range devices {
			if d.Name == b.cfg.DeviceName {
				return []*portaudio.DeviceInfo{d}, nil
			}
		}
		b.log.WithField("requested", b.cfg.DeviceName).Warn("audio device not found, falling back to default")
		dev, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("default input device: %w", err)
		}
		return []*portaudio.DeviceInfo{dev}, nil
	}
}

// Stop pauses every session's stream without closing the underlying device,
// consistent with ReleasesOnStop()==false.
func (b *SharedBackend) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.sessions {
		select {
		case s.cmd <- sharedCmdStop:
		default:
		}
	}
	return nil
}

// Flush flushes the muxer; shared-native streams keep running so no
// callback-drain sleep is required.
func (b *SharedBackend) Flush() {
	b.muxer.Flush()
}

// Close tears every session down and releases PortAudio entirely; used when
// the backend is actually discarded (hotplug recreation, final shutdown).
func (b *SharedBackend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for key, s := range b.sessions {
		s.cmd <- sharedCmdQuit
		close(s.cmd)
		delete(b.sessions, key)
	}
	if b.started {
		portaudio.Terminate() //nolint:errcheck
		b.started = false
	}
}
