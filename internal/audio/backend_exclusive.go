package audio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/sirupsen/logrus"
)

const exclusiveFramesPerBuffer = 512

// ExclusiveBackend is the "Exclusive-ish" audio backend variant, typified by
// ALSA-class capture subsystems: it opens a single PortAudio input stream
// and releases it entirely on Stop. It pre-filters obviously-silent chunks
// in the callback to reduce muxer load and logs each stream's first
// callback error exactly once, via the status flags PortAudio's native
// callback contract passes alongside every buffer.
type ExclusiveBackend struct {
	cfg   BackendConfig
	muxer *Muxer

	mu       sync.Mutex
	stream   *portaudio.Stream
	streamID StreamID

	logErrOnce sync.Once
	log        *logrus.Entry
}

// NewExclusiveBackend builds an ExclusiveBackend that forwards captured
// samples into muxer under the stream id "default".
func NewExclusiveBackend(cfg BackendConfig, muxer *Muxer) *ExclusiveBackend {
	return &ExclusiveBackend{
		cfg:      cfg,
		muxer:    muxer,
		streamID: StreamID("default"),
		log:      logrus.WithField("component", "audio.exclusive"),
	}
}

func (b *ExclusiveBackend) ReleasesOnStop() bool { return true }

// Start opens the configured device and begins streaming samples into the
// muxer. Device resolution is done by resolveInputDevice: "default"/unset
// uses PortAudio's default input device (fast path, no enumeration); any
// other name is matched exactly against the enumerated input devices, and a
// name with no match (including "all") falls back to the default device
// with a warning. This backend always opens a single stream.
//
// Open-ended: behavior when the OS default device changes mid-session is
// not specified by the system this implements; recorded as future work
// rather than guessed at here.
func (b *ExclusiveBackend) Start(ctx context.Context) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("audio: portaudio init: %w", err)
	}

	sampleRate := float64(b.cfg.SampleRate)
	if sampleRate <= 0 {
		sampleRate = 16000
	}

	device, err := resolveInputDevice(b.cfg.DeviceName)
	if err != nil {
		portaudio.Terminate() //nolint:errcheck
		return fmt.Errorf("audio: resolve device %q: %w", b.cfg.DeviceName, err)
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: 1,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      sampleRate,
		FramesPerBuffer: exclusiveFramesPerBuffer,
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	stream, err := portaudio.OpenStream(params, b.callback)
	if err != nil {
		portaudio.Terminate() //nolint:errcheck
		return fmt.Errorf("audio: open stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close() //nolint:errcheck
		portaudio.Terminate() //nolint:errcheck
		return fmt.Errorf("audio: start stream: %w", err)
	}

	b.stream = stream
	b.muxer.AddStream(b.streamID)
	b.log.WithField("device", device.Name).Info("exclusive capture started")
	return nil
}

// callback additionally takes the time info and status flags PortAudio's C
// callback contract always carries; portaudio-go resolves the form to use
// by reflecting on the registered function's signature.
func (b *ExclusiveBackend) callback(in []float32, _ portaudio.StreamCallbackTimeInfo, flags portaudio.StreamCallbackFlags) {
	if flags&(portaudio.InputUnderflow|portaudio.InputOverflow) != 0 {
		b.logFirstError(fmt.Errorf("audio: portaudio callback status flags: %v", flags))
	}

	samples := float32ToInt16(in)

	// SilenceThresholdLin is a full-scale fraction, so compare it against
	// the RMS normalized the same way.
	rms := rms16(samples) / 32768
	if b.cfg.SilenceThresholdLin > 0 && rms < b.cfg.SilenceThresholdLin {
		return
	}

	b.muxer.PushSamples(b.streamID, samples)
}

func (b *ExclusiveBackend) logFirstError(err error) {
	b.logErrOnce.Do(func() {
		b.log.WithError(err).Error("first callback error on this stream")
	})
}

func (b *ExclusiveBackend) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stream == nil {
		return nil
	}
	if err := b.stream.Stop(); err != nil {
		return fmt.Errorf("audio: stop stream: %w", err)
	}
	if err := b.stream.Close(); err != nil {
		b.log.WithError(err).Warn("error closing stream")
	}
	b.stream = nil
	portaudio.Terminate() //nolint:errcheck
	return nil
}

// Flush sleeps briefly to let in-flight callbacks drain, then flushes the
// muxer.
func (b *ExclusiveBackend) Flush() {
	time.Sleep(50 * time.Millisecond)
	b.muxer.Flush()
}

func float32ToInt16(in []float32) []int16 {
	out := make([]int16, len(in))
	for i, v := range in {
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		out[i] = int16(v * 32767)
	}
	return out
}
