package daemon

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speakdesk/dictd/internal/audio"
	"github.com/speakdesk/dictd/internal/config"
	"github.com/speakdesk/dictd/internal/engine"
	"github.com/speakdesk/dictd/internal/overlay"
	"github.com/speakdesk/dictd/internal/postprocess"
)

// fakeDeviceManager is a no-op deviceManager for state-machine tests that
// don't need real capture hardware.
type fakeDeviceManager struct {
	startErr  error
	startCalls int
	stopCalls  int
}

func (f *fakeDeviceManager) Start(ctx context.Context) error {
	f.startCalls++
	return f.startErr
}
func (f *fakeDeviceManager) Stop() error { f.stopCalls++; return nil }
func (f *fakeDeviceManager) Flush()      {}
func (f *fakeDeviceManager) CheckIdleTimeout() bool { return false }
func (f *fakeDeviceManager) Run(ctx context.Context) {}

// fakeMuxer exposes a channel test code can push audio.Chunk values onto.
type fakeMuxer struct {
	out chan audio.Chunk
}

func newFakeMuxer() *fakeMuxer {
	return &fakeMuxer{out: make(chan audio.Chunk, 16)}
}

func (f *fakeMuxer) Output() <-chan audio.Chunk { return f.out }

// fakeEngineBuilder returns a single shared StreamingEngine instance
// regardless of spec, with an injectable recognizer.
type fakeEngineBuilder struct {
	recognize func([]int16) (string, error)
}

func (f *fakeEngineBuilder) Build(spec engine.Spec) (engine.Engine, error) {
	return engine.NewStreamingEngine(f.recognize), nil
}

type fakeFocusDetector struct {
	category postprocess.AppCategory
}

func (f *fakeFocusDetector) Detect(ctx context.Context) postprocess.AppCategory {
	return f.category
}

type fakeInjector struct {
	calls []string
}

func (f *fakeInjector) Type(ctx context.Context, text string) error {
	f.calls = append(f.calls, text)
	return nil
}

type fakeClipboard struct {
	copied []string
}

func (f *fakeClipboard) Copy(text string) {
	f.copied = append(f.copied, text)
}

func testConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.PreviewModel = "faststream:default"
	cfg.FinalModel = "faststream:default"
	cfg.TrailingBufferMs = 20
	return cfg
}

func newTestDaemon(t *testing.T, dm *fakeDeviceManager, mx *fakeMuxer, eb *fakeEngineBuilder, inj *fakeInjector, cb *fakeClipboard, cat postprocess.AppCategory) *Daemon {
	t.Helper()
	d, err := New(Deps{
		Config:        testConfig(),
		DeviceManager: dm,
		Muxer:         mx,
		EngineFactory: eb,
		OverlayBus:    overlay.NewBus(32),
		StatusCh:      overlay.NewStatusChannel(4),
		FocusDetector: &fakeFocusDetector{category: cat},
		Injector:      inj,
		Clipboard:     cb,
	})
	require.NoError(t, err)
	return d
}

// TestIdleStartStopNoAudio: StartRecording, no samples arrive,
// StopRecording shortly after. Expect Idle→Recording→Idle, no typing.
func TestIdleStartStopNoAudio(t *testing.T) {
	dm := &fakeDeviceManager{}
	mx := newFakeMuxer()
	eb := &fakeEngineBuilder{}
	inj := &fakeInjector{}
	cb := &fakeClipboard{}

	d := newTestDaemon(t, dm, mx, eb, inj, cb, postprocess.AppGeneral)

	assert.Equal(t, StateIdle, d.State())

	require.NoError(t, d.StartRecording())
	assert.Equal(t, StateRecording, d.State())

	time.Sleep(10 * time.Millisecond)

	require.NoError(t, d.StopRecording())
	assert.Equal(t, StateIdle, d.State())
	assert.Empty(t, inj.calls)
	assert.Equal(t, 1, dm.startCalls)
	assert.Equal(t, 1, dm.stopCalls)
}

// TestStartRecordingFailureStaysIdle covers the "persistent backend
// failure leaves state Idle" failure-semantics rule.
func TestStartRecordingFailureStaysIdle(t *testing.T) {
	dm := &fakeDeviceManager{startErr: errBoom}
	mx := newFakeMuxer()
	eb := &fakeEngineBuilder{}
	d := newTestDaemon(t, dm, mx, eb, &fakeInjector{}, &fakeClipboard{}, postprocess.AppGeneral)

	assert.Error(t, d.StartRecording())
	assert.Equal(t, StateIdle, d.State())
}

// TestShortUtteranceIdenticalModels: preview and final models identical,
// some speech, Confirm. Final text should equal post-processed preview
// text with no second inference pass, and the injector fires exactly once.
func TestShortUtteranceIdenticalModels(t *testing.T) {
	dm := &fakeDeviceManager{}
	mx := newFakeMuxer()
	eb := &fakeEngineBuilder{recognize: func(samples []int16) (string, error) {
		return "hello world", nil
	}}
	inj := &fakeInjector{}
	cb := &fakeClipboard{}

	d := newTestDaemon(t, dm, mx, eb, inj, cb, postprocess.AppGeneral)

	require.NoError(t, d.StartRecording())

	mx.out <- audio.Chunk{Stream: "default", Samples: make([]int16, 800)}
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, d.Confirm())
	assert.Equal(t, StateIdle, d.State())
	require.Len(t, inj.calls, 1)
	require.Len(t, cb.copied, 1)
	assert.Equal(t, "Hello world", inj.calls[0])
}

// TestConfirmFromIdleReturnsError: Confirm only succeeds from Recording.
func TestConfirmFromIdleReturnsError(t *testing.T) {
	dm := &fakeDeviceManager{}
	mx := newFakeMuxer()
	eb := &fakeEngineBuilder{}
	d := newTestDaemon(t, dm, mx, eb, &fakeInjector{}, &fakeClipboard{}, postprocess.AppGeneral)

	assert.Error(t, d.Confirm())
}

// TestStatusReflectsSessionActivity exercises the control surface's
// Status() passthrough.
func TestStatusReflectsSessionActivity(t *testing.T) {
	dm := &fakeDeviceManager{}
	mx := newFakeMuxer()
	eb := &fakeEngineBuilder{}
	d := newTestDaemon(t, dm, mx, eb, &fakeInjector{}, &fakeClipboard{}, postprocess.AppGeneral)

	state, active := d.Status()
	assert.Equal(t, "idle", state)
	assert.False(t, active)

	require.NoError(t, d.StartRecording())
	state, active = d.Status()
	assert.Equal(t, "recording", state)
	assert.True(t, active)
	_ = d.StopRecording()
}

var errBoom = fakeErr("boom")

type fakeErr string

func (e fakeErr) Error() string { return string(e) }
