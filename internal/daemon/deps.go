package daemon

import (
	"context"

	"github.com/speakdesk/dictd/internal/audio"
	"github.com/speakdesk/dictd/internal/engine"
	"github.com/speakdesk/dictd/internal/inject"
)

// deviceManager is the subset of *audio.DeviceManager the state machine
// drives. Narrowed to an interface so tests can exercise state
// transitions without a real capture backend.
type deviceManager interface {
	Start(ctx context.Context) error
	Stop() error
	Flush()
	CheckIdleTimeout() bool
	Run(ctx context.Context)
}

// muxerSource is the subset of *audio.Muxer the audio task and
// StartRecording's stale-sample drain need.
type muxerSource interface {
	Output() <-chan audio.Chunk
}

// engineBuilder is the subset of *engine.Factory the daemon needs to
// resolve engine:model specs into Engine instances.
type engineBuilder interface {
	Build(spec engine.Spec) (engine.Engine, error)
}

// keystrokeInjector is the subset of *inject.Injector the Processing step
// needs.
type keystrokeInjector interface {
	Type(ctx context.Context, text string) error
}

// clipboardCopier is the subset of *inject.Clipboard the Processing step
// needs.
type clipboardCopier interface {
	Copy(text string)
}

var (
	_ deviceManager     = (*audio.DeviceManager)(nil)
	_ muxerSource       = (*audio.Muxer)(nil)
	_ engineBuilder     = (*engine.Factory)(nil)
	_ keystrokeInjector = (*inject.Injector)(nil)
	_ clipboardCopier   = (*inject.Clipboard)(nil)
)
