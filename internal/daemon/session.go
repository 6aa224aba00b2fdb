package daemon

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/speakdesk/dictd/internal/engine"
)

// Session is the per-recording entity: its start time, the preview engine
// handle it owns for the recording's duration, and the cancellation signal
// the audio and preview tasks watch. Created on StartRecording, destroyed
// on return to Idle. ID is for log correlation across the audio/preview
// tasks and the Processing pass.
type Session struct {
	ID        string
	StartedAt time.Time
	Engine    engine.Engine
	cancel    *cancelSignal

	wg sync.WaitGroup
}

func newSession(eng engine.Engine) *Session {
	return &Session{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		Engine:    eng,
		cancel:    newCancelSignal(),
	}
}
