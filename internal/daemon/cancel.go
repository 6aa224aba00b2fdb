package daemon

import (
	"sync"
	"time"
)

// cancelSignal is the watch-style signal shared by the audio and preview
// tasks of one session: firing it does not abort either task immediately,
// it arms a trailing deadline the audio task keeps consuming samples
// until.
type cancelSignal struct {
	mu        sync.Mutex
	fired     bool
	deadline  time.Time
	doneCh    chan struct{}
}

func newCancelSignal() *cancelSignal {
	return &cancelSignal{doneCh: make(chan struct{})}
}

// Fire arms the trailing deadline trailing after now and closes Done(), if
// not already fired. Idempotent.
func (c *cancelSignal) Fire(trailing time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fired {
		return
	}
	c.fired = true
	c.deadline = time.Now().Add(trailing)
	close(c.doneCh)
}

// Done returns a channel closed the instant Fire is called.
func (c *cancelSignal) Done() <-chan struct{} {
	return c.doneCh
}

// Deadline returns the trailing deadline and whether Fire has been called.
func (c *cancelSignal) Deadline() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deadline, c.fired
}
