package audio

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// StreamID is an opaque stable identifier of a capture stream, usually a
// device label. Supplied by the backend; immutable for the stream's life.
type StreamID string

// MuxerConfig tunes the scoring cadence and the selector's hysteresis.
type MuxerConfig struct {
	SampleRate        int
	ScoreIntervalMs   int // minimum new samples (as ms) between rescoring a stream
	ScoringWindowMs   int // window size used to compute a score
	RingBufferFactor  int // ring buffer capacity as a multiple of the scoring window
	Selector          SelectorConfig
	OutputQueueLength int
}

// DefaultMuxerConfig returns the baseline defaults: 50ms score interval, 2x
// scoring-window ring buffers, a 100-entry output queue.
func DefaultMuxerConfig(sampleRate int) MuxerConfig {
	return MuxerConfig{
		SampleRate:        sampleRate,
		ScoreIntervalMs:   50,
		ScoringWindowMs:   50,
		RingBufferFactor:  2,
		Selector:          DefaultSelectorConfig(),
		OutputQueueLength: 100,
	}
}

type streamState struct {
	ring             *ringBuffer
	samplesSinceScore int
	envelopeBuf      []float64
}

// Chunk is an ordered sequence of samples forwarded downstream, tagged with
// the stream id it originated from.
type Chunk struct {
	Stream  StreamID
	Samples []int16
}

// Muxer orchestrates per-stream ring buffers, the Quality Scorer, and the
// Stream Selector; it forwards only the selected stream's samples
// downstream. It is the only component that crosses the realtime/async
// boundary for audio data: PushSamples is called from realtime capture
// callbacks, while Output() is drained by the daemon's per-session audio
// task goroutine.
type Muxer struct {
	cfg MuxerConfig

	mu       sync.Mutex
	streams  map[StreamID]*streamState
	selector *Selector

	output chan Chunk

	log *logrus.Entry
}

// NewMuxer creates a Muxer with the given config; non-positive fields fall
// back to built-in defaults.
func NewMuxer(cfg MuxerConfig) *Muxer {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.ScoreIntervalMs <= 0 {
		cfg.ScoreIntervalMs = 50
	}
	if cfg.ScoringWindowMs <= 0 {
		cfg.ScoringWindowMs = 50
	}
	if cfg.RingBufferFactor <= 0 {
		cfg.RingBufferFactor = 2
	}
	if cfg.OutputQueueLength <= 0 {
		cfg.OutputQueueLength = 100
	}
	return &Muxer{
		cfg:      cfg,
		streams:  make(map[StreamID]*streamState),
		selector: NewSelector(cfg.Selector),
		output:   make(chan Chunk, cfg.OutputQueueLength),
		log:      logrus.WithField("component", "muxer"),
	}
}

// Output returns the channel downstream consumers drain forwarded chunks
// from.
func (m *Muxer) Output() <-chan Chunk {
	return m.output
}

// AddStream registers a stream id so its buffer exists before the first
// sample arrives. Safe to call redundantly.
func (m *Muxer) AddStream(id StreamID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureStream(id)
}

func (m *Muxer) ensureStream(id StreamID) *streamState {
	st, ok := m.streams[id]
	if !ok {
		window := m.cfg.SampleRate * m.cfg.ScoringWindowMs / 1000
		if window <= 0 {
			window = 1
		}
		st = &streamState{ring: newRingBuffer(window * m.cfg.RingBufferFactor)}
		m.streams[id] = st
	}
	return st
}

// CurrentStream returns the selector's currently selected stream, if any.
func (m *Muxer) CurrentStream() (StreamID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selector.Current()
}

// PushSamples stores samples in id's ring buffer. If enough new samples have
// accumulated since the last score for id, every stream with at least one
// full scoring window re-scores and the selector re-evaluates. Regardless of
// scoring, the pushed samples are forwarded to the output queue via a
// non-blocking try-send iff the selector's current stream equals id.
//
// This is a realtime-callback-facing method: it must not block. The mutex
// critical section is bounded (append + optional score pass over buffered
// data already in memory).
func (m *Muxer) PushSamples(id StreamID, samples []int16) {
	m.mu.Lock()

	st := m.ensureStream(id)
	st.ring.Write(samples)
	st.samplesSinceScore += len(samples)

	scoreIntervalSamples := m.cfg.SampleRate * m.cfg.ScoreIntervalMs / 1000
	windowSamples := m.cfg.SampleRate * m.cfg.ScoringWindowMs / 1000

	if st.samplesSinceScore >= scoreIntervalSamples {
		scores := make(map[StreamID]float64, len(m.streams))
		for sid, s := range m.streams {
			if s.ring.Len() < windowSamples {
				continue
			}
			snap := s.ring.Snapshot()
			var score float64
			score, s.envelopeBuf = Score(snap, m.cfg.SampleRate, s.envelopeBuf)
			scores[sid] = score
		}
		st.samplesSinceScore = 0
		if len(scores) > 0 {
			current, _ := m.selector.Select(scores, time.Now())
			m.log.WithFields(logrus.Fields{"current": current, "scores": scores}).Debug("selector re-evaluated")
		}
	}

	current, hasCurrent := m.selector.Current()
	m.mu.Unlock()

	if hasCurrent && current == id {
		select {
		case m.output <- Chunk{Stream: id, Samples: samples}:
		default:
			m.log.WithField("stream", id).Debug("output queue full, dropping chunk")
		}
	}
}

// Flush drains all non-selected buffers to the output queue with a blocking
// send (the selected stream's samples were already forwarded as they
// arrived), then empties all buffers.
func (m *Muxer) Flush() {
	m.mu.Lock()
	current, hasCurrent := m.selector.Current()
	type pending struct {
		id      StreamID
		samples []int16
	}
	var toSend []pending
	for id, st := range m.streams {
		if hasCurrent && id == current {
			st.ring.Drain()
			continue
		}
		samples := st.ring.Drain()
		if len(samples) > 0 {
			toSend = append(toSend, pending{id: id, samples: samples})
		}
	}
	m.mu.Unlock()

	for _, p := range toSend {
		m.output <- Chunk{Stream: p.id, Samples: p.samples}
	}
}
