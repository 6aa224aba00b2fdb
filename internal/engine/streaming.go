package engine

import (
	"context"
	"strings"
	"sync"
)

// StreamingEngine is the Fast-Streaming transcription engine variant: it
// accepts samples incrementally and emits finalized utterances that are
// deduplicated against the accumulated text using the suffix-dedup rule:
// when appending a new utterance U to accumulator A, find the largest k
// such that A's last k whitespace-separated words equal U's first k;
// append U[k..].
type StreamingEngine struct {
	mu sync.Mutex

	audioBuf []int16
	text     string

	recognize func([]int16) (string, error)
}

// NewStreamingEngine builds a StreamingEngine. recognize is the underlying
// incremental recognizer call (a thin Fast-Streaming acoustic model); it is
// injected so tests can supply a deterministic fake.
func NewStreamingEngine(recognize func([]int16) (string, error)) *StreamingEngine {
	return &StreamingEngine{recognize: recognize}
}

func (e *StreamingEngine) ProcessAudio(samples []int16) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.audioBuf = append(e.audioBuf, samples...)

	if e.recognize == nil {
		return nil
	}
	utterance, err := e.recognize(samples)
	if err != nil {
		return err
	}
	if utterance == "" {
		return nil
	}
	e.text = appendWithSuffixDedup(e.text, utterance)
	return nil
}

// appendWithSuffixDedup finds the largest k such that A's last k
// whitespace-separated words equal U's first k words, then appends U[k..].
func appendWithSuffixDedup(a, u string) string {
	if a == "" {
		return u
	}
	if u == "" {
		return a
	}

	aWords := strings.Fields(a)
	uWords := strings.Fields(u)

	maxK := len(aWords)
	if len(uWords) < maxK {
		maxK = len(uWords)
	}

	for k := maxK; k >= 1; k-- {
		if wordsEqualFold(aWords[len(aWords)-k:], uWords[:k]) {
			remainder := strings.Join(uWords[k:], " ")
			if remainder == "" {
				return a
			}
			return a + " " + remainder
		}
	}
	return a + " " + u
}

func wordsEqualFold(a, b []string) bool {
	for i := range a {
		if !strings.EqualFold(a[i], b[i]) {
			return false
		}
	}
	return true
}

func (e *StreamingEngine) GetCurrentText() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.text
}

func (e *StreamingEngine) GetFinalResult(ctx context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.text, nil
}

func (e *StreamingEngine) GetAudioBuffer() []int16 {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]int16, len(e.audioBuf))
	copy(out, e.audioBuf)
	return out
}

func (e *StreamingEngine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.audioBuf = nil
	e.text = ""
}

var _ Engine = (*StreamingEngine)(nil)
