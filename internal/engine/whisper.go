package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/speakdesk/dictd/internal/audio"
)

// WhisperEngine is the Neural-Whole-Buffer transcription engine variant: it
// stores samples and, on GetFinalResult, runs whisper.cpp inference on the
// whole buffer (chunking if duration exceeds the 30-second context limit,
// with 2-second overlap), converting the i16 buffer to whisper's required
// float32 format and joining the per-chunk transcriptions.
type WhisperEngine struct {
	model    whisperlib.Model
	language string
	rate     int

	mu       sync.Mutex
	buf      []int16
	started  time.Time
}

const (
	whisperContextS = 30
	whisperOverlapS = 2
)

// NewWhisperEngine wraps an already-loaded whisper.cpp model (loaded once
// and shared across sessions by the Factory's model cache).
func NewWhisperEngine(model whisperlib.Model, language string, sampleRate int) *WhisperEngine {
	if language == "" {
		language = "en"
	}
	return &WhisperEngine{model: model, language: language, rate: sampleRate}
}

func (e *WhisperEngine) ProcessAudio(samples []int16) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.buf) == 0 {
		e.started = time.Now()
	}
	e.buf = append(e.buf, samples...)
	return nil
}

// GetCurrentText returns a recording-status placeholder — this engine
// cannot stream cheaply and must never block on inference.
func (e *WhisperEngine) GetCurrentText() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.buf) == 0 {
		return "Recording... (0.0s)"
	}
	elapsed := time.Since(e.started).Seconds()
	return fmt.Sprintf("Recording... (%.1fs)", elapsed)
}

func (e *WhisperEngine) GetFinalResult(ctx context.Context) (string, error) {
	e.mu.Lock()
	buf := make([]int16, len(e.buf))
	copy(buf, e.buf)
	e.mu.Unlock()

	if len(buf) == 0 {
		return "", nil
	}

	windows := audio.Chunker(buf, whisperContextS, whisperOverlapS, e.rate)
	if len(windows) == 0 {
		return "", nil
	}

	texts := make([]string, 0, len(windows))
	for _, w := range windows {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := e.infer(w.Samples)
		if err != nil {
			return "", fmt.Errorf("engine: whisper inference chunk %d: %w", w.Index, err)
		}
		texts = append(texts, text)
	}

	return audio.MergeChunks(texts), nil
}

func (e *WhisperEngine) infer(samples []int16) (string, error) {
	floatSamples := int16ToFloat32(samples)

	wctx, err := e.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("create context: %w", err)
	}
	if err := wctx.SetLanguage(e.language); err != nil {
		return "", fmt.Errorf("set language: %w", err)
	}
	if err := wctx.Process(floatSamples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("process audio: %w", err)
	}

	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read segment: %w", err)
		}
		text := strings.TrimSpace(segment.Text)
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " "), nil
}

func (e *WhisperEngine) GetAudioBuffer() []int16 {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]int16, len(e.buf))
	copy(out, e.buf)
	return out
}

func (e *WhisperEngine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.buf = nil
}

func int16ToFloat32(samples []int16) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s) / 32768.0
	}
	return out
}

var _ Engine = (*WhisperEngine)(nil)
