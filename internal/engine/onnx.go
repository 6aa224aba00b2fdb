package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	ort "github.com/yalue/onnxruntime_go"
)

const (
	onnxRequiredSampleRate = 16000
	onnxMinNewAudio        = 150 * time.Millisecond

	// onnxDefaultWindowSamples is the fixed input-tensor width used when a
	// model isn't registered with its own ModelPaths.ONNXWindowSamples
	// entry: 2 seconds at the required 16kHz rate.
	onnxDefaultWindowSamples = 32000

	// onnxDefaultFrameStride is the conv-stack downsampling factor assumed
	// when deriving a default output frame count from the window size (the
	// stride product of a wav2vec2-style feature encoder). Models with a
	// different architecture must supply ModelPaths.ONNXFramesPerWindow.
	onnxDefaultFrameStride = 320

	// onnxBlankToken marks the CTC blank/pad symbol; onnxWordSep marks the
	// token that decodes to a literal space. Both follow the layout used by
	// wav2vec2-style CTC vocabularies.
	onnxBlankToken = "<blank>"
	onnxWordSep    = "|"
)

// defaultONNXVocab is the fallback greedy-CTC vocabulary: index 0 is the
// blank symbol, "|" is the word separator, the rest are lowercase English
// letters in no particular frequency order. A real checkpoint's vocab.json
// ordering must be supplied via ModelPaths.ONNXVocab; this default only
// keeps an unconfigured model from panicking.
var defaultONNXVocab = []string{
	onnxBlankToken, onnxWordSep,
	"e", "t", "a", "o", "n", "i", "h", "s", "r", "d", "l", "u",
	"m", "w", "c", "f", "g", "y", "p", "b", "v", "k", "j", "x", "q", "z",
}

// onnxBinding bundles an onnxruntime_go session with the fixed-shape
// input/output tensors bound to it at construction time, plus the decode
// parameters (frame count, vocabulary) needed to turn its output tensor
// into text. Built once per model by Factory and shared across sessions.
type onnxBinding struct {
	session       *ort.AdvancedSession
	inputTensor   *ort.Tensor[float32]
	outputTensor  *ort.Tensor[float32]
	windowSamples int
	frames        int
	vocab         []string
}

// ONNXEngine is the Neural-ONNX transcription engine variant: it runs an
// ONNX acoustic model incrementally from ProcessAudio, re-running inference
// once the samples appended since the previous inference represent at least
// 150ms of new audio. It requires 16kHz input; NewONNXEngine rejects any
// other rate outright rather than resampling.
type ONNXEngine struct {
	binding *onnxBinding
	rate    int

	mu           sync.Mutex
	buf          []int16
	lastPreviewN int
	text         string
}

// NewONNXEngine wraps an already-built onnx binding (model session loaded
// once at startup per the model cache, shared across recognition calls for
// this engine instance). binding may be nil for tests exercising the
// buffering/dedup logic without a real session.
func NewONNXEngine(binding *onnxBinding, sampleRate int) (*ONNXEngine, error) {
	if sampleRate != onnxRequiredSampleRate {
		return nil, ErrWrongSampleRate
	}
	return &ONNXEngine{binding: binding, rate: sampleRate}, nil
}

func (e *ONNXEngine) ProcessAudio(samples []int16) error {
	if e.rate != onnxRequiredSampleRate {
		return ErrWrongSampleRate
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.buf = append(e.buf, samples...)

	newSamples := len(e.buf) - e.lastPreviewN
	if newSamples <= 0 {
		return nil
	}
	newDuration := time.Duration(newSamples) * time.Second / time.Duration(e.rate)
	if newDuration < onnxMinNewAudio {
		return nil
	}

	text, err := e.runInference(e.buf[e.lastPreviewN:])
	if err != nil {
		return fmt.Errorf("engine: onnx preview inference: %w", err)
	}
	if text != "" {
		e.text = appendWithSuffixDedup(e.text, text)
	}
	e.lastPreviewN = len(e.buf)
	return nil
}

// runInference copies the most recent window of samples into the session's
// bound input tensor, runs the session, and greedily decodes the bound
// output tensor. The session's tensors are fixed-shape and reused across
// calls (built by Factory.onnxSession), matching onnxruntime_go's
// pre-allocated-tensor session pattern rather than rebuilding tensors per
// call.
func (e *ONNXEngine) runInference(samples []int16) (string, error) {
	if e.binding == nil || len(samples) == 0 {
		return "", nil
	}

	window := fitWindow(int16ToFloat32(samples), e.binding.windowSamples)
	copy(e.binding.inputTensor.GetData(), window)

	if err := e.binding.session.Run(); err != nil {
		return "", fmt.Errorf("run session: %w", err)
	}

	return decodeLogits(e.binding.outputTensor.GetData(), e.binding.frames, e.binding.vocab), nil
}

// fitWindow returns a slice of exactly size samples: the most recent
// samples from src, left-padded with silence if src is shorter than size.
func fitWindow(src []float32, size int) []float32 {
	out := make([]float32, size)
	if len(src) >= size {
		copy(out, src[len(src)-size:])
		return out
	}
	copy(out[size-len(src):], src)
	return out
}

// decodeLogits greedily decodes a CTC output tensor laid out as
// frames*len(vocab) row-major scores: per frame it picks the
// highest-scoring vocabulary entry, collapses consecutive repeats, and
// drops blanks. onnxWordSep decodes to a literal space. This is the
// standard greedy-CTC collapse rule; it is not beam search and does not
// use a language model.
func decodeLogits(logits []float32, frames int, vocab []string) string {
	vocabSize := len(vocab)
	if vocabSize == 0 || frames <= 0 || len(logits) < frames*vocabSize {
		return ""
	}

	var out strings.Builder
	prev := -1
	for t := 0; t < frames; t++ {
		frame := logits[t*vocabSize : (t+1)*vocabSize]
		best := 0
		for v := 1; v < vocabSize; v++ {
			if frame[v] > frame[best] {
				best = v
			}
		}
		if best != prev && best != 0 {
			if vocab[best] == onnxWordSep {
				out.WriteString(" ")
			} else {
				out.WriteString(vocab[best])
			}
		}
		prev = best
	}
	return strings.TrimSpace(out.String())
}

func (e *ONNXEngine) GetCurrentText() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.text
}

func (e *ONNXEngine) GetFinalResult(ctx context.Context) (string, error) {
	e.mu.Lock()
	buf := make([]int16, len(e.buf))
	copy(buf, e.buf)
	lastN := e.lastPreviewN
	accumulated := e.text
	e.mu.Unlock()

	if lastN >= len(buf) {
		return accumulated, nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	text, err := e.runInference(buf[lastN:])
	if err != nil {
		return "", fmt.Errorf("engine: onnx final inference: %w", err)
	}
	if text == "" {
		return accumulated, nil
	}
	return appendWithSuffixDedup(accumulated, text), nil
}

func (e *ONNXEngine) GetAudioBuffer() []int16 {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]int16, len(e.buf))
	copy(out, e.buf)
	return out
}

func (e *ONNXEngine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.buf = nil
	e.lastPreviewN = 0
	e.text = ""
}

var _ Engine = (*ONNXEngine)(nil)
