package engine

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	ort "github.com/yalue/onnxruntime_go"
)

// ModelPaths resolves a model name to an on-disk artifact for whichever
// engine kind requests it. Populated from configuration at startup.
//
// ONNXVocab, ONNXWindowSamples and ONNXFramesPerWindow are keyed by ONNX
// model name and are optional: a model without an entry falls back to
// onnxDefaultWindowSamples/onnxDefaultFrameStride/defaultONNXVocab, which
// only suit a generic wav2vec2-style CTC checkpoint. A differently shaped
// acoustic model needs its own entries here to decode correctly.
type ModelPaths struct {
	WhisperModels map[string]string
	ONNXModels    map[string]string
	Language      string
	SampleRate    int

	ONNXVocab           map[string][]string
	ONNXWindowSamples   map[string]int
	ONNXFramesPerWindow map[string]int
}

// cachedModel holds a loaded whisper model or onnx binding keyed by
// "kind:model_name", so repeated sessions against the same model spec
// don't re-pay model-load cost.
type cachedModel struct {
	whisperModel whisperlib.Model
	onnxBinding  *onnxBinding
}

// Factory builds Engine instances from a parsed Spec, caching the
// underlying heavyweight model objects (not the Engine itself, since
// Engine instances carry per-session audio buffers and must not be
// shared across concurrent recordings).
type Factory struct {
	paths ModelPaths

	mu     sync.Mutex
	models *lru.Cache[string, *cachedModel]
}

// NewFactory builds a Factory whose model cache holds up to maxModels
// loaded models resident at once (least-recently-used eviction).
func NewFactory(paths ModelPaths, maxModels int) (*Factory, error) {
	if maxModels <= 0 {
		maxModels = 4
	}
	cache, err := lru.New[string, *cachedModel](maxModels)
	if err != nil {
		return nil, fmt.Errorf("engine: build model cache: %w", err)
	}
	return &Factory{paths: paths, models: cache}, nil
}

// Build constructs a fresh Engine for the given spec. Whisper and ONNX
// model state is loaded on the first Build naming an engine+model and
// reused from the cache for later Builds of the same spec. A faststream
// spec builds a StreamingEngine with no recognizer: it buffers audio but
// produces no text.
func (f *Factory) Build(spec Spec) (Engine, error) {
	switch spec.Kind {
	case KindFastStreaming:
		return NewStreamingEngine(nil), nil

	case KindWhisper:
		model, err := f.whisperModel(spec)
		if err != nil {
			return nil, err
		}
		return NewWhisperEngine(model, f.paths.Language, f.paths.SampleRate), nil

	case KindONNX:
		binding, err := f.onnxSession(spec)
		if err != nil {
			return nil, err
		}
		return NewONNXEngine(binding, f.paths.SampleRate)

	default:
		return nil, fmt.Errorf("engine: unknown engine kind %q", spec.Kind)
	}
}

func (f *Factory) whisperModel(spec Spec) (whisperlib.Model, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := spec.String()
	if cached, ok := f.models.Get(key); ok && cached.whisperModel != nil {
		return cached.whisperModel, nil
	}

	path, ok := f.paths.WhisperModels[spec.Model]
	if !ok {
		return nil, fmt.Errorf("engine: no whisper model path registered for %q", spec.Model)
	}
	model, err := whisperlib.New(path)
	if err != nil {
		return nil, fmt.Errorf("engine: load whisper model %q: %w", spec.Model, err)
	}
	f.models.Add(key, &cachedModel{whisperModel: model})
	return model, nil
}

// onnxSession builds (or returns the cached) fixed-shape session binding
// for an ONNX model. The input and output tensors are allocated once, here,
// and bound to the session at construction time; ONNXEngine reuses them on
// every inference call by copying into/reading out of their backing slices,
// the pattern onnxruntime_go's AdvancedSession is built around.
func (f *Factory) onnxSession(spec Spec) (*onnxBinding, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := spec.String()
	if cached, ok := f.models.Get(key); ok && cached.onnxBinding != nil {
		return cached.onnxBinding, nil
	}

	path, ok := f.paths.ONNXModels[spec.Model]
	if !ok {
		return nil, fmt.Errorf("engine: no onnx model path registered for %q", spec.Model)
	}

	windowSamples := f.paths.ONNXWindowSamples[spec.Model]
	if windowSamples <= 0 {
		windowSamples = onnxDefaultWindowSamples
	}
	frames := f.paths.ONNXFramesPerWindow[spec.Model]
	if frames <= 0 {
		frames = windowSamples / onnxDefaultFrameStride
	}
	vocab := f.paths.ONNXVocab[spec.Model]
	if len(vocab) == 0 {
		vocab = defaultONNXVocab
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(windowSamples)))
	if err != nil {
		return nil, fmt.Errorf("engine: build onnx input tensor for %q: %w", spec.Model, err)
	}
	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(frames), int64(len(vocab))))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("engine: build onnx output tensor for %q: %w", spec.Model, err)
	}

	inputNames := []string{"audio_signal"}
	outputNames := []string{"logits"}
	session, err := ort.NewAdvancedSession(path, inputNames, outputNames,
		[]ort.Value{inputTensor}, []ort.Value{outputTensor}, nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("engine: load onnx model %q: %w", spec.Model, err)
	}

	binding := &onnxBinding{
		session:       session,
		inputTensor:   inputTensor,
		outputTensor:  outputTensor,
		windowSamples: windowSamples,
		frames:        frames,
		vocab:         vocab,
	}
	f.models.Add(key, &cachedModel{onnxBinding: binding})
	return binding, nil
}
