package engine

import (
	"context"
	"errors"
	"testing"
)

func TestParseSpecValid(t *testing.T) {
	spec, err := ParseSpec("faststream:en-base")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spec.Kind != KindFastStreaming || spec.Model != "en-base" {
		t.Fatalf("unexpected spec: %+v", spec)
	}
	if spec.String() != "faststream:en-base" {
		t.Fatalf("unexpected String(): %q", spec.String())
	}
}

func TestParseSpecRejectsUnknownKind(t *testing.T) {
	if _, err := ParseSpec("madeup:model"); err == nil {
		t.Fatal("expected error for unknown engine kind")
	}
}

func TestParseSpecRejectsMissingColon(t *testing.T) {
	if _, err := ParseSpec("faststream"); err == nil {
		t.Fatal("expected error for missing colon")
	}
}

func TestParseSpecRejectsEmptyModel(t *testing.T) {
	if _, err := ParseSpec("onnx:"); err == nil {
		t.Fatal("expected error for empty model")
	}
}

func TestSpecEqual(t *testing.T) {
	a := Spec{Kind: KindWhisper, Model: "base"}
	b := Spec{Kind: KindWhisper, Model: "base"}
	c := Spec{Kind: KindWhisper, Model: "large"}
	if !a.Equal(b) {
		t.Fatal("expected a.Equal(b)")
	}
	if a.Equal(c) {
		t.Fatal("expected !a.Equal(c)")
	}
}

func TestStreamingEngineSuffixDedup(t *testing.T) {
	e := NewStreamingEngine(func(samples []int16) (string, error) {
		return "the quick brown fox", nil
	})
	if err := e.ProcessAudio([]int16{1, 2, 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := e.GetCurrentText(); got != "the quick brown fox" {
		t.Fatalf("unexpected text: %q", got)
	}

	e.recognize = func(samples []int16) (string, error) {
		return "brown fox jumps", nil
	}
	if err := e.ProcessAudio([]int16{4, 5, 6}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := e.GetCurrentText(); got != "the quick brown fox jumps" {
		t.Fatalf("unexpected text after dedup: %q", got)
	}
}

func TestStreamingEngineRecognizeError(t *testing.T) {
	wantErr := errors.New("boom")
	e := NewStreamingEngine(func(samples []int16) (string, error) {
		return "", wantErr
	})
	if err := e.ProcessAudio([]int16{1}); !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestStreamingEngineReset(t *testing.T) {
	e := NewStreamingEngine(func(samples []int16) (string, error) {
		return "hello", nil
	})
	if err := e.ProcessAudio([]int16{1, 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e.Reset()
	if got := e.GetCurrentText(); got != "" {
		t.Fatalf("expected empty text after reset, got %q", got)
	}
	if got := e.GetAudioBuffer(); len(got) != 0 {
		t.Fatalf("expected empty buffer after reset, got %v", got)
	}
}

func TestAppendWithSuffixDedupNoOverlap(t *testing.T) {
	got := appendWithSuffixDedup("hello there", "completely different")
	if got != "hello there completely different" {
		t.Fatalf("unexpected merge: %q", got)
	}
}

func TestAppendWithSuffixDedupFullOverlapIsNoOp(t *testing.T) {
	got := appendWithSuffixDedup("hello there", "hello there")
	if got != "hello there" {
		t.Fatalf("unexpected merge: %q", got)
	}
}

func TestONNXEngineRejectsWrongSampleRate(t *testing.T) {
	if _, err := NewONNXEngine(nil, 44100); !errors.Is(err, ErrWrongSampleRate) {
		t.Fatalf("expected ErrWrongSampleRate, got %v", err)
	}
}

func TestONNXEngineAccumulatesBuffer(t *testing.T) {
	e, err := NewONNXEngine(nil, onnxRequiredSampleRate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	samples := make([]int16, onnxRequiredSampleRate/5) // 200ms, above threshold
	if err := e.ProcessAudio(samples); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(e.GetAudioBuffer()); got != len(samples) {
		t.Fatalf("unexpected buffer length: %d", got)
	}
}

func TestONNXEngineFinalResultOnEmptyBuffer(t *testing.T) {
	e, err := NewONNXEngine(nil, onnxRequiredSampleRate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text, err := e.GetFinalResult(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "" {
		t.Fatalf("expected empty final text, got %q", text)
	}
}

func TestONNXEngineReset(t *testing.T) {
	e, err := NewONNXEngine(nil, onnxRequiredSampleRate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	samples := make([]int16, onnxRequiredSampleRate/5)
	if err := e.ProcessAudio(samples); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e.Reset()
	if got := len(e.GetAudioBuffer()); got != 0 {
		t.Fatalf("expected empty buffer after reset, got %d", got)
	}
	if e.lastPreviewN != 0 {
		t.Fatalf("expected lastPreviewN reset to 0, got %d", e.lastPreviewN)
	}
}

func TestDecodeLogitsGreedyCollapsesRepeatsAndBlanks(t *testing.T) {
	vocab := defaultONNXVocab // blank, |, e, t, a, ...
	idx := func(tok string) int {
		for i, v := range vocab {
			if v == tok {
				return i
			}
		}
		t.Fatalf("token %q not in vocab", tok)
		return -1
	}
	frameFor := func(tok string) []float32 {
		frame := make([]float32, len(vocab))
		frame[idx(tok)] = 1
		return frame
	}

	// "t" "t" blank "e" "|" "a" -> collapses repeats, drops blank, "|" -> space
	var logits []float32
	for _, tok := range []string{"t", "t", onnxBlankToken, "e", onnxWordSep, "a"} {
		logits = append(logits, frameFor(tok)...)
	}

	got := decodeLogits(logits, 6, vocab)
	if want := "te a"; got != want {
		t.Fatalf("unexpected decode: got %q want %q", got, want)
	}
}

func TestDecodeLogitsEmptyInputs(t *testing.T) {
	if got := decodeLogits(nil, 0, defaultONNXVocab); got != "" {
		t.Fatalf("expected empty decode, got %q", got)
	}
	if got := decodeLogits([]float32{1, 2, 3}, 5, defaultONNXVocab); got != "" {
		t.Fatalf("expected empty decode for undersized logits, got %q", got)
	}
}

func TestFitWindowPadsShortInput(t *testing.T) {
	got := fitWindow([]float32{1, 2, 3}, 5)
	want := []float32{0, 0, 1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("unexpected length: %d", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected window: %v", got)
		}
	}
}

func TestFitWindowTruncatesToMostRecent(t *testing.T) {
	got := fitWindow([]float32{1, 2, 3, 4, 5}, 3)
	want := []float32{3, 4, 5}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected window: %v", got)
		}
	}
}

func TestDetectExecutionProviderNeverFails(t *testing.T) {
	// Best-effort probe must always return a value, never panic or error.
	provider := DetectExecutionProvider()
	switch provider {
	case ProviderCPU, ProviderCUDA, ProviderROCm, ProviderVulkan:
	default:
		t.Fatalf("unexpected provider: %q", provider)
	}
}
