// Package engine implements the Transcription Engine capability set: a
// small polymorphic interface with concrete Fast-Streaming, Neural-ONNX,
// and Neural-Whole-Buffer variants, selected and cached by an
// "engine:model_name" spec.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrWrongSampleRate is returned by engines that require a fixed input
// sample rate (e.g. the ONNX engine) when fed anything else.
var ErrWrongSampleRate = errors.New("engine: input sample rate not supported")

// Engine is the capability set every transcription backend exposes.
type Engine interface {
	// ProcessAudio appends samples to the engine's audio buffer and may
	// opportunistically feed a streaming recognizer. Must never block
	// longer than the realtime budget of one chunk. Thread-safe.
	ProcessAudio(samples []int16) error

	// GetCurrentText returns a best-effort current hypothesis without ever
	// blocking on model inference.
	GetCurrentText() string

	// GetFinalResult produces the final text for the entire buffered audio.
	// May be expensive; intended to run on a worker that can block.
	GetFinalResult(ctx context.Context) (string, error)

	// GetAudioBuffer clones the full audio buffer.
	GetAudioBuffer() []int16

	// Reset clears the audio buffer, cached text, and incremental
	// bookkeeping.
	Reset()
}

// Spec is a parsed "engine:model_name" reference.
type Spec struct {
	Kind  Kind
	Model string
}

// Kind enumerates the concrete engine variants.
type Kind string

const (
	KindFastStreaming Kind = "faststream"
	KindONNX          Kind = "onnx"
	KindWhisper        Kind = "whisper"
)

// ParseSpec parses a string of the form "engine:model_name".
func ParseSpec(s string) (Spec, error) {
	idx := strings.IndexByte(s, ':')
	if idx < 0 {
		return Spec{}, fmt.Errorf("engine: invalid spec %q, expected engine:model", s)
	}
	kind := Kind(s[:idx])
	model := s[idx+1:]
	switch kind {
	case KindFastStreaming, KindONNX, KindWhisper:
	default:
		return Spec{}, fmt.Errorf("engine: unknown engine kind %q", kind)
	}
	if model == "" {
		return Spec{}, fmt.Errorf("engine: empty model name in spec %q", s)
	}
	return Spec{Kind: kind, Model: model}, nil
}

// Equal reports whether two specs refer to the same engine+model, used for
// the same-preview/final-model optimization.
func (s Spec) Equal(other Spec) bool {
	return s.Kind == other.Kind && s.Model == other.Model
}

func (s Spec) String() string {
	return string(s.Kind) + ":" + s.Model
}
