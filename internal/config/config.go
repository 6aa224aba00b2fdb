// Package config loads the daemon's on-disk YAML configuration via koanf,
// applying Go-idiomatic defaults before the file is merged in.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is the full set of daemon configuration knobs.
type Config struct {
	AudioDevice string `koanf:"audio_device"`
	SampleRate  int    `koanf:"sample_rate"`

	PreviewModel string `koanf:"preview_model"`
	FinalModel   string `koanf:"final_model"`

	EnableAcronyms    bool `koanf:"enable_acronyms"`
	EnablePunctuation bool `koanf:"enable_punctuation"`
	EnableGrammar     bool `koanf:"enable_grammar"`

	SilenceThresholdDB float64 `koanf:"silence_threshold_db"`

	VADEnabled   bool    `koanf:"vad_enabled"`
	VADThreshold float64 `koanf:"vad_threshold"`

	MuxerStickyDurationMs int     `koanf:"muxer_sticky_duration_ms"`
	MuxerCooldownMs       int     `koanf:"muxer_cooldown_ms"`
	MuxerSwitchThreshold  float64 `koanf:"muxer_switch_threshold"`
	MuxerScoringWindowMs  int     `koanf:"muxer_scoring_window_ms"`

	TrailingBufferMs int `koanf:"trailing_buffer_ms"`

	AudioBackend           string `koanf:"audio_backend"`
	IdleReleaseTimeoutSecs int    `koanf:"idle_release_timeout_secs"`

	DebugAudio bool `koanf:"debug_audio"`
}

// DefaultConfig mirrors the familiar DefaultProcessorConfig/
// DefaultBufferConfig constructor idiom: every field has a sane, spec-aligned
// default so a user's YAML file only needs to override what it changes.
func DefaultConfig() Config {
	return Config{
		AudioDevice: "default",
		SampleRate:  16000,

		PreviewModel: "faststream:default",
		FinalModel:   "whisper:ggml-small.en.bin",

		EnableAcronyms:    true,
		EnablePunctuation: true,
		EnableGrammar:     true,

		SilenceThresholdDB: -45.0,

		VADEnabled:   false,
		VADThreshold: 0.5,

		MuxerStickyDurationMs: 500,
		MuxerCooldownMs:       200,
		MuxerSwitchThreshold:  0.15,
		MuxerScoringWindowMs:  50,

		TrailingBufferMs: 750,

		AudioBackend:           "auto",
		IdleReleaseTimeoutSecs: 3,

		DebugAudio: false,
	}
}

// Load reads path as YAML over the defaults: any key absent from the file
// keeps its DefaultConfig() value. An absent file is not an error — it's
// equivalent to an empty override.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return cfg, fmt.Errorf("config: load %q: %w", path, err)
	}

	// cfg already carries its defaults; koanf's mapstructure-based Unmarshal
	// only overwrites the fields present in the YAML file, leaving the rest
	// of the struct untouched.
	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}

// TrailingBufferDuration is a convenience accessor for the trailing-buffer
// duration expressed as time.Duration.
func (c Config) TrailingBufferDuration() time.Duration {
	return time.Duration(c.TrailingBufferMs) * time.Millisecond
}

// IdleReleaseTimeout is a convenience accessor for the device manager.
func (c Config) IdleReleaseTimeout() time.Duration {
	return time.Duration(c.IdleReleaseTimeoutSecs) * time.Second
}
