package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigValues(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.SampleRate != 16000 {
		t.Fatalf("SampleRate = %d, want 16000", cfg.SampleRate)
	}
	if !cfg.EnableAcronyms || !cfg.EnablePunctuation || !cfg.EnableGrammar {
		t.Fatal("post-processing steps should default to enabled")
	}
	if cfg.TrailingBufferMs != 750 {
		t.Fatalf("TrailingBufferMs = %d, want 750", cfg.TrailingBufferMs)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Fatalf("got %+v, want defaults", cfg)
	}
}

func TestLoadOverridesOnlyPresentKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dictd.yaml")
	yaml := "sample_rate: 44100\nenable_grammar: false\naudio_device: \"Scarlett 2i2\"\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SampleRate != 44100 {
		t.Fatalf("SampleRate = %d, want 44100", cfg.SampleRate)
	}
	if cfg.EnableGrammar {
		t.Fatal("EnableGrammar should have been overridden to false")
	}
	if cfg.AudioDevice != "Scarlett 2i2" {
		t.Fatalf("AudioDevice = %q", cfg.AudioDevice)
	}
	// Untouched keys keep their defaults.
	if !cfg.EnableAcronyms {
		t.Fatal("EnableAcronyms should still default to true")
	}
	if cfg.TrailingBufferMs != 750 {
		t.Fatalf("TrailingBufferMs = %d, want unchanged default 750", cfg.TrailingBufferMs)
	}
}

func TestTrailingBufferDuration(t *testing.T) {
	cfg := DefaultConfig()
	if got, want := cfg.TrailingBufferDuration().Milliseconds(), int64(750); got != want {
		t.Fatalf("got %dms, want %dms", got, want)
	}
}
