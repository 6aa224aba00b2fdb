package audio

import "context"

// Backend is the capability set a capture subsystem exposes to the Device
// Manager: start/stop/flush plus whether it releases the underlying device
// when stopped. Two concrete variants exist: an exclusive-ish backend
// (ALSA-class: releases the device on stop) and a shared-native backend
// (PipeWire-class: keeps the device open across stop/start so it can be
// shared with other applications).
type Backend interface {
	// Start opens and begins capturing from the configured device(s),
	// pushing samples into the Muxer. Must be safe to call again after Stop.
	Start(ctx context.Context) error
	// Stop pauses capture. It does not necessarily release the device — see
	// ReleasesOnStop.
	Stop() error
	// Flush lets in-flight callbacks drain, then flushes the Muxer.
	Flush()
	// ReleasesOnStop reports whether Stop() releases the underlying device
	// (true for exclusive-ish backends, false for shared-native backends).
	ReleasesOnStop() bool
}

// BackendConfig carries the configuration knobs a backend needs to resolve
// a device and filter obviously-silent audio at the callback boundary.
type BackendConfig struct {
	DeviceName          string // "default", "all", or an exact device label
	SampleRate          int
	SilenceThresholdLin float64 // linear RMS gate, derived from silence_threshold_db
}
