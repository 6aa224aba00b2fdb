package audio

import (
	"fmt"
	"strings"

	"github.com/gordonklaus/portaudio"
	"github.com/sirupsen/logrus"
)

// resolveInputDevice implements the enumeration/selection rules from the
// device-name configuration: "default"/unset -> system default (no
// enumeration, fast path); any other exact string -> search enumeration for
// a match, falling back to default with a warning on miss. "all" gets no
// special handling here, so it falls back to the default device; the
// multi-device "all" fan-out is done by SharedBackend.resolveTargets.
func resolveInputDevice(name string) (*portaudio.DeviceInfo, error) {
	if name == "" || name == "default" {
		return portaudio.DefaultInputDevice()
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}
	for _, d := range devices {
		if d.MaxInputChannels > 0 && d.Name == name {
			return d, nil
		}
	}

	logrus.WithField("requested", name).Warn("audio device not found, falling back to default")
	return portaudio.DefaultInputDevice()
}

// enumerateCaptureDevices returns every input-capable device with the
// monitor/loopback/HDMI-labeled devices filtered out, for "all"/shared-
// native enumeration.
func enumerateCaptureDevices() ([]*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}

	var out []*portaudio.DeviceInfo
	for _, d := range devices {
		if d.MaxInputChannels <= 0 {
			continue
		}
		if isExcludedDevice(d.Name) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func isExcludedDevice(name string) bool {
	lower := strings.ToLower(name)
	for _, excl := range []string{"monitor", "loopback", "hdmi"} {
		if strings.Contains(lower, excl) {
			return true
		}
	}
	return false
}
