package engine

import (
	"os"
	"path/filepath"
	"strings"
)

// ExecutionProvider names an onnxruntime execution provider.
type ExecutionProvider string

const (
	ProviderCPU    ExecutionProvider = "cpu"
	ProviderCUDA   ExecutionProvider = "cuda"
	ProviderROCm   ExecutionProvider = "rocm"
	ProviderVulkan ExecutionProvider = "vulkan"
)

// DetectExecutionProvider best-effort probes the host for a usable GPU
// execution provider for the ONNX engine. It never fails: any probing
// error or absence of evidence simply falls through to the CPU provider,
// since acoustic-model inference must still work on machines with no GPU.
func DetectExecutionProvider() ExecutionProvider {
	if hasNvidiaDevice() || hasLibraryHint("libcudart", "libnvinfer") {
		return ProviderCUDA
	}
	if hasLibraryHint("libamdhip64", "librocblas") {
		return ProviderROCm
	}
	if hasLibraryHint("libvulkan") {
		return ProviderVulkan
	}
	return ProviderCPU
}

func hasNvidiaDevice() bool {
	entries, err := os.ReadDir("/dev")
	if err != nil {
		return false
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "nvidia") {
			return true
		}
	}
	return false
}

// hasLibraryHint scans LD_LIBRARY_PATH and a handful of well-known system
// library directories for any of the given shared-object name fragments.
func hasLibraryHint(fragments ...string) bool {
	dirs := append(filepath.SplitList(os.Getenv("LD_LIBRARY_PATH")),
		"/usr/lib", "/usr/lib64", "/usr/lib/x86_64-linux-gnu", "/usr/local/lib")

	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			name := e.Name()
			for _, frag := range fragments {
				if strings.Contains(name, frag) {
					return true
				}
			}
		}
	}
	return false
}
