package audio

// ChunkWindow is one yielded window from Chunker: its index in emission
// order and the slice of the source it covers.
type ChunkWindow struct {
	Index   int
	Samples []int16
}

// Chunker splits samples into overlapping windows sized for an engine with
// bounded inference context. maxChunkS and overlapS are in seconds; rate is
// the sample rate in Hz. Step = maxChunkS - overlapS, expressed in samples.
// Iteration terminates when the offset reaches or passes the source length.
func Chunker(samples []int16, maxChunkS, overlapS float64, rate int) []ChunkWindow {
	if len(samples) == 0 {
		return nil
	}

	maxChunk := int(maxChunkS * float64(rate))
	overlap := int(overlapS * float64(rate))
	if maxChunk <= 0 {
		return nil
	}
	step := maxChunk - overlap
	if step <= 0 {
		step = maxChunk
	}

	var windows []ChunkWindow
	idx := 0
	for offset := 0; offset < len(samples); offset += step {
		end := offset + maxChunk
		if end > len(samples) {
			end = len(samples)
		}
		windows = append(windows, ChunkWindow{Index: idx, Samples: samples[offset:end]})
		idx++
		if end == len(samples) {
			break
		}
	}
	return windows
}
