package audio

import "math"

// envelopeChunkMs is the width of one RMS envelope window in milliseconds
// (converted to samples at the configured sample rate); the scorer's
// coefficient-of-variation term is computed over consecutive windows of
// this size.
const envelopeChunkMs = 10

// Score returns a speech-likeness scalar in [0,1] for a window of signed
// 16-bit mono PCM samples at the given sample rate. It combines normalized
// RMS energy with the coefficient of variation of the per-10ms RMS envelope;
// CV is favored because it separates speech from steady noise while staying
// scale-invariant.
//
// Score returns 0 for empty input. The envelope vector is reused across
// calls via envelopeBuf to avoid allocating on the hot scoring path.
func Score(samples []int16, sampleRate int, envelopeBuf []float64) (float64, []float64) {
	if len(samples) == 0 {
		return 0, envelopeBuf
	}

	rms := rms16(samples)

	chunkSamples := sampleRate * envelopeChunkMs / 1000
	if chunkSamples <= 0 {
		chunkSamples = 1
	}

	var cv float64
	if len(samples) >= 2*chunkSamples {
		envelopeBuf = envelopeBuf[:0]
		for off := 0; off+chunkSamples <= len(samples); off += chunkSamples {
			envelopeBuf = append(envelopeBuf, rms16(samples[off:off+chunkSamples]))
		}
		cv = coefficientOfVariation(envelopeBuf)
	}

	rmsTerm := math.Min(1, rms/32768)
	cvTerm := math.Min(1, cv/2)

	return 0.30*rmsTerm + 0.70*cvTerm, envelopeBuf
}

func rms16(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sumSq float64
	for _, s := range samples {
		v := float64(s)
		sumSq += v * v
	}
	return math.Sqrt(sumSq / float64(len(samples)))
}

func coefficientOfVariation(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(n)
	if mean == 0 {
		return 0
	}
	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(n)
	return math.Sqrt(variance) / mean
}
