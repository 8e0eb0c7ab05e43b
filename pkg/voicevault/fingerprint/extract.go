package fingerprint

import (
	"context"

	"github.com/himanishpuri/VoiceVault/pkg/voicevault/audio"
)

// MinSamples is the shortest decoded signal the extractor accepts. Anything
// below it is treated as absent, the same as a decode failure.
const MinSamples = 10

// Extractor turns audio files into fixed-length fingerprints. It holds no
// state beyond its configuration; extraction is a pure function of the file
// content and the coefficient count.
type Extractor struct {
	coeffs  int
	tempDir string
}

func NewExtractor(coeffs int, tempDir string) *Extractor {
	if coeffs <= 0 {
		coeffs = DefaultCoeffs
	}
	return &Extractor{coeffs: coeffs, tempDir: tempDir}
}

// Coeffs returns the configured fingerprint dimensionality.
func (e *Extractor) Coeffs() int {
	return e.coeffs
}

// Extract computes the fingerprint of the audio file at path. The second
// return value is false when the file cannot be decoded or is too short;
// that is an expected per-item outcome, not an error.
func (e *Extractor) Extract(ctx context.Context, path string) (Fingerprint, bool) {
	samples, sampleRate, err := audio.DecodeMono(ctx, path, e.tempDir)
	if err != nil || len(samples) < MinSamples {
		return nil, false
	}

	matrix := MFCC(samples, sampleRate, e.coeffs)
	vec := MeanVector(matrix)
	if vec == nil {
		return nil, false
	}
	return vec, true
}
