package fingerprint

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// Tunables
const (
	// DefaultCoeffs is the fingerprint dimensionality.
	DefaultCoeffs = 20

	FrameSize = 2048
	HopSize   = 512

	melBands = 40
	logFloor = 1e-10
)

// Fingerprint is a fixed-length spectral summary of one audio file. Two
// fingerprints are comparable only when computed with the same coefficient
// count.
type Fingerprint []float64

// MFCC computes the mel-frequency cepstral coefficient matrix for a mono
// signal: one row per analysis frame, nCoeffs columns. A signal shorter
// than one frame is zero-padded into a single frame.
func MFCC(samples []float64, sampleRate, nCoeffs int) [][]float64 {
	if nCoeffs <= 0 {
		nCoeffs = DefaultCoeffs
	}

	win := window.Hamming(FrameSize)
	filters := melFilterbank(melBands, FrameSize, sampleRate)

	frames := frameSignal(samples)
	coeffs := make([][]float64, 0, len(frames))
	for _, frame := range frames {
		for i := range frame {
			frame[i] *= win[i]
		}

		spectrum := fft.FFTReal(frame)
		power := make([]float64, FrameSize/2+1)
		for i := range power {
			mag := cmplx.Abs(spectrum[i])
			power[i] = mag * mag
		}

		logMel := make([]float64, melBands)
		for m, filter := range filters {
			var energy float64
			for k, w := range filter {
				if w != 0 {
					energy += w * power[k]
				}
			}
			logMel[m] = math.Log(energy + logFloor)
		}

		coeffs = append(coeffs, dct2(logMel, nCoeffs))
	}

	return coeffs
}

// MeanVector reduces a frames x coeffs matrix to its per-coefficient mean.
// This column-wise mean is the entire model: no normalization, no variance
// term.
func MeanVector(matrix [][]float64) Fingerprint {
	if len(matrix) == 0 {
		return nil
	}

	dim := len(matrix[0])
	mean := make(Fingerprint, dim)
	for _, row := range matrix {
		for i, v := range row {
			mean[i] += v
		}
	}
	for i := range mean {
		mean[i] /= float64(len(matrix))
	}
	return mean
}

// frameSignal cuts the signal into overlapping FrameSize windows advancing
// by HopSize. Short input yields one zero-padded frame.
func frameSignal(samples []float64) [][]float64 {
	if len(samples) < FrameSize {
		frame := make([]float64, FrameSize)
		copy(frame, samples)
		return [][]float64{frame}
	}

	var frames [][]float64
	for start := 0; start+FrameSize <= len(samples); start += HopSize {
		frame := make([]float64, FrameSize)
		copy(frame, samples[start:start+FrameSize])
		frames = append(frames, frame)
	}
	return frames
}

func hzToMel(hz float64) float64 {
	return 2595.0 * math.Log10(1.0+hz/700.0)
}

func melToHz(mel float64) float64 {
	return 700.0 * (math.Pow(10.0, mel/2595.0) - 1.0)
}

// melFilterbank builds numFilters triangular filters spanning 0..sampleRate/2,
// each row covering the positive-frequency bins of an fftSize transform.
func melFilterbank(numFilters, fftSize, sampleRate int) [][]float64 {
	numBins := fftSize/2 + 1
	maxMel := hzToMel(float64(sampleRate) / 2.0)

	// numFilters+2 evenly spaced mel points mapped back to FFT bins
	bins := make([]int, numFilters+2)
	for i := range bins {
		hz := melToHz(maxMel * float64(i) / float64(numFilters+1))
		bin := int(math.Floor(hz * float64(fftSize) / float64(sampleRate)))
		if bin > numBins-1 {
			bin = numBins - 1
		}
		bins[i] = bin
	}

	filters := make([][]float64, numFilters)
	for m := 0; m < numFilters; m++ {
		filter := make([]float64, numBins)
		left, center, right := bins[m], bins[m+1], bins[m+2]

		for k := left; k < center; k++ {
			if center != left {
				filter[k] = float64(k-left) / float64(center-left)
			}
		}
		for k := center; k <= right && k < numBins; k++ {
			if right != center {
				filter[k] = float64(right-k) / float64(right-center)
			} else if k == center {
				filter[k] = 1.0
			}
		}

		filters[m] = filter
	}

	return filters
}

// dct2 computes the first nCoeffs terms of the type-II discrete cosine
// transform of x.
func dct2(x []float64, nCoeffs int) []float64 {
	n := len(x)
	if nCoeffs > n {
		nCoeffs = n
	}

	out := make([]float64, nCoeffs)
	for k := 0; k < nCoeffs; k++ {
		var sum float64
		for m := 0; m < n; m++ {
			sum += x[m] * math.Cos(math.Pi*float64(k)*(float64(m)+0.5)/float64(n))
		}
		out[k] = sum
	}
	return out
}
