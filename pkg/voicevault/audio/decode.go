package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
)

// ReadWavMono decodes a PCM WAV file into mono float64 samples normalized
// to [-1, 1] and returns them with the file's native sample rate. Stereo
// and multi-channel input is downmixed by averaging the channels.
func ReadWavMono(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, 0, fmt.Errorf("%s: not a valid WAV file", path)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decoding %s: %w", path, err)
	}
	if buf == nil || buf.Format == nil || len(buf.Data) == 0 {
		return nil, 0, errors.New("empty PCM buffer")
	}

	numChans := buf.Format.NumChannels
	if numChans < 1 {
		return nil, 0, fmt.Errorf("invalid channel count %d", numChans)
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}
	scale := 1.0 / float64(int(1)<<(uint(bitDepth)-1))

	frames := len(buf.Data) / numChans
	mono := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < numChans; c++ {
			sum += float64(buf.Data[i*numChans+c]) * scale
		}
		mono[i] = sum / float64(numChans)
	}

	return mono, buf.Format.SampleRate, nil
}

// DecodeMono loads any supported audio file as mono samples at the file's
// native sample rate. WAV files are decoded natively; compressed formats go
// through an ffmpeg conversion into tempDir first (the intermediate file is
// removed before returning).
func DecodeMono(ctx context.Context, path, tempDir string) ([]float64, int, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return ReadWavMono(path)
	case ".mp3", ".ogg", ".flac", ".m4a":
		converted, err := ConvertToMonoWAV(ctx, path, tempDir)
		if err != nil {
			return nil, 0, err
		}
		defer os.Remove(converted)
		return ReadWavMono(converted)
	default:
		return nil, 0, fmt.Errorf("unsupported audio format: %s", path)
	}
}
