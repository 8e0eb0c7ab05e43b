// Renders spectrogram PNGs for every audio file in a directory. Useful
// for eyeballing why two recordings land close or far apart in matching.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/draw"
	"path/filepath"
	"strings"
	"time"

	"github.com/eligwz/spectrogram"

	"github.com/himanishpuri/VoiceVault/pkg/logger"
	"github.com/himanishpuri/VoiceVault/pkg/utils"
	"github.com/himanishpuri/VoiceVault/pkg/voicevault/audio"
	"github.com/himanishpuri/VoiceVault/pkg/voicevault/ingest"
)

const (
	imageWidth  = 2048
	imageHeight = 512
)

func main() {
	inputDir := flag.String("in", "uploads", "Directory of audio files to render")
	outputDir := flag.String("out", "spectrograms", "Directory for PNG output")
	tempDir := flag.String("temp", "/tmp", "Directory for conversion scratch files")
	flag.Parse()

	log := logger.GetLogger()

	if err := utils.MakeDir(*outputDir); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	files, err := ingest.ScanAudioFiles(*inputDir)
	if err != nil {
		log.Fatalf("Failed to scan %s: %v", *inputDir, err)
	}
	if len(files) == 0 {
		log.Warnf("No audio files found under %s", *inputDir)
		return
	}

	rendered := 0
	for _, path := range files {
		if err := renderOne(path, *outputDir, *tempDir); err != nil {
			log.Warnf("Skipping %s: %v", path, err)
			continue
		}
		rendered++
	}

	log.Infof("Rendered %d/%d spectrograms into %s", rendered, len(files), *outputDir)
}

func renderOne(path, outputDir, tempDir string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	samples, sampleRate, err := audio.DecodeMono(ctx, path, tempDir)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no samples decoded")
	}

	img := spectrogram.NewImage128(image.Rect(0, 0, imageWidth, imageHeight))

	black := spectrogram.ParseColor("000000")
	draw.Draw(img, img.Bounds(), image.NewUniform(black), image.Point{}, draw.Src)

	// Hamming window, FFT, magnitude, linear scale
	spectrogram.Drawfft(
		img,
		samples,
		uint32(sampleRate),
		uint32(imageHeight),
		false,
		false,
		true,
		false,
	)

	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	outputPath := filepath.Join(outputDir, stem+".png")

	if err := spectrogram.SavePng(img, outputPath); err != nil {
		return fmt.Errorf("saving png: %w", err)
	}

	fmt.Printf("Wrote %s\n", outputPath)
	return nil
}
