package audio

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/himanishpuri/VoiceVault/pkg/utils"
)

// ConvertToMonoWAV transcodes inputPath into a mono 16-bit PCM WAV file in
// outputDir and returns its path. The source sample rate is preserved (no
// resampling). The caller owns the returned file and should remove it when
// done.
func ConvertToMonoWAV(ctx context.Context, inputPath, outputDir string) (string, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
	}

	if err := utils.MakeDir(outputDir); err != nil {
		return "", err
	}

	outputPath := fmt.Sprintf("%s/vvconv_%d.wav", outputDir, time.Now().UnixNano())

	cmd := exec.CommandContext(
		ctx,
		"ffmpeg",
		"-y",
		"-v", "quiet",
		"-i", inputPath,
		"-ac", "1", // mono
		"-c:a", "pcm_s16le",
		outputPath,
	)

	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("ffmpeg failed: %v (%s)", err, out)
	}

	return outputPath, nil
}
