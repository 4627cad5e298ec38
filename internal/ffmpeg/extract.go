package ffmpeg

import (
	"context"
	"os"
	"os/exec"
	"strings"
)

// ExtractAudio converts the input's audio track into a temporary mono
// 16kHz WAV file suitable for speech recognition. The caller removes
// the returned file when done.
func ExtractAudio(ctx context.Context, videoPath string) (string, error) {
	tmpFile, err := os.CreateTemp("", "subkit-audio-*.wav")
	if err != nil {
		return "", err
	}
	tmpFile.Close()

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-hide_banner",
		"-loglevel", "error",
		"-i", videoPath,
		"-vn", // drop the video stream
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		"-y",
		tmpFile.Name(),
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		os.Remove(tmpFile.Name())
		return "", classifyFailure("ffmpeg", err, tailLines(strings.Split(strings.TrimSpace(string(output)), "\n"), 20))
	}

	return tmpFile.Name(), nil
}
