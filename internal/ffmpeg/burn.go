package ffmpeg

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// BurnStyle is the flat set of subtitle style options exposed to the
// user. Set fields are rendered into a libass force_style string;
// ForceStyle, when set, is appended verbatim for advanced use.
type BurnStyle struct {
	FontName   string `json:"font_name"`
	FontSize   int    `json:"font_size"`
	Colour     string `json:"colour"`  // libass PrimaryColour, e.g. "&HFFFFFF&"
	Outline    int    `json:"outline"` // outline width in points, 0 = default
	ForceStyle string `json:"force_style"`
}

// forceStyle renders the style options as a libass force_style value.
func (s BurnStyle) forceStyle() string {
	var parts []string
	if s.FontName != "" {
		parts = append(parts, "FontName="+s.FontName)
	}
	if s.FontSize > 0 {
		parts = append(parts, fmt.Sprintf("Fontsize=%d", s.FontSize))
	}
	if s.Colour != "" {
		parts = append(parts, "PrimaryColour="+s.Colour)
	}
	if s.Outline > 0 {
		parts = append(parts, fmt.Sprintf("Outline=%d", s.Outline))
	}
	if s.ForceStyle != "" {
		parts = append(parts, s.ForceStyle)
	}
	return strings.Join(parts, ",")
}

// escapeFilterPath escapes a path for use inside the subtitles filter.
func escapeFilterPath(path string) string {
	r := strings.NewReplacer(`\`, `\\`, `:`, `\:`, `'`, `\'`)
	return r.Replace(path)
}

// BuildBurnArgs constructs the ffmpeg argument list that overlays the
// subtitle file onto the video and writes the result to outputPath.
func BuildBurnArgs(videoPath, subtitlePath, outputPath string, style BurnStyle) []string {
	filter := fmt.Sprintf("subtitles='%s'", escapeFilterPath(subtitlePath))
	if fs := style.forceStyle(); fs != "" {
		filter += fmt.Sprintf(":force_style='%s'", fs)
	}

	return []string{
		"-y",
		"-i", videoPath,
		"-vf", filter,
		outputPath,
	}
}

// Burn re-encodes the video with the subtitle overlaid. Encoder output
// lines are forwarded to logLine as they arrive (logLine may be nil).
// On failure the incomplete output file is removed and the returned
// error carries the diagnostic tail; inputs without an audio track are
// reported as ErrNoAudioStream.
func Burn(ctx context.Context, videoPath, subtitlePath, outputPath string, style BurnStyle, logLine func(string)) error {
	args := BuildBurnArgs(videoPath, subtitlePath, outputPath, style)
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)

	// ffmpeg writes progress and diagnostics to stderr
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	var captured []string
	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		captured = append(captured, line)
		if logLine != nil {
			logLine(line)
		}
	}

	if err := cmd.Wait(); err != nil {
		os.Remove(outputPath)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return classifyFailure("ffmpeg", err, tailLines(captured, 20))
	}

	return nil
}
