package ffmpeg

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoAudioStream marks inputs that carry no audio track. Callers can
// turn this into a user-facing message instead of dumping diagnostics.
var ErrNoAudioStream = errors.New("input has no audio stream")

// noAudioMarkers are the stderr fragments ffmpeg/ffprobe emit for
// inputs without audio.
var noAudioMarkers = []string{
	"does not contain any stream",
	"no audio stream",
	"audio stream not found",
}

// ToolError wraps the failure of an external tool together with the
// diagnostic tail of its output.
type ToolError struct {
	Tool        string
	Diagnostics string
	Err         error
}

func (e *ToolError) Error() string {
	if e.Diagnostics == "" {
		return fmt.Sprintf("%s: %v", e.Tool, e.Err)
	}
	return fmt.Sprintf("%s: %v\n%s", e.Tool, e.Err, e.Diagnostics)
}

func (e *ToolError) Unwrap() error { return e.Err }

// classifyFailure turns a tool failure plus its captured output into a
// ToolError, recognizing the no-audio case.
func classifyFailure(tool string, err error, diagnostics string) error {
	lower := strings.ToLower(diagnostics)
	for _, marker := range noAudioMarkers {
		if strings.Contains(lower, marker) {
			return &ToolError{Tool: tool, Diagnostics: diagnostics, Err: ErrNoAudioStream}
		}
	}
	return &ToolError{Tool: tool, Diagnostics: diagnostics, Err: err}
}

// tailLines joins the last n lines for error reporting.
func tailLines(lines []string, n int) string {
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
