package whisper

import (
	"context"

	"github.com/subtitle-kit/subkit/internal/subtitle"
)

// Options are the recognition parameters exposed to the user. They map
// onto faster-whisper's knobs and are passed through to the engine.
type Options struct {
	ModelSize   string `json:"model_size"`   // "tiny", "base", ..., or a model path
	Language    string `json:"language"`     // ISO 639-1 code, "" = auto-detect
	Device      string `json:"device"`       // "auto", "cpu", "cuda"
	ComputeType string `json:"compute_type"` // "int8_float16", "float32", ...
	VADFilter   bool   `json:"vad_filter"`   // drop silent spans before decoding
}

// Result is an ordered sequence of timed text segments mapped into cues.
type Result struct {
	Cues     []subtitle.Cue `json:"cues"`
	Language string         `json:"language"` // detected or requested language
}

// Transcriber is the common interface for all recognition engines.
type Transcriber interface {
	// Transcribe converts an audio file into subtitle cues.
	Transcribe(ctx context.Context, audioPath string, opts Options, updateProgress func(float64)) (*Result, error)
	// Name returns the engine name.
	Name() string
}

// DefaultOptions mirrors the defaults of the command line.
func DefaultOptions() Options {
	return Options{
		ModelSize:   "base",
		Language:    "zh",
		Device:      "auto",
		ComputeType: "int8_float16",
		VADFilter:   true,
	}
}
