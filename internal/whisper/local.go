package whisper

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/subtitle-kit/subkit/internal/logging"
	"github.com/subtitle-kit/subkit/internal/subtitle"
)

// DefaultBinary is the faster-whisper command line frontend invoked by
// the local engine.
const DefaultBinary = "whisper-ctranslate2"

// LocalEngine runs a faster-whisper CLI as a child process and reads
// its JSON segment output.
type LocalEngine struct {
	binary        string
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewLocalEngine creates a local engine using the given binary
// ("" selects DefaultBinary).
func NewLocalEngine(binary string) *LocalEngine {
	if binary == "" {
		binary = DefaultBinary
	}
	return &LocalEngine{binary: binary}
}

// WithCommandRunner sets a custom command runner (for testing).
func (e *LocalEngine) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	e.commandRunner = runner
}

func (e *LocalEngine) Name() string { return "local" }

// Transcribe runs the recognition binary on the extracted audio and
// maps its segments into cues.
func (e *LocalEngine) Transcribe(ctx context.Context, audioPath string, opts Options, updateProgress func(float64)) (*Result, error) {
	outputDir, err := os.MkdirTemp("", "subkit-whisper-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(outputDir)

	args := buildLocalArgs(audioPath, outputDir, opts)
	logging.Debugf("[whisper] exec %s %s", e.binary, strings.Join(args, " "))

	if updateProgress != nil {
		updateProgress(0.2)
	}

	if err := e.run(ctx, e.binary, args...); err != nil {
		return nil, fmt.Errorf("recognition engine: %w", err)
	}

	if updateProgress != nil {
		updateProgress(0.9)
	}

	baseName := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	jsonPath := filepath.Join(outputDir, baseName+".json")

	segments, language, err := loadSegments(jsonPath)
	if err != nil {
		return nil, err
	}

	cues := make([]subtitle.Cue, 0, len(segments))
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		// Number by kept cues, not segment position, so dropped blank
		// segments leave no index gaps
		cues = append(cues, subtitle.Cue{
			Index: len(cues) + 1,
			Start: seg.Start,
			End:   seg.End,
			Text:  text,
		})
	}

	if language == "" {
		language = opts.Language
	}
	return &Result{Cues: cues, Language: language}, nil
}

func (e *LocalEngine) run(ctx context.Context, name string, args ...string) error {
	if e.commandRunner != nil {
		return e.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// buildLocalArgs constructs the engine command line from the options.
func buildLocalArgs(audioPath, outputDir string, opts Options) []string {
	args := []string{
		audioPath,
		"--model", opts.ModelSize,
		"--output_dir", outputDir,
		"--output_format", "json",
		"--device", opts.Device,
		"--compute_type", opts.ComputeType,
	}
	if opts.Language != "" && opts.Language != "auto" {
		args = append(args, "--language", opts.Language)
	}
	if opts.VADFilter {
		args = append(args, "--vad_filter", "True")
	} else {
		args = append(args, "--vad_filter", "False")
	}
	return args
}

// segment matches the engine's JSON output schema.
type segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type enginePayload struct {
	Language string    `json:"language"`
	Segments []segment `json:"segments"`
}

// loadSegments reads the engine's JSON output file.
func loadSegments(jsonPath string) ([]segment, string, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, "", fmt.Errorf("read engine output: %w", err)
	}
	var payload enginePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, "", fmt.Errorf("parse engine output: %w", err)
	}
	return payload.Segments, payload.Language, nil
}
