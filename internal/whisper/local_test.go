package whisper

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildLocalArgs(t *testing.T) {
	opts := Options{
		ModelSize:   "medium",
		Language:    "ja",
		Device:      "cpu",
		ComputeType: "float32",
		VADFilter:   true,
	}

	args := buildLocalArgs("/tmp/audio.wav", "/tmp/out", opts)
	joined := strings.Join(args, " ")

	assert.Equal(t, "/tmp/audio.wav", args[0])
	assert.Contains(t, joined, "--model medium")
	assert.Contains(t, joined, "--language ja")
	assert.Contains(t, joined, "--device cpu")
	assert.Contains(t, joined, "--compute_type float32")
	assert.Contains(t, joined, "--output_format json")
	assert.Contains(t, joined, "--vad_filter True")
}

func TestBuildLocalArgsAutoLanguageAndNoVAD(t *testing.T) {
	opts := DefaultOptions()
	opts.Language = "auto"
	opts.VADFilter = false

	joined := strings.Join(buildLocalArgs("a.wav", "out", opts), " ")
	assert.NotContains(t, joined, "--language")
	assert.Contains(t, joined, "--vad_filter False")
}

func TestLocalEngineTranscribe(t *testing.T) {
	engine := NewLocalEngine("")

	// The fake runner writes the engine's JSON output file where the
	// real binary would.
	engine.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		require.Equal(t, DefaultBinary, name)

		var outputDir string
		for i, a := range args {
			if a == "--output_dir" && i+1 < len(args) {
				outputDir = args[i+1]
			}
		}
		require.NotEmpty(t, outputDir)

		payload := enginePayload{
			Language: "zh",
			Segments: []segment{
				{Start: 0.0, End: 1.5, Text: " 你好 "},
				{Start: 1.5, End: 1.6, Text: "   "}, // blank segments are dropped
				{Start: 1.6, End: 3.0, Text: "再见"},
			},
		}
		data, err := json.Marshal(payload)
		require.NoError(t, err)

		base := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
		return os.WriteFile(filepath.Join(outputDir, base+".json"), data, 0o644)
	})

	audio := filepath.Join(t.TempDir(), "clip.wav")
	require.NoError(t, os.WriteFile(audio, []byte("riff"), 0o644))

	result, err := engine.Transcribe(context.Background(), audio, DefaultOptions(), nil)
	require.NoError(t, err)
	assert.Equal(t, "zh", result.Language)
	require.Len(t, result.Cues, 2)
	assert.Equal(t, "你好", result.Cues[0].Text)
	assert.InDelta(t, 1.5, result.Cues[0].End, 0.0001)

	// Dropping the blank segment must not leave an index gap
	assert.Equal(t, 1, result.Cues[0].Index)
	assert.Equal(t, 2, result.Cues[1].Index)
}

func TestLocalEngineRunnerFailure(t *testing.T) {
	engine := NewLocalEngine("missing-binary")
	engine.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		return assert.AnError
	})

	_, err := engine.Transcribe(context.Background(), "a.wav", DefaultOptions(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recognition engine")
}

func TestLoadSegmentsMissingFile(t *testing.T) {
	_, _, err := loadSegments(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
