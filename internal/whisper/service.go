package whisper

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/subtitle-kit/subkit/internal/ffmpeg"
	"github.com/subtitle-kit/subkit/internal/logging"
	"github.com/subtitle-kit/subkit/internal/subtitle"
)

// Service runs the full transcription pipeline: probe the input, pull
// out a recognition-friendly audio track, hand it to an engine, and
// write the resulting SRT.
type Service struct {
	engines map[string]Transcriber
}

// NewService creates a whisper service with the configured engines.
// The local engine is always registered; a server engine is added when
// a server URL is configured.
func NewService(localBinary, serverURL string) *Service {
	s := &Service{engines: make(map[string]Transcriber)}

	s.engines["local"] = NewLocalEngine(localBinary)
	if serverURL != "" {
		s.engines["server"] = NewServerEngine(serverURL)
		logging.Infof("[whisper] registered server engine at %s", serverURL)
	}

	return s
}

// RegisterEngine adds or replaces an engine.
func (s *Service) RegisterEngine(name string, engine Transcriber) {
	s.engines[name] = engine
}

// Engine resolves an engine by name; "" selects the local engine.
func (s *Service) Engine(name string) (Transcriber, error) {
	if name == "" {
		name = "local"
	}
	engine, ok := s.engines[name]
	if !ok {
		return nil, fmt.Errorf("unknown whisper engine: %s (available: %s)", name, strings.Join(s.engineNames(), ", "))
	}
	return engine, nil
}

// TranscribeMedia transcribes a media file and writes the SRT to
// outputPath ("" defaults to the input path with a .srt extension).
// It returns the written path and the cue sequence.
func (s *Service) TranscribeMedia(ctx context.Context, mediaPath, outputPath, engineName string, opts Options, updateProgress func(float64)) (string, []subtitle.Cue, error) {
	if _, err := os.Stat(mediaPath); err != nil {
		return "", nil, fmt.Errorf("media file: %w", err)
	}
	if outputPath == "" {
		outputPath = strings.TrimSuffix(mediaPath, filepath.Ext(mediaPath)) + ".srt"
	}

	engine, err := s.Engine(engineName)
	if err != nil {
		return "", nil, err
	}

	// Fail early when the container carries no audio track.
	if info, err := ffmpeg.Probe(ctx, mediaPath); err == nil && !info.HasAudio {
		return "", nil, fmt.Errorf("probe %s: %w", mediaPath, ffmpeg.ErrNoAudioStream)
	}

	if updateProgress != nil {
		updateProgress(0.05)
	}

	logging.Infof("[whisper] extracting audio: %s", mediaPath)
	audioPath, err := ffmpeg.ExtractAudio(ctx, mediaPath)
	if err != nil {
		return "", nil, fmt.Errorf("extract audio: %w", err)
	}
	defer os.Remove(audioPath)

	if updateProgress != nil {
		updateProgress(0.15)
	}

	logging.Infof("[whisper] starting transcription: engine=%s model=%s language=%s",
		engine.Name(), opts.ModelSize, opts.Language)

	result, err := engine.Transcribe(ctx, audioPath, opts, updateProgress)
	if err != nil {
		return "", nil, fmt.Errorf("transcribe: %w", err)
	}
	if len(result.Cues) == 0 {
		return "", nil, fmt.Errorf("recognition produced no usable segments")
	}

	if err := os.WriteFile(outputPath, []byte(subtitle.Render(result.Cues)), 0o644); err != nil {
		return "", nil, fmt.Errorf("write subtitle: %w", err)
	}

	logging.Infof("[whisper] transcription complete: %d cues -> %s", len(result.Cues), outputPath)

	if updateProgress != nil {
		updateProgress(1.0)
	}
	return outputPath, result.Cues, nil
}

func (s *Service) engineNames() []string {
	names := make([]string, 0, len(s.engines))
	for name := range s.engines {
		names = append(names, name)
	}
	return names
}
