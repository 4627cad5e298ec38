package api

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/subtitle-kit/subkit/internal/config"
	"github.com/subtitle-kit/subkit/internal/ffmpeg"
	"github.com/subtitle-kit/subkit/internal/job"
	"github.com/subtitle-kit/subkit/internal/subtitle"
	"github.com/subtitle-kit/subkit/internal/translate"
	"github.com/subtitle-kit/subkit/internal/whisper"
)

// Server wires the form UI and job API to the transcribe/burn/translate
// pipelines.
type Server struct {
	cfg       *config.Config
	queue     *job.Queue
	whisper   *whisper.Service
	translate *translate.Client
	dataDir   string
}

// NewServer creates the API server and registers the job handlers.
func NewServer(cfg *config.Config, queue *job.Queue, whisperSvc *whisper.Service, translateClient *translate.Client) (*Server, error) {
	dataDir := cfg.DataDir
	for _, sub := range []string{"uploads", "outputs"} {
		if err := os.MkdirAll(filepath.Join(dataDir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	s := &Server{
		cfg:       cfg,
		queue:     queue,
		whisper:   whisperSvc,
		translate: translateClient,
		dataDir:   dataDir,
	}

	queue.RegisterHandler(job.TypeTranscribe, s.handleTranscribeJob)
	queue.RegisterHandler(job.TypeBurn, s.handleBurnJob)
	queue.RegisterHandler(job.TypeTranslate, s.handleTranslateJob)

	return s, nil
}

// transcribeParams carries a transcription job's inputs.
type transcribeParams struct {
	MediaPath string          `json:"media_path"`
	Engine    string          `json:"engine"`
	Options   whisper.Options `json:"options"`
}

// burnParams carries a burn job's inputs.
type burnParams struct {
	VideoPath    string           `json:"video_path"`
	SubtitlePath string           `json:"subtitle_path"`
	OutputPath   string           `json:"output_path"`
	Style        ffmpeg.BurnStyle `json:"style"`
}

// translateParams carries a translation job's inputs.
type translateParams struct {
	SubtitlePath string `json:"subtitle_path"`
	TargetLang   string `json:"target_lang"`
}

// jobResult points at the artifact a completed job produced.
type jobResult struct {
	OutputPath string `json:"output_path"`
	CueCount   int    `json:"cue_count,omitempty"`
	Warning    string `json:"warning,omitempty"`
}

func (s *Server) handleTranscribeJob(ctx context.Context, j *job.Job, report job.Reporter) (json.RawMessage, error) {
	var params transcribeParams
	if err := json.Unmarshal(j.Params, &params); err != nil {
		return nil, fmt.Errorf("unmarshal params: %w", err)
	}

	report.Log("extracting audio and running recognition...")
	outputPath := s.outputPath(j.ID, replaceExt(filepath.Base(params.MediaPath), ".srt"))
	written, cues, err := s.whisper.TranscribeMedia(ctx, params.MediaPath, outputPath, params.Engine, params.Options, report.Progress)
	if err != nil {
		return nil, err
	}
	report.Log(fmt.Sprintf("done: %d cues", len(cues)))

	return json.Marshal(jobResult{OutputPath: written, CueCount: len(cues)})
}

func (s *Server) handleBurnJob(ctx context.Context, j *job.Job, report job.Reporter) (json.RawMessage, error) {
	var params burnParams
	if err := json.Unmarshal(j.Params, &params); err != nil {
		return nil, fmt.Errorf("unmarshal params: %w", err)
	}

	report.Log("running encoder...")
	if err := ffmpeg.Burn(ctx, params.VideoPath, params.SubtitlePath, params.OutputPath, params.Style, report.Log); err != nil {
		return nil, err
	}
	report.Log("burn complete")

	return json.Marshal(jobResult{OutputPath: params.OutputPath})
}

func (s *Server) handleTranslateJob(ctx context.Context, j *job.Job, report job.Reporter) (json.RawMessage, error) {
	var params translateParams
	if err := json.Unmarshal(j.Params, &params); err != nil {
		return nil, fmt.Errorf("unmarshal params: %w", err)
	}

	data, err := os.ReadFile(params.SubtitlePath)
	if err != nil {
		return nil, fmt.Errorf("read subtitle: %w", err)
	}
	cues := subtitle.Parse(string(data))
	if len(cues) == 0 {
		return nil, fmt.Errorf("no subtitle cues found in %s", filepath.Base(params.SubtitlePath))
	}
	report.Log(fmt.Sprintf("parsed %d cues, translating to %s...", len(cues), params.TargetLang))

	translated, err := s.translate.Translate(ctx, cues, params.TargetLang, report.Progress)

	// Batch failures keep the rest of the file usable; surface them as
	// a warning on the stored result instead of failing the job.
	var warning string
	if err != nil {
		if translated == nil {
			return nil, err
		}
		warning = err.Error()
		report.Log("warning: " + warning)
	}

	base := replaceExt(filepath.Base(params.SubtitlePath), "")
	outputPath := s.outputPath(j.ID, fmt.Sprintf("%s_%s.srt", base, params.TargetLang))
	if err := os.WriteFile(outputPath, []byte(subtitle.Render(translated)), 0o644); err != nil {
		return nil, fmt.Errorf("write translated subtitle: %w", err)
	}
	report.Log("translation complete")

	return json.Marshal(jobResult{OutputPath: outputPath, CueCount: len(translated), Warning: warning})
}

// outputPath places a job artifact under the outputs directory,
// namespaced by job ID so names cannot collide.
func (s *Server) outputPath(jobID, name string) string {
	dir := filepath.Join(s.dataDir, "outputs", jobID)
	os.MkdirAll(dir, 0o755)
	return filepath.Join(dir, name)
}

func replaceExt(name, newExt string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + newExt
}
