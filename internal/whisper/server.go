package whisper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/subtitle-kit/subkit/internal/logging"
	"github.com/subtitle-kit/subkit/internal/subtitle"
)

// ServerEngine talks to a whisper HTTP server (whisper.cpp
// whisper-server or compatible) over its /inference endpoint.
type ServerEngine struct {
	baseURL    string
	httpClient *http.Client
}

// NewServerEngine creates a client for a whisper server.
func NewServerEngine(baseURL string) *ServerEngine {
	return &ServerEngine{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Minute, // transcription can be very long
		},
	}
}

func (e *ServerEngine) Name() string { return "server" }

// Transcribe uploads the audio file and parses the returned SRT body.
func (e *ServerEngine) Transcribe(ctx context.Context, audioPath string, opts Options, updateProgress func(float64)) (*Result, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	audioFile, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("open audio: %w", err)
	}
	defer audioFile.Close()

	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, audioFile); err != nil {
		return nil, fmt.Errorf("copy audio data: %w", err)
	}

	writer.WriteField("response_format", "srt")
	writer.WriteField("temperature", "0.0")
	if opts.Language != "" && opts.Language != "auto" {
		writer.WriteField("language", opts.Language)
	}
	if !opts.VADFilter {
		writer.WriteField("no_speech_filter", "false")
	}
	writer.Close()

	if updateProgress != nil {
		updateProgress(0.2)
	}

	url := e.baseURL + "/inference"
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	logging.Infof("[whisper] sending request to %s (audio: %s)", url, audioPath)

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("whisper server request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("whisper server error (status %d): %s", resp.StatusCode, string(body))
	}

	if updateProgress != nil {
		updateProgress(0.9)
	}

	cues := subtitle.Parse(string(body))
	if len(cues) == 0 {
		return nil, fmt.Errorf("whisper server returned no usable segments")
	}

	return &Result{Cues: cues, Language: opts.Language}, nil
}
