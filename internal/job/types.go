package job

import (
	"context"
	"encoding/json"
	"time"
)

// Type represents the kind of job
type Type string

const (
	TypeTranscribe Type = "transcribe"
	TypeBurn       Type = "burn"
	TypeTranslate  Type = "translate"
)

// Status represents the current state of a job
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Job represents one queued task (transcription, burn or translation).
// Jobs live in memory only; nothing survives a restart.
type Job struct {
	ID          string          `json:"id"`
	Type        Type            `json:"type"`
	Status      Status          `json:"status"`
	Label       string          `json:"label"` // display name, usually the uploaded filename
	Params      json.RawMessage `json:"params"`
	Progress    float64         `json:"progress"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	Log         []string        `json:"log,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// Progress and log sinks handed to handlers while a job runs.
type Reporter struct {
	Progress func(float64)
	Log      func(string)
}

// Handler processes a job. The returned result payload is stored on
// the job when the handler succeeds.
type Handler func(ctx context.Context, j *Job, report Reporter) (json.RawMessage, error)
