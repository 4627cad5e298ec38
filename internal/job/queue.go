package job

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/subtitle-kit/subkit/internal/logging"
)

// maxLogLines bounds the per-job log kept for UI display.
const maxLogLines = 400

// Queue manages in-memory jobs and dispatches them to a single worker
// one at a time. External tools dominate each job, so there is no
// point running two encodes concurrently on the same machine.
type Queue struct {
	mu       sync.RWMutex
	jobs     map[string]*Job
	pending  chan string
	cancels  map[string]context.CancelFunc
	handlers map[Type]Handler
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewQueue creates and starts a job queue.
func NewQueue() *Queue {
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		jobs:     make(map[string]*Job),
		pending:  make(chan string, 100),
		cancels:  make(map[string]context.CancelFunc),
		handlers: make(map[Type]Handler),
		ctx:      ctx,
		cancel:   cancel,
	}

	go q.worker()

	return q
}

// RegisterHandler registers a handler for a job type.
func (q *Queue) RegisterHandler(jobType Type, handler Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[jobType] = handler
}

// Enqueue creates a new job and adds it to the queue.
func (q *Queue) Enqueue(jobType Type, label string, params interface{}) (*Job, error) {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal params: %w", err)
	}

	j := &Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Status:    StatusPending,
		Label:     label,
		Params:    paramsJSON,
		CreatedAt: time.Now(),
	}

	q.mu.Lock()
	q.jobs[j.ID] = j
	q.mu.Unlock()

	select {
	case q.pending <- j.ID:
	default:
		return nil, fmt.Errorf("job queue is full")
	}

	return q.snapshot(j.ID), nil
}

// Get retrieves a copy of a job by ID.
func (q *Queue) Get(id string) (*Job, bool) {
	j := q.snapshot(id)
	return j, j != nil
}

// List returns copies of all jobs, newest first.
func (q *Queue) List() []*Job {
	q.mu.RLock()
	ids := make([]string, 0, len(q.jobs))
	for id := range q.jobs {
		ids = append(ids, id)
	}
	q.mu.RUnlock()

	jobs := make([]*Job, 0, len(ids))
	for _, id := range ids {
		if j := q.snapshot(id); j != nil {
			jobs = append(jobs, j)
		}
	}
	sort.Slice(jobs, func(i, k int) bool { return jobs[i].CreatedAt.After(jobs[k].CreatedAt) })
	return jobs
}

// Cancel cancels a pending or running job.
func (q *Queue) Cancel(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	j, ok := q.jobs[id]
	if !ok {
		return fmt.Errorf("job not found: %s", id)
	}
	if j.Status != StatusPending && j.Status != StatusRunning {
		return fmt.Errorf("job %s is %s, cannot cancel", id, j.Status)
	}

	if cancelFn, ok := q.cancels[id]; ok {
		cancelFn()
		delete(q.cancels, id)
	}

	now := time.Now()
	j.Status = StatusCancelled
	j.CompletedAt = &now
	return nil
}

// Stop shuts down the queue.
func (q *Queue) Stop() {
	q.cancel()
}

func (q *Queue) worker() {
	for {
		select {
		case <-q.ctx.Done():
			return
		case id := <-q.pending:
			q.process(id)
		}
	}
}

func (q *Queue) process(id string) {
	q.mu.Lock()
	j, ok := q.jobs[id]
	if !ok || j.Status != StatusPending {
		q.mu.Unlock()
		return
	}
	handler, ok := q.handlers[j.Type]
	if !ok {
		j.Status = StatusFailed
		j.Error = fmt.Sprintf("no handler for job type: %s", j.Type)
		q.mu.Unlock()
		return
	}

	now := time.Now()
	j.Status = StatusRunning
	j.StartedAt = &now

	ctx, cancelFn := context.WithCancel(q.ctx)
	q.cancels[id] = cancelFn
	q.mu.Unlock()
	defer cancelFn()

	report := Reporter{
		Progress: func(p float64) { q.setProgress(id, p) },
		Log:      func(line string) { q.appendLog(id, line) },
	}

	logging.Infof("[job] %s %s started", j.Type, id)
	result, err := handler(ctx, q.snapshot(id), report)

	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.cancels, id)

	if j.Status == StatusCancelled {
		logging.Infof("[job] %s cancelled", id)
		return
	}

	done := time.Now()
	j.CompletedAt = &done
	if err != nil {
		j.Status = StatusFailed
		j.Error = err.Error()
		logging.Errorf("[job] %s failed: %v", id, err)
		return
	}

	j.Status = StatusCompleted
	j.Progress = 1.0
	j.Result = result
	logging.Infof("[job] %s completed", id)
}

func (q *Queue) setProgress(id string, p float64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if j, ok := q.jobs[id]; ok && j.Status == StatusRunning {
		j.Progress = p
	}
}

func (q *Queue) appendLog(id string, line string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	j, ok := q.jobs[id]
	if !ok {
		return
	}
	j.Log = append(j.Log, line)
	if len(j.Log) > maxLogLines {
		j.Log = j.Log[len(j.Log)-maxLogLines:]
	}
}

// snapshot returns a copy safe to hand outside the lock.
func (q *Queue) snapshot(id string) *Job {
	q.mu.RLock()
	defer q.mu.RUnlock()
	j, ok := q.jobs[id]
	if !ok {
		return nil
	}
	cp := *j
	cp.Log = append([]string(nil), j.Log...)
	return &cp
}
