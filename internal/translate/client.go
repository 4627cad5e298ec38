package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/subtitle-kit/subkit/internal/logging"
	"github.com/subtitle-kit/subkit/internal/subtitle"
)

// Config holds the chat-completion endpoint settings.
type Config struct {
	BaseURL     string `yaml:"base_url"`
	APIKey      string `yaml:"api_key"`
	Model       string `yaml:"model"`
	BatchSize   int    `yaml:"batch_size"`
	Concurrency int    `yaml:"concurrency"`
}

// Defaults fills unset fields with the stock values.
func (c *Config) Defaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com/v1"
	}
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 6
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 2
	}
}

// Client translates subtitle cues through an OpenAI-compatible
// chat-completion endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a translation client.
func NewClient(cfg Config) *Client {
	cfg.Defaults()
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

// Translate translates all cues to the target language. Batches are
// dispatched through a worker pool bounded by the configured
// concurrency; results are recombined by cue index, not completion
// order. The returned cues keep the source indices and timings. When
// some batches fail, the cues they covered keep their source text and
// a *PartialError naming the failed index ranges is returned alongside
// the partially translated sequence.
func (c *Client) Translate(ctx context.Context, cues []subtitle.Cue, targetLang string, updateProgress func(float64)) ([]subtitle.Cue, error) {
	if c.cfg.APIKey == "" {
		return nil, fmt.Errorf("translation API key not configured")
	}
	if len(cues) == 0 {
		return nil, fmt.Errorf("no subtitle cues to translate")
	}

	batches, err := subtitle.SplitBatches(cues, c.cfg.BatchSize)
	if err != nil {
		return nil, err
	}

	logging.Infof("[translate] translating %d cues in %d batches (%d per batch, %d concurrent)",
		len(cues), len(batches), c.cfg.BatchSize, c.cfg.Concurrency)

	results := make([]map[int]string, len(batches))
	errs := make([]*BatchError, len(batches))
	var completed atomic.Int32
	sem := make(chan struct{}, c.cfg.Concurrency)
	var wg sync.WaitGroup

	for i, batch := range batches {
		wg.Add(1)
		sem <- struct{}{}

		go func(idx int, batch []subtitle.Cue) {
			defer wg.Done()
			defer func() { <-sem }()

			first := batch[0].Index
			last := batch[len(batch)-1].Index
			logging.Debugf("[translate] batch %d/%d (cues %d-%d) started", idx+1, len(batches), first, last)

			translated, err := c.translateBatch(ctx, batch, targetLang)
			if err != nil {
				errs[idx] = &BatchError{FirstIndex: first, LastIndex: last, Err: err}
				logging.Warnf("[translate] batch %d/%d failed: %v", idx+1, len(batches), err)
			} else {
				results[idx] = translated
			}

			done := completed.Add(1)
			if updateProgress != nil {
				updateProgress(float64(done) / float64(len(batches)))
			}
		}(i, batch)
	}

	wg.Wait()

	// Recombine by index. Untranslated indices fall back to the
	// source text, both for failed batches and for entries the model
	// omitted.
	translatedMap := make(map[int]string, len(cues))
	for _, m := range results {
		for idx, text := range m {
			translatedMap[idx] = text
		}
	}

	out := make([]subtitle.Cue, len(cues))
	for i, cue := range cues {
		out[i] = cue
		if text, ok := translatedMap[cue.Index]; ok {
			out[i] = cue.WithText(text)
		}
	}

	var failed []*BatchError
	for _, be := range errs {
		if be != nil {
			failed = append(failed, be)
		}
	}
	if len(failed) == len(batches) {
		return nil, &PartialError{Batches: failed}
	}
	if len(failed) > 0 {
		return out, &PartialError{Batches: failed}
	}

	logging.Infof("[translate] translation complete: %d cues", len(out))
	return out, nil
}

// chatRequest / chatResponse follow the chat-completion wire shape.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// translateBatch issues one chat-completion request for a batch and
// maps the reply back to a per-index translation map.
func (c *Client) translateBatch(ctx context.Context, batch []subtitle.Cue, targetLang string) (map[int]string, error) {
	reqBody := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt(targetLang)},
			{Role: "user", Content: userPrompt(batch)},
		},
		Temperature: 0.2,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("translation request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("translation API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("empty translation response")
	}

	return parseResponse(chatResp.Choices[0].Message.Content)
}
