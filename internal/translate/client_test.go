package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subtitle-kit/subkit/internal/subtitle"
)

func testCues(n int) []subtitle.Cue {
	cues := make([]subtitle.Cue, n)
	for i := range cues {
		cues[i] = subtitle.Cue{
			Index: i + 1,
			Start: float64(i),
			End:   float64(i) + 0.9,
			Text:  fmt.Sprintf("line %d", i+1),
		}
	}
	return cues
}

// chatHandler answers a chat-completion request by applying translate
// to each index|text line of the user prompt.
func chatHandler(t *testing.T, translateText func(index int, text string) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Contains(t, req.Messages[0].Content, "subtitle translator")

		var entries []translationEntry
		for _, line := range strings.Split(req.Messages[1].Content, "\n") {
			parts := strings.SplitN(line, "|", 2)
			if len(parts) != 2 {
				continue
			}
			var idx int
			if _, err := fmt.Sscanf(parts[0], "%d", &idx); err != nil {
				continue
			}
			entries = append(entries, translationEntry{Index: idx, Translation: translateText(idx, parts[1])})
		}

		content, _ := json.Marshal(entries)
		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": string(content)}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}
}

func TestTranslateRecombinesByIndex(t *testing.T) {
	srv := httptest.NewServer(chatHandler(t, func(idx int, text string) string {
		return fmt.Sprintf("T%d", idx)
	}))
	defer srv.Close()

	client := NewClient(Config{
		BaseURL:     srv.URL + "/v1",
		APIKey:      "test-key",
		BatchSize:   3,
		Concurrency: 2,
	})

	cues := testCues(7)
	var lastProgress atomic.Value
	out, err := client.Translate(context.Background(), cues, "en", func(p float64) {
		lastProgress.Store(p)
	})
	require.NoError(t, err)
	require.Len(t, out, 7)

	for i, cue := range out {
		assert.Equal(t, i+1, cue.Index)
		assert.Equal(t, fmt.Sprintf("T%d", i+1), cue.Text)
		// Timings are preserved from the source cues
		assert.Equal(t, cues[i].Start, cue.Start)
		assert.Equal(t, cues[i].End, cue.End)
	}
	assert.Equal(t, 1.0, lastProgress.Load())
}

func TestTranslateMissingIndexKeepsSource(t *testing.T) {
	srv := httptest.NewServer(chatHandler(t, func(idx int, text string) string {
		if idx == 2 {
			return "" // blank translations are dropped by the parser
		}
		return "ok"
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL + "/v1", APIKey: "test-key", BatchSize: 10, Concurrency: 1})

	out, err := client.Translate(context.Background(), testCues(3), "en", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", out[0].Text)
	assert.Equal(t, "line 2", out[1].Text)
	assert.Equal(t, "ok", out[2].Text)
}

func TestTranslatePartialBatchFailure(t *testing.T) {
	var calls atomic.Int32
	inner := chatHandler(t, func(idx int, text string) string { return "ok" })
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		inner(w, r)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL + "/v1", APIKey: "test-key", BatchSize: 3, Concurrency: 1})

	out, err := client.Translate(context.Background(), testCues(7), "en", nil)
	require.Error(t, err)

	var partial *PartialError
	require.True(t, errors.As(err, &partial))
	require.Len(t, partial.Batches, 1)
	assert.Equal(t, 1, partial.Batches[0].FirstIndex)
	assert.Equal(t, 3, partial.Batches[0].LastIndex)
	assert.Contains(t, err.Error(), "cues 1-3")

	// Cues outside the failed batch are still translated; the failed
	// range keeps the source text.
	require.Len(t, out, 7)
	assert.Equal(t, "line 1", out[0].Text)
	assert.Equal(t, "ok", out[3].Text)
}

func TestTranslateAllBatchesFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL + "/v1", APIKey: "test-key", BatchSize: 2, Concurrency: 2})

	out, err := client.Translate(context.Background(), testCues(4), "en", nil)
	assert.Nil(t, out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestTranslateRequiresAPIKey(t *testing.T) {
	client := NewClient(Config{})
	_, err := client.Translate(context.Background(), testCues(1), "en", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.Defaults()
	assert.Equal(t, "https://api.openai.com/v1", cfg.BaseURL)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, 6, cfg.BatchSize)
	assert.Equal(t, 2, cfg.Concurrency)
}
