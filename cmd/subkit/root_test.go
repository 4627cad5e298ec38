package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootHelpListsCommands(t *testing.T) {
	out, err := executeCommand(t, "--help")
	require.NoError(t, err)
	for _, name := range []string{"transcribe", "burn", "translate", "serve", "watch"} {
		assert.Contains(t, out, name)
	}
}

func TestTranscribeMissingFile(t *testing.T) {
	_, err := executeCommand(t, "transcribe", "/nonexistent/clip.mp4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRootShorthandMissingFile(t *testing.T) {
	_, err := executeCommand(t, "/nonexistent/clip.mp4", "--model-size", "small")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestBurnMissingInput(t *testing.T) {
	_, err := executeCommand(t, "burn", "/nonexistent/clip.mp4", "/nonexistent/clip.srt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestTranslateMissingFile(t *testing.T) {
	_, err := executeCommand(t, "translate", "/nonexistent/clip.srt", "--target-lang", "en")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestTranslateEndpointFlags(t *testing.T) {
	var gotAuth, gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var req struct {
			Model string `json:"model"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotModel = req.Model

		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{
					"content": `[{"index":1,"translation":"hello"},{"index":2,"translation":"goodbye"}]`,
				}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	input := filepath.Join(t.TempDir(), "clip.srt")
	srt := "1\n00:00:00,000 --> 00:00:01,500\n你好\n\n2\n00:00:01,500 --> 00:00:03,000\n再见\n"
	require.NoError(t, os.WriteFile(input, []byte(srt), 0o644))

	_, err := executeCommand(t, "translate", input,
		"--target-lang", "en",
		"--base-url", srv.URL,
		"--api-key", "test-key",
		"--model", "test-model",
		"--batch-size", "10")
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "test-model", gotModel)

	out, err := os.ReadFile(strings.TrimSuffix(input, ".srt") + "_en.srt")
	require.NoError(t, err)
	assert.Contains(t, string(out), "hello")
	assert.Contains(t, string(out), "goodbye")
	assert.Contains(t, string(out), "00:00:01,500 --> 00:00:03,000")
}

func TestWatchMissingDirectory(t *testing.T) {
	_, err := executeCommand(t, "watch", "/nonexistent/dir")
	require.Error(t, err)
}

func TestUnknownFlagRejected(t *testing.T) {
	_, err := executeCommand(t, "transcribe", "clip.mp4", "--bogus")
	require.Error(t, err)
}
