package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/subtitle-kit/subkit/internal/logging"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logger := logging.Logger()
	prev := logger.Out
	logger.SetOutput(&buf)
	t.Cleanup(func() { logger.SetOutput(prev) })
	return &buf
}

func okHandler(status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})
}

func TestLoggerRecordsRequest(t *testing.T) {
	buf := captureLog(t)
	h := Logger(okHandler(http.StatusAccepted))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/transcribe", nil))

	assert.Contains(t, buf.String(), "POST /api/transcribe 202")
	assert.Contains(t, buf.String(), "duration")
}

func TestLoggerSkipsSuccessfulPolling(t *testing.T) {
	buf := captureLog(t)
	h := Logger(okHandler(http.StatusOK))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs", nil))

	assert.Empty(t, buf.String())
}

func TestLoggerReportsPollingErrors(t *testing.T) {
	buf := captureLog(t)
	h := Logger(okHandler(http.StatusInternalServerError))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs", nil))

	assert.Contains(t, buf.String(), "GET /api/jobs 500")
}
