package http

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingLogger captures records per level.
type recordingLogger struct {
	mu    sync.Mutex
	info  []string
	debug []string
}

func (l *recordingLogger) Info(action, _, _ string, _ map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.info = append(l.info, action)
}

func (l *recordingLogger) Debug(action, _, _ string, _ map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debug = append(l.debug, action)
}

func (l *recordingLogger) Error(string, string, string, map[string]interface{}, error) {}

func TestLoggingMiddlewareRecordsCompletionAtInfo(t *testing.T) {
	lgr := &recordingLogger{}
	handler := LoggingMiddleware(lgr)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders", nil))

	// Completion records go to Info so they survive outside dev mode.
	require.Equal(t, []string{"http_request_completed"}, lgr.info)
	assert.Equal(t, []string{"http_request"}, lgr.debug)
}
