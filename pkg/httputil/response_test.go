package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()

	err := WriteJSON(w, http.StatusOK, []string{"ietf-rip"})

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.JSONEq(t, `["ietf-rip"]`, w.Body.String())
}

func TestWriteJSON_EncodeFailure(t *testing.T) {
	w := httptest.NewRecorder()

	err := WriteJSON(w, http.StatusOK, map[string]any{"bad": make(chan int)})

	assert.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "failed to encode response")
}

func TestWriteRawJSON(t *testing.T) {
	w := httptest.NewRecorder()
	WriteRawJSON(w, http.StatusOK, json.RawMessage(`{"type":"container"}`))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, `{"type":"container"}`, w.Body.String())

	w = httptest.NewRecorder()
	WriteRawJSON(w, http.StatusOK, nil)
	assert.Equal(t, "null", w.Body.String())
}

func TestErrorWriters(t *testing.T) {
	tests := []struct {
		name   string
		write  func(w http.ResponseWriter)
		status int
		msg    string
	}{
		{"error", func(w http.ResponseWriter) { WriteError(w, http.StatusBadGateway, errors.New("engine failed")) }, http.StatusBadGateway, "engine failed"},
		{"bad request", func(w http.ResponseWriter) { WriteBadRequest(w, "unknown index kind") }, http.StatusBadRequest, "unknown index kind"},
		{"not found", func(w http.ResponseWriter) { WriteNotFoundError(w, "module not found") }, http.StatusNotFound, "module not found"},
		{"message", func(w http.ResponseWriter) { WriteErrorMessage(w, http.StatusServiceUnavailable, "engine down") }, http.StatusServiceUnavailable, "engine down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w)

			assert.Equal(t, tt.status, w.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.msg, body.Error)
		})
	}
}

func TestWriteDetailedError(t *testing.T) {
	w := httptest.NewRecorder()

	WriteDetailedError(w, http.StatusBadGateway, errors.New("search failed"), map[string]string{"type": "search_phase_execution_exception"})

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.JSONEq(t, `{"error":"search failed","details":{"type":"search_phase_execution_exception"}}`, w.Body.String())
}

func TestWriteSuccessAndCreated(t *testing.T) {
	w := httptest.NewRecorder()
	require.NoError(t, WriteSuccess(w, map[string]bool{"exists": true}))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	require.NoError(t, WriteCreated(w, map[string]string{"result": "created"}))
	assert.Equal(t, http.StatusCreated, w.Code)
}
