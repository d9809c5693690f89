package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOllamaClient(t *testing.T, handler http.HandlerFunc) *OllamaClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return &OllamaClient{
		httpClient: server.Client(),
		baseURL:    server.URL,
		model:      "test-model",
	}
}

func TestOllamaGenerate(t *testing.T) {
	var captured ollamaGenerateRequest
	client := newTestOllamaClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(ollamaGenerateResponse{
			Model:    "test-model",
			Response: "relevant",
			Done:     true,
		})
	})

	out, err := client.Generate(context.Background(), "classify this", Temp(0.0))
	require.NoError(t, err)
	assert.Equal(t, "relevant", out)
	assert.Equal(t, "test-model", captured.Model)
	assert.Equal(t, "classify this", captured.Prompt)
	assert.False(t, captured.Stream)
	assert.EqualValues(t, 0.0, captured.Options["temperature"])
}

func TestOllamaGenerateServerError(t *testing.T) {
	client := newTestOllamaClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	})

	_, err := client.Generate(context.Background(), "classify this", GenerationParams{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestTempHelper(t *testing.T) {
	params := Temp(0.7)
	require.NotNil(t, params.Temperature)
	assert.EqualValues(t, float32(0.7), *params.Temperature)
}
