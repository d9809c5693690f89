package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOpenAIClient(baseURL string) *OpenAIClient {
	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = baseURL
	return &OpenAIClient{
		client:       openai.NewClientWithConfig(cfg),
		model:        "gpt-4o-mini",
		systemPrompt: "test system prompt",
	}
}

func newChatCompletionServer(t *testing.T, captured *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"choices": [{"message": {"role": "assistant", "content": "relevant"}, "finish_reason": "stop"}]
		}`))
	}))
}

func TestOpenAIGenerateZeroTemperatureIsEncoded(t *testing.T) {
	var body map[string]any
	server := newChatCompletionServer(t, &body)
	defer server.Close()

	client := newTestOpenAIClient(server.URL)
	out, err := client.Generate(context.Background(), "classify this", Temp(0.0))
	require.NoError(t, err)
	assert.Equal(t, "relevant", out)

	// A requested temperature of 0 must reach the wire instead of being
	// dropped and silently replaced by the API default.
	temp, ok := body["temperature"].(float64)
	require.True(t, ok, "temperature missing from request body: %v", body)
	assert.Greater(t, temp, 0.0)
	assert.Less(t, temp, 1e-6)
}

func TestOpenAIGenerateTemperaturePassthrough(t *testing.T) {
	var body map[string]any
	server := newChatCompletionServer(t, &body)
	defer server.Close()

	client := newTestOpenAIClient(server.URL)
	_, err := client.Generate(context.Background(), "answer freely", Temp(0.7))
	require.NoError(t, err)

	temp, ok := body["temperature"].(float64)
	require.True(t, ok)
	assert.InDelta(t, 0.7, temp, 1e-6)

	// System prompt and user prompt travel as separate messages.
	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
}
