package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// GenerationParams carries optional sampling knobs for a single generation.
// Nil fields fall back to backend defaults.
type GenerationParams struct {
	Temperature *float32 `json:"temperature"`
	TopP        *float32 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`
	Stop        []string `json:"stop"`
}

// Temp is a convenience for building params with a fixed temperature, which
// is how every pipeline stage calls the gateway.
func Temp(t float32) GenerationParams {
	return GenerationParams{Temperature: &t}
}

// LLMClient defines the standard interface for any LLM backend.
type LLMClient interface {
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)
}

// NewClientFromEnv selects a backend from the LLM_BACKEND environment
// variable ("openai" or "ollama"; defaults to openai).
func NewClientFromEnv() (LLMClient, error) {
	backend := strings.ToLower(strings.TrimSpace(os.Getenv("LLM_BACKEND")))
	switch backend {
	case "", "openai":
		return NewOpenAIClient()
	case "ollama":
		return NewOllamaClient()
	default:
		return nil, fmt.Errorf("unknown LLM_BACKEND %q", backend)
	}
}
