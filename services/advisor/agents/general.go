// Copyright (C) 2026 Quorum Stack (dev@quorumstack.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package agents

import (
	"context"
	"log/slog"
	"strings"

	"github.com/QuorumStack/QuorumAdvisor/services/llm"
	"github.com/tmc/langchaingo/prompts"
)

const (
	generalTemperature = 0.7

	generalFallback = "Sorry, I could not produce an answer right now. Please try again in a moment."
)

// GeneralResponder answers questions that do not concern internal
// regulations. Conversational, so it samples warmer than the analysis
// agents.
type GeneralResponder struct {
	llm    llm.LLMClient
	prompt prompts.PromptTemplate
}

// NewGeneralResponder builds a general responder.
func NewGeneralResponder(client llm.LLMClient) (*GeneralResponder, error) {
	tpl, err := loadPrompt("general", []string{"query"})
	if err != nil {
		return nil, err
	}
	return &GeneralResponder{llm: client, prompt: tpl}, nil
}

// Respond answers a general question. Degrades to an apology on model
// failure rather than failing the run.
func (g *GeneralResponder) Respond(ctx context.Context, query string) string {
	prompt, err := g.prompt.Format(map[string]any{"query": query})
	if err != nil {
		slog.Warn("Failed to render general prompt", "error", err)
		return generalFallback
	}

	out, err := g.llm.Generate(ctx, prompt, llm.Temp(generalTemperature))
	if err != nil {
		slog.Warn("General responder model call failed", "error", err)
		return generalFallback
	}
	return strings.TrimSpace(out)
}
