// Copyright (C) 2026 Quorum Stack (dev@quorumstack.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package agents holds the LLM-backed stages of the advisory pipeline:
// routing, the two analysis specialists, consolidation, and the general
// fallback responder. Each agent owns its prompt and sampling temperature;
// orchestration lives in the pipeline package.
package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/QuorumStack/QuorumAdvisor/services/advisor/datatypes"
	"github.com/QuorumStack/QuorumAdvisor/services/llm"
	"github.com/tmc/langchaingo/prompts"
)

const routerTemperature = 0.0

// Router classifies an incoming question as regulation-relevant or not.
// Classification must be deterministic, so it samples at temperature zero.
type Router struct {
	llm    llm.LLMClient
	prompt prompts.PromptTemplate
}

// NewRouter builds a Router.
func NewRouter(client llm.LLMClient) (*Router, error) {
	tpl, err := loadPrompt("router", []string{"query"})
	if err != nil {
		return nil, err
	}
	return &Router{llm: client, prompt: tpl}, nil
}

// Decide returns the routing decision for a query. A model failure is
// returned as an error rather than guessed around; the caller decides how
// to surface it.
//
// Fail-closed token matching: anything other than an exact (case- and
// whitespace-insensitive) "relevant" routes to the general branch. A model
// that rambles instead of answering the protocol never reaches the
// regulation pipeline by accident.
func (r *Router) Decide(ctx context.Context, query string) (datatypes.RouterDecision, error) {
	prompt, err := r.prompt.Format(map[string]any{"query": query})
	if err != nil {
		return "", fmt.Errorf("failed to render router prompt: %w", err)
	}

	out, err := r.llm.Generate(ctx, prompt, llm.Temp(routerTemperature))
	if err != nil {
		return "", fmt.Errorf("router model call failed: %w", err)
	}

	token := strings.ToLower(strings.TrimSpace(out))
	if token == "relevant" {
		return datatypes.RouteRelevant, nil
	}
	if token != "irrelevant" {
		slog.Warn("Router returned unexpected token, treating as irrelevant", "token", token)
	}
	return datatypes.RouteIrrelevant, nil
}
