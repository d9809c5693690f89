// Copyright (C) 2026 Quorum Stack (dev@quorumstack.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package agents

import (
	"context"
	"strings"

	"github.com/QuorumStack/QuorumAdvisor/services/advisor/datatypes"
	"github.com/QuorumStack/QuorumAdvisor/services/llm"
	"github.com/tmc/langchaingo/prompts"
)

const coordinatorTemperature = 0.1

// Coordinator consolidates the two branch analyses into one recommendation.
// It is the last model call in the pipeline and must not fail the run: a
// model error degrades into an error-shaped result text.
type Coordinator struct {
	llm    llm.LLMClient
	prompt prompts.PromptTemplate
}

// NewCoordinator builds a coordinator.
func NewCoordinator(client llm.LLMClient) (*Coordinator, error) {
	tpl, err := loadPrompt("coordinator", []string{"query", "reviewer", "auditor"})
	if err != nil {
		return nil, err
	}
	return &Coordinator{llm: client, prompt: tpl}, nil
}

// Consolidate produces the final recommendation from the two analysis texts.
// The inputs are already realized text, placeholder or not; the coordinator
// does not distinguish a failed branch from a successful one.
func (c *Coordinator) Consolidate(ctx context.Context, query, reviewerText, auditorText string) datatypes.CoordinationResult {
	prompt, err := c.prompt.Format(map[string]any{
		"query":    query,
		"reviewer": reviewerText,
		"auditor":  auditorText,
	})
	if err != nil {
		return datatypes.CoordinationResult{ErrorText: "Failed to produce a final recommendation: " + err.Error()}
	}

	out, err := c.llm.Generate(ctx, prompt, llm.Temp(coordinatorTemperature))
	if err != nil {
		return datatypes.CoordinationResult{ErrorText: "Failed to produce a final recommendation: " + err.Error()}
	}
	return datatypes.CoordinationResult{Result: strings.TrimSpace(out)}
}
