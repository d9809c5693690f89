// Copyright (C) 2026 Quorum Stack (dev@quorumstack.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/QuorumStack/QuorumAdvisor/services/advisor/datatypes"
	"github.com/QuorumStack/QuorumAdvisor/services/advisor/retrieval"
	"github.com/QuorumStack/QuorumAdvisor/services/llm"
	"github.com/tmc/langchaingo/prompts"
)

const (
	analysisTemperature = 0.1
	retrievalLimit      = 5

	// Returned instead of calling the model when retrieval comes back empty.
	emptyCorpusFinding = "No relevant regulations were found. Please ask a more specific question."

	reviewerRole = "Regulation review"
)

// RegulationReviewer is the policy-review specialist: it retrieves the
// regulation passages closest to the question and assesses violation
// likelihood against them.
type RegulationReviewer struct {
	llm       llm.LLMClient
	retriever retrieval.Retriever
	prompt    prompts.PromptTemplate
}

// NewRegulationReviewer builds a reviewer.
func NewRegulationReviewer(client llm.LLMClient, retriever retrieval.Retriever) (*RegulationReviewer, error) {
	tpl, err := loadPrompt("reviewer", []string{"passages", "query"})
	if err != nil {
		return nil, err
	}
	return &RegulationReviewer{llm: client, retriever: retriever, prompt: tpl}, nil
}

// Analyze runs the review branch. It never returns a Go error: failures are
// captured inside the AnalysisResult so one branch going down cannot take
// the other with it.
func (r *RegulationReviewer) Analyze(ctx context.Context, query, corpusID string) datatypes.AnalysisResult {
	passages, err := r.retriever.Relevant(ctx, query, corpusID, retrievalLimit)
	if err != nil {
		return datatypes.AnalysisResult{Role: reviewerRole, Err: fmt.Errorf("retrieval failed: %w", err)}
	}
	if len(passages) == 0 {
		return datatypes.AnalysisResult{Role: reviewerRole, Finding: emptyCorpusFinding}
	}

	prompt, err := r.prompt.Format(map[string]any{
		"passages": formatPassagesWithSources(passages),
		"query":    query,
	})
	if err != nil {
		return datatypes.AnalysisResult{Role: reviewerRole, Err: err}
	}

	out, err := r.llm.Generate(ctx, prompt, llm.Temp(analysisTemperature))
	if err != nil {
		return datatypes.AnalysisResult{Role: reviewerRole, Err: err}
	}
	return datatypes.AnalysisResult{Role: reviewerRole, Finding: strings.TrimSpace(out)}
}

// formatPassagesWithSources renders passages with their document of origin
// so the model can cite the regulation it leans on.
func formatPassagesWithSources(passages []datatypes.Passage) string {
	var b strings.Builder
	for i, p := range passages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		label := p.Source
		if label == "" {
			label = "unknown"
		}
		fmt.Fprintf(&b, "--- Source: %s\n%s", label, p.Text)
	}
	return b.String()
}
