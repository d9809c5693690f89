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
	auditorRole = "Audit"

	// Appended to the second retrieval query so the auditor pulls past
	// audit reports and sanction records rather than the regulation set
	// it already has.
	auditQuerySuffix = " audit findings sanctions disciplinary provisions"
)

// Auditor is the audit-exposure specialist. It retrieves twice: the raw
// query for the governing regulations, then an audit-biased variant for
// past audit records, and assesses sanction likelihood against both.
type Auditor struct {
	llm       llm.LLMClient
	retriever retrieval.Retriever
	prompt    prompts.PromptTemplate
}

// NewAuditor builds an auditor.
func NewAuditor(client llm.LLMClient, retriever retrieval.Retriever) (*Auditor, error) {
	tpl, err := loadPrompt("auditor", []string{"regulations", "audit_records", "query"})
	if err != nil {
		return nil, err
	}
	return &Auditor{llm: client, retriever: retriever, prompt: tpl}, nil
}

// Analyze runs the audit branch. Same failure isolation contract as the
// reviewer: errors live inside the result.
//
// The empty-corpus short-circuit keys off the regulation retrieval only.
// Missing audit records are normal (a clean corpus has none) and simply
// leave that prompt section empty.
func (a *Auditor) Analyze(ctx context.Context, query, corpusID string) datatypes.AnalysisResult {
	regulations, err := a.retriever.Relevant(ctx, query, corpusID, retrievalLimit)
	if err != nil {
		return datatypes.AnalysisResult{Role: auditorRole, Err: fmt.Errorf("retrieval failed: %w", err)}
	}
	if len(regulations) == 0 {
		return datatypes.AnalysisResult{Role: auditorRole, Finding: emptyCorpusFinding}
	}

	auditRecords, err := a.retriever.Relevant(ctx, query+auditQuerySuffix, corpusID, retrievalLimit)
	if err != nil {
		return datatypes.AnalysisResult{Role: auditorRole, Err: fmt.Errorf("audit record retrieval failed: %w", err)}
	}

	prompt, err := a.prompt.Format(map[string]any{
		"regulations":   formatPassagesPlain(regulations),
		"audit_records": formatPassagesPlain(auditRecords),
		"query":         query,
	})
	if err != nil {
		return datatypes.AnalysisResult{Role: auditorRole, Err: err}
	}

	out, err := a.llm.Generate(ctx, prompt, llm.Temp(analysisTemperature))
	if err != nil {
		return datatypes.AnalysisResult{Role: auditorRole, Err: err}
	}
	return datatypes.AnalysisResult{Role: auditorRole, Finding: strings.TrimSpace(out)}
}

// formatPassagesPlain joins passage text without source labels.
func formatPassagesPlain(passages []datatypes.Passage) string {
	parts := make([]string, 0, len(passages))
	for _, p := range passages {
		parts = append(parts, p.Text)
	}
	return strings.Join(parts, "\n\n")
}
