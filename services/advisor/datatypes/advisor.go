// Copyright (C) 2026 Quorum Stack (dev@quorumstack.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes holds the shared types of the advisor service: the
// pipeline's request/state records, the HTTP request/response shapes, and
// the Weaviate schema definitions.
package datatypes

import (
	"github.com/QuorumStack/QuorumAdvisor/services/risk_engine"
)

// RouterDecision is the binary classification the router produces for an
// incoming question.
type RouterDecision string

const (
	// RouteRelevant sends the run down the analysis branch.
	RouteRelevant RouterDecision = "relevant"
	// RouteIrrelevant sends the run down the general-answer branch. This is
	// also the fail-closed default for anything the router's model emits
	// that is not the literal token "relevant".
	RouteIrrelevant RouterDecision = "irrelevant"
)

// PipelineRequest is the immutable input of one pipeline run.
type PipelineRequest struct {
	// Query is the user's question. Must be non-empty; length limits are the
	// caller's responsibility.
	Query string
	// CorpusID selects which document collection to consult.
	CorpusID string
}

// RunState is the mutable record threaded through one pipeline run. Each
// field is populated exactly once by the stage that owns it; later stages
// treat earlier fields as read-only. A RunState never outlives its run and
// is never shared between runs.
type RunState struct {
	SessionID           string
	Query               string
	CorpusID            string
	RouterDecision      RouterDecision
	ReviewerAnalysis    string
	AuditorAnalysis     string
	FinalRecommendation string
	RiskLevel           risk_engine.RiskLevel
}

// Passage is one retrieved chunk of source material with its origin label.
type Passage struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

// AnalysisResult is the typed outcome of one analysis branch. Exactly one
// branch failure mode exists: the branch's error is carried here instead of
// propagating, so the coordinator always has two textual inputs to work on.
type AnalysisResult struct {
	// Role names the branch for placeholder rendering.
	Role string
	// Finding is the substantive analysis text when the branch succeeded.
	Finding string
	// Err is the branch failure, if any.
	Err error
}

// Text realizes the result as display text: the finding on success, a
// role-tagged placeholder on failure. Never empty for a completed branch.
func (a AnalysisResult) Text() string {
	if a.Err != nil {
		return a.Role + " analysis failed: " + a.Err.Error()
	}
	return a.Finding
}

// Failed reports whether the branch ended in its failure mode.
func (a AnalysisResult) Failed() bool {
	return a.Err != nil
}

// CoordinationResult is the coordinator's outcome: exactly one of Result or
// ErrorText is populated.
type CoordinationResult struct {
	Result    string
	ErrorText string
}

// Text returns whichever side of the sum is populated.
func (c CoordinationResult) Text() string {
	if c.ErrorText != "" {
		return c.ErrorText
	}
	return c.Result
}

// Failed reports whether coordination ended in its failure mode.
func (c CoordinationResult) Failed() bool {
	return c.ErrorText != ""
}

// AdviseRequest is the body of POST /v1/advise.
type AdviseRequest struct {
	Query    string `json:"query" binding:"required"`
	CorpusID string `json:"corpus_id"`
}

// AdviseResponse is the complete, displayable result of one run. Failed
// sub-stages appear as explanatory text in their field, never as a missing
// field or a raw traceback.
type AdviseResponse struct {
	SessionID           string `json:"session_id"`
	RouterDecision      string `json:"router_decision"`
	ReviewerAnalysis    string `json:"reviewer_analysis,omitempty"`
	AuditorAnalysis     string `json:"auditor_analysis,omitempty"`
	FinalRecommendation string `json:"final_recommendation"`
	RiskLevel           string `json:"risk_level"`
	RiskLevelDisplay    string `json:"risk_level_display"`
}

// IngestDocumentRequest is the body of POST /v1/documents.
type IngestDocumentRequest struct {
	Content  string `json:"content" binding:"required"`
	Source   string `json:"source" binding:"required"`
	CorpusID string `json:"corpus_id" binding:"required"`
}

// ResultRecord is the payload handed to the result recorder after a
// completed analysis run.
type ResultRecord struct {
	Title     string
	Content   string
	RiskLevel risk_engine.RiskLevel
}
