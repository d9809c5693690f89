// Copyright (C) 2026 Quorum Stack (dev@quorumstack.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/QuorumStack/QuorumAdvisor/services/advisor/agents"
	"github.com/QuorumStack/QuorumAdvisor/services/advisor/datatypes"
	"github.com/QuorumStack/QuorumAdvisor/services/llm"
	"github.com/QuorumStack/QuorumAdvisor/services/risk_engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Prompt markers used to dispatch the scripted model. Each agent's prompt
// template opens with a distinct role statement.
const (
	routerMarker      = "routing classifier"
	reviewerMarker    = "regulation review specialist"
	auditorMarker     = "internal audit specialist"
	coordinatorMarker = "coordinator of a regulation advisory team"
	generalMarker     = "helpful assistant"
)

// scriptedLLM answers by prompt marker, so one fake serves all five agents.
type scriptedLLM struct {
	mu        sync.Mutex
	responses map[string]string
	errors    map[string]error
	prompts   []string
}

func (s *scriptedLLM) Generate(ctx context.Context, prompt string, params llm.GenerationParams) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	for marker, err := range s.errors {
		if strings.Contains(prompt, marker) {
			return "", err
		}
	}
	for marker, out := range s.responses {
		if strings.Contains(prompt, marker) {
			return out, nil
		}
	}
	return "", fmt.Errorf("no scripted response for prompt: %.60s", prompt)
}

func (s *scriptedLLM) callsTo(marker string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.prompts {
		if strings.Contains(p, marker) {
			n++
		}
	}
	return n
}

type fakeRetriever struct {
	mu       sync.Mutex
	passages []datatypes.Passage
	err      error
	queries  []string
}

func (f *fakeRetriever) Relevant(ctx context.Context, query, corpusID string, limit int) ([]datatypes.Passage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.passages, nil
}

func (f *fakeRetriever) EnsureIndexed(ctx context.Context, corpusID string) error { return nil }

func (f *fakeRetriever) queryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []datatypes.ResultRecord
	err     error
}

func (f *fakeRecorder) Record(ctx context.Context, rec datatypes.ResultRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, rec)
	return nil
}

func newTestPipeline(t *testing.T, model llm.LLMClient, retriever *fakeRetriever, rec *fakeRecorder) *Pipeline {
	t.Helper()

	router, err := agents.NewRouter(model)
	require.NoError(t, err)
	reviewer, err := agents.NewRegulationReviewer(model, retriever)
	require.NoError(t, err)
	auditor, err := agents.NewAuditor(model, retriever)
	require.NoError(t, err)
	coordinator, err := agents.NewCoordinator(model)
	require.NoError(t, err)
	general, err := agents.NewGeneralResponder(model)
	require.NoError(t, err)
	engine, err := risk_engine.NewRiskEngine()
	require.NoError(t, err)

	cfg := Config{
		Router:      router,
		Reviewer:    reviewer,
		Auditor:     auditor,
		Coordinator: coordinator,
		General:     general,
		RiskEngine:  engine,
	}
	if rec != nil {
		cfg.Recorder = rec
	}
	p, err := New(cfg)
	require.NoError(t, err)
	return p
}

func TestRunRegulationBranchEndToEnd(t *testing.T) {
	model := &scriptedLLM{responses: map[string]string{
		routerMarker:      "relevant",
		reviewerMarker:    "Violation likelihood high. Article 12 requires reporting.",
		auditorMarker:     "Audit sanction likelihood high. Expect disciplinary action.",
		coordinatorMarker: "Overall risk is high. Report the gift immediately.",
	}}
	retriever := &fakeRetriever{passages: []datatypes.Passage{
		{Text: "Article 12. Gifts must be reported.", Source: "ethics_code.txt"},
	}}
	rec := &fakeRecorder{}

	p := newTestPipeline(t, model, retriever, rec)
	state, err := p.Run(context.Background(), datatypes.PipelineRequest{
		Query:    "Can I accept a gift from a vendor?",
		CorpusID: "hr-policy",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, state.SessionID)
	assert.Equal(t, datatypes.RouteRelevant, state.RouterDecision)
	assert.Contains(t, state.ReviewerAnalysis, "Violation likelihood high")
	assert.Contains(t, state.AuditorAnalysis, "Audit sanction likelihood high")
	assert.Equal(t, "Overall risk is high. Report the gift immediately.", state.FinalRecommendation)
	assert.Equal(t, risk_engine.RiskHigh, state.RiskLevel)

	// Three retrievals: one by the reviewer, two by the auditor
	// (regulations plus past audit records).
	assert.Equal(t, 3, retriever.queryCount())

	// The run was recorded with a truncated title.
	require.Len(t, rec.records, 1)
	assert.Equal(t, "[Can I accept a gift ] Advisory Result", rec.records[0].Title)
	assert.Equal(t, risk_engine.RiskHigh, rec.records[0].RiskLevel)
	assert.Equal(t, state.FinalRecommendation, rec.records[0].Content)
}

func TestRunGeneralBranchSkipsAnalysis(t *testing.T) {
	model := &scriptedLLM{responses: map[string]string{
		routerMarker:  "irrelevant",
		generalMarker: "Boil water, add salt, cook for nine minutes.",
	}}
	retriever := &fakeRetriever{}
	rec := &fakeRecorder{}

	p := newTestPipeline(t, model, retriever, rec)
	state, err := p.Run(context.Background(), datatypes.PipelineRequest{Query: "How do I cook pasta?"})
	require.NoError(t, err)

	assert.Equal(t, datatypes.RouteIrrelevant, state.RouterDecision)
	assert.Empty(t, state.ReviewerAnalysis)
	assert.Empty(t, state.AuditorAnalysis)
	assert.Equal(t, "Boil water, add salt, cook for nine minutes.", state.FinalRecommendation)
	assert.Equal(t, risk_engine.RiskNotApplicable, state.RiskLevel)

	assert.Zero(t, retriever.queryCount(), "general branch must not retrieve")
	assert.Zero(t, model.callsTo(reviewerMarker))
	assert.Zero(t, model.callsTo(auditorMarker))
	assert.Zero(t, model.callsTo(coordinatorMarker))
	assert.Empty(t, rec.records, "general branch must not be recorded")
}

func TestRunEmptyRetrievalShortCircuitsAnalysisModels(t *testing.T) {
	model := &scriptedLLM{responses: map[string]string{
		routerMarker:      "relevant",
		coordinatorMarker: "Nothing to assess without regulations.",
	}}
	retriever := &fakeRetriever{} // no passages

	p := newTestPipeline(t, model, retriever, nil)
	state, err := p.Run(context.Background(), datatypes.PipelineRequest{Query: "q", CorpusID: "empty-corpus"})
	require.NoError(t, err)

	wantFinding := "No relevant regulations were found. Please ask a more specific question."
	assert.Equal(t, wantFinding, state.ReviewerAnalysis)
	assert.Equal(t, wantFinding, state.AuditorAnalysis)

	// Only the router and the coordinator reached the model.
	assert.Zero(t, model.callsTo(reviewerMarker))
	assert.Zero(t, model.callsTo(auditorMarker))
	assert.Equal(t, 1, model.callsTo(coordinatorMarker))
	assert.Equal(t, risk_engine.RiskIndeterminate, state.RiskLevel)
}

func TestRunBranchFailureIsIsolated(t *testing.T) {
	model := &scriptedLLM{
		responses: map[string]string{
			routerMarker:      "relevant",
			reviewerMarker:    "Violation likelihood high.",
			coordinatorMarker: "Partial assessment: risk appears high.",
		},
		errors: map[string]error{
			auditorMarker: errors.New("model overloaded"),
		},
	}
	retriever := &fakeRetriever{passages: []datatypes.Passage{{Text: "Article 1.", Source: "s"}}}

	p := newTestPipeline(t, model, retriever, nil)
	state, err := p.Run(context.Background(), datatypes.PipelineRequest{Query: "q", CorpusID: "c"})
	require.NoError(t, err, "one failed branch must not fail the run")

	assert.Contains(t, state.ReviewerAnalysis, "Violation likelihood high")
	assert.Equal(t, "Audit analysis failed: model overloaded", state.AuditorAnalysis)
	assert.Equal(t, "Partial assessment: risk appears high.", state.FinalRecommendation)
	// The surviving branch's phrases still grade the run.
	assert.Equal(t, risk_engine.RiskHigh, state.RiskLevel)
}

func TestRunCoordinatorFailureDegrades(t *testing.T) {
	model := &scriptedLLM{
		responses: map[string]string{
			routerMarker:   "relevant",
			reviewerMarker: "No violation found.",
			auditorMarker:  "No issues found. Compliant.",
		},
		errors: map[string]error{
			coordinatorMarker: errors.New("model unavailable"),
		},
	}
	retriever := &fakeRetriever{passages: []datatypes.Passage{{Text: "Article 1.", Source: "s"}}}

	p := newTestPipeline(t, model, retriever, nil)
	state, err := p.Run(context.Background(), datatypes.PipelineRequest{Query: "q", CorpusID: "c"})
	require.NoError(t, err)

	assert.Equal(t, "Failed to produce a final recommendation: model unavailable", state.FinalRecommendation)
	// Classification still runs on the branch analyses.
	assert.Equal(t, risk_engine.RiskLow, state.RiskLevel)
}

func TestRunRouterFailureFailsTheRun(t *testing.T) {
	model := &scriptedLLM{errors: map[string]error{routerMarker: errors.New("connection refused")}}

	p := newTestPipeline(t, model, &fakeRetriever{}, nil)
	_, err := p.Run(context.Background(), datatypes.PipelineRequest{Query: "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "router model call failed")
}

func TestRunRecordingFailureIsNonFatal(t *testing.T) {
	model := &scriptedLLM{responses: map[string]string{
		routerMarker:      "relevant",
		reviewerMarker:    "Violation likelihood high.",
		auditorMarker:     "Audit sanction likelihood high.",
		coordinatorMarker: "Report it.",
	}}
	retriever := &fakeRetriever{passages: []datatypes.Passage{{Text: "Article 1.", Source: "s"}}}
	rec := &fakeRecorder{err: errors.New("notion rate limited")}

	p := newTestPipeline(t, model, retriever, rec)
	state, err := p.Run(context.Background(), datatypes.PipelineRequest{Query: "q", CorpusID: "c"})
	require.NoError(t, err)
	assert.Equal(t, risk_engine.RiskHigh, state.RiskLevel)
}

func TestBranchLabel(t *testing.T) {
	assert.Equal(t, "regulation", branchLabel(datatypes.RouteRelevant))
	assert.Equal(t, "general", branchLabel(datatypes.RouteIrrelevant))
	// A routing failure leaves the decision unset.
	assert.Equal(t, "unrouted", branchLabel(""))
}

func TestRecordTitleTruncation(t *testing.T) {
	assert.Equal(t, "[short] Advisory Result", recordTitle("short"))

	long := strings.Repeat("q", 50)
	got := recordTitle(long)
	assert.Equal(t, "["+strings.Repeat("q", 20)+"] Advisory Result", got)

	// Truncation is rune-safe.
	korean := strings.Repeat("규", 30)
	assert.Equal(t, "["+strings.Repeat("규", 20)+"] Advisory Result", recordTitle(korean))
}

func TestNewRejectsMissingCollaborators(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "router")
}
