// Copyright (C) 2026 Quorum Stack (dev@quorumstack.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package pipeline drives one advisory run through its stages as an
// explicit state machine. The flow is fixed:
//
//	start -> routing -> analyzing -> coordinating -> classifying -> done
//	              \--> general_answer -> done
//
// Routing is the only stage that can fail a run. Everything after it
// degrades: analysis failures become placeholder text, a coordinator
// failure becomes an error-shaped recommendation, a recording failure is
// logged and dropped.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/QuorumStack/QuorumAdvisor/services/advisor/agents"
	"github.com/QuorumStack/QuorumAdvisor/services/advisor/datatypes"
	"github.com/QuorumStack/QuorumAdvisor/services/advisor/observability"
	"github.com/QuorumStack/QuorumAdvisor/services/advisor/recorder"
	"github.com/QuorumStack/QuorumAdvisor/services/risk_engine"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("quorum.advisor.pipeline")

// State identifies one stage of a run.
type State string

const (
	StateStart         State = "start"
	StateRouting       State = "routing"
	StateAnalyzing     State = "analyzing"
	StateCoordinating  State = "coordinating"
	StateClassifying   State = "classifying"
	StateGeneralAnswer State = "general_answer"
	StateDone          State = "done"
)

const recordTitleRunes = 20

// stepFunc advances the run by one stage and names the next one.
type stepFunc func(ctx context.Context, state *datatypes.RunState) (State, error)

// Pipeline wires the agents, the risk engine, and the optional recorder
// into the run state machine. Safe for concurrent use: per-run data lives
// in the RunState, never on the Pipeline.
type Pipeline struct {
	router      *agents.Router
	reviewer    *agents.RegulationReviewer
	auditor     *agents.Auditor
	coordinator *agents.Coordinator
	general     *agents.GeneralResponder
	risk        *risk_engine.RiskEngine
	recorder    recorder.ResultRecorder // nil disables recording

	steps map[State]stepFunc
}

// Config collects the pipeline's collaborators. Recorder may be nil.
type Config struct {
	Router      *agents.Router
	Reviewer    *agents.RegulationReviewer
	Auditor     *agents.Auditor
	Coordinator *agents.Coordinator
	General     *agents.GeneralResponder
	RiskEngine  *risk_engine.RiskEngine
	Recorder    recorder.ResultRecorder
}

// New builds a Pipeline. All collaborators except the recorder are
// required.
func New(cfg Config) (*Pipeline, error) {
	switch {
	case cfg.Router == nil:
		return nil, fmt.Errorf("pipeline requires a router")
	case cfg.Reviewer == nil:
		return nil, fmt.Errorf("pipeline requires a reviewer")
	case cfg.Auditor == nil:
		return nil, fmt.Errorf("pipeline requires an auditor")
	case cfg.Coordinator == nil:
		return nil, fmt.Errorf("pipeline requires a coordinator")
	case cfg.General == nil:
		return nil, fmt.Errorf("pipeline requires a general responder")
	case cfg.RiskEngine == nil:
		return nil, fmt.Errorf("pipeline requires a risk engine")
	}

	p := &Pipeline{
		router:      cfg.Router,
		reviewer:    cfg.Reviewer,
		auditor:     cfg.Auditor,
		coordinator: cfg.Coordinator,
		general:     cfg.General,
		risk:        cfg.RiskEngine,
		recorder:    cfg.Recorder,
	}
	p.steps = map[State]stepFunc{
		StateRouting:       p.stepRouting,
		StateAnalyzing:     p.stepAnalyzing,
		StateCoordinating:  p.stepCoordinating,
		StateClassifying:   p.stepClassifying,
		StateGeneralAnswer: p.stepGeneralAnswer,
	}
	return p, nil
}

// Run executes one advisory run to completion. The returned RunState is
// fully populated on success. The only error path is a routing failure;
// every later stage degrades inside the state instead.
func (p *Pipeline) Run(ctx context.Context, req datatypes.PipelineRequest) (*datatypes.RunState, error) {
	ctx, span := tracer.Start(ctx, "Pipeline.Run")
	defer span.End()

	state := &datatypes.RunState{
		SessionID: uuid.NewString(),
		Query:     req.Query,
		CorpusID:  req.CorpusID,
	}
	span.SetAttributes(attribute.String("session_id", state.SessionID))
	slog.Info("Pipeline run started", "session_id", state.SessionID, "corpus_id", state.CorpusID)

	current := StateRouting
	for current != StateDone {
		step, ok := p.steps[current]
		if !ok {
			// Unreachable unless the step table is edited badly.
			return nil, fmt.Errorf("no step registered for state %q", current)
		}

		started := time.Now()
		next, err := step(ctx, state)
		observability.StageDuration.WithLabelValues(string(current)).Observe(time.Since(started).Seconds())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			observability.RunsTotal.WithLabelValues(branchLabel(state.RouterDecision), "error").Inc()
			slog.Error("Pipeline run failed", "session_id", state.SessionID, "state", current, "error", err)
			return nil, err
		}
		slog.Debug("Pipeline transition", "session_id", state.SessionID, "from", current, "to", next)
		current = next
	}

	observability.RunsTotal.WithLabelValues(branchLabel(state.RouterDecision), "ok").Inc()
	observability.RiskLevelsTotal.WithLabelValues(string(state.RiskLevel)).Inc()
	slog.Info("Pipeline run finished",
		"session_id", state.SessionID,
		"router_decision", state.RouterDecision,
		"risk_level", state.RiskLevel)
	return state, nil
}

func (p *Pipeline) stepRouting(ctx context.Context, state *datatypes.RunState) (State, error) {
	decision, err := p.router.Decide(ctx, state.Query)
	if err != nil {
		return StateDone, err
	}
	state.RouterDecision = decision
	if decision == datatypes.RouteRelevant {
		return StateAnalyzing, nil
	}
	return StateGeneralAnswer, nil
}

// stepAnalyzing runs both specialists concurrently. The branches are
// isolated on purpose: neither can cancel or fail the other, which is why
// this is a WaitGroup and not an errgroup.
func (p *Pipeline) stepAnalyzing(ctx context.Context, state *datatypes.RunState) (State, error) {
	var (
		wg            sync.WaitGroup
		review, audit datatypes.AnalysisResult
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		review = p.reviewer.Analyze(ctx, state.Query, state.CorpusID)
	}()
	go func() {
		defer wg.Done()
		audit = p.auditor.Analyze(ctx, state.Query, state.CorpusID)
	}()
	wg.Wait()

	for _, result := range []datatypes.AnalysisResult{review, audit} {
		if result.Failed() {
			observability.BranchFailuresTotal.WithLabelValues(result.Role).Inc()
			slog.Warn("Analysis branch failed",
				"session_id", state.SessionID, "role", result.Role, "error", result.Err)
		}
	}

	state.ReviewerAnalysis = review.Text()
	state.AuditorAnalysis = audit.Text()
	return StateCoordinating, nil
}

func (p *Pipeline) stepCoordinating(ctx context.Context, state *datatypes.RunState) (State, error) {
	result := p.coordinator.Consolidate(ctx, state.Query, state.ReviewerAnalysis, state.AuditorAnalysis)
	if result.Failed() {
		slog.Warn("Coordination degraded", "session_id", state.SessionID, "error_text", result.ErrorText)
	}
	state.FinalRecommendation = result.Text()
	return StateClassifying, nil
}

func (p *Pipeline) stepClassifying(ctx context.Context, state *datatypes.RunState) (State, error) {
	state.RiskLevel = p.risk.Grade(state.ReviewerAnalysis, state.AuditorAnalysis)

	if p.recorder != nil {
		rec := datatypes.ResultRecord{
			Title:     recordTitle(state.Query),
			Content:   state.FinalRecommendation,
			RiskLevel: state.RiskLevel,
		}
		if err := p.recorder.Record(ctx, rec); err != nil {
			observability.RecordingFailuresTotal.Inc()
			slog.Warn("Failed to record advisory result",
				"session_id", state.SessionID, "error", err)
		}
	}
	return StateDone, nil
}

func (p *Pipeline) stepGeneralAnswer(ctx context.Context, state *datatypes.RunState) (State, error) {
	state.FinalRecommendation = p.general.Respond(ctx, state.Query)
	state.RiskLevel = risk_engine.RiskNotApplicable
	return StateDone, nil
}

// branchLabel maps the routing decision to the metric label. A run that
// failed before routing completed has no decision and is counted as
// unrouted, not lumped into the general branch.
func branchLabel(decision datatypes.RouterDecision) string {
	switch decision {
	case datatypes.RouteRelevant:
		return "regulation"
	case datatypes.RouteIrrelevant:
		return "general"
	default:
		return "unrouted"
	}
}

// recordTitle renders the recorded page title from the query, truncated so
// oversized questions stay scannable in the result store.
func recordTitle(query string) string {
	runes := []rune(query)
	if len(runes) > recordTitleRunes {
		runes = runes[:recordTitleRunes]
	}
	return fmt.Sprintf("[%s] Advisory Result", string(runes))
}
