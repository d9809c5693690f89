// Copyright (C) 2026 Quorum Stack (dev@quorumstack.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers holds the gin handlers of the advisor's HTTP surface.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/QuorumStack/QuorumAdvisor/pkg/validation"
	"github.com/QuorumStack/QuorumAdvisor/services/advisor/datatypes"
	"github.com/gin-gonic/gin"
)

// DefaultCorpusID is used when a request does not name a corpus.
const DefaultCorpusID = "default"

// Advisor runs one advisory pipeline run. Satisfied by pipeline.Pipeline.
type Advisor interface {
	Run(ctx context.Context, req datatypes.PipelineRequest) (*datatypes.RunState, error)
}

// HandleAdvise serves POST /v1/advise: one full pipeline run per request.
//
// A routing failure is the run's only hard failure mode and surfaces as
// 502, since it means the model backend is unreachable or broken. Every
// other degradation arrives inside the response body as explanatory text.
func HandleAdvise(advisor Advisor) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.AdviseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}
		if strings.TrimSpace(req.Query) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Query must not be blank"})
			return
		}
		if req.CorpusID == "" {
			req.CorpusID = DefaultCorpusID
		}
		corpusID, err := validation.SanitizeCorpusID(req.CorpusID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid corpus_id", "details": err.Error()})
			return
		}

		state, err := advisor.Run(c.Request.Context(), datatypes.PipelineRequest{
			Query:    req.Query,
			CorpusID: corpusID,
		})
		if err != nil {
			slog.Error("Advisory run failed", "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Advisory run failed", "details": err.Error()})
			return
		}

		c.JSON(http.StatusOK, datatypes.AdviseResponse{
			SessionID:           state.SessionID,
			RouterDecision:      string(state.RouterDecision),
			ReviewerAnalysis:    state.ReviewerAnalysis,
			AuditorAnalysis:     state.AuditorAnalysis,
			FinalRecommendation: state.FinalRecommendation,
			RiskLevel:           string(state.RiskLevel),
			RiskLevelDisplay:    state.RiskLevel.Display(),
		})
	}
}
