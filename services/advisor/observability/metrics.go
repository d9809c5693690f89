// Copyright (C) 2026 Quorum Stack (dev@quorumstack.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability holds the advisor's Prometheus metrics. Metrics are
// registered on the default registry via promauto and exposed by the
// /metrics route.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsTotal counts finished pipeline runs by branch taken and outcome.
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quorum",
		Name:      "advisor_runs_total",
		Help:      "Total pipeline runs by branch and status",
	}, []string{"branch", "status"})

	// RiskLevelsTotal counts the risk levels assigned to finished runs.
	RiskLevelsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quorum",
		Name:      "advisor_risk_levels_total",
		Help:      "Total runs by assigned risk level",
	}, []string{"level"})

	// StageDuration tracks per-stage latency. LLM-bound stages dominate, so
	// buckets stretch well into the tens of seconds.
	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "quorum",
		Name:      "advisor_stage_duration_seconds",
		Help:      "Pipeline stage duration in seconds",
		Buckets:   []float64{0.05, 0.25, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"stage"})

	// BranchFailuresTotal counts analysis branch failures by role.
	BranchFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quorum",
		Name:      "advisor_branch_failures_total",
		Help:      "Total analysis branch failures by role",
	}, []string{"role"})

	// RecordingFailuresTotal counts failed writes to the result store.
	RecordingFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "quorum",
		Name:      "advisor_recording_failures_total",
		Help:      "Total failed result recordings",
	})

	// DocumentsIngestedTotal counts chunks written through the ingest API.
	DocumentsIngestedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quorum",
		Name:      "advisor_chunks_ingested_total",
		Help:      "Total chunks written per corpus",
	}, []string{"corpus"})
)
