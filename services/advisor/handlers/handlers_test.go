// Copyright (C) 2026 Quorum Stack (dev@quorumstack.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/QuorumStack/QuorumAdvisor/services/advisor/datatypes"
	"github.com/QuorumStack/QuorumAdvisor/services/risk_engine"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAdvisor struct {
	state   *datatypes.RunState
	err     error
	lastReq datatypes.PipelineRequest
}

func (f *fakeAdvisor) Run(ctx context.Context, req datatypes.PipelineRequest) (*datatypes.RunState, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.state, nil
}

type fakeStore struct {
	chunks    int
	sources   []string
	err       error
	lastCorp  string
	lastName  string
	lastBytes int
}

func (f *fakeStore) IngestDocument(ctx context.Context, corpusID, sourceName, content string) (int, error) {
	f.lastCorp = corpusID
	f.lastName = sourceName
	f.lastBytes = len(content)
	if f.err != nil {
		return 0, f.err
	}
	return f.chunks, nil
}

func (f *fakeStore) ListSources(ctx context.Context, corpusID string) ([]string, error) {
	f.lastCorp = corpusID
	if f.err != nil {
		return nil, f.err
	}
	return f.sources, nil
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestHandleAdvise(t *testing.T) {
	advisor := &fakeAdvisor{state: &datatypes.RunState{
		SessionID:           "sess-1",
		Query:               "Can I accept this gift?",
		CorpusID:            "hr-policy",
		RouterDecision:      datatypes.RouteRelevant,
		ReviewerAnalysis:    "Violation likelihood high.",
		AuditorAnalysis:     "Audit sanction likelihood high.",
		FinalRecommendation: "Report the gift.",
		RiskLevel:           risk_engine.RiskHigh,
	}}

	router := gin.New()
	router.POST("/v1/advise", HandleAdvise(advisor))

	w := postJSON(router, "/v1/advise", `{"query": "Can I accept this gift?", "corpus_id": "hr-policy"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp datatypes.AdviseResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "sess-1", resp.SessionID)
	assert.Equal(t, "relevant", resp.RouterDecision)
	assert.Equal(t, "high", resp.RiskLevel)
	assert.Equal(t, "High", resp.RiskLevelDisplay)
	assert.Equal(t, "Report the gift.", resp.FinalRecommendation)
	assert.Equal(t, "hr-policy", advisor.lastReq.CorpusID)
}

func TestHandleAdviseDefaultsCorpus(t *testing.T) {
	advisor := &fakeAdvisor{state: &datatypes.RunState{RiskLevel: risk_engine.RiskNotApplicable}}
	router := gin.New()
	router.POST("/v1/advise", HandleAdvise(advisor))

	w := postJSON(router, "/v1/advise", `{"query": "How do I cook pasta?"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, DefaultCorpusID, advisor.lastReq.CorpusID)
}

func TestHandleAdviseRejectsBadBodies(t *testing.T) {
	router := gin.New()
	router.POST("/v1/advise", HandleAdvise(&fakeAdvisor{}))

	for _, body := range []string{`{}`, `{"query": "   "}`, `not json`} {
		w := postJSON(router, "/v1/advise", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %q", body)
	}
}

func TestHandleAdviseRunFailure(t *testing.T) {
	advisor := &fakeAdvisor{err: errors.New("router model call failed: connection refused")}
	router := gin.New()
	router.POST("/v1/advise", HandleAdvise(advisor))

	w := postJSON(router, "/v1/advise", `{"query": "q"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestCreateDocument(t *testing.T) {
	store := &fakeStore{chunks: 7}
	router := gin.New()
	router.POST("/v1/documents", CreateDocument(store))

	w := postJSON(router, "/v1/documents",
		`{"content": "Article 1. Text.", "source": "ethics_code.txt", "corpus_id": "hr-policy"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(7), resp["chunks"])
	assert.Equal(t, "hr-policy", store.lastCorp)
	assert.Equal(t, "ethics_code.txt", store.lastName)
}

func TestCreateDocumentRequiresFields(t *testing.T) {
	router := gin.New()
	router.POST("/v1/documents", CreateDocument(&fakeStore{}))

	w := postJSON(router, "/v1/documents", `{"content": "text only"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateDocumentRejectsBadInputs(t *testing.T) {
	router := gin.New()
	router.POST("/v1/documents", CreateDocument(&fakeStore{}))

	cases := []string{
		`{"content": "c", "source": "s", "corpus_id": "bad corpus"}`,
		`{"content": "c", "source": "../etc/passwd", "corpus_id": "ok"}`,
	}
	for _, body := range cases {
		w := postJSON(router, "/v1/documents", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %s", body)
	}
}

func TestCreateDocumentNormalizesCorpusID(t *testing.T) {
	store := &fakeStore{chunks: 1}
	router := gin.New()
	router.POST("/v1/documents", CreateDocument(store))

	w := postJSON(router, "/v1/documents",
		`{"content": "c", "source": "s.txt", "corpus_id": "HR-Policy"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "hr-policy", store.lastCorp)
}

func TestCreateDocumentStoreFailure(t *testing.T) {
	store := &fakeStore{err: errors.New("weaviate batch import failed")}
	router := gin.New()
	router.POST("/v1/documents", CreateDocument(store))

	w := postJSON(router, "/v1/documents",
		`{"content": "c", "source": "s", "corpus_id": "x"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestListDocuments(t *testing.T) {
	store := &fakeStore{sources: []string{"ethics_code.txt", "audit_rules.txt"}}
	router := gin.New()
	router.GET("/v1/documents", ListDocuments(store))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/v1/documents?corpus_id=hr-policy", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(2), resp["count"])
	assert.Equal(t, "hr-policy", store.lastCorp)
}

func TestListDocumentsEmptyCorpus(t *testing.T) {
	router := gin.New()
	router.GET("/v1/documents", ListDocuments(&fakeStore{}))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/v1/documents", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, DefaultCorpusID, resp["corpus_id"])
	assert.Equal(t, []any{}, resp["sources"])
}

func TestHealthCheck(t *testing.T) {
	router := gin.New()
	router.GET("/health", HealthCheck)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "quorum-advisor")
}
