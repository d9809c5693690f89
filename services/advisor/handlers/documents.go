// Copyright (C) 2026 Quorum Stack (dev@quorumstack.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/QuorumStack/QuorumAdvisor/pkg/validation"
	"github.com/QuorumStack/QuorumAdvisor/services/advisor/datatypes"
	"github.com/QuorumStack/QuorumAdvisor/services/advisor/observability"
	"github.com/gin-gonic/gin"
)

// DocumentStore is the slice of the retrieval store the document handlers
// need. Satisfied by retrieval.WeaviateStore.
type DocumentStore interface {
	IngestDocument(ctx context.Context, corpusID, sourceName, content string) (int, error)
	ListSources(ctx context.Context, corpusID string) ([]string, error)
}

// CreateDocument serves POST /v1/documents: chunk and index one document
// into a corpus.
func CreateDocument(store DocumentStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.IngestDocumentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}

		corpusID, err := validation.SanitizeCorpusID(req.CorpusID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid corpus_id", "details": err.Error()})
			return
		}
		if err := validation.ValidateSourceName(req.Source); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid source", "details": err.Error()})
			return
		}

		chunks, err := store.IngestDocument(c.Request.Context(), corpusID, req.Source, req.Content)
		if err != nil {
			slog.Error("Document ingestion failed", "source", req.Source, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to ingest document", "details": err.Error()})
			return
		}

		observability.DocumentsIngestedTotal.WithLabelValues(corpusID).Add(float64(chunks))
		c.JSON(http.StatusCreated, gin.H{
			"status":    "success",
			"source":    req.Source,
			"corpus_id": corpusID,
			"chunks":    chunks,
		})
	}
}

// ListDocuments serves GET /v1/documents: the distinct source documents of
// a corpus. The corpus comes from the corpus_id query parameter.
func ListDocuments(store DocumentStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		corpusID, err := validation.SanitizeCorpusID(c.DefaultQuery("corpus_id", DefaultCorpusID))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid corpus_id", "details": err.Error()})
			return
		}

		sources, err := store.ListSources(c.Request.Context(), corpusID)
		if err != nil {
			slog.Error("Failed to list documents", "corpus_id", corpusID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list documents", "details": err.Error()})
			return
		}
		if sources == nil {
			sources = []string{}
		}

		c.JSON(http.StatusOK, gin.H{
			"corpus_id": corpusID,
			"sources":   sources,
			"count":     len(sources),
		})
	}
}
