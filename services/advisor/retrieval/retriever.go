// Copyright (C) 2026 Quorum Stack (dev@quorumstack.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package retrieval provides the document retriever the analysis agents
// consult: a Weaviate-backed store with lazy, per-corpus index population.
//
// Embedding is delegated to the Weaviate server's vectorizer module; this
// package never computes vectors itself.
package retrieval

import (
	"context"

	"github.com/QuorumStack/QuorumAdvisor/services/advisor/datatypes"
)

// Retriever is the read path the analysis agents depend on. Implementations
// must be safe for concurrent use.
type Retriever interface {
	// Relevant returns up to limit passages matching the query within the
	// given corpus, most relevant first. An unpopulated or non-matching
	// corpus yields an empty slice, not an error.
	Relevant(ctx context.Context, query, corpusID string, limit int) ([]datatypes.Passage, error)

	// EnsureIndexed populates the corpus's index on first use. Idempotent:
	// a corpus that already has at least one chunk is left untouched.
	EnsureIndexed(ctx context.Context, corpusID string) error
}

// SourceDocument is one raw document fetched from the external store before
// chunking.
type SourceDocument struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// DocumentSource acquires a corpus's raw documents from wherever they live
// (remote folder store, object storage, ...). Acquisition mechanics are
// outside this service; only the contract matters here.
type DocumentSource interface {
	Fetch(ctx context.Context, corpusID string) ([]SourceDocument, error)
}
