// Copyright (C) 2026 Quorum Stack (dev@quorumstack.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/QuorumStack/QuorumAdvisor/services/advisor/datatypes"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"
)

var storeTracer = otel.Tracer("quorum.advisor.retrieval")

// Compile-time interface implementation check.
var _ Retriever = (*WeaviateStore)(nil)

// StoreConfig tunes the WeaviateStore. Zero values fall back to defaults.
type StoreConfig struct {
	ChunkSize    int
	ChunkOverlap int
}

// WeaviateStore implements Retriever on top of a shared RegulationChunk
// class, one corpus per corpus_id filter value.
//
// Index population is lazy: the first Relevant call for an unseen corpus
// triggers acquisition + chunking + batch insert. Concurrent first-use
// within this process is collapsed by a singleflight group; concurrent
// first-use across processes is a benign race (a second writer re-checks
// presence and skips, and duplicate chunks from a true tie are tolerated
// rather than corrected).
type WeaviateStore struct {
	client       *weaviate.Client
	source       DocumentSource
	chunkSize    int
	chunkOverlap int
	indexing     singleflight.Group
}

// NewWeaviateStore builds a store. source may be nil, in which case
// unpopulated corpora simply stay empty (manual ingestion via
// IngestDocument still works).
func NewWeaviateStore(client *weaviate.Client, source DocumentSource, cfg StoreConfig) *WeaviateStore {
	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	chunkOverlap := cfg.ChunkOverlap
	if chunkOverlap <= 0 {
		chunkOverlap = defaultChunkOverlap
	}
	return &WeaviateStore{
		client:       client,
		source:       source,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// Relevant implements Retriever. It ensures the corpus is indexed, then runs
// a nearText search filtered to the corpus.
func (s *WeaviateStore) Relevant(ctx context.Context, query, corpusID string, limit int) ([]datatypes.Passage, error) {
	ctx, span := storeTracer.Start(ctx, "WeaviateStore.Relevant")
	defer span.End()
	span.SetAttributes(
		attribute.String("corpus_id", corpusID),
		attribute.Int("limit", limit),
	)

	if err := s.EnsureIndexed(ctx, corpusID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	nearText := s.client.GraphQL().NearTextArgBuilder().
		WithConcepts([]string{query})

	corpusFilter := filters.Where().
		WithPath([]string{"corpus_id"}).
		WithOperator(filters.Equal).
		WithValueString(corpusID)

	fields := []graphql.Field{
		{Name: "content"},
		{Name: "source"},
	}

	result, err := s.client.GraphQL().Get().
		WithClassName(datatypes.RegulationChunkClass).
		WithFields(fields...).
		WithWhere(corpusFilter).
		WithNearText(nearText).
		WithLimit(limit).
		Do(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("Weaviate search failed", "corpus_id", corpusID, "error", err)
		return nil, fmt.Errorf("weaviate search failed: %w", err)
	}

	parsed, err := datatypes.ParseGraphQLResponse[datatypes.RegulationChunkQueryResponse](result)
	if err != nil {
		return nil, fmt.Errorf("failed to parse search results: %w", err)
	}

	passages := make([]datatypes.Passage, 0, len(parsed.Get.RegulationChunk))
	for _, chunk := range parsed.Get.RegulationChunk {
		passages = append(passages, datatypes.Passage{
			Text:   chunk.Content,
			Source: chunk.Source,
		})
	}
	slog.Debug("Found relevant passages", "corpus_id", corpusID, "count", len(passages))
	return passages, nil
}

// EnsureIndexed implements Retriever. Presence check first, acquisition and
// ingestion only when the corpus has no chunks at all.
func (s *WeaviateStore) EnsureIndexed(ctx context.Context, corpusID string) error {
	_, err, _ := s.indexing.Do(corpusID, func() (any, error) {
		count, err := s.chunkCount(ctx, corpusID)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, nil
		}

		if s.source == nil {
			slog.Warn("Corpus is unpopulated and no document source is configured", "corpus_id", corpusID)
			return nil, nil
		}

		slog.Info("Populating index for new corpus", "corpus_id", corpusID)
		docs, err := s.source.Fetch(ctx, corpusID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch documents for corpus %s: %w", corpusID, err)
		}
		if len(docs) == 0 {
			slog.Info("Corpus has no source documents", "corpus_id", corpusID)
			return nil, nil
		}

		for _, doc := range docs {
			if _, err := s.IngestDocument(ctx, corpusID, doc.Name, doc.Content); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

// IngestDocument chunks one document and batch-inserts its chunks. Returns
// the number of chunks written.
func (s *WeaviateStore) IngestDocument(ctx context.Context, corpusID, sourceName, content string) (int, error) {
	ctx, span := storeTracer.Start(ctx, "WeaviateStore.IngestDocument")
	defer span.End()
	span.SetAttributes(
		attribute.String("corpus_id", corpusID),
		attribute.String("source", sourceName),
	)

	chunks, err := splitContent(content, s.chunkSize, s.chunkOverlap)
	if err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		slog.Warn("Document produced no chunks", "source", sourceName)
		return 0, nil
	}

	now := float64(time.Now().UnixMilli())
	objects := make([]*models.Object, 0, len(chunks))
	for i, chunk := range chunks {
		objects = append(objects, &models.Object{
			Class: datatypes.RegulationChunkClass,
			Properties: map[string]any{
				"content":     chunk,
				"source":      sourceName,
				"corpus_id":   corpusID,
				"chunk_index": i,
				"ingested_at": now,
			},
		})
	}

	resp, err := s.client.Batch().ObjectsBatcher().
		WithObjects(objects...).
		Do(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("Failed to batch import chunks", "source", sourceName, "error", err)
		return 0, fmt.Errorf("weaviate batch import failed: %w", err)
	}

	written := 0
	for _, item := range resp {
		if item.Result != nil && item.Result.Errors != nil && len(item.Result.Errors.Error) > 0 {
			slog.Warn("Error in Weaviate batch item", "source", sourceName, "error", item.Result.Errors.Error[0].Message)
			continue
		}
		written++
	}
	slog.Info("Ingested document", "source", sourceName, "corpus_id", corpusID, "chunks", written)
	return written, nil
}

// ListSources returns the distinct source document names inside a corpus.
func (s *WeaviateStore) ListSources(ctx context.Context, corpusID string) ([]string, error) {
	corpusFilter := filters.Where().
		WithPath([]string{"corpus_id"}).
		WithOperator(filters.Equal).
		WithValueString(corpusID)

	agg, err := s.client.GraphQL().Aggregate().
		WithClassName(datatypes.RegulationChunkClass).
		WithWhere(corpusFilter).
		WithGroupBy("source").
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate sources: %w", err)
	}

	var sources []string
	aggData, ok := agg.Data["Aggregate"].(map[string]any)
	if !ok {
		return sources, nil
	}
	groups, ok := aggData[datatypes.RegulationChunkClass].([]any)
	if !ok {
		return sources, nil
	}
	for _, groupItem := range groups {
		groupMap, ok := groupItem.(map[string]any)
		if !ok {
			continue
		}
		groupedBy, ok := groupMap["groupedBy"].(map[string]any)
		if !ok {
			continue
		}
		if name, ok := groupedBy["value"].(string); ok {
			sources = append(sources, name)
		}
	}
	return sources, nil
}

// chunkCount returns how many chunks the corpus currently holds.
func (s *WeaviateStore) chunkCount(ctx context.Context, corpusID string) (int, error) {
	corpusFilter := filters.Where().
		WithPath([]string{"corpus_id"}).
		WithOperator(filters.Equal).
		WithValueString(corpusID)

	agg, err := s.client.GraphQL().Aggregate().
		WithClassName(datatypes.RegulationChunkClass).
		WithWhere(corpusFilter).
		WithFields(graphql.Field{
			Name:   "meta",
			Fields: []graphql.Field{{Name: "count"}},
		}).
		Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks for corpus %s: %w", corpusID, err)
	}

	parsed, err := datatypes.ParseGraphQLResponse[datatypes.RegulationChunkAggregateResponse](agg)
	if err != nil {
		return 0, err
	}
	if len(parsed.Aggregate.RegulationChunk) == 0 {
		return 0, nil
	}
	return parsed.Aggregate.RegulationChunk[0].Meta.Count, nil
}
