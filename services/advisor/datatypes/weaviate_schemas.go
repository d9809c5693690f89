// Copyright (C) 2026 Quorum Stack (dev@quorumstack.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"
)

// RegulationChunkClass is the single Weaviate class backing retrieval. All
// corpora share it; a corpus is a where-filter over the corpus_id property,
// not a class of its own (Weaviate class names are too restrictive to embed
// arbitrary corpus identifiers).
const RegulationChunkClass = "RegulationChunk"

// GetRegulationChunkSchema builds the class definition. The vectorizer
// module name comes from configuration because embedding is delegated to
// the Weaviate server, not computed by this service.
func GetRegulationChunkSchema(vectorizer string) *models.Class {
	indexFilterable := new(bool)
	*indexFilterable = true

	return &models.Class{
		Class:       RegulationChunkClass,
		Description: "A chunk of an organization's regulation or audit document.",
		Vectorizer:  vectorizer,
		Properties: []*models.Property{
			{
				Name:         "content",
				DataType:     []string{"text"},
				Description:  "The chunk text.",
				Tokenization: "word",
			},
			{
				Name:            "source",
				DataType:        []string{"text"},
				Description:     "The source document name the chunk came from.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "corpus_id",
				DataType:        []string{"text"},
				Description:     "Identifier of the document collection this chunk belongs to.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "chunk_index",
				DataType:        []string{"int"},
				Description:     "Position of the chunk within its source document.",
				IndexFilterable: indexFilterable,
			},
			{
				Name:            "ingested_at",
				DataType:        []string{"number"},
				Description:     "Timestamp (Unix ms) of when the chunk was ingested.",
				IndexFilterable: indexFilterable,
			},
		},
	}
}

// EnsureAdvisorSchema creates the RegulationChunk class if the connected
// Weaviate instance does not have it yet. Safe to call on every startup.
func EnsureAdvisorSchema(ctx context.Context, client *weaviate.Client, vectorizer string) error {
	exists, err := client.Schema().ClassExistenceChecker().
		WithClassName(RegulationChunkClass).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to check for class %s: %w", RegulationChunkClass, err)
	}
	if exists {
		slog.Debug("Weaviate class already present", "class", RegulationChunkClass)
		return nil
	}

	if err := client.Schema().ClassCreator().
		WithClass(GetRegulationChunkSchema(vectorizer)).
		Do(ctx); err != nil {
		return fmt.Errorf("failed to create class %s: %w", RegulationChunkClass, err)
	}
	slog.Info("Created Weaviate class", "class", RegulationChunkClass, "vectorizer", vectorizer)
	return nil
}
