// Copyright (C) 2026 Quorum Stack (dev@quorumstack.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"encoding/json"
	"fmt"

	"github.com/weaviate/weaviate/entities/models"
)

// ParseGraphQLResponse converts the untyped map Weaviate returns into a
// typed response struct by round-tripping through JSON. Slower than manual
// map walking but far less error-prone for nested shapes.
func ParseGraphQLResponse[T any](resp *models.GraphQLResponse) (*T, error) {
	if resp == nil {
		return nil, fmt.Errorf("nil GraphQL response")
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("GraphQL error: %s", resp.Errors[0].Message)
	}

	respBytes, err := json.Marshal(resp.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal GraphQL response data: %w", err)
	}

	var result T
	if err := json.Unmarshal(respBytes, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal into target type: %w", err)
	}
	return &result, nil
}

// RegulationChunkQueryResponse is the typed shape of a Get query against the
// RegulationChunk class.
type RegulationChunkQueryResponse struct {
	Get struct {
		RegulationChunk []RegulationChunkResult `json:"RegulationChunk"`
	} `json:"Get"`
}

// RegulationChunkResult is a single retrieved chunk.
type RegulationChunkResult struct {
	Content    string `json:"content"`
	Source     string `json:"source"`
	CorpusID   string `json:"corpus_id"`
	ChunkIndex int    `json:"chunk_index"`
}

// RegulationChunkAggregateResponse is the typed shape of an Aggregate count
// query against the RegulationChunk class.
type RegulationChunkAggregateResponse struct {
	Aggregate struct {
		RegulationChunk []struct {
			Meta struct {
				Count int `json:"count"`
			} `json:"meta"`
		} `json:"RegulationChunk"`
	} `json:"Aggregate"`
}
