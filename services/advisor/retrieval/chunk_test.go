// Copyright (C) 2026 Quorum Stack (dev@quorumstack.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package retrieval

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitContentShortDocument(t *testing.T) {
	chunks, err := splitContent("Article 1. All employees must report conflicts of interest.", 1000, 200)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0], "conflicts of interest")
}

func TestSplitContentRespectsChunkSize(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 50; i++ {
		b.WriteString("Article text about procurement thresholds and reporting duties.\n\n")
	}

	chunks, err := splitContent(b.String(), 200, 40)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1, "long document must be split")
	for i, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 260, "chunk %d exceeds size plus separator slack", i)
		assert.NotEmpty(t, strings.TrimSpace(chunk))
	}
}

func TestSplitContentOverlapCarriesContext(t *testing.T) {
	content := strings.Repeat("sentence one. sentence two. sentence three. ", 30)

	chunks, err := splitContent(content, 150, 50)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	// Adjacent chunks share text when overlap is configured.
	shared := false
	for i := 1; i < len(chunks); i++ {
		tail := chunks[i-1]
		if len(tail) > 30 {
			tail = tail[len(tail)-30:]
		}
		if strings.Contains(chunks[i], strings.TrimSpace(tail)) {
			shared = true
			break
		}
	}
	assert.True(t, shared, "expected overlapping text between adjacent chunks")
}

func TestSplitContentZeroValuesUseDefaults(t *testing.T) {
	chunks, err := splitContent("short regulation text", 0, -1)
	require.NoError(t, err)
	assert.Len(t, chunks, 1)
}
