// Copyright (C) 2026 Quorum Stack (dev@quorumstack.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// HTTPClient interface allows injecting mock HTTP clients for testing
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPDocstoreSource fetches a corpus's documents from a folder-oriented
// document store over HTTP. The store exposes
// GET {base}/v1/folders/{corpus_id}/documents returning a JSON array of
// {name, content} objects.
type HTTPDocstoreSource struct {
	BaseURL    string
	Token      string
	HTTPClient HTTPClient
}

// NewDocstoreSourceFromEnv builds a source from DOCSTORE_URL and the
// optional DOCSTORE_TOKEN. Returns nil when DOCSTORE_URL is unset, which
// callers treat as "no external source configured".
func NewDocstoreSourceFromEnv() *HTTPDocstoreSource {
	baseURL := strings.TrimSuffix(os.Getenv("DOCSTORE_URL"), "/")
	if baseURL == "" {
		return nil
	}
	return &HTTPDocstoreSource{
		BaseURL:    baseURL,
		Token:      os.Getenv("DOCSTORE_TOKEN"),
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Fetch implements DocumentSource.
func (d *HTTPDocstoreSource) Fetch(ctx context.Context, corpusID string) ([]SourceDocument, error) {
	endpoint := fmt.Sprintf("%s/v1/folders/%s/documents", d.BaseURL, url.PathEscape(corpusID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create docstore request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if d.Token != "" {
		req.Header.Set("Authorization", "Bearer "+d.Token)
	}

	resp, err := d.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call docstore: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("docstore returned status %s", resp.Status)
	}

	var docs []SourceDocument
	if err := json.NewDecoder(resp.Body).Decode(&docs); err != nil {
		return nil, fmt.Errorf("failed to decode docstore response: %w", err)
	}

	// Drop empty documents up front so chunking never sees them.
	kept := docs[:0]
	for _, doc := range docs {
		if strings.TrimSpace(doc.Content) == "" {
			slog.Warn("Skipping empty document", "name", doc.Name, "corpus_id", corpusID)
			continue
		}
		kept = append(kept, doc)
	}
	slog.Info("Fetched source documents", "corpus_id", corpusID, "count", len(kept))
	return kept, nil
}
