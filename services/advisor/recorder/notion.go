// Copyright (C) 2026 Quorum Stack (dev@quorumstack.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package recorder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/QuorumStack/QuorumAdvisor/services/advisor/datatypes"
)

const (
	notionAPIVersion   = "2022-06-28"
	defaultNotionBase  = "https://api.notion.com/v1"
	notionBlockTextCap = 2000 // Notion rejects rich_text content longer than this
)

// --- Notion API request shapes ---

type notionRichText struct {
	Type string `json:"type"`
	Text struct {
		Content string `json:"content"`
	} `json:"text"`
}

func richText(content string) []notionRichText {
	rt := notionRichText{Type: "text"}
	rt.Text.Content = content
	return []notionRichText{rt}
}

type notionSelect struct {
	Name string `json:"name"`
}

type notionCreatePageRequest struct {
	Parent struct {
		DatabaseID string `json:"database_id"`
	} `json:"parent"`
	Properties map[string]any `json:"properties"`
}

type notionPageResponse struct {
	ID     string `json:"id"`
	Object string `json:"object"`
}

type notionBlock struct {
	Object    string              `json:"object"`
	Type      string              `json:"type"`
	Heading2  *notionBlockContent `json:"heading_2,omitempty"`
	Paragraph *notionBlockContent `json:"paragraph,omitempty"`
}

type notionBlockContent struct {
	RichText []notionRichText `json:"rich_text"`
}

type notionAppendRequest struct {
	Children []notionBlock `json:"children"`
}

type notionError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// --- Client Implementation ---

// NotionRecorder writes results as pages in a Notion database. The
// database needs a title property named "Title" and a select property
// named "Risk Level".
type NotionRecorder struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	databaseID string
}

// NewNotionRecorder reads NOTION_API_KEY and NOTION_DATABASE_ID. Falls back
// to the mounted secret file for the key before failing.
func NewNotionRecorder() (*NotionRecorder, error) {
	apiKey := os.Getenv("NOTION_API_KEY")
	databaseID := os.Getenv("NOTION_DATABASE_ID")

	if apiKey == "" {
		secretPath := "/run/secrets/notion_api_key"
		if content, err := os.ReadFile(secretPath); err == nil {
			apiKey = strings.TrimSpace(string(content))
			slog.Info("Read Notion API key from mounted secret")
		}
	}

	if apiKey == "" {
		return nil, fmt.Errorf("NOTION_API_KEY is missing")
	}
	if databaseID == "" {
		return nil, fmt.Errorf("NOTION_DATABASE_ID is missing")
	}

	return &NotionRecorder{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultNotionBase,
		apiKey:     apiKey,
		databaseID: databaseID,
	}, nil
}

// Record implements ResultRecorder. It creates the page first, then appends
// the analysis body as child blocks. A failure on the second call still
// leaves a usable page behind.
func (n *NotionRecorder) Record(ctx context.Context, rec datatypes.ResultRecord) error {
	pageID, err := n.createPage(ctx, rec)
	if err != nil {
		return err
	}
	if err := n.appendContent(ctx, pageID, rec.Content); err != nil {
		return err
	}
	slog.Info("Recorded advisory result to Notion", "page_id", pageID, "risk_level", rec.RiskLevel)
	return nil
}

func (n *NotionRecorder) createPage(ctx context.Context, rec datatypes.ResultRecord) (string, error) {
	reqBody := notionCreatePageRequest{
		Properties: map[string]any{
			"Title": map[string]any{
				"title": richText(rec.Title),
			},
			"Risk Level": map[string]any{
				"select": notionSelect{Name: string(rec.RiskLevel)},
			},
		},
	}
	reqBody.Parent.DatabaseID = n.databaseID

	var resp notionPageResponse
	if err := n.post(ctx, "/pages", reqBody, &resp); err != nil {
		return "", fmt.Errorf("failed to create Notion page: %w", err)
	}
	return resp.ID, nil
}

func (n *NotionRecorder) appendContent(ctx context.Context, pageID, content string) error {
	children := []notionBlock{
		{
			Object:   "block",
			Type:     "heading_2",
			Heading2: &notionBlockContent{RichText: richText("Final Consolidated Analysis")},
		},
	}
	for _, part := range splitBlockText(content, notionBlockTextCap) {
		children = append(children, notionBlock{
			Object:    "block",
			Type:      "paragraph",
			Paragraph: &notionBlockContent{RichText: richText(part)},
		})
	}

	endpoint := fmt.Sprintf("/blocks/%s/children", pageID)
	if err := n.patch(ctx, endpoint, notionAppendRequest{Children: children}); err != nil {
		return fmt.Errorf("failed to append Notion blocks: %w", err)
	}
	return nil
}

func (n *NotionRecorder) post(ctx context.Context, path string, body, out any) error {
	return n.do(ctx, http.MethodPost, path, body, out)
}

func (n *NotionRecorder) patch(ctx context.Context, path string, body any) error {
	return n.do(ctx, http.MethodPatch, path, body, nil)
}

func (n *NotionRecorder) do(ctx context.Context, method, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal Notion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, n.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create Notion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+n.apiKey)
	req.Header.Set("Notion-Version", notionAPIVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call Notion API: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read Notion response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr notionError
		if json.Unmarshal(respBytes, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("Notion API returned status %d: %s", resp.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("Notion API returned status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(respBytes, out); err != nil {
			return fmt.Errorf("failed to decode Notion response: %w", err)
		}
	}
	return nil
}

// splitBlockText cuts text into rune-safe pieces no longer than cap runes.
func splitBlockText(text string, capRunes int) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return []string{""}
	}

	var parts []string
	for start := 0; start < len(runes); start += capRunes {
		end := start + capRunes
		if end > len(runes) {
			end = len(runes)
		}
		parts = append(parts, string(runes[start:end]))
	}
	return parts
}
