// Copyright (C) 2026 Quorum Stack (dev@quorumstack.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package validation provides input validation utilities for security-critical operations.
//
// This package contains validators for user-provided inputs that end up in
// database filters or external-store paths. Using these validators prevents
// injection through GraphQL where-filters and path traversal through source
// names.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// corpusIDPattern matches valid corpus identifiers.
// Allows: lowercase letters, digits, hyphens, underscores.
// Max length: 64 characters.
var corpusIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_\-]{0,63}$`)

// ValidateCorpusID validates a corpus identifier before it is interpolated
// into a vector-store filter.
func ValidateCorpusID(corpusID string) error {
	if corpusID == "" {
		return fmt.Errorf("corpus_id cannot be empty")
	}
	if !corpusIDPattern.MatchString(corpusID) {
		return fmt.Errorf("invalid corpus_id format: %q (must be 1-64 lowercase alphanumeric chars, hyphens, or underscores)", corpusID)
	}
	return nil
}

// SanitizeCorpusID normalizes and validates a corpus identifier. Returns
// the lowercase identifier if valid, or an error if invalid.
func SanitizeCorpusID(corpusID string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(corpusID))
	if err := ValidateCorpusID(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}

// ValidateSourceName validates a document source name. Source names label
// chunks in the store and appear in model prompts; they must not carry
// path separators or parent references.
func ValidateSourceName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("source name cannot be blank")
	}
	if len(name) > 255 {
		return fmt.Errorf("source name too long: %d chars (max 255)", len(name))
	}
	if strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return fmt.Errorf("invalid source name %q: path separators and parent references are not allowed", name)
	}
	return nil
}
