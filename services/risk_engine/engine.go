// Copyright (C) 2026 Quorum Stack (dev@quorumstack.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package risk_engine grades the combined output of the regulation reviewer
// and the auditor into a discrete risk level.
//
// Grading is pure and deterministic: no network calls, no model invocations.
// The vocabulary is data (an embedded YAML rulebook of three keyword tiers);
// the cascade that turns tier counts into a level is logic and lives here.
package risk_engine

import (
	"fmt"
	"strings"

	"github.com/QuorumStack/QuorumAdvisor/services/risk_engine/enforcement"
	"gopkg.in/yaml.v3"
)

// RiskEngine grades analysis text against a loaded keyword rulebook.
// Safe for concurrent use after construction; the phrase lists are never
// mutated after NewRiskEngine returns.
type RiskEngine struct {
	high   []string
	medium []string
	low    []string
}

// NewRiskEngine builds an engine from the rulebook embedded in the binary.
//
// Returns an error if the embedded YAML is malformed or fails validation,
// which can only happen when the file shipped with the build is broken.
func NewRiskEngine() (*RiskEngine, error) {
	var rulebook Rulebook
	if err := yaml.Unmarshal(enforcement.RiskKeywordTiers, &rulebook); err != nil {
		return nil, fmt.Errorf("failed to unmarshal the embedded rulebook: %w", err)
	}
	return NewRiskEngineFromRulebook(rulebook)
}

// NewRiskEngineFromRulebook builds an engine from an externally supplied
// rulebook. Deployments with their own regulatory vocabulary use this
// constructor; everything else should prefer NewRiskEngine.
func NewRiskEngineFromRulebook(rulebook Rulebook) (*RiskEngine, error) {
	if err := rulebook.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rulebook: %w", err)
	}
	return &RiskEngine{
		high:   foldPhrases(rulebook.tier(TierHigh)),
		medium: foldPhrases(rulebook.tier(TierMedium)),
		low:    foldPhrases(rulebook.tier(TierLow)),
	}, nil
}

// Grade classifies the two analysis texts into a risk level.
//
// If either text is empty the analyses are incomplete and the grade is
// RiskIndeterminate. Otherwise both texts are concatenated, case-folded, and
// checked for the presence of each tier phrase (substring match, each phrase
// counting at most once), then the counts run through a fixed cascade:
//
//	high >= 2                 -> high
//	high >= 1 && medium >= 1  -> high
//	high >= 1                 -> medium
//	medium >= 2               -> medium
//	medium >= 1               -> low
//	low >= 1                  -> low
//	otherwise                 -> indeterminate
//
// The cascade is order-sensitive by contract: one high phrase plus one
// medium phrase outranks two medium phrases alone.
func (e *RiskEngine) Grade(reviewerAnalysis, auditorAnalysis string) RiskLevel {
	if reviewerAnalysis == "" || auditorAnalysis == "" {
		return RiskIndeterminate
	}

	fullText := strings.ToLower(reviewerAnalysis + " " + auditorAnalysis)

	highCount := countPresent(fullText, e.high)
	mediumCount := countPresent(fullText, e.medium)
	lowCount := countPresent(fullText, e.low)

	switch {
	case highCount >= 2:
		return RiskHigh
	case highCount >= 1 && mediumCount >= 1:
		return RiskHigh
	case highCount >= 1:
		return RiskMedium
	case mediumCount >= 2:
		return RiskMedium
	case mediumCount >= 1:
		return RiskLow
	case lowCount >= 1:
		return RiskLow
	default:
		return RiskIndeterminate
	}
}

// countPresent counts how many of the phrases occur in text at least once.
// Presence, not frequency: a phrase repeated ten times still contributes 1.
func countPresent(text string, phrases []string) int {
	count := 0
	for _, phrase := range phrases {
		if strings.Contains(text, phrase) {
			count++
		}
	}
	return count
}

func foldPhrases(phrases []string) []string {
	folded := make([]string, len(phrases))
	for i, phrase := range phrases {
		folded[i] = strings.ToLower(phrase)
	}
	return folded
}
