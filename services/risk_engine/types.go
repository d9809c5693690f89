// Copyright (C) 2026 Quorum Stack (dev@quorumstack.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
package risk_engine

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// RiskLevel is the discrete grade produced by the risk engine.
type RiskLevel string

const (
	RiskHigh          RiskLevel = "high"
	RiskMedium        RiskLevel = "medium"
	RiskLow           RiskLevel = "low"
	RiskIndeterminate RiskLevel = "indeterminate"
	// RiskNotApplicable marks runs that bypassed analysis entirely
	// (out-of-domain questions). The engine never returns it; the pipeline
	// assigns it on the general-answer branch.
	RiskNotApplicable RiskLevel = "not_applicable"
)

// Display returns the human-facing label for a risk level.
//
// Indeterminate grades are deliberately softened: the engine could not place
// the analyses in any tier, which is a request for a human, not a verdict.
func (r RiskLevel) Display() string {
	switch r {
	case RiskHigh:
		return "High"
	case RiskMedium:
		return "Medium"
	case RiskLow:
		return "Low"
	case RiskIndeterminate:
		return "Needs manual review"
	case RiskNotApplicable:
		return "Not applicable"
	default:
		return "Unknown"
	}
}

// TierName identifies one of the three keyword tiers in a rulebook.
type TierName string

const (
	TierHigh   TierName = "high"
	TierMedium TierName = "medium"
	TierLow    TierName = "low"
)

// UnmarshalYAML validates tier names at load time so a malformed rulebook
// fails during engine construction rather than silently mis-grading.
func (t *TierName) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	incoming := TierName(s)
	switch incoming {
	case TierHigh, TierMedium, TierLow:
		*t = incoming
		return nil
	default:
		return fmt.Errorf("invalid tier name: %q", incoming)
	}
}

// Rulebook is the data half of the risk engine: three tiers of
// natural-language phrases matched against the combined analysis text.
// The grading cascade itself lives in the engine and is not configurable.
type Rulebook struct {
	Tiers []Tier `yaml:"tiers"`
}

// Tier is one keyword tier of a rulebook.
type Tier struct {
	Name        TierName `yaml:"name"`
	Description string   `yaml:"description"`
	Phrases     []string `yaml:"phrases"`
}

// Validate checks that the rulebook carries exactly the three expected tiers,
// each with at least one non-blank phrase.
func (r *Rulebook) Validate() error {
	if len(r.Tiers) != 3 {
		return fmt.Errorf("rulebook must define exactly 3 tiers, got %d", len(r.Tiers))
	}
	seen := make(map[TierName]bool, 3)
	for _, tier := range r.Tiers {
		if seen[tier.Name] {
			return fmt.Errorf("duplicate tier %q in rulebook", tier.Name)
		}
		seen[tier.Name] = true
		if len(tier.Phrases) == 0 {
			return fmt.Errorf("tier %q has no phrases", tier.Name)
		}
		for _, phrase := range tier.Phrases {
			if strings.TrimSpace(phrase) == "" {
				return fmt.Errorf("tier %q contains a blank phrase", tier.Name)
			}
		}
	}
	for _, name := range []TierName{TierHigh, TierMedium, TierLow} {
		if !seen[name] {
			return fmt.Errorf("rulebook is missing tier %q", name)
		}
	}
	return nil
}

// tier returns the phrase list for the named tier. Callers must have
// validated the rulebook first.
func (r *Rulebook) tier(name TierName) []string {
	for _, t := range r.Tiers {
		if t.Name == name {
			return t.Phrases
		}
	}
	return nil
}
