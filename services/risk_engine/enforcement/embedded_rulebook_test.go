// Copyright (C) 2026 Quorum Stack (dev@quorumstack.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package enforcement

import (
	"testing"

	"gopkg.in/yaml.v3"
)

// TestEmbeddedRulebookParses guards against shipping a binary whose baked-in
// rulebook cannot be unmarshaled.
func TestEmbeddedRulebookParses(t *testing.T) {
	if len(RiskKeywordTiers) == 0 {
		t.Fatal("embedded rulebook is empty")
	}

	var doc struct {
		Tiers []struct {
			Name    string   `yaml:"name"`
			Phrases []string `yaml:"phrases"`
		} `yaml:"tiers"`
	}
	if err := yaml.Unmarshal(RiskKeywordTiers, &doc); err != nil {
		t.Fatalf("embedded rulebook is not valid YAML: %v", err)
	}
	if len(doc.Tiers) != 3 {
		t.Fatalf("expected 3 tiers, got %d", len(doc.Tiers))
	}
	for _, tier := range doc.Tiers {
		if len(tier.Phrases) == 0 {
			t.Errorf("tier %q has no phrases", tier.Name)
		}
	}
}
