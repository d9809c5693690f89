// Copyright (C) 2026 Quorum Stack (dev@quorumstack.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

/*
This file bridges the build system and the runtime grading logic. It uses the
Go embed package to bake risk_keyword_tiers.yaml directly into the compiled
binary, so the default grading vocabulary is immutable at runtime and travels
with the executable.
*/

package enforcement

import (
	_ "embed"
)

// RiskKeywordTiers holds the raw byte content of 'risk_keyword_tiers.yaml'.
//
// Populated at compile time via the embed directive. Pass these bytes
// directly to yaml.Unmarshal when constructing the default risk engine.
//
//go:embed risk_keyword_tiers.yaml
var RiskKeywordTiers []byte
