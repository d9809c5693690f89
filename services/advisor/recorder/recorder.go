// Copyright (C) 2026 Quorum Stack (dev@quorumstack.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package recorder persists finished advisory results to an external
// system of record. Recording is best-effort: the pipeline logs a failed
// write and keeps going.
package recorder

import (
	"context"

	"github.com/QuorumStack/QuorumAdvisor/services/advisor/datatypes"
)

// ResultRecorder writes one completed advisory result.
type ResultRecorder interface {
	Record(ctx context.Context, rec datatypes.ResultRecord) error
}
