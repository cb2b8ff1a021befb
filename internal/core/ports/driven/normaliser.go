package driven

import (
	"context"

	"github.com/halcyon-labs/snapbridge-cli/internal/core/domain"
)

// Normaliser converts one raw export format into canonical MemoryRecords.
// Both supported schemas (tabular/markup and structured JSON) must produce
// an identical output shape.
//
// Record-level failures (unparseable date, unresolvable URL) skip the single
// record with a warning; a zero-record result is domain.ErrEmptyExport and
// input that matches neither schema is domain.ErrMalformedExport.
type Normaliser interface {
	// Normalise parses raw export bytes. Ordinals and derived filenames
	// are NOT assigned here; identity derivation runs over the complete
	// set after normalisation.
	Normalise(ctx context.Context, raw []byte) ([]domain.MemoryRecord, error)
}
