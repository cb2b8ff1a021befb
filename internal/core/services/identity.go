package services

import "github.com/halcyon-labs/snapbridge-cli/internal/core/domain"

// AssignIdentity assigns ordinals and derived filenames in export order,
// 1-based. It must run after normalisation completes for the whole set:
// the ordinal depends on final list order and count, and embedding it is
// what makes the derived filename collision-free.
func AssignIdentity(records []domain.MemoryRecord) {
	for i := range records {
		rec := &records[i]
		rec.Ordinal = i + 1
		rec.DerivedFilename = domain.DeriveFilename(rec.DateKey, rec.MediaType, rec.Ordinal, rec.Location.Valid)
	}
}
