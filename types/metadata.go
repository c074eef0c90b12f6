package types

import (
	"time"
)

// LatestKey is the reserved metadata key that points at the most recent distinct snapshot.
const LatestKey = "LATEST"

type MetadataEntry struct {
	Key  string
	Hash string
	// Date is the canonical date carried as metadata. Only LATEST sets it.
	Date      string
	ExpiresAt time.Time
}

func (e *MetadataEntry) HasExpiry() bool {
	return !e.ExpiresAt.IsZero()
}

func (e *MetadataEntry) IsExpired(now time.Time) bool {
	return e.HasExpiry() && !now.Before(e.ExpiresAt)
}
