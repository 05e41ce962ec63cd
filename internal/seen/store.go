// Package seen persists the set of listing identifiers observed across runs.
// The set is append-only: entries are never updated or deleted, and marking
// an identifier twice is a no-op.
package seen

import (
	"context"
	"time"
)

// Stats summarizes the seen set.
type Stats struct {
	Total        int
	NewestSeenAt *time.Time
}

// Store is the dedup persistence interface. A single process is the only
// writer; callers serialize through one Store instance.
type Store interface {
	// Has reports whether the identifier was observed in any prior run.
	Has(ctx context.Context, itemID string) (bool, error)

	// Mark records the identifier with its first-seen timestamp. It returns
	// true when the mark was newly created and false when the identifier was
	// already present. A duplicate mark never fails and never overwrites the
	// original timestamp.
	Mark(ctx context.Context, itemID string, firstSeenAt time.Time) (bool, error)

	// Stats reports the size and newest first-seen timestamp of the set.
	Stats(ctx context.Context) (Stats, error)

	// Migrate creates the backing table. Safe to call repeatedly.
	Migrate(ctx context.Context) error

	Close() error
}
