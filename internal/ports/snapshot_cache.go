package ports

import (
	"context"
	"pamekids-service/internal/domain"
	"time"
)

// A cached copy of a whole collection and when it was fetched.
type Snapshot struct {
	Locations []domain.Location
	FetchedAt time.Time
}

// Port: persistent local cache tier keyed by name and stamped with a format version.
// A Read under a different version than the one written reports absence.
type SnapshotCache interface {
	Read(ctx context.Context, key, version string) (Snapshot, bool, error)
	Write(ctx context.Context, key, version string, snap Snapshot) error
	Clear(ctx context.Context, key string) error
}
