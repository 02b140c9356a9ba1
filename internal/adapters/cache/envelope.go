package cache

import (
	"encoding/json"
	"fmt"
	"pamekids-service/internal/domain"
	"pamekids-service/internal/ports"
	"time"
)

// On-disk/wire form of a cached snapshot. Version travels with the payload
// so a reader can reject data written by an incompatible build.
type envelope struct {
	Version   string            `json:"version"`
	FetchedAt time.Time         `json:"fetchedAt"`
	Locations []domain.Location `json:"locations"`
}

func encodeSnapshot(version string, snap ports.Snapshot) ([]byte, error) {
	b, err := json.Marshal(envelope{
		Version:   version,
		FetchedAt: snap.FetchedAt.UTC(),
		Locations: snap.Locations,
	})
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return b, nil
}

// decodeSnapshot reports ok=false when the stored version differs from version.
func decodeSnapshot(b []byte, version string) (ports.Snapshot, bool, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return ports.Snapshot{}, false, fmt.Errorf("decode snapshot: %w", err)
	}
	if env.Version != version {
		return ports.Snapshot{}, false, nil
	}
	if env.Locations == nil {
		env.Locations = []domain.Location{}
	}
	return ports.Snapshot{Locations: env.Locations, FetchedAt: env.FetchedAt}, true, nil
}
