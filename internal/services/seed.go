package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"pamekids-service/internal/domain"
	"pamekids-service/internal/ports"
	"strings"
)

// SeedLocations loads a JSON array of locations from path and writes each one
// to the collection, replacing existing documents with the same id.
// It returns how many locations were written.
func SeedLocations(ctx context.Context, store ports.DocumentStore, collection, path string) (int, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("seed locations: read %q: %w", path, err)
	}

	var data []domain.Location
	if err := json.Unmarshal(bytes, &data); err != nil {
		return 0, fmt.Errorf("seed locations: parse json: %w", err)
	}

	registry := domain.DefaultActivityRegistry()
	for i := range data {
		loc := &data[i]
		loc.ID = strings.TrimSpace(loc.ID)
		if loc.PrimaryType == "" && len(loc.Types) > 0 {
			loc.PrimaryType = loc.Types[0]
		}
		if err := domain.ValidateLocation(loc, registry); err != nil {
			return 0, fmt.Errorf("seed locations: item at index %d: %w", i+1, err)
		}
	}

	for i, loc := range data {
		if err := store.Set(ctx, collection, loc.ID, LocationRecord(loc), false); err != nil {
			return i, fmt.Errorf("seed locations: write %q: %w", loc.ID, err)
		}
	}
	return len(data), nil
}
