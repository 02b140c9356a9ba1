package places

import (
	"context"
	"fmt"
	"pamekids-service/internal/domain"
	"pamekids-service/internal/ports"
)

// MockPlacesProvider serves fixed place details, for local runs without an API key and tests.
type MockPlacesProvider struct {
	m map[string]ports.PlaceDetails
}

func NewMockPlacesProvider(places ...ports.PlaceDetails) *MockPlacesProvider {
	m := make(map[string]ports.PlaceDetails, len(places))
	for _, p := range places {
		m[p.PlaceID] = p
	}
	return &MockPlacesProvider{m: m}
}

func (p *MockPlacesProvider) FetchDetails(ctx context.Context, placeID string) (ports.PlaceDetails, error) {
	d, ok := p.m[placeID]
	if !ok {
		return ports.PlaceDetails{}, fmt.Errorf("missing place %q: %w", placeID, domain.ErrNotFound)
	}
	return d, nil
}
