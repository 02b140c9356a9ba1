package ports

import (
	"context"
	"pamekids-service/internal/domain"
)

// Place attributes returned by an external places provider.
type PlaceDetails struct {
	PlaceID          string
	Name             string
	Address          string
	Coordinates      domain.Coordinates
	Types            []string
	Rating           float64
	UserRatingsTotal int
	PhotoReferences  []string
	Website          string
	PhoneNumber      string
	OpeningHours     []string
	EditorialSummary string
}

// Contract for looking up a place by its external identifier.
type PlacesProvider interface {
	// Return details for placeID, or an error matching domain.ErrNotFound.
	FetchDetails(ctx context.Context, placeID string) (PlaceDetails, error)
}

// Contract for a remote text-generation call producing a location description.
type DescriptionGenerator interface {
	Generate(ctx context.Context, place PlaceDetails) (string, error)
}
