package dto

import "pamekids-service/internal/domain"

type LocationRequest struct {
	ID           string                `json:"id"`
	Name         string                `json:"name"`
	Coordinates  domain.Coordinates    `json:"coordinates"`
	Types        []domain.ActivityType `json:"types"`
	PrimaryType  domain.ActivityType   `json:"primaryType"`
	AgeRange     *domain.AgeRange      `json:"ageRange"`
	Address      string                `json:"address"`
	Description  string                `json:"description"`
	OpeningHours map[string]string     `json:"openingHours"`
	Contact      domain.Contact        `json:"contact"`
}

type LocationFromPlaceRequest struct {
	PlaceID   string          `json:"placeId"`
	Overrides LocationRequest `json:"overrides"`
}

// Fields left out of the body are not modified.
type LocationPatchRequest struct {
	Name         *string               `json:"name"`
	Coordinates  *domain.Coordinates   `json:"coordinates"`
	Types        []domain.ActivityType `json:"types"`
	PrimaryType  *domain.ActivityType  `json:"primaryType"`
	AgeRange     *domain.AgeRange      `json:"ageRange"`
	Address      *string               `json:"address"`
	Description  *string               `json:"description"`
	OpeningHours map[string]string     `json:"openingHours"`
	Contact      *domain.Contact       `json:"contact"`
}

type ListLocationsResponse struct {
	Locations []domain.Location `json:"locations"`
	Count     int               `json:"count"`
}

type NearbyResult struct {
	Location       domain.Location `json:"location"`
	DistanceMeters int             `json:"distanceMeters"`
}

type NearbyResponse struct {
	// [lat, lng]
	Origin  []float64      `json:"origin"`
	Results []NearbyResult `json:"results"`
}
