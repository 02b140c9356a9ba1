package domain

import (
	"slices"
	"time"
)

// Inclusive age bracket a location caters for.
type AgeRange struct {
	Min int `json:"min" validate:"gte=0,lte=18"`
	Max int `json:"max" validate:"gte=0,lte=18,gtefield=Min"`
}

// DefaultAgeRange applies to records stored without an age range.
var DefaultAgeRange = AgeRange{Min: 0, Max: 16}

func (a AgeRange) Contains(age int) bool { return age >= a.Min && age <= a.Max }

// Attributes sourced from the external places provider.
// Opaque to caching and search.
type PlaceData struct {
	Rating           float64  `json:"rating,omitempty"`
	UserRatingsTotal int      `json:"userRatingsTotal,omitempty"`
	PhotoReferences  []string `json:"photoReferences,omitempty"`
	Website          string   `json:"website,omitempty"`
	PhoneNumber      string   `json:"phoneNumber,omitempty"`
}

type Contact struct {
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty" validate:"omitempty,email"`
	Website string `json:"website,omitempty" validate:"omitempty,url"`
}

// Represents a child-friendly activity location listed in the directory.
// CreatedAt and UpdatedAt are assigned by the document store, never by clients.
type Location struct {
	ID           string            `json:"id" validate:"required"`
	Name         string            `json:"name" validate:"required"`
	Coordinates  Coordinates       `json:"coordinates"`
	Types        []ActivityType    `json:"types" validate:"required,min=1"`
	PrimaryType  ActivityType      `json:"primaryType" validate:"required"`
	AgeRange     AgeRange          `json:"ageRange"`
	Address      string            `json:"address"`
	Description  string            `json:"description"`
	PlaceID      string            `json:"placeId,omitempty"`
	PlaceData    *PlaceData        `json:"placeData,omitempty"`
	OpeningHours map[string]string `json:"openingHours"`
	Contact      Contact           `json:"contact"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// HasType reports whether t is one of the location's activity types.
func (l *Location) HasType(t ActivityType) bool {
	return slices.Contains(l.Types, t)
}

// Clone returns a deep copy so cached snapshots are never shared with callers.
func (l Location) Clone() Location {
	out := l
	out.Types = slices.Clone(l.Types)
	if l.PlaceData != nil {
		pd := *l.PlaceData
		pd.PhotoReferences = slices.Clone(l.PlaceData.PhotoReferences)
		out.PlaceData = &pd
	}
	if l.OpeningHours != nil {
		out.OpeningHours = make(map[string]string, len(l.OpeningHours))
		for k, v := range l.OpeningHours {
			out.OpeningHours[k] = v
		}
	}
	return out
}

// CloneLocations deep-copies a slice of locations.
func CloneLocations(in []Location) []Location {
	if in == nil {
		return nil
	}
	out := make([]Location, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}
