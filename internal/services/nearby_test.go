package services

import (
	"math"
	"pamekids-service/internal/domain"
	"testing"
)

func TestDistanceMeters(t *testing.T) {
	syntagma := domain.Coordinates{Lat: 37.9755, Lng: 23.7348}
	piraeus := domain.Coordinates{Lat: 37.9420, Lng: 23.6465}

	d := DistanceMeters(syntagma, piraeus)
	if math.Abs(d-8500) > 500 {
		t.Fatalf("distance = %.0fm, want about 8.5km", d)
	}
	if DistanceMeters(syntagma, syntagma) != 0 {
		t.Fatalf("distance to self should be zero")
	}
}

func TestNearby(t *testing.T) {
	// build test data
	origin := domain.Coordinates{Lat: 37.9755, Lng: 23.7348}
	locs := []domain.Location{
		{ID: "far", Coordinates: domain.Coordinates{Lat: 38.2466, Lng: 21.7346}},
		{ID: "b", Coordinates: domain.Coordinates{Lat: 37.9760, Lng: 23.7350}},
		{ID: "a", Coordinates: domain.Coordinates{Lat: 37.9760, Lng: 23.7350}},
		{ID: "no-coords"},
		{ID: "mid", Coordinates: domain.Coordinates{Lat: 37.9420, Lng: 23.6465}},
	}

	// call the function under test
	got := Nearby(locs, origin, 20_000, 0)

	// verify behavior
	want := []string{"a", "b", "mid"}
	if len(got) != len(want) {
		t.Fatalf("got %d results, want %d: %+v", len(got), len(want), got)
	}
	for i, id := range want {
		if got[i].Location.ID != id {
			t.Errorf("result %d = %q, want %q", i, got[i].Location.ID, id)
		}
	}
	if got[0].DistanceMeters > got[2].DistanceMeters {
		t.Errorf("results not ordered by distance")
	}

	if limited := Nearby(locs, origin, 0, 2); len(limited) != 2 {
		t.Fatalf("limit not applied: %+v", limited)
	}
	if all := Nearby(locs, origin, 0, 0); len(all) != 4 {
		t.Fatalf("zero radius should not filter, got %d", len(all))
	}
}
