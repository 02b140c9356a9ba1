package services

import (
	"context"
	"errors"
	"fmt"
	"pamekids-service/internal/domain"
	"pamekids-service/internal/platform/obs"
	"pamekids-service/internal/ports"
	"strings"
)

const (
	DefaultFeaturedCollection = "featured"
	featuredDocID             = "home"
)

// LocationSource yields the current locations collection.
type LocationSource interface {
	GetAll(ctx context.Context, forceRefresh bool) ([]domain.Location, error)
}

// FeaturedService curates the ordered list of home-page locations.
type FeaturedService struct {
	Store      ports.DocumentStore
	Collection string
	Locations  LocationSource
}

func NewFeaturedService(store ports.DocumentStore, locations LocationSource) *FeaturedService {
	return &FeaturedService{Store: store, Collection: DefaultFeaturedCollection, Locations: locations}
}

// Set replaces the featured list. Every id must name an existing location.
func (s *FeaturedService) Set(ctx context.Context, ids []string) (_ domain.FeaturedSet, err error) {
	defer obs.Time(ctx, "featured.Set")(&err)

	set := domain.FeaturedSet{LocationIDs: make([]string, 0, len(ids))}
	for _, id := range ids {
		set.LocationIDs = append(set.LocationIDs, strings.TrimSpace(id))
	}
	if err := domain.ValidateStruct(set); err != nil {
		return domain.FeaturedSet{}, fmt.Errorf("set featured: %w", err)
	}

	locations, err := s.Locations.GetAll(ctx, false)
	if err != nil {
		return domain.FeaturedSet{}, fmt.Errorf("set featured: load locations: %w", err)
	}
	known := make(map[string]bool, len(locations))
	for _, l := range locations {
		known[l.ID] = true
	}
	for _, id := range set.LocationIDs {
		if !known[id] {
			return domain.FeaturedSet{}, fmt.Errorf("set featured: %w", domain.Invalid("locationIds", fmt.Sprintf("unknown location %q", id)))
		}
	}

	values := make([]any, 0, len(set.LocationIDs))
	for _, id := range set.LocationIDs {
		values = append(values, id)
	}
	if err := s.Store.Set(ctx, s.Collection, featuredDocID, map[string]any{"locationIds": values}, false); err != nil {
		return domain.FeaturedSet{}, fmt.Errorf("set featured: write: %w", err)
	}
	return s.Get(ctx)
}

// Get returns the stored featured set; an unset list is empty, not an error.
func (s *FeaturedService) Get(ctx context.Context) (domain.FeaturedSet, error) {
	doc, err := s.Store.Get(ctx, s.Collection, featuredDocID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.FeaturedSet{LocationIDs: []string{}}, nil
	}
	if err != nil {
		return domain.FeaturedSet{}, fmt.Errorf("get featured: %w", err)
	}
	ids := asStrings(doc.Data["locationIds"])
	if ids == nil {
		ids = []string{}
	}
	return domain.FeaturedSet{LocationIDs: ids, UpdatedAt: asTime(doc.Data["updatedAt"])}, nil
}

// List resolves the featured ids in curated order, skipping deleted locations.
func (s *FeaturedService) List(ctx context.Context) ([]domain.Location, error) {
	set, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	if len(set.LocationIDs) == 0 {
		return []domain.Location{}, nil
	}

	locations, err := s.Locations.GetAll(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("list featured: load locations: %w", err)
	}
	byID := make(map[string]domain.Location, len(locations))
	for _, l := range locations {
		byID[l.ID] = l
	}

	out := make([]domain.Location, 0, len(set.LocationIDs))
	for _, id := range set.LocationIDs {
		if l, ok := byID[id]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}
