package services

import (
	"context"
	"errors"
	"fmt"
	"pamekids-service/internal/domain"
	"pamekids-service/internal/ports"
	"sort"
	"strings"

	"github.com/google/uuid"
)

const DefaultSuggestionsCollection = "suggestions"

type SuggestionInput struct {
	Kind       domain.SuggestionKind
	LocationID string
	PlaceName  string
	Message    string
	Email      string
}

// SuggestionService stores visitor suggestions and reports for admin review.
type SuggestionService struct {
	Store               ports.DocumentStore
	Collection          string
	LocationsCollection string
	NewID               func() string
}

func NewSuggestionService(store ports.DocumentStore) *SuggestionService {
	return &SuggestionService{
		Store:               store,
		Collection:          DefaultSuggestionsCollection,
		LocationsCollection: DefaultLocationsCollection,
		NewID:               uuid.NewString,
	}
}

// Submit records a suggestion. A report must reference an existing location;
// a new-place suggestion must name the place.
func (s *SuggestionService) Submit(ctx context.Context, in SuggestionInput) (domain.Suggestion, error) {
	sg := domain.Suggestion{
		ID:         s.NewID(),
		Kind:       domain.SuggestionKind(strings.ToLower(strings.TrimSpace(string(in.Kind)))),
		LocationID: strings.TrimSpace(in.LocationID),
		PlaceName:  strings.TrimSpace(in.PlaceName),
		Message:    strings.TrimSpace(in.Message),
		Email:      strings.ToLower(strings.TrimSpace(in.Email)),
	}
	if err := domain.ValidateStruct(sg); err != nil {
		return domain.Suggestion{}, fmt.Errorf("submit suggestion: %w", err)
	}

	switch sg.Kind {
	case domain.SuggestionReport:
		if sg.LocationID == "" {
			return domain.Suggestion{}, fmt.Errorf("submit suggestion: %w", domain.Invalid("locationId", "is required for a report"))
		}
		if _, err := s.Store.Get(ctx, s.LocationsCollection, sg.LocationID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.Suggestion{}, fmt.Errorf("submit suggestion: %w", domain.Invalid("locationId", fmt.Sprintf("unknown location %q", sg.LocationID)))
			}
			return domain.Suggestion{}, fmt.Errorf("submit suggestion: check location: %w", err)
		}
	case domain.SuggestionNewPlace:
		if sg.PlaceName == "" {
			return domain.Suggestion{}, fmt.Errorf("submit suggestion: %w", domain.Invalid("placeName", "is required for a suggestion"))
		}
	}

	rec := map[string]any{
		"kind":       string(sg.Kind),
		"locationId": sg.LocationID,
		"placeName":  sg.PlaceName,
		"message":    sg.Message,
		"email":      sg.Email,
	}
	if err := s.Store.Set(ctx, s.Collection, sg.ID, rec, false); err != nil {
		return domain.Suggestion{}, fmt.Errorf("submit suggestion: write: %w", err)
	}

	doc, err := s.Store.Get(ctx, s.Collection, sg.ID)
	if err != nil {
		return domain.Suggestion{}, fmt.Errorf("submit suggestion: read back: %w", err)
	}
	return suggestionFromDocument(doc), nil
}

// List returns every suggestion, newest first.
func (s *SuggestionService) List(ctx context.Context) ([]domain.Suggestion, error) {
	docs, err := s.Store.GetAll(ctx, s.Collection)
	if err != nil {
		return nil, fmt.Errorf("list suggestions: %w", err)
	}
	out := make([]domain.Suggestion, 0, len(docs))
	for _, d := range docs {
		out = append(out, suggestionFromDocument(d))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func suggestionFromDocument(doc ports.Document) domain.Suggestion {
	d := doc.Data
	return domain.Suggestion{
		ID:         doc.ID,
		Kind:       domain.SuggestionKind(asString(d["kind"])),
		LocationID: asString(d["locationId"]),
		PlaceName:  asString(d["placeName"]),
		Message:    asString(d["message"]),
		Email:      asString(d["email"]),
		CreatedAt:  asTime(d["createdAt"]),
	}
}
