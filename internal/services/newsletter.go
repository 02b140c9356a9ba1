package services

import (
	"context"
	"errors"
	"fmt"
	"pamekids-service/internal/domain"
	"pamekids-service/internal/ports"
	"sort"
	"strings"
)

const DefaultNewsletterCollection = "newsletter"

// NewsletterService manages subscribers keyed by lower-cased email.
type NewsletterService struct {
	Store      ports.DocumentStore
	Collection string
}

func NewNewsletterService(store ports.DocumentStore) *NewsletterService {
	return &NewsletterService{Store: store, Collection: DefaultNewsletterCollection}
}

// Subscribe is idempotent: an active subscriber is returned unchanged and an
// unsubscribed one is reactivated.
func (s *NewsletterService) Subscribe(ctx context.Context, email string) (domain.Subscriber, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return domain.Subscriber{}, fmt.Errorf("subscribe: %w", err)
	}

	doc, err := s.Store.Get(ctx, s.Collection, email)
	switch {
	case err == nil:
		sub := subscriberFromDocument(doc)
		if sub.Active {
			return sub, nil
		}
		if err := s.Store.Set(ctx, s.Collection, email, map[string]any{"active": true}, true); err != nil {
			return domain.Subscriber{}, fmt.Errorf("subscribe %q: reactivate: %w", email, err)
		}
	case errors.Is(err, domain.ErrNotFound):
		if err := s.Store.Set(ctx, s.Collection, email, map[string]any{"email": email, "active": true}, false); err != nil {
			return domain.Subscriber{}, fmt.Errorf("subscribe %q: write: %w", email, err)
		}
	default:
		return domain.Subscriber{}, fmt.Errorf("subscribe %q: %w", email, err)
	}

	return s.get(ctx, email)
}

func (s *NewsletterService) Unsubscribe(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return fmt.Errorf("unsubscribe: %w", err)
	}
	if _, err := s.Store.Get(ctx, s.Collection, email); err != nil {
		return fmt.Errorf("unsubscribe %q: %w", email, err)
	}
	if err := s.Store.Set(ctx, s.Collection, email, map[string]any{"active": false}, true); err != nil {
		return fmt.Errorf("unsubscribe %q: write: %w", email, err)
	}
	return nil
}

// List returns every subscriber, active or not, ordered by email.
func (s *NewsletterService) List(ctx context.Context) ([]domain.Subscriber, error) {
	docs, err := s.Store.GetAll(ctx, s.Collection)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	out := make([]domain.Subscriber, 0, len(docs))
	for _, d := range docs {
		out = append(out, subscriberFromDocument(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (s *NewsletterService) get(ctx context.Context, email string) (domain.Subscriber, error) {
	doc, err := s.Store.Get(ctx, s.Collection, email)
	if err != nil {
		return domain.Subscriber{}, fmt.Errorf("get subscriber %q: %w", email, err)
	}
	return subscriberFromDocument(doc), nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if strings.Contains(email, "/") {
		return "", domain.Invalid("email", "must be a valid email address")
	}
	if err := domain.ValidateStruct(domain.Subscriber{Email: email}); err != nil {
		return "", err
	}
	return email, nil
}

func subscriberFromDocument(doc ports.Document) domain.Subscriber {
	d := doc.Data
	email := asString(d["email"])
	if email == "" {
		email = doc.ID
	}
	return domain.Subscriber{
		Email:     email,
		Active:    asBool(d["active"]),
		CreatedAt: asTime(d["createdAt"]),
		UpdatedAt: asTime(d["updatedAt"]),
	}
}
