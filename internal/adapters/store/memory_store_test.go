package store

import (
	"context"
	"errors"
	"pamekids-service/internal/domain"
	"testing"
	"time"
)

func TestMemoryStoreSetMergePreservesFields(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	clock := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	err := s.Set(ctx, "locations", "loc-1", map[string]any{
		"name":     "Athens Playroom",
		"address":  "Ermou 1",
		"ageRange": map[string]any{"min": 0, "max": 8},
	}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	clock = clock.Add(time.Hour)
	err = s.Set(ctx, "locations", "loc-1", map[string]any{
		"name":     "Athens Playroom II",
		"ageRange": map[string]any{"max": 10},
	}, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	doc, err := s.Get(ctx, "locations", "loc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Data["name"] != "Athens Playroom II" {
		t.Errorf("name = %v, want Athens Playroom II", doc.Data["name"])
	}
	if doc.Data["address"] != "Ermou 1" {
		t.Errorf("address = %v, want preserved Ermou 1", doc.Data["address"])
	}
	ages := doc.Data["ageRange"].(map[string]any)
	if _, ok := ages["min"]; ok || ages["max"] != 10 {
		t.Errorf("ageRange = %v, want replaced with max 10 only", ages)
	}

	created := doc.Data["createdAt"].(time.Time)
	updated := doc.Data["updatedAt"].(time.Time)
	if !created.Equal(time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)) {
		t.Errorf("createdAt = %v, want original create time", created)
	}
	if !updated.Equal(clock) {
		t.Errorf("updatedAt = %v, want %v", updated, clock)
	}
}

func TestMemoryStoreGetMissingIsNotFound(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Get(context.Background(), "locations", "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.Set(ctx, "c", "a", map[string]any{"types": []any{"sports"}}, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	docs, err := s.GetAll(ctx, "c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	docs[0].Data["types"].([]any)[0] = "arts"

	again, _ := s.Get(ctx, "c", "a")
	if got := again.Data["types"].([]any)[0]; got != "sports" {
		t.Errorf("stored types mutated through returned copy: %v", got)
	}
}

func TestMemoryStoreFindBy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_ = s.Set(ctx, "blog", "1", map[string]any{"slug": "summer-camps"}, false)
	_ = s.Set(ctx, "blog", "2", map[string]any{"slug": "rainy-days"}, false)

	docs, err := s.FindBy(ctx, "blog", "slug", "rainy-days")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "2" {
		t.Fatalf("docs = %+v, want only id 2", docs)
	}
}

func TestMemoryStoreFailureIsCategorized(t *testing.T) {
	s := NewMemoryStore()
	s.FailWith(domain.ErrPermissionDenied)

	err := s.Set(context.Background(), "locations", "x", map[string]any{}, false)
	if !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("err = %v, want ErrPermissionDenied", err)
	}

	var se *domain.StoreError
	if !errors.As(err, &se) || se.Op != "set" || se.ID != "x" {
		t.Fatalf("err = %#v, want *StoreError for set x", err)
	}
}
