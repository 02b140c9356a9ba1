package store

import (
	"context"
	"fmt"
	"pamekids-service/internal/domain"
	"pamekids-service/internal/ports"
	"sort"
	"sync"
	"time"
)

// In-memory DocumentStore used for local runs and tests.
// Safe for concurrent use. Documents are copied on the way in and out.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]any
	now         func() time.Time

	// Optional hooks for tests: failWith makes every call fail,
	// onGetAll runs before each GetAll (e.g. to block or count).
	failWith error
	onGetAll func(collection string)
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]map[string]any),
		now:         time.Now,
	}
}

// FailWith makes subsequent calls return err categorized as kind; nil clears it.
func (m *MemoryStore) FailWith(kind error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = kind
}

// OnGetAll registers a hook invoked at the start of every GetAll call.
func (m *MemoryStore) OnGetAll(fn func(collection string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onGetAll = fn
}

func (m *MemoryStore) failure(op, collection, id string) error {
	if m.failWith == nil {
		return nil
	}
	return domain.NewStoreError(op, collection, id, m.failWith, nil)
}

func (m *MemoryStore) GetAll(ctx context.Context, collection string) ([]ports.Document, error) {
	m.mu.RLock()
	hook := m.onGetAll
	m.mu.RUnlock()
	if hook != nil {
		hook(collection)
	}

	if err := ctx.Err(); err != nil {
		return nil, domain.NewStoreError("get all", collection, "", domain.ErrRemoteUnavailable, err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failure("get all", collection, ""); err != nil {
		return nil, err
	}

	docs := m.collections[collection]
	out := make([]ports.Document, 0, len(docs))
	for id, data := range docs {
		out = append(out, ports.Document{ID: id, Data: copyMap(data)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) Get(ctx context.Context, collection, id string) (ports.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failure("get", collection, id); err != nil {
		return ports.Document{}, err
	}

	data, ok := m.collections[collection][id]
	if !ok {
		return ports.Document{}, domain.NewStoreError("get", collection, id, domain.ErrNotFound, nil)
	}
	return ports.Document{ID: id, Data: copyMap(data)}, nil
}

func (m *MemoryStore) Set(ctx context.Context, collection, id string, data map[string]any, merge bool) error {
	if id == "" {
		return domain.NewStoreError("set", collection, id, domain.ErrValidation, fmt.Errorf("empty document id"))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("set", collection, id); err != nil {
		return err
	}

	coll, ok := m.collections[collection]
	if !ok {
		coll = make(map[string]map[string]any)
		m.collections[collection] = coll
	}

	now := m.now().UTC()
	existing, exists := coll[id]

	var next map[string]any
	if merge && exists {
		next = copyMap(existing)
		for k, v := range data {
			next[k] = copyValue(v)
		}
	} else {
		next = copyMap(data)
		next["createdAt"] = now
	}
	next["updatedAt"] = now

	coll[id] = next
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("delete", collection, id); err != nil {
		return err
	}

	delete(m.collections[collection], id)
	return nil
}

func (m *MemoryStore) FindBy(ctx context.Context, collection, field string, value any) ([]ports.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failure("find", collection, ""); err != nil {
		return nil, err
	}

	want := fmt.Sprint(value)
	out := make([]ports.Document, 0)
	for id, data := range m.collections[collection] {
		v, ok := data[field]
		if !ok || fmt.Sprint(v) != want {
			continue
		}
		out = append(out, ports.Document{ID: id, Data: copyMap(data)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// copyMap deep-copies nested maps and slices so callers never share state with the store.
func copyMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyMap(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = copyValue(t[i])
		}
		return out
	case []string:
		return append([]string(nil), t...)
	case map[string]string:
		out := make(map[string]string, len(t))
		for k, s := range t {
			out[k] = s
		}
		return out
	default:
		return v
	}
}
