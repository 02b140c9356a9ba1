package services

import (
	"context"
	"errors"
	"pamekids-service/internal/adapters/store"
	"pamekids-service/internal/domain"
	"pamekids-service/internal/ports"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeSnapshotCache struct {
	mu       sync.Mutex
	version  string
	snap     *ports.Snapshot
	writes   int
	clears   int
	readErr  error
	writeErr error
}

func (f *fakeSnapshotCache) Read(_ context.Context, _ string, version string) (ports.Snapshot, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return ports.Snapshot{}, false, f.readErr
	}
	if f.snap == nil || f.version != version {
		return ports.Snapshot{}, false, nil
	}
	out := *f.snap
	out.Locations = domain.CloneLocations(f.snap.Locations)
	return out, true, nil
}

func (f *fakeSnapshotCache) Write(_ context.Context, _ string, version string, snap ports.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	if f.writeErr != nil {
		return f.writeErr
	}
	snap.Locations = domain.CloneLocations(snap.Locations)
	f.snap = &snap
	f.version = version
	return nil
}

func (f *fakeSnapshotCache) Clear(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
	f.snap = nil
	return nil
}

func (f *fakeSnapshotCache) current() (ports.Snapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.snap == nil {
		return ports.Snapshot{}, false
	}
	return *f.snap, true
}

func seededStore(t *testing.T, names ...string) *store.MemoryStore {
	t.Helper()
	s := store.NewMemoryStore()
	for i, name := range names {
		id := string(rune('a' + i))
		if err := s.Set(context.Background(), "locations", id, map[string]any{"name": name}, false); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return s
}

func countFetches(s *store.MemoryStore) *atomic.Int32 {
	var n atomic.Int32
	s.OnGetAll(func(string) { n.Add(1) })
	return &n
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestLocationCacheCoalescesConcurrentCallers(t *testing.T) {
	s := seededStore(t, "Athens Playroom", "City Sports Club")

	release := make(chan struct{})
	var fetches atomic.Int32
	s.OnGetAll(func(string) {
		fetches.Add(1)
		<-release
	})

	c := NewLocationCache(s, &fakeSnapshotCache{}, LocationCacheConfig{})

	const callers = 10
	var wg sync.WaitGroup
	results := make([][]domain.Location, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.GetAll(context.Background(), false)
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := fetches.Load(); got != 1 {
		t.Fatalf("expected 1 remote fetch, got %d", got)
	}
	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: unexpected error: %v", i, errs[i])
		}
		if len(results[i]) != 2 {
			t.Fatalf("caller %d: expected 2 locations, got %d", i, len(results[i]))
		}
	}
}

func TestLocationCacheCoalescedFailureReachesEveryCaller(t *testing.T) {
	s := seededStore(t, "Athens Playroom")
	s.FailWith(domain.ErrRemoteUnavailable)

	release := make(chan struct{})
	var fetches atomic.Int32
	s.OnGetAll(func(string) {
		fetches.Add(1)
		<-release
	})

	c := NewLocationCache(s, nil, LocationCacheConfig{})

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.GetAll(context.Background(), false)
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i, err := range errs {
		if !errors.Is(err, domain.ErrRemoteUnavailable) {
			t.Fatalf("caller %d: err = %v, want ErrRemoteUnavailable", i, err)
		}
	}
	if got := fetches.Load(); got < 1 || got > int32(len(errs)) {
		t.Fatalf("unexpected fetch count %d", got)
	}
}

func TestLocationCacheFreshnessBoundary(t *testing.T) {
	s := seededStore(t, "Athens Playroom")
	fetches := countFetches(s)
	clk := &clock{t: t0}

	c := NewLocationCache(s, nil, LocationCacheConfig{Now: clk.Now})
	ctx := context.Background()

	if _, err := c.GetAll(ctx, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	clk.Set(t0.Add(DefaultFreshTTL - time.Millisecond))
	if _, err := c.GetAll(ctx, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := fetches.Load(); got != 1 {
		t.Fatalf("expected memory hit just before TTL, got %d fetches", got)
	}

	clk.Set(t0.Add(DefaultFreshTTL + time.Millisecond))
	if _, err := c.GetAll(ctx, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := fetches.Load(); got != 2 {
		t.Fatalf("expected refetch just after TTL, got %d fetches", got)
	}
}

func TestLocationCacheServesFreshPersistentTier(t *testing.T) {
	s := seededStore(t, "Remote Name")
	fetches := countFetches(s)
	clk := &clock{t: t0}

	persist := &fakeSnapshotCache{
		version: DefaultCacheVersion,
		snap: &ports.Snapshot{
			Locations: []domain.Location{{ID: "a", Name: "Cached Name"}},
			FetchedAt: t0.Add(-30 * time.Minute),
		},
	}

	c := NewLocationCache(s, persist, LocationCacheConfig{Now: clk.Now})
	got, err := c.GetAll(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c.Wait()

	if len(got) != 1 || got[0].Name != "Cached Name" {
		t.Fatalf("expected cached data, got %+v", got)
	}
	if n := fetches.Load(); n != 0 {
		t.Fatalf("expected no remote fetch under the refresh threshold, got %d", n)
	}
}

func TestLocationCacheVersionMismatchFetchesRemote(t *testing.T) {
	s := seededStore(t, "Remote Name")
	fetches := countFetches(s)
	clk := &clock{t: t0}

	persist := &fakeSnapshotCache{
		version: "0.9",
		snap: &ports.Snapshot{
			Locations: []domain.Location{{ID: "a", Name: "Old Format"}},
			FetchedAt: t0.Add(-time.Minute),
		},
	}

	c := NewLocationCache(s, persist, LocationCacheConfig{Version: "1.0", Now: clk.Now})
	got, err := c.GetAll(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if fetches.Load() != 1 {
		t.Fatalf("expected a remote fetch on version mismatch")
	}
	if got[0].Name != "Remote Name" {
		t.Fatalf("expected remote data, got %q", got[0].Name)
	}
	if persist.version != "1.0" {
		t.Fatalf("expected persistent tier rewritten under version 1.0, got %q", persist.version)
	}
}

func TestLocationCacheBackgroundRefresh(t *testing.T) {
	s := seededStore(t, "Remote Name")
	fetches := countFetches(s)
	clk := &clock{t: t0}

	persist := &fakeSnapshotCache{
		version: DefaultCacheVersion,
		snap: &ports.Snapshot{
			Locations: []domain.Location{{ID: "a", Name: "Cached Name"}},
			FetchedAt: t0.Add(-2 * time.Hour),
		},
	}

	c := NewLocationCache(s, persist, LocationCacheConfig{Now: clk.Now})
	got, err := c.GetAll(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0].Name != "Cached Name" {
		t.Fatalf("expected cached data served immediately, got %q", got[0].Name)
	}

	c.Wait()

	if n := fetches.Load(); n != 1 {
		t.Fatalf("expected exactly 1 background fetch, got %d", n)
	}
	snap, ok := persist.current()
	if !ok || snap.Locations[0].Name != "Remote Name" || !snap.FetchedAt.Equal(t0) {
		t.Fatalf("persistent tier not refreshed: %+v", snap)
	}

	again, err := c.GetAll(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again[0].Name != "Remote Name" {
		t.Fatalf("expected refreshed data from memory, got %q", again[0].Name)
	}
}

func TestLocationCacheBackgroundRefreshFailureIsSilent(t *testing.T) {
	s := seededStore(t, "Remote Name")
	s.FailWith(domain.ErrRemoteUnavailable)
	clk := &clock{t: t0}

	persist := &fakeSnapshotCache{
		version: DefaultCacheVersion,
		snap: &ports.Snapshot{
			Locations: []domain.Location{{ID: "a", Name: "Cached Name"}},
			FetchedAt: t0.Add(-3 * time.Hour),
		},
	}

	c := NewLocationCache(s, persist, LocationCacheConfig{Now: clk.Now})
	got, err := c.GetAll(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c.Wait()

	if got[0].Name != "Cached Name" {
		t.Fatalf("expected cached data, got %q", got[0].Name)
	}
	snap, ok := persist.current()
	if !ok || snap.Locations[0].Name != "Cached Name" {
		t.Fatalf("failed refresh must leave the persistent tier untouched: %+v", snap)
	}
}

func TestLocationCacheFailedFetchKeepsExistingTiers(t *testing.T) {
	s := seededStore(t, "Athens Playroom")
	clk := &clock{t: t0}
	persist := &fakeSnapshotCache{}

	c := NewLocationCache(s, persist, LocationCacheConfig{Now: clk.Now})
	ctx := context.Background()
	if _, err := c.GetAll(ctx, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s.FailWith(domain.ErrPermissionDenied)
	clk.Set(t0.Add(25 * time.Hour))

	_, err := c.GetAll(ctx, false)
	if !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("err = %v, want ErrPermissionDenied", err)
	}
	if _, ok := persist.current(); !ok {
		t.Fatalf("persistent tier was cleared by a failed fetch")
	}

	s.FailWith(nil)
	got, err := c.GetAll(ctx, false)
	if err != nil || len(got) != 1 {
		t.Fatalf("expected recovery after failure, got %v %v", got, err)
	}
}

func TestLocationCacheForceRefreshBypassesTiers(t *testing.T) {
	s := seededStore(t, "Athens Playroom")
	fetches := countFetches(s)
	persist := &fakeSnapshotCache{}

	c := NewLocationCache(s, persist, LocationCacheConfig{})
	ctx := context.Background()
	if _, err := c.GetAll(ctx, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Set(ctx, "locations", "a", map[string]any{"name": "Renamed"}, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := c.GetAll(ctx, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetches.Load() != 2 {
		t.Fatalf("expected force refresh to fetch, got %d fetches", fetches.Load())
	}
	if got[0].Name != "Renamed" {
		t.Fatalf("expected fresh data, got %q", got[0].Name)
	}
	if persist.clears != 1 {
		t.Fatalf("expected persistent tier cleared once, got %d", persist.clears)
	}
}

func TestLocationCacheInvalidate(t *testing.T) {
	s := seededStore(t, "Athens Playroom")
	fetches := countFetches(s)
	persist := &fakeSnapshotCache{}

	c := NewLocationCache(s, persist, LocationCacheConfig{})
	ctx := context.Background()
	_, _ = c.GetAll(ctx, false)

	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := persist.current(); ok {
		t.Fatalf("persistent tier still populated after invalidate")
	}

	_, _ = c.GetAll(ctx, false)
	if fetches.Load() != 2 {
		t.Fatalf("expected a remote fetch after invalidate, got %d", fetches.Load())
	}
}

func TestLocationCachePersistentReadErrorFallsThrough(t *testing.T) {
	s := seededStore(t, "Athens Playroom")
	persist := &fakeSnapshotCache{readErr: errors.New("disk full"), writeErr: errors.New("disk full")}

	c := NewLocationCache(s, persist, LocationCacheConfig{})
	got, err := c.GetAll(context.Background(), false)
	if err != nil {
		t.Fatalf("persistent tier errors must not surface: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 location, got %d", len(got))
	}
}

func TestLocationCacheReturnsCopies(t *testing.T) {
	s := seededStore(t, "Athens Playroom")
	c := NewLocationCache(s, nil, LocationCacheConfig{})
	ctx := context.Background()

	first, _ := c.GetAll(ctx, false)
	first[0].Name = "mutated"

	second, _ := c.GetAll(ctx, false)
	if second[0].Name != "Athens Playroom" {
		t.Fatalf("cached snapshot mutated through a returned slice: %q", second[0].Name)
	}
}

func TestLocationCacheCallerCancellationDoesNotAbortFetch(t *testing.T) {
	s := seededStore(t, "Athens Playroom")
	release := make(chan struct{})
	s.OnGetAll(func(string) { <-release })

	c := NewLocationCache(s, nil, LocationCacheConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.GetAll(ctx, false)
		done <- err
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}

	s.OnGetAll(nil)
	close(release)

	deadline := time.Now().Add(time.Second)
	for {
		if snap, ok := c.memorySnapshot(); ok && len(snap.Locations) == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("detached fetch never populated the memory tier")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
