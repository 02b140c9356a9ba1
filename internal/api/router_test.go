package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"pamekids-service/internal/adapters/places"
	"pamekids-service/internal/adapters/store"
	"pamekids-service/internal/api/dto"
	"pamekids-service/internal/domain"
	"pamekids-service/internal/ports"
	"pamekids-service/internal/services"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func newTestRouter(t *testing.T, secret string) (http.Handler, *store.MemoryStore) {
	t.Helper()
	ctx := context.Background()
	s := store.NewMemoryStore()

	seed := []domain.Location{
		{
			ID:          "athens-playroom",
			Name:        "Athens Playroom",
			Types:       []domain.ActivityType{domain.ActivityIndoorPlay},
			PrimaryType: domain.ActivityIndoorPlay,
			AgeRange:    domain.AgeRange{Min: 0, Max: 8},
			Address:     "Ermou 10, Athens",
			Coordinates: domain.Coordinates{Lat: 37.9763, Lng: 23.7281},
		},
		{
			ID:          "city-sports-club",
			Name:        "City Sports Club",
			Types:       []domain.ActivityType{domain.ActivitySports},
			PrimaryType: domain.ActivitySports,
			AgeRange:    domain.AgeRange{Min: 5, Max: 16},
			Address:     "Syngrou 100, Athens",
			Coordinates: domain.Coordinates{Lat: 37.9530, Lng: 23.7160},
		},
	}
	for _, loc := range seed {
		if err := s.Set(ctx, services.DefaultLocationsCollection, loc.ID, services.LocationRecord(loc), false); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	cache := services.NewLocationCache(s, nil, services.LocationCacheConfig{})
	t.Cleanup(cache.Wait)

	provider := places.NewMockPlacesProvider(ports.PlaceDetails{
		PlaceID:     "ChIJpark",
		Name:        "Riverside Park",
		Address:     "Riverside 1, Athens",
		Coordinates: domain.Coordinates{Lat: 37.9, Lng: 23.7},
		Types:       []string{"park"},
	})

	h := NewRouter(Deps{
		Locations:   cache,
		Admin:       services.NewLocationAdmin(s, cache, provider, nil, nil),
		Search:      services.NewSearchEngine(nil),
		Featured:    services.NewFeaturedService(s, cache),
		Blog:        services.NewBlogService(s),
		Suggestions: services.NewSuggestionService(s),
		Newsletter:  services.NewNewsletterService(s),
		JWTSecret:   secret,
	})
	return h, s
}

func adminToken(t *testing.T) string {
	t.Helper()
	tok, err := IssueAdminToken(testSecret, "tester", time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

func do(t *testing.T, h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return v
}

func TestHealth(t *testing.T) {
	h, _ := newTestRouter(t, testSecret)

	rec := do(t, h, http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("missing request id header")
	}
}

func TestRequestIDIsPropagated(t *testing.T) {
	h, _ := newTestRouter(t, testSecret)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Fatalf("request id = %q", got)
	}
}

func TestListAndGetLocations(t *testing.T) {
	h, _ := newTestRouter(t, testSecret)

	rec := do(t, h, http.MethodGet, "/locations", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	list := decode[dto.ListLocationsResponse](t, rec)
	if list.Count != 2 || len(list.Locations) != 2 {
		t.Fatalf("unexpected list: %+v", list)
	}

	rec = do(t, h, http.MethodGet, "/locations/city-sports-club", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if loc := decode[domain.Location](t, rec); loc.Name != "City Sports Club" {
		t.Fatalf("unexpected location: %+v", loc)
	}

	if rec := do(t, h, http.MethodGet, "/locations/nope", "", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestNearbyLocations(t *testing.T) {
	h, _ := newTestRouter(t, testSecret)

	rec := do(t, h, http.MethodGet, "/locations/nearby?lat=37.9755&lng=23.7348&radiusKm=2", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	res := decode[dto.NearbyResponse](t, rec)
	if len(res.Results) != 1 || res.Results[0].Location.ID != "athens-playroom" {
		t.Fatalf("unexpected results: %+v", res.Results)
	}

	res = decode[dto.NearbyResponse](t, do(t, h, http.MethodGet, "/locations/nearby?lat=37.9755&lng=23.7348", "", ""))
	if len(res.Results) != 2 || res.Results[0].DistanceMeters > res.Results[1].DistanceMeters {
		t.Fatalf("unexpected results: %+v", res.Results)
	}

	for _, q := range []string{"lat=x&lng=1", "lat=91&lng=0", "lat=1&lng=1&radiusKm=-1", "lat=1&lng=1&limit=0"} {
		if rec := do(t, h, http.MethodGet, "/locations/nearby?"+q, "", ""); rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d, want 400", q, rec.Code)
		}
	}
}

func TestLocationsMethodNotAllowed(t *testing.T) {
	h, _ := newTestRouter(t, testSecret)

	if rec := do(t, h, http.MethodPost, "/locations", "{}", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

func TestListLocationsStoreFailure(t *testing.T) {
	h, s := newTestRouter(t, testSecret)
	s.FailWith(domain.ErrRemoteUnavailable)

	if rec := do(t, h, http.MethodGet, "/locations", "", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestSearch(t *testing.T) {
	h, _ := newTestRouter(t, testSecret)

	rec := do(t, h, http.MethodGet, "/search?q=sports+for+a+6+year+old", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	res := decode[dto.SearchResponse](t, rec)
	if len(res.Results) != 1 {
		t.Fatalf("expected one result, got %+v", res.Results)
	}
	got := res.Results[0]
	if got.Location.ID != "city-sports-club" || got.Priority != 2 || !got.AgeMatch || !got.ActivityMatch {
		t.Fatalf("unexpected result: %+v", got)
	}
	if got.Score != 3 {
		t.Fatalf("score = %d, want 3", got.Score)
	}
	if len(res.Ages) != 1 || res.Ages[0] != 6 {
		t.Fatalf("ages = %v", res.Ages)
	}
	if len(res.Activities) != 1 || res.Activities[0] != domain.ActivitySports {
		t.Fatalf("activities = %v", res.Activities)
	}
}

func TestSearchEmptyQueryAndLimit(t *testing.T) {
	h, _ := newTestRouter(t, testSecret)

	rec := do(t, h, http.MethodGet, "/search?q=", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if res := decode[dto.SearchResponse](t, rec); len(res.Results) != 0 {
		t.Fatalf("expected no results, got %+v", res.Results)
	}

	rec = do(t, h, http.MethodGet, "/search?q=athens&limit=1", "", "")
	if res := decode[dto.SearchResponse](t, rec); len(res.Results) != 1 {
		t.Fatalf("expected limit to apply, got %d results", len(res.Results))
	}

	for _, limit := range []string{"0", "x", "101"} {
		if rec := do(t, h, http.MethodGet, "/search?q=park&limit="+limit, "", ""); rec.Code != http.StatusBadRequest {
			t.Fatalf("limit=%s status = %d, want 400", limit, rec.Code)
		}
	}
}

func TestAdminRequiresToken(t *testing.T) {
	h, _ := newTestRouter(t, testSecret)
	body := `{"name":"X","types":["sports"]}`

	if rec := do(t, h, http.MethodPost, "/admin/locations", body, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status = %d, want 401", rec.Code)
	}

	forged, err := IssueAdminToken("other-secret", "mallory", time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if rec := do(t, h, http.MethodPost, "/admin/locations", body, forged); rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong secret: status = %d, want 401", rec.Code)
	}

	expired, err := IssueAdminToken(testSecret, "tester", -time.Minute)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if rec := do(t, h, http.MethodPost, "/admin/locations", body, expired); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expired: status = %d, want 401", rec.Code)
	}

	editor, err := jwt.NewWithClaims(jwt.SigningMethodHS256, AdminClaims{
		Role: "editor",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if rec := do(t, h, http.MethodPost, "/admin/locations", body, editor); rec.Code != http.StatusForbidden {
		t.Fatalf("non-admin: status = %d, want 403", rec.Code)
	}
}

func TestAdminDisabledWithoutSecret(t *testing.T) {
	h, _ := newTestRouter(t, "")

	if rec := do(t, h, http.MethodGet, "/admin/suggestions", "", "anything"); rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestAdminLocationLifecycle(t *testing.T) {
	h, _ := newTestRouter(t, testSecret)
	tok := adminToken(t)

	// Warm the cache so the create must invalidate it.
	do(t, h, http.MethodGet, "/locations", "", "")

	rec := do(t, h, http.MethodPost, "/admin/locations",
		`{"id":"art-studio","name":"Little Art Studio","types":["arts"],"ageRange":{"min":4,"max":12}}`, tok)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d body=%s", rec.Code, rec.Body.String())
	}
	created := decode[domain.Location](t, rec)
	if created.PrimaryType != domain.ActivityArts || created.CreatedAt.IsZero() {
		t.Fatalf("unexpected created location: %+v", created)
	}

	list := decode[dto.ListLocationsResponse](t, do(t, h, http.MethodGet, "/locations", "", ""))
	if list.Count != 3 {
		t.Fatalf("expected the new location to be visible, count = %d", list.Count)
	}

	rec = do(t, h, http.MethodPatch, "/admin/locations/art-studio", `{"description":"Painting and pottery."}`, tok)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d body=%s", rec.Code, rec.Body.String())
	}
	if got := decode[domain.Location](t, rec); got.Description != "Painting and pottery." || got.Name != "Little Art Studio" {
		t.Fatalf("unexpected update: %+v", got)
	}

	if rec := do(t, h, http.MethodPatch, "/admin/locations/ghost", `{"name":"x"}`, tok); rec.Code != http.StatusNotFound {
		t.Fatalf("update missing: status = %d, want 404", rec.Code)
	}

	if rec := do(t, h, http.MethodDelete, "/admin/locations/art-studio", "", tok); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/locations/art-studio", "", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("deleted location still served: status = %d", rec.Code)
	}
}

func TestAdminCreateRejectsBadBodies(t *testing.T) {
	h, _ := newTestRouter(t, testSecret)
	tok := adminToken(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"name":`},
		{"unknown field", `{"name":"X","types":["sports"],"rating":5}`},
		{"two objects", `{"name":"X","types":["sports"]}{"name":"Y"}`},
		{"unknown type", `{"name":"X","types":["karaoke"]}`},
		{"age range inverted", `{"name":"X","types":["sports"],"ageRange":{"min":9,"max":3}}`},
		{"duplicate id", `{"id":"athens-playroom","name":"X","types":["sports"]}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/admin/locations", tc.body, tok)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (body %s)", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestAdminCreateFromPlace(t *testing.T) {
	h, _ := newTestRouter(t, testSecret)
	tok := adminToken(t)

	rec := do(t, h, http.MethodPost, "/admin/locations/from-place", `{"placeId":"ChIJpark","overrides":{"ageRange":{"min":2,"max":12}}}`, tok)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	loc := decode[domain.Location](t, rec)
	if loc.Name != "Riverside Park" || loc.PlaceID != "ChIJpark" || loc.AgeRange.Max != 12 {
		t.Fatalf("unexpected location: %+v", loc)
	}
	if len(loc.Types) != 1 || loc.Types[0] != domain.ActivityOutdoorPlay {
		t.Fatalf("types = %v", loc.Types)
	}

	if rec := do(t, h, http.MethodPost, "/admin/locations/from-place", `{"placeId":"missing"}`, tok); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown place: status = %d, want 404", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/admin/locations/from-place", `{}`, tok); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing placeId: status = %d, want 400", rec.Code)
	}
}

func TestFeaturedEndpoints(t *testing.T) {
	h, _ := newTestRouter(t, testSecret)
	tok := adminToken(t)

	rec := do(t, h, http.MethodPut, "/admin/featured", `{"locationIds":["city-sports-club","athens-playroom"]}`, tok)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}

	res := decode[dto.FeaturedResponse](t, do(t, h, http.MethodGet, "/featured", "", ""))
	if len(res.Locations) != 2 || res.Locations[0].ID != "city-sports-club" {
		t.Fatalf("unexpected featured: %+v", res.Locations)
	}

	if rec := do(t, h, http.MethodPut, "/admin/featured", `{"locationIds":["nope"]}`, tok); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown id: status = %d, want 400", rec.Code)
	}
}

func TestBlogEndpoints(t *testing.T) {
	h, _ := newTestRouter(t, testSecret)
	tok := adminToken(t)

	rec := do(t, h, http.MethodPost, "/admin/blog", `{"title":"Rainy Day Ideas","content":"Paint."}`, tok)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	draft := decode[domain.BlogPost](t, rec)

	if rec := do(t, h, http.MethodGet, "/blog/rainy-day-ideas", "", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("draft visible publicly: status = %d", rec.Code)
	}
	if res := decode[dto.ListBlogPostsResponse](t, do(t, h, http.MethodGet, "/blog", "", "")); len(res.Posts) != 0 {
		t.Fatalf("draft listed publicly: %+v", res.Posts)
	}

	rec = do(t, h, http.MethodPatch, "/admin/blog/"+draft.ID, `{"published":true}`, tok)
	if rec.Code != http.StatusOK {
		t.Fatalf("publish status = %d body=%s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/blog/rainy-day-ideas", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if post := decode[domain.BlogPost](t, rec); post.PublishedAt == nil {
		t.Fatalf("published post without publishedAt")
	}

	if res := decode[dto.ListBlogPostsResponse](t, do(t, h, http.MethodGet, "/admin/blog", "", tok)); len(res.Posts) != 1 {
		t.Fatalf("admin list = %+v", res.Posts)
	}
	if rec := do(t, h, http.MethodDelete, "/admin/blog/"+draft.ID, "", tok); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
}

func TestSuggestionsAndNewsletter(t *testing.T) {
	h, _ := newTestRouter(t, testSecret)
	tok := adminToken(t)

	rec := do(t, h, http.MethodPost, "/suggestions", `{"kind":"report","locationId":"athens-playroom","message":"Closed on Mondays"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if rec := do(t, h, http.MethodPost, "/suggestions", `{"kind":"report","message":"no location"}`, ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if res := decode[dto.ListSuggestionsResponse](t, do(t, h, http.MethodGet, "/admin/suggestions", "", tok)); len(res.Suggestions) != 1 {
		t.Fatalf("suggestions = %+v", res.Suggestions)
	}

	rec = do(t, h, http.MethodPost, "/newsletter", `{"email":"Parent@Example.com"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if sub := decode[domain.Subscriber](t, rec); sub.Email != "parent@example.com" || !sub.Active {
		t.Fatalf("unexpected subscriber: %+v", sub)
	}

	if rec := do(t, h, http.MethodDelete, "/newsletter/parent@example.com", "", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("unsubscribe status = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodDelete, "/newsletter/ghost@example.com", "", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("unsubscribe unknown: status = %d, want 404", rec.Code)
	}

	res := decode[dto.ListSubscribersResponse](t, do(t, h, http.MethodGet, "/admin/newsletter", "", tok))
	if len(res.Subscribers) != 1 || res.Subscribers[0].Active {
		t.Fatalf("subscribers = %+v", res.Subscribers)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := newTestRouter(t, testSecret)
	do(t, h, http.MethodGet, "/health", "", "")

	rec := do(t, h, http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "pamekids_http_requests_total") {
		t.Fatalf("metrics output missing request counter")
	}
}
