package services

import (
	"context"
	"errors"
	"fmt"
	"pamekids-service/internal/domain"
	"pamekids-service/internal/platform/logging"
	"pamekids-service/internal/platform/obs"
	"pamekids-service/internal/ports"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CacheInvalidator is notified after every successful location mutation.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// LocationInput is the admin payload for a new location.
// Zero values take defaults: a generated ID, the first type as primary,
// and the default age range.
type LocationInput struct {
	ID           string
	Name         string
	Coordinates  domain.Coordinates
	Types        []domain.ActivityType
	PrimaryType  domain.ActivityType
	AgeRange     *domain.AgeRange
	Address      string
	Description  string
	OpeningHours map[string]string
	Contact      domain.Contact
}

// LocationPatch is a partial update; nil fields are left untouched.
type LocationPatch struct {
	Name         *string
	Coordinates  *domain.Coordinates
	Types        []domain.ActivityType
	PrimaryType  *domain.ActivityType
	AgeRange     *domain.AgeRange
	Address      *string
	Description  *string
	OpeningHours map[string]string
	Contact      *domain.Contact
}

// Record returns only the fields the patch sets, in store layout.
func (p LocationPatch) Record() map[string]any {
	rec := map[string]any{}
	if p.Name != nil {
		rec["name"] = *p.Name
	}
	if p.Coordinates != nil {
		rec["coordinates"] = map[string]any{"lat": p.Coordinates.Lat, "lng": p.Coordinates.Lng}
	}
	if p.Types != nil {
		types := make([]any, 0, len(p.Types))
		for _, t := range p.Types {
			types = append(types, string(t))
		}
		rec["types"] = types
	}
	if p.PrimaryType != nil {
		rec["primaryType"] = string(*p.PrimaryType)
	}
	if p.AgeRange != nil {
		rec["ageRange"] = map[string]any{"min": p.AgeRange.Min, "max": p.AgeRange.Max}
	}
	if p.Address != nil {
		rec["address"] = *p.Address
	}
	if p.Description != nil {
		rec["description"] = *p.Description
	}
	if p.OpeningHours != nil {
		hours := make(map[string]any, len(p.OpeningHours))
		for k, v := range p.OpeningHours {
			hours[k] = v
		}
		rec["openingHours"] = hours
	}
	if p.Contact != nil {
		rec["contact"] = map[string]any{
			"phone":   p.Contact.Phone,
			"email":   p.Contact.Email,
			"website": p.Contact.Website,
		}
	}
	return rec
}

func (p LocationPatch) apply(loc *domain.Location) {
	if p.Name != nil {
		loc.Name = *p.Name
	}
	if p.Coordinates != nil {
		loc.Coordinates = *p.Coordinates
	}
	if p.Types != nil {
		loc.Types = append([]domain.ActivityType(nil), p.Types...)
	}
	if p.PrimaryType != nil {
		loc.PrimaryType = *p.PrimaryType
	}
	if p.AgeRange != nil {
		loc.AgeRange = *p.AgeRange
	}
	if p.Address != nil {
		loc.Address = *p.Address
	}
	if p.Description != nil {
		loc.Description = *p.Description
	}
	if p.OpeningHours != nil {
		loc.OpeningHours = make(map[string]string, len(p.OpeningHours))
		for k, v := range p.OpeningHours {
			loc.OpeningHours[k] = v
		}
	}
	if p.Contact != nil {
		loc.Contact = *p.Contact
	}
}

// LocationAdmin performs validated writes to the locations collection and
// keeps the location cache coherent with them.
type LocationAdmin struct {
	Store      ports.DocumentStore
	Collection string
	Cache      CacheInvalidator
	Places     ports.PlacesProvider
	Describer  ports.DescriptionGenerator
	Registry   *domain.ActivityRegistry
	NewID      func() string

	log *zap.Logger
}

func NewLocationAdmin(
	store ports.DocumentStore,
	cache CacheInvalidator,
	places ports.PlacesProvider,
	describer ports.DescriptionGenerator,
	log *zap.Logger,
) *LocationAdmin {
	return &LocationAdmin{
		Store:      store,
		Collection: DefaultLocationsCollection,
		Cache:      cache,
		Places:     places,
		Describer:  describer,
		Registry:   domain.DefaultActivityRegistry(),
		NewID:      uuid.NewString,
		log:        logging.OrNop(log).Named("location_admin"),
	}
}

func (a *LocationAdmin) Get(ctx context.Context, id string) (domain.Location, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Location{}, domain.Invalid("id", "is required")
	}
	doc, err := a.Store.Get(ctx, a.Collection, id)
	if err != nil {
		return domain.Location{}, fmt.Errorf("get location %q: %w", id, err)
	}
	return NormalizeLocation(doc), nil
}

func (a *LocationAdmin) Create(ctx context.Context, in LocationInput) (_ domain.Location, err error) {
	defer obs.Time(ctx, "locationAdmin.Create")(&err)

	loc := a.fromInput(in)
	if err := domain.ValidateLocation(&loc, a.Registry); err != nil {
		return domain.Location{}, fmt.Errorf("create location: %w", err)
	}

	if _, err := a.Store.Get(ctx, a.Collection, loc.ID); err == nil {
		return domain.Location{}, fmt.Errorf("create location: %w", domain.Invalid("id", fmt.Sprintf("%q already exists", loc.ID)))
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.Location{}, fmt.Errorf("create location: check existing: %w", err)
	}

	if err := a.Store.Set(ctx, a.Collection, loc.ID, LocationRecord(loc), false); err != nil {
		return domain.Location{}, fmt.Errorf("create location: write: %w", err)
	}
	a.invalidate(ctx)

	return a.Get(ctx, loc.ID)
}

// CreateFromPlace imports a location from the places provider. Non-zero
// fields in overrides win over imported ones. The description comes from
// overrides, then the description generator, then DefaultDescription.
func (a *LocationAdmin) CreateFromPlace(ctx context.Context, placeID string, overrides LocationInput) (_ domain.Location, err error) {
	defer obs.Time(ctx, "locationAdmin.CreateFromPlace")(&err)

	placeID = strings.TrimSpace(placeID)
	if placeID == "" {
		return domain.Location{}, domain.Invalid("placeId", "is required")
	}
	if a.Places == nil {
		return domain.Location{}, fmt.Errorf("create from place: no places provider configured: %w", domain.ErrRemoteUnavailable)
	}

	details, err := a.Places.FetchDetails(ctx, placeID)
	if err != nil {
		return domain.Location{}, fmt.Errorf("create from place %q: fetch details: %w", placeID, err)
	}

	in := overrides
	if in.Name == "" {
		in.Name = details.Name
	}
	if in.Address == "" {
		in.Address = details.Address
	}
	if in.Coordinates.IsZero() {
		in.Coordinates = details.Coordinates
	}
	if len(in.Types) == 0 {
		in.Types = ActivityTypesForPlace(details.Types)
	}
	if in.OpeningHours == nil {
		in.OpeningHours = parseWeekdayText(details.OpeningHours)
	}
	if in.Contact.Phone == "" {
		in.Contact.Phone = details.PhoneNumber
	}
	if in.Contact.Website == "" {
		in.Contact.Website = details.Website
	}
	if in.Description == "" {
		in.Description = a.describe(ctx, details, in.Name, in.Types)
	}

	loc := a.fromInput(in)
	loc.PlaceID = details.PlaceID
	if loc.PlaceID == "" {
		loc.PlaceID = placeID
	}
	loc.PlaceData = &domain.PlaceData{
		Rating:           details.Rating,
		UserRatingsTotal: details.UserRatingsTotal,
		PhotoReferences:  append([]string(nil), details.PhotoReferences...),
		Website:          details.Website,
		PhoneNumber:      details.PhoneNumber,
	}

	if err := domain.ValidateLocation(&loc, a.Registry); err != nil {
		return domain.Location{}, fmt.Errorf("create from place: %w", err)
	}

	if existing, err := a.Store.FindBy(ctx, a.Collection, "placeId", loc.PlaceID); err != nil {
		return domain.Location{}, fmt.Errorf("create from place: check existing: %w", err)
	} else if len(existing) > 0 {
		return domain.Location{}, fmt.Errorf("create from place: %w",
			domain.Invalid("placeId", fmt.Sprintf("already imported as %q", existing[0].ID)))
	}

	if err := a.Store.Set(ctx, a.Collection, loc.ID, LocationRecord(loc), false); err != nil {
		return domain.Location{}, fmt.Errorf("create from place: write: %w", err)
	}
	a.invalidate(ctx)

	return a.Get(ctx, loc.ID)
}

// Update merges patch into the stored location. The merged result must
// still be a valid location.
func (a *LocationAdmin) Update(ctx context.Context, id string, patch LocationPatch) (_ domain.Location, err error) {
	defer obs.Time(ctx, "locationAdmin.Update")(&err)

	if strings.TrimSpace(id) == "" {
		return domain.Location{}, domain.Invalid("id", "is required")
	}
	if err := a.validatePatch(patch); err != nil {
		return domain.Location{}, fmt.Errorf("update location %q: %w", id, err)
	}

	current, err := a.Get(ctx, id)
	if err != nil {
		return domain.Location{}, fmt.Errorf("update location: %w", err)
	}
	merged := current.Clone()
	patch.apply(&merged)
	if err := domain.ValidateLocation(&merged, a.Registry); err != nil {
		return domain.Location{}, fmt.Errorf("update location %q: %w", id, err)
	}

	if err := a.Store.Set(ctx, a.Collection, id, patch.Record(), true); err != nil {
		return domain.Location{}, fmt.Errorf("update location %q: write: %w", id, err)
	}
	a.invalidate(ctx)

	return a.Get(ctx, id)
}

func (a *LocationAdmin) Delete(ctx context.Context, id string) (err error) {
	defer obs.Time(ctx, "locationAdmin.Delete")(&err)

	if strings.TrimSpace(id) == "" {
		return domain.Invalid("id", "is required")
	}
	if _, err := a.Store.Get(ctx, a.Collection, id); err != nil {
		return fmt.Errorf("delete location %q: %w", id, err)
	}
	if err := a.Store.Delete(ctx, a.Collection, id); err != nil {
		return fmt.Errorf("delete location %q: %w", id, err)
	}
	a.invalidate(ctx)
	return nil
}

func (a *LocationAdmin) fromInput(in LocationInput) domain.Location {
	loc := domain.Location{
		ID:           strings.TrimSpace(in.ID),
		Name:         strings.TrimSpace(in.Name),
		Coordinates:  in.Coordinates,
		Types:        append([]domain.ActivityType{}, in.Types...),
		PrimaryType:  in.PrimaryType,
		AgeRange:     domain.DefaultAgeRange,
		Address:      strings.TrimSpace(in.Address),
		Description:  strings.TrimSpace(in.Description),
		OpeningHours: map[string]string{},
		Contact:      in.Contact,
	}
	if loc.ID == "" {
		loc.ID = a.NewID()
	}
	if loc.PrimaryType == "" && len(loc.Types) > 0 {
		loc.PrimaryType = loc.Types[0]
	}
	if in.AgeRange != nil {
		loc.AgeRange = *in.AgeRange
	}
	for k, v := range in.OpeningHours {
		loc.OpeningHours[k] = v
	}
	return loc
}

func (a *LocationAdmin) validatePatch(p LocationPatch) error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return domain.Invalid("name", "is required")
	}
	if p.Types != nil && len(p.Types) == 0 {
		return domain.Invalid("types", "must have at least 1 item(s)")
	}
	for _, t := range p.Types {
		if a.Registry != nil && !a.Registry.Has(t) {
			return domain.Invalid("types", fmt.Sprintf("unknown activity type %q", t))
		}
	}
	if p.AgeRange != nil {
		if err := domain.ValidateStruct(*p.AgeRange); err != nil {
			var ve *domain.ValidationError
			if errors.As(err, &ve) {
				return domain.Invalid("ageRange."+strings.ToLower(ve.Field), ve.Reason)
			}
			return err
		}
	}
	if p.Contact != nil {
		if err := domain.ValidateStruct(*p.Contact); err != nil {
			return err
		}
	}
	return nil
}

func (a *LocationAdmin) describe(ctx context.Context, details ports.PlaceDetails, name string, types []domain.ActivityType) string {
	if a.Describer == nil {
		return DefaultDescription(name, types, a.Registry)
	}
	text, err := a.Describer.Generate(ctx, details)
	if err != nil {
		a.log.Warn("description generation failed, using default", zap.String("place_id", details.PlaceID), zap.Error(err))
		return DefaultDescription(name, types, a.Registry)
	}
	if text = strings.TrimSpace(text); text == "" {
		return DefaultDescription(name, types, a.Registry)
	}
	return text
}

func (a *LocationAdmin) invalidate(ctx context.Context) {
	if a.Cache == nil {
		return
	}
	if err := a.Cache.Invalidate(ctx); err != nil {
		a.log.Warn("cache invalidation failed", zap.Error(err))
	}
}

// DefaultDescription is the description used when none can be generated.
func DefaultDescription(name string, types []domain.ActivityType, registry *domain.ActivityRegistry) string {
	if registry == nil {
		registry = domain.DefaultActivityRegistry()
	}
	if len(types) == 0 {
		return fmt.Sprintf("%s is a child-friendly place to visit with the family.", name)
	}
	labels := make([]string, 0, len(types))
	for _, t := range types {
		labels = append(labels, strings.ToLower(registry.DisplayName(t)))
	}
	return fmt.Sprintf("%s is a child-friendly place for %s.", name, joinLabels(labels))
}

func joinLabels(labels []string) string {
	switch len(labels) {
	case 0:
		return ""
	case 1:
		return labels[0]
	default:
		return strings.Join(labels[:len(labels)-1], ", ") + " and " + labels[len(labels)-1]
	}
}

var placeTypeActivities = map[string]domain.ActivityType{
	"amusement_park":     domain.ActivityEntertainment,
	"aquarium":           domain.ActivityEntertainment,
	"bowling_alley":      domain.ActivitySports,
	"movie_theater":      domain.ActivityEntertainment,
	"zoo":                domain.ActivityEntertainment,
	"park":               domain.ActivityOutdoorPlay,
	"playground":         domain.ActivityOutdoorPlay,
	"campground":         domain.ActivityOutdoorPlay,
	"gym":                domain.ActivitySports,
	"stadium":            domain.ActivitySports,
	"swimming_pool":      domain.ActivitySports,
	"art_gallery":        domain.ActivityArts,
	"painter":            domain.ActivityArts,
	"museum":             domain.ActivityEducation,
	"library":            domain.ActivityEducation,
	"school":             domain.ActivityEducation,
	"primary_school":     domain.ActivityEducation,
	"book_store":         domain.ActivityEducation,
	"night_club":         domain.ActivityMusic,
	"music_school":       domain.ActivityMusic,
	"tourist_attraction": domain.ActivityEntertainment,
}

// ActivityTypesForPlace maps provider place types onto activity types,
// in first-seen order. Unmapped input yields the default activity type.
func ActivityTypesForPlace(placeTypes []string) []domain.ActivityType {
	var out []domain.ActivityType
	seen := map[domain.ActivityType]bool{}
	for _, pt := range placeTypes {
		t, ok := placeTypeActivities[strings.ToLower(strings.TrimSpace(pt))]
		if !ok || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	if len(out) == 0 {
		return []domain.ActivityType{domain.DefaultActivityType}
	}
	return out
}

// parseWeekdayText turns "Monday: 9:00 AM – 5:00 PM" lines into a
// day -> hours map keyed by lower-cased day name.
func parseWeekdayText(lines []string) map[string]string {
	out := make(map[string]string, len(lines))
	for _, line := range lines {
		day, hours, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		day = strings.ToLower(strings.TrimSpace(day))
		if day == "" {
			continue
		}
		out[day] = strings.TrimSpace(hours)
	}
	return out
}
