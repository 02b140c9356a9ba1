package services

import (
	"encoding/json"
	"math"
	"pamekids-service/internal/domain"
	"pamekids-service/internal/ports"
	"strconv"
	"strings"
	"time"
)

// NormalizeLocation converts a raw stored record into a Location.
// Missing optional fields take defaults: no types, age range 0-16,
// the default primary category, and empty opening hours and contact.
// Records come from several stores, so numeric and time fields are read loosely.
func NormalizeLocation(doc ports.Document) domain.Location {
	d := doc.Data
	loc := domain.Location{
		ID:           doc.ID,
		Name:         asString(d["name"]),
		Address:      asString(d["address"]),
		Description:  asString(d["description"]),
		PlaceID:      asString(d["placeId"]),
		Types:        []domain.ActivityType{},
		PrimaryType:  domain.DefaultActivityType,
		AgeRange:     domain.DefaultAgeRange,
		OpeningHours: map[string]string{},
		CreatedAt:    asTime(d["createdAt"]),
		UpdatedAt:    asTime(d["updatedAt"]),
	}

	if c, ok := asMap(d["coordinates"]); ok {
		loc.Coordinates = domain.Coordinates{Lat: asFloat(c["lat"]), Lng: asFloat(c["lng"])}
	}

	for _, t := range asStrings(d["types"]) {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		loc.Types = append(loc.Types, domain.ActivityType(t))
	}

	if pt := strings.TrimSpace(asString(d["primaryType"])); pt != "" {
		loc.PrimaryType = domain.ActivityType(pt)
	}

	if a, ok := asMap(d["ageRange"]); ok {
		minAge, okMin := asInt(a["min"])
		maxAge, okMax := asInt(a["max"])
		if okMin && okMax {
			loc.AgeRange = domain.AgeRange{Min: minAge, Max: maxAge}
		}
	}

	if p, ok := asMap(d["placeData"]); ok {
		total, _ := asInt(p["userRatingsTotal"])
		loc.PlaceData = &domain.PlaceData{
			Rating:           asFloat(p["rating"]),
			UserRatingsTotal: total,
			PhotoReferences:  asStrings(p["photoReferences"]),
			Website:          asString(p["website"]),
			PhoneNumber:      asString(p["phoneNumber"]),
		}
	}

	if h, ok := asMap(d["openingHours"]); ok {
		for day, v := range h {
			loc.OpeningHours[day] = asString(v)
		}
	}

	if c, ok := asMap(d["contact"]); ok {
		loc.Contact = domain.Contact{
			Phone:   asString(c["phone"]),
			Email:   asString(c["email"]),
			Website: asString(c["website"]),
		}
	}

	return loc
}

// LocationRecord is the store representation of a location. Timestamps are
// omitted; the store assigns them.
func LocationRecord(loc domain.Location) map[string]any {
	types := make([]any, 0, len(loc.Types))
	for _, t := range loc.Types {
		types = append(types, string(t))
	}

	hours := make(map[string]any, len(loc.OpeningHours))
	for k, v := range loc.OpeningHours {
		hours[k] = v
	}

	rec := map[string]any{
		"name":         loc.Name,
		"coordinates":  map[string]any{"lat": loc.Coordinates.Lat, "lng": loc.Coordinates.Lng},
		"types":        types,
		"primaryType":  string(loc.PrimaryType),
		"ageRange":     map[string]any{"min": loc.AgeRange.Min, "max": loc.AgeRange.Max},
		"address":      loc.Address,
		"description":  loc.Description,
		"openingHours": hours,
		"contact": map[string]any{
			"phone":   loc.Contact.Phone,
			"email":   loc.Contact.Email,
			"website": loc.Contact.Website,
		},
	}
	if loc.PlaceID != "" {
		rec["placeId"] = loc.PlaceID
	}
	if loc.PlaceData != nil {
		photos := make([]any, 0, len(loc.PlaceData.PhotoReferences))
		for _, p := range loc.PlaceData.PhotoReferences {
			photos = append(photos, p)
		}
		rec["placeData"] = map[string]any{
			"rating":           loc.PlaceData.Rating,
			"userRatingsTotal": loc.PlaceData.UserRatingsTotal,
			"photoReferences":  photos,
			"website":          loc.PlaceData.Website,
			"phoneNumber":      loc.PlaceData.PhoneNumber,
		}
	}
	return rec
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func asFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case int32:
		return float64(t)
	case json.Number:
		f, _ := t.Float64()
		return f
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f
	default:
		return 0
	}
}

func asInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case int32:
		return int(t), true
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return int(t), true
	case float32:
		return int(t), true
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return int(i), true
		}
		f, err := t.Float64()
		return int(f), err == nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(t))
		return i, err == nil
	default:
		return 0, false
	}
}

func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(t)
		return b
	default:
		return false
	}
}

func asTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t.UTC()
	case *time.Time:
		if t == nil {
			return time.Time{}
		}
		return t.UTC()
	case string:
		if ts, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return ts.UTC()
		}
		return time.Time{}
	case int64:
		return time.UnixMilli(t).UTC()
	case float64:
		return time.UnixMilli(int64(t)).UTC()
	default:
		return time.Time{}
	}
}

func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case map[string]string:
		out := make(map[string]any, len(t))
		for k, s := range t {
			out[k] = s
		}
		return out, true
	default:
		return nil, false
	}
}

func asStrings(v any) []string {
	switch t := v.(type) {
	case []string:
		return append([]string(nil), t...)
	case []any:
		out := make([]string, 0, len(t))
		for _, x := range t {
			if s := asString(x); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
