package handlers

import (
	"context"
	"net/http"
	"pamekids-service/internal/api/dto"
	"pamekids-service/internal/domain"
	"pamekids-service/internal/services"
	"strconv"
)

// LocationCache is the read side of the locations collection.
type LocationCache interface {
	GetAll(ctx context.Context, forceRefresh bool) ([]domain.Location, error)
	Invalidate(ctx context.Context) error
}

// LocationHandler serves the public locations listing and the admin
// location mutations.
type LocationHandler struct {
	Cache LocationCache
	Admin *services.LocationAdmin
}

func (h *LocationHandler) List(w http.ResponseWriter, r *http.Request) {
	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))

	locs, err := h.Cache.GetAll(r.Context(), refresh)
	if err != nil {
		writeServiceError(w, r, "list locations", err)
		return
	}
	if locs == nil {
		locs = []domain.Location{}
	}

	writeJSON(w, r, http.StatusOK, dto.ListLocationsResponse{Locations: locs, Count: len(locs)})
}

func (h *LocationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	locs, err := h.Cache.GetAll(r.Context(), false)
	if err != nil {
		writeServiceError(w, r, "get location", err)
		return
	}
	for i := range locs {
		if locs[i].ID == id {
			writeJSON(w, r, http.StatusOK, locs[i])
			return
		}
	}
	WriteError(w, r, http.StatusNotFound, "location not found")
}

// Nearby lists locations around ?lat=&lng=, closest first. radiusKm defaults
// to 10 and limit to 50.
func (h *LocationHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(q.Get("lng"), 64)
	if errLat != nil || errLng != nil || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		WriteError(w, r, http.StatusBadRequest, "lat and lng must be valid coordinates")
		return
	}

	radiusKm := 10.0
	if raw := q.Get("radiusKm"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 || v > 500 {
			WriteError(w, r, http.StatusBadRequest, "radiusKm must be between 0 and 500")
			return
		}
		radiusKm = v
	}

	limit := 50
	if raw := q.Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 200 {
			WriteError(w, r, http.StatusBadRequest, "limit must be between 1 and 200")
			return
		}
		limit = v
	}

	locs, err := h.Cache.GetAll(r.Context(), false)
	if err != nil {
		writeServiceError(w, r, "nearby locations", err)
		return
	}

	origin := domain.Coordinates{Lat: lat, Lng: lng}
	nearby := services.Nearby(locs, origin, radiusKm*1000, limit)

	res := dto.NearbyResponse{
		Origin:  origin.CoordsToList(),
		Results: make([]dto.NearbyResult, 0, len(nearby)),
	}
	for _, n := range nearby {
		res.Results = append(res.Results, dto.NearbyResult{Location: n.Location, DistanceMeters: n.DistanceMeters})
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (h *LocationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.LocationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	loc, err := h.Admin.Create(r.Context(), locationInput(req))
	if err != nil {
		writeServiceError(w, r, "create location", err)
		return
	}
	writeJSON(w, r, http.StatusCreated, loc)
}

func (h *LocationHandler) CreateFromPlace(w http.ResponseWriter, r *http.Request) {
	var req dto.LocationFromPlaceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.PlaceID == "" {
		WriteError(w, r, http.StatusBadRequest, "placeId is required")
		return
	}

	loc, err := h.Admin.CreateFromPlace(r.Context(), req.PlaceID, locationInput(req.Overrides))
	if err != nil {
		writeServiceError(w, r, "create location from place", err)
		return
	}
	writeJSON(w, r, http.StatusCreated, loc)
}

func (h *LocationHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.LocationPatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	loc, err := h.Admin.Update(r.Context(), r.PathValue("id"), services.LocationPatch{
		Name:         req.Name,
		Coordinates:  req.Coordinates,
		Types:        req.Types,
		PrimaryType:  req.PrimaryType,
		AgeRange:     req.AgeRange,
		Address:      req.Address,
		Description:  req.Description,
		OpeningHours: req.OpeningHours,
		Contact:      req.Contact,
	})
	if err != nil {
		writeServiceError(w, r, "update location", err)
		return
	}
	writeJSON(w, r, http.StatusOK, loc)
}

func (h *LocationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Admin.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, "delete location", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// InvalidateCache drops both cache tiers; the next read fetches from the store.
func (h *LocationHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	if err := h.Cache.Invalidate(r.Context()); err != nil {
		writeServiceError(w, r, "invalidate cache", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func locationInput(req dto.LocationRequest) services.LocationInput {
	return services.LocationInput{
		ID:           req.ID,
		Name:         req.Name,
		Coordinates:  req.Coordinates,
		Types:        req.Types,
		PrimaryType:  req.PrimaryType,
		AgeRange:     req.AgeRange,
		Address:      req.Address,
		Description:  req.Description,
		OpeningHours: req.OpeningHours,
		Contact:      req.Contact,
	}
}
