package handlers

import (
	"net/http"
	"pamekids-service/internal/api/dto"
	"pamekids-service/internal/platform/metrics"
	"pamekids-service/internal/services"
	"strconv"
	"strings"
	"time"
)

const maxSearchLimit = 100

type SearchHandler struct {
	Locations LocationCache
	Engine    *services.SearchEngine
}

// Search ranks the cached locations against ?q=. An optional ?limit= caps
// the number of results.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if len([]rune(q)) > 200 {
		WriteError(w, r, http.StatusBadRequest, "q must be at most 200 characters")
		return
	}

	limit := maxSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxSearchLimit {
			WriteError(w, r, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	locs, err := h.Locations.GetAll(r.Context(), false)
	if err != nil {
		writeServiceError(w, r, "search", err)
		return
	}

	start := time.Now()
	matches := h.Engine.Search(locs, q)
	metrics.SearchRequestsTotal.Inc()
	metrics.SearchDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000)

	if len(matches) > limit {
		matches = matches[:limit]
	}

	res := dto.SearchResponse{
		Query:      q,
		Ages:       services.ExtractAges(q),
		Activities: h.Engine.ExtractActivities(q),
		Results:    make([]dto.SearchResultResponse, 0, len(matches)),
	}
	for _, m := range matches {
		res.Results = append(res.Results, dto.SearchResultResponse{
			Location:      *m.Location,
			Field:         string(m.Field),
			Text:          m.Text,
			Type:          string(m.Type),
			Priority:      m.Priority,
			AgeMatch:      m.AgeMatch,
			ActivityMatch: m.ActivityMatch,
			Score:         h.Engine.Score(m),
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}
