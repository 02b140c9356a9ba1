package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"pamekids-service/internal/domain"
	"pamekids-service/internal/platform/obs"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		requestLogger(r).Warn("encode failed", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
	}
}

// WriteError writes a JSON error body {"error": msg}.
func WriteError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// decodeJSON reads exactly one JSON object into dst, rejecting unknown fields.
// It writes the 400 response itself and reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, r, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		WriteError(w, r, http.StatusBadRequest, "invalid json body")
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		WriteError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return false
	}
	return true
}

// writeServiceError maps the domain error taxonomy onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	log := requestLogger(r).With(zap.String("op", op), zap.Error(err))

	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		WriteError(w, r, http.StatusBadRequest, ve.Error())
	case errors.Is(err, domain.ErrValidation):
		WriteError(w, r, http.StatusBadRequest, "invalid request")
	case errors.Is(err, domain.ErrNotFound):
		WriteError(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrPermissionDenied):
		log.Warn("permission denied")
		WriteError(w, r, http.StatusForbidden, "permission denied")
	case errors.Is(err, domain.ErrRemoteUnavailable), errors.Is(err, context.DeadlineExceeded):
		log.Warn("upstream unavailable")
		WriteError(w, r, http.StatusServiceUnavailable, "service temporarily unavailable")
	case errors.Is(err, context.Canceled):
		log.Debug("request canceled")
		WriteError(w, r, http.StatusServiceUnavailable, "request canceled")
	default:
		log.Error("request failed")
		WriteError(w, r, http.StatusInternalServerError, "internal server error")
	}
}

func requestLogger(r *http.Request) *zap.Logger {
	reqID, _ := r.Context().Value(obs.RequestIDKey).(string)
	return zap.L().With(zap.String("req_id", reqID))
}
