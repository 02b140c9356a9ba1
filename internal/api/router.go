package api

import (
	"net/http"
	"pamekids-service/internal/api/handlers"
	"pamekids-service/internal/platform/logging"
	"pamekids-service/internal/platform/metrics"
	"pamekids-service/internal/services"

	"go.uber.org/zap"
)

// Deps carries the services the HTTP layer exposes.
type Deps struct {
	Locations   handlers.LocationCache
	Admin       *services.LocationAdmin
	Search      *services.SearchEngine
	Featured    *services.FeaturedService
	Blog        *services.BlogService
	Suggestions *services.SuggestionService
	Newsletter  *services.NewsletterService

	JWTSecret string
	Logger    *zap.Logger
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(d Deps) http.Handler {
	log := logging.OrNop(d.Logger).Named("http")
	mux := http.NewServeMux()

	locHandler := &handlers.LocationHandler{Cache: d.Locations, Admin: d.Admin}
	searchHandler := &handlers.SearchHandler{Locations: d.Locations, Engine: d.Search}
	featuredHandler := &handlers.FeaturedHandler{Featured: d.Featured}
	blogHandler := &handlers.BlogHandler{Blog: d.Blog}
	suggestionHandler := &handlers.SuggestionHandler{Suggestions: d.Suggestions}
	newsletterHandler := &handlers.NewsletterHandler{Newsletter: d.Newsletter}

	mux.HandleFunc("GET /health", handlers.Health)
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("GET /locations", locHandler.List)
	mux.HandleFunc("GET /locations/nearby", locHandler.Nearby)
	mux.HandleFunc("GET /locations/{id}", locHandler.Get)
	mux.HandleFunc("GET /search", searchHandler.Search)
	mux.HandleFunc("GET /featured", featuredHandler.List)
	mux.HandleFunc("GET /blog", blogHandler.ListPublished)
	mux.HandleFunc("GET /blog/{slug}", blogHandler.GetBySlug)
	mux.HandleFunc("POST /suggestions", suggestionHandler.Submit)
	mux.HandleFunc("POST /newsletter", newsletterHandler.Subscribe)
	mux.HandleFunc("DELETE /newsletter/{email}", newsletterHandler.Unsubscribe)

	admin := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, requireAdmin(d.JWTSecret, log, h))
	}
	admin("POST /admin/locations", locHandler.Create)
	admin("POST /admin/locations/from-place", locHandler.CreateFromPlace)
	admin("PATCH /admin/locations/{id}", locHandler.Update)
	admin("DELETE /admin/locations/{id}", locHandler.Delete)
	admin("POST /admin/cache/invalidate", locHandler.InvalidateCache)
	admin("PUT /admin/featured", featuredHandler.Set)
	admin("GET /admin/blog", blogHandler.ListAll)
	admin("POST /admin/blog", blogHandler.Create)
	admin("PATCH /admin/blog/{id}", blogHandler.Update)
	admin("DELETE /admin/blog/{id}", blogHandler.Delete)
	admin("GET /admin/suggestions", suggestionHandler.List)
	admin("GET /admin/newsletter", newsletterHandler.List)

	return requestIDMiddleware(loggingMiddleware(log, mux))
}
