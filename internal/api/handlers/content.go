package handlers

import (
	"net/http"
	"pamekids-service/internal/api/dto"
	"pamekids-service/internal/domain"
	"pamekids-service/internal/services"
)

type FeaturedHandler struct {
	Featured *services.FeaturedService
}

func (h *FeaturedHandler) List(w http.ResponseWriter, r *http.Request) {
	locs, err := h.Featured.List(r.Context())
	if err != nil {
		writeServiceError(w, r, "list featured", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.FeaturedResponse{Locations: locs})
}

func (h *FeaturedHandler) Set(w http.ResponseWriter, r *http.Request) {
	var req dto.FeaturedRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	set, err := h.Featured.Set(r.Context(), req.LocationIDs)
	if err != nil {
		writeServiceError(w, r, "set featured", err)
		return
	}
	writeJSON(w, r, http.StatusOK, set)
}

type BlogHandler struct {
	Blog *services.BlogService
}

func (h *BlogHandler) ListPublished(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true)
}

func (h *BlogHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false)
}

func (h *BlogHandler) list(w http.ResponseWriter, r *http.Request, publishedOnly bool) {
	posts, err := h.Blog.List(r.Context(), publishedOnly)
	if err != nil {
		writeServiceError(w, r, "list blog posts", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.ListBlogPostsResponse{Posts: posts})
}

// GetBySlug serves a published post. Drafts are reported as missing.
func (h *BlogHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	post, err := h.Blog.GetBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeServiceError(w, r, "get blog post", err)
		return
	}
	if !post.Published {
		WriteError(w, r, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, r, http.StatusOK, post)
}

func (h *BlogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.BlogRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	post, err := h.Blog.Create(r.Context(), services.BlogInput{
		Title:       req.Title,
		Slug:        req.Slug,
		Excerpt:     req.Excerpt,
		Content:     req.Content,
		CoverImage:  req.CoverImage,
		LocationIDs: req.LocationIDs,
		Published:   req.Published,
	})
	if err != nil {
		writeServiceError(w, r, "create blog post", err)
		return
	}
	writeJSON(w, r, http.StatusCreated, post)
}

func (h *BlogHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.BlogPatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	post, err := h.Blog.Update(r.Context(), r.PathValue("id"), services.BlogPatch{
		Title:       req.Title,
		Slug:        req.Slug,
		Excerpt:     req.Excerpt,
		Content:     req.Content,
		CoverImage:  req.CoverImage,
		LocationIDs: req.LocationIDs,
		Published:   req.Published,
	})
	if err != nil {
		writeServiceError(w, r, "update blog post", err)
		return
	}
	writeJSON(w, r, http.StatusOK, post)
}

func (h *BlogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Blog.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, "delete blog post", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type SuggestionHandler struct {
	Suggestions *services.SuggestionService
}

func (h *SuggestionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req dto.SuggestionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sg, err := h.Suggestions.Submit(r.Context(), services.SuggestionInput{
		Kind:       domain.SuggestionKind(req.Kind),
		LocationID: req.LocationID,
		PlaceName:  req.PlaceName,
		Message:    req.Message,
		Email:      req.Email,
	})
	if err != nil {
		writeServiceError(w, r, "submit suggestion", err)
		return
	}
	writeJSON(w, r, http.StatusCreated, sg)
}

func (h *SuggestionHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Suggestions.List(r.Context())
	if err != nil {
		writeServiceError(w, r, "list suggestions", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.ListSuggestionsResponse{Suggestions: list})
}

type NewsletterHandler struct {
	Newsletter *services.NewsletterService
}

func (h *NewsletterHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req dto.NewsletterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sub, err := h.Newsletter.Subscribe(r.Context(), req.Email)
	if err != nil {
		writeServiceError(w, r, "subscribe", err)
		return
	}
	writeJSON(w, r, http.StatusOK, sub)
}

func (h *NewsletterHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	if err := h.Newsletter.Unsubscribe(r.Context(), r.PathValue("email")); err != nil {
		writeServiceError(w, r, "unsubscribe", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NewsletterHandler) List(w http.ResponseWriter, r *http.Request) {
	subs, err := h.Newsletter.List(r.Context())
	if err != nil {
		writeServiceError(w, r, "list subscribers", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.ListSubscribersResponse{Subscribers: subs})
}
