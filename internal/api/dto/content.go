package dto

import "pamekids-service/internal/domain"

type FeaturedRequest struct {
	LocationIDs []string `json:"locationIds"`
}

type FeaturedResponse struct {
	Locations []domain.Location `json:"locations"`
}

type BlogRequest struct {
	Title       string   `json:"title"`
	Slug        string   `json:"slug"`
	Excerpt     string   `json:"excerpt"`
	Content     string   `json:"content"`
	CoverImage  string   `json:"coverImage"`
	LocationIDs []string `json:"locationIds"`
	Published   bool     `json:"published"`
}

type BlogPatchRequest struct {
	Title       *string  `json:"title"`
	Slug        *string  `json:"slug"`
	Excerpt     *string  `json:"excerpt"`
	Content     *string  `json:"content"`
	CoverImage  *string  `json:"coverImage"`
	LocationIDs []string `json:"locationIds"`
	Published   *bool    `json:"published"`
}

type ListBlogPostsResponse struct {
	Posts []domain.BlogPost `json:"posts"`
}

type SuggestionRequest struct {
	Kind       string `json:"kind"`
	LocationID string `json:"locationId"`
	PlaceName  string `json:"placeName"`
	Message    string `json:"message"`
	Email      string `json:"email"`
}

type ListSuggestionsResponse struct {
	Suggestions []domain.Suggestion `json:"suggestions"`
}

type NewsletterRequest struct {
	Email string `json:"email"`
}

type ListSubscribersResponse struct {
	Subscribers []domain.Subscriber `json:"subscribers"`
}
