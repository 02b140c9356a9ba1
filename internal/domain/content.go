package domain

import "time"

// A blog article shown on the public site.
type BlogPost struct {
	ID          string     `json:"id"`
	Title       string     `json:"title" validate:"required,max=200"`
	Slug        string     `json:"slug" validate:"required,max=200"`
	Excerpt     string     `json:"excerpt" validate:"max=500"`
	Content     string     `json:"content" validate:"required"`
	CoverImage  string     `json:"coverImage,omitempty" validate:"omitempty,url"`
	LocationIDs []string   `json:"locationIds,omitempty"`
	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Curated, ordered set of location IDs highlighted on the home page.
type FeaturedSet struct {
	LocationIDs []string  `json:"locationIds" validate:"max=12,unique,dive,required"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type SuggestionKind string

const (
	SuggestionNewPlace SuggestionKind = "suggestion"
	SuggestionReport   SuggestionKind = "report"
)

// A visitor-submitted suggestion for a new place or a report about an existing one.
type Suggestion struct {
	ID         string         `json:"id"`
	Kind       SuggestionKind `json:"kind" validate:"required,oneof=suggestion report"`
	LocationID string         `json:"locationId,omitempty"`
	PlaceName  string         `json:"placeName,omitempty" validate:"max=200"`
	Message    string         `json:"message" validate:"required,max=2000"`
	Email      string         `json:"email,omitempty" validate:"omitempty,email"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// Newsletter subscriber keyed by lower-cased email.
type Subscriber struct {
	Email     string    `json:"email" validate:"required,email"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
