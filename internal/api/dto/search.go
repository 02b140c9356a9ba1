package dto

import "pamekids-service/internal/domain"

type SearchResultResponse struct {
	Location      domain.Location `json:"location"`
	Field         string          `json:"matchField"`
	Text          string          `json:"matchText"`
	Type          string          `json:"matchType"`
	Priority      int             `json:"priority"`
	AgeMatch      bool            `json:"ageMatch"`
	ActivityMatch bool            `json:"activityMatch"`
	Score         int             `json:"score"`
}

type SearchResponse struct {
	Query      string                 `json:"query"`
	Ages       []int                  `json:"ages"`
	Activities []domain.ActivityType  `json:"activities"`
	Results    []SearchResultResponse `json:"results"`
}
