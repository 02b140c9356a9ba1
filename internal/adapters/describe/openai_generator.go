package describe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"pamekids-service/internal/domain"
	"pamekids-service/internal/platform/httpx"
	"pamekids-service/internal/platform/obs"
	"pamekids-service/internal/ports"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
)

const systemPrompt = "You write short, friendly descriptions of places for parents looking for activities for their children. " +
	"Write two or three sentences in plain language. Do not invent facts that are not in the provided details."

// OpenAIGenerator implements DescriptionGenerator with an OpenAI-compatible
// chat completions endpoint.
type OpenAIGenerator struct {
	client  *httpx.Client
	apiKey  string
	baseURL string
	model   string
}

func NewOpenAIGenerator(apiKey, baseURL, model string) (*OpenAIGenerator, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("openai api key is empty")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	client := httpx.NewClient(30*time.Second, zap.L().Named("openai"))
	client.ShouldRetry = shouldRetry
	return &OpenAIGenerator{
		client:  client,
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
	}, nil
}

// shouldRetry treats an exhausted quota as permanent; OpenAI reports it
// with the same 429 status as rate limiting.
func shouldRetry(err error) bool {
	var se *httpx.StatusError
	if errors.As(err, &se) && se.Code == http.StatusTooManyRequests && strings.Contains(se.Body, "insufficient_quota") {
		return false
	}
	return httpx.Transient(err)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (g *OpenAIGenerator) Generate(ctx context.Context, place ports.PlaceDetails) (_ string, err error) {
	defer obs.Time(ctx, "openai.Generate")(&err)

	payload, err := json.Marshal(chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: placePrompt(place)},
		},
		Temperature: 0.7,
		MaxTokens:   220,
	})
	if err != nil {
		return "", fmt.Errorf("generate description: encode request: %w", err)
	}

	resp, err := g.client.Do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		var se *httpx.StatusError
		if errors.As(err, &se) && (se.Code == http.StatusUnauthorized || se.Code == http.StatusForbidden) {
			return "", fmt.Errorf("generate description: %w", errors.Join(domain.ErrPermissionDenied, err))
		}
		return "", fmt.Errorf("generate description: %w", errors.Join(domain.ErrRemoteUnavailable, err))
	}
	defer resp.Body.Close()

	var body chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("generate description: decode response: %w", errors.Join(domain.ErrUnknown, err))
	}
	if len(body.Choices) == 0 {
		return "", fmt.Errorf("generate description: empty choices: %w", domain.ErrUnknown)
	}
	return strings.TrimSpace(body.Choices[0].Message.Content), nil
}

func placePrompt(p ports.PlaceDetails) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", p.Name)
	if p.Address != "" {
		fmt.Fprintf(&b, "Address: %s\n", p.Address)
	}
	if len(p.Types) > 0 {
		fmt.Fprintf(&b, "Categories: %s\n", strings.Join(p.Types, ", "))
	}
	if p.Rating > 0 {
		fmt.Fprintf(&b, "Rating: %.1f from %d reviews\n", p.Rating, p.UserRatingsTotal)
	}
	if p.EditorialSummary != "" {
		fmt.Fprintf(&b, "Summary: %s\n", p.EditorialSummary)
	}
	return b.String()
}
