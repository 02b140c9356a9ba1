package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"pamekids-service/internal/domain"
	"pamekids-service/internal/platform/httpx"
	"pamekids-service/internal/platform/obs"
	"pamekids-service/internal/ports"
	"strings"
	"time"

	"go.uber.org/zap"
)

const DefaultBaseURL = "https://maps.googleapis.com/maps/api/place"

var detailFields = []string{
	"place_id",
	"name",
	"formatted_address",
	"geometry/location",
	"types",
	"rating",
	"user_ratings_total",
	"photos",
	"website",
	"international_phone_number",
	"opening_hours/weekday_text",
	"editorial_summary",
}

// GooglePlacesProvider implements PlacesProvider using the Place Details API.
// It retries transient failures and is safe for concurrent use.
type GooglePlacesProvider struct {
	client   *httpx.Client
	apiKey   string
	baseURL  string
	language string
}

func NewGooglePlacesProvider(apiKey, baseURL string) (*GooglePlacesProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("google places api key is empty")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &GooglePlacesProvider{
		client:   httpx.NewClient(10*time.Second, zap.L().Named("google_places")),
		apiKey:   apiKey,
		baseURL:  strings.TrimRight(baseURL, "/"),
		language: "el",
	}, nil
}

type detailsResponse struct {
	Status       string        `json:"status"`
	ErrorMessage string        `json:"error_message"`
	Result       detailsResult `json:"result"`
}

type detailsResult struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	FormattedAddress string   `json:"formatted_address"`
	Types            []string `json:"types"`
	Rating           float64  `json:"rating"`
	UserRatingsTotal int      `json:"user_ratings_total"`
	Website          string   `json:"website"`
	Phone            string   `json:"international_phone_number"`
	Geometry         struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
	Photos []struct {
		PhotoReference string `json:"photo_reference"`
	} `json:"photos"`
	OpeningHours struct {
		WeekdayText []string `json:"weekday_text"`
	} `json:"opening_hours"`
	EditorialSummary struct {
		Overview string `json:"overview"`
	} `json:"editorial_summary"`
}

func (g *GooglePlacesProvider) FetchDetails(ctx context.Context, placeID string) (_ ports.PlaceDetails, err error) {
	defer obs.Time(ctx, "googlePlaces.FetchDetails")(&err)

	placeID = strings.TrimSpace(placeID)
	if placeID == "" {
		return ports.PlaceDetails{}, domain.Invalid("placeId", "is required")
	}

	q := url.Values{}
	q.Set("place_id", placeID)
	q.Set("fields", strings.Join(detailFields, ","))
	q.Set("language", g.language)
	q.Set("key", g.apiKey)
	endpoint := g.baseURL + "/details/json?" + q.Encode()

	resp, err := g.client.Do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return ports.PlaceDetails{}, fmt.Errorf("fetch place %q: %w", placeID, categorize(err))
	}
	defer resp.Body.Close()

	var body detailsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return ports.PlaceDetails{}, fmt.Errorf("fetch place %q: decode response: %w", placeID, errors.Join(domain.ErrUnknown, err))
	}

	if kind := statusKind(body.Status); kind != nil {
		return ports.PlaceDetails{}, fmt.Errorf("fetch place %q: status %s %s: %w",
			placeID, body.Status, strings.TrimSpace(body.ErrorMessage), kind)
	}

	r := body.Result
	details := ports.PlaceDetails{
		PlaceID:          r.PlaceID,
		Name:             r.Name,
		Address:          r.FormattedAddress,
		Coordinates:      domain.Coordinates{Lat: r.Geometry.Location.Lat, Lng: r.Geometry.Location.Lng},
		Types:            r.Types,
		Rating:           r.Rating,
		UserRatingsTotal: r.UserRatingsTotal,
		Website:          r.Website,
		PhoneNumber:      r.Phone,
		OpeningHours:     r.OpeningHours.WeekdayText,
		EditorialSummary: r.EditorialSummary.Overview,
	}
	if details.PlaceID == "" {
		details.PlaceID = placeID
	}
	for _, p := range r.Photos {
		if p.PhotoReference != "" {
			details.PhotoReferences = append(details.PhotoReferences, p.PhotoReference)
		}
	}
	return details, nil
}

// statusKind maps an API status to an error category; nil means OK.
func statusKind(status string) error {
	switch status {
	case "OK":
		return nil
	case "NOT_FOUND", "ZERO_RESULTS", "INVALID_REQUEST":
		return domain.ErrNotFound
	case "REQUEST_DENIED":
		return domain.ErrPermissionDenied
	case "OVER_QUERY_LIMIT", "UNKNOWN_ERROR":
		return domain.ErrRemoteUnavailable
	default:
		return domain.ErrUnknown
	}
}

// categorize attaches an error category to a transport failure.
func categorize(err error) error {
	var se *httpx.StatusError
	if errors.As(err, &se) {
		switch {
		case se.Code == http.StatusNotFound:
			return errors.Join(domain.ErrNotFound, err)
		case se.Code == http.StatusUnauthorized || se.Code == http.StatusForbidden:
			return errors.Join(domain.ErrPermissionDenied, err)
		case httpx.Retryable(se.Code):
			return errors.Join(domain.ErrRemoteUnavailable, err)
		default:
			return errors.Join(domain.ErrUnknown, err)
		}
	}

	var netErr net.Error
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr) {
		return errors.Join(domain.ErrRemoteUnavailable, err)
	}
	return errors.Join(domain.ErrUnknown, err)
}
