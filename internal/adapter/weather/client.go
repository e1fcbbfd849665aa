package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/user/agro-alert/internal/domain"
)

const defaultTimeout = 10 * time.Second

// Client fetches current readings from the upstream weather provider's
// HTTP API. It implements domain.WeatherFetcher without caching; wrap it in
// CachedFetcher for orchestrator reads.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a provider client. timeout bounds every fetch so a slow
// upstream turns into a retryable job failure, never a hang.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With("component", "weather_client"),
	}
}

// currentResponse mirrors the provider's current-conditions payload.
type currentResponse struct {
	LocationID      string    `json:"location_id"`
	Temperature     *float64  `json:"temperature_c"`
	Humidity        *float64  `json:"humidity_pct"`
	PrecipitationMm *float64  `json:"precipitation_mm"`
	WindSpeedKmh    *float64  `json:"wind_speed_kmh"`
	ObservedAt      time.Time `json:"observed_at"`
}

// FetchCurrentReading fetches the current conditions for a location.
func (c *Client) FetchCurrentReading(ctx context.Context, locationID string) (domain.Reading, error) {
	u, err := url.Parse(c.baseURL + "/v1/current")
	if err != nil {
		return domain.Reading{}, fmt.Errorf("parse weather url: %w", err)
	}
	q := u.Query()
	q.Set("location", locationID)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return domain.Reading{}, fmt.Errorf("build weather request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Reading{}, fmt.Errorf("fetch current reading for %s: %w", locationID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Reading{}, fmt.Errorf("weather provider returned status %d for %s", resp.StatusCode, locationID)
	}

	var body currentResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.Reading{}, fmt.Errorf("decode weather response for %s: %w", locationID, err)
	}

	reading := domain.Reading{
		LocationID:      locationID,
		Temperature:     body.Temperature,
		Humidity:        body.Humidity,
		PrecipitationMm: body.PrecipitationMm,
		WindSpeedKmh:    body.WindSpeedKmh,
		Timestamp:       body.ObservedAt,
	}
	if reading.Timestamp.IsZero() {
		reading.Timestamp = time.Now().UTC()
	}
	return reading, nil
}
