package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/user/agro-alert/internal/domain"
)

// Client consumes the external recommendation-text service. Generating the
// advice is not this pipeline's concern; the client just carries the farm
// context over and the text back.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates an advisor client.
func NewClient(endpoint string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With("component", "advisor_client"),
	}
}

type recommendRequest struct {
	FarmID   string         `json:"farm_id"`
	FarmName string         `json:"farm_name"`
	Reading  domain.Reading `json:"reading"`
}

type recommendResponse struct {
	Recommendation string `json:"recommendation"`
}

// Recommend asks the collaborator for advisory text for one farm.
func (c *Client) Recommend(ctx context.Context, farm domain.Farm, reading domain.Reading) (string, error) {
	body, err := json.Marshal(recommendRequest{FarmID: farm.ID, FarmName: farm.Name, Reading: reading})
	if err != nil {
		return "", fmt.Errorf("marshal recommend request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build recommend request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("recommend for farm %s: %w", farm.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("advisor returned status %d for farm %s", resp.StatusCode, farm.ID)
	}
	var out recommendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode advisor response for farm %s: %w", farm.ID, err)
	}
	return out.Recommendation, nil
}

// Noop is used when no advisor endpoint is configured; the recommendation
// job then quietly produces nothing.
type Noop struct{}

func (Noop) Recommend(ctx context.Context, farm domain.Farm, reading domain.Reading) (string, error) {
	return "", nil
}
