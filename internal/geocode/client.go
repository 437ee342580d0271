package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fyrsmithlabs/outings/internal/config"
)

// ErrNoResult means the API answered but found nothing usable, either
// zero results or a hit outside the configured bounds.
var ErrNoResult = errors.New("geocode: no result")

// Client queries a Google-style geocoding API.
type Client struct {
	cfg        config.GeocodeConfig
	httpClient *http.Client
}

// NewClient creates a geocoding client.
func NewClient(cfg config.GeocodeConfig) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Result is one resolved place.
type Result struct {
	Lat              float64
	Lng              float64
	FormattedAddress string
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Geocode resolves a place name. The region bias is appended to bare
// names so ambiguous ones ("Russell", "Nelson") resolve locally, and
// results outside the configured bounds are rejected as ErrNoResult.
func (c *Client) Geocode(ctx context.Context, place string) (Result, error) {
	address := place
	if c.cfg.RegionBias != "" && !strings.Contains(strings.ToLower(place), strings.ToLower(c.cfg.RegionBias)) {
		address = place + ", " + c.cfg.RegionBias
	}

	q := url.Values{}
	q.Set("address", address)
	if c.cfg.APIKey != "" {
		q.Set("key", c.cfg.APIKey)
	}

	req, err := http.NewRequestWithContext(ctx, "GET",
		c.cfg.BaseURL+"/maps/api/geocode/json?"+q.Encode(), nil)
	if err != nil {
		return Result{}, fmt.Errorf("geocode: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("geocode: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("geocode: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("geocode: API error (%d): %s", resp.StatusCode, string(body))
	}

	var gr geocodeResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return Result{}, fmt.Errorf("geocode: parse response: %w", err)
	}
	if gr.Status != "OK" || len(gr.Results) == 0 {
		return Result{}, ErrNoResult
	}

	loc := gr.Results[0].Geometry.Location
	if !c.cfg.Bounds.Contains(loc.Lat, loc.Lng) {
		return Result{}, ErrNoResult
	}
	return Result{
		Lat:              loc.Lat,
		Lng:              loc.Lng,
		FormattedAddress: gr.Results[0].FormattedAddress,
	}, nil
}
