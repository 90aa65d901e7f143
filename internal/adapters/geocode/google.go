// Package geocode implements reverse geocoding against the Google Geocoding
// API. It only enriches the location hint sent to the workflow; every failure
// here must degrade silently to the fallback city upstream.
package geocode

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

// Config carries the Google Geocoding API settings.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client implements ports.Geocoder.
type Client struct {
	http   *resty.Client
	apiKey string
}

// New creates a reverse-geocoding client with a short request timeout; a slow
// geocoder must not hold up the chat request it decorates.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://maps.googleapis.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Client{
		http:   resty.New().SetBaseURL(cfg.BaseURL).SetTimeout(cfg.Timeout),
		apiKey: cfg.APIKey,
	}
}

// Reverse resolves coordinates to a human-readable place string. It prefers
// the neighborhood/locality result and falls back to the first formatted
// address.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"latlng":      fmt.Sprintf("%f,%f", lat, lon),
			"result_type": "neighborhood|locality",
			"key":         c.apiKey,
		}).
		Get("/maps/api/geocode/json")
	if err != nil {
		return "", fmt.Errorf("geocode transport: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("geocode service returned status %d", resp.StatusCode())
	}

	body := resp.String()
	if status := gjson.Get(body, "status").String(); status != "OK" {
		return "", fmt.Errorf("geocode status %s", status)
	}

	addr := gjson.Get(body, "results.0.formatted_address").String()
	if addr == "" {
		return "", fmt.Errorf("geocode returned no results")
	}
	return addr, nil
}
