// Package weather is the client for the Open-Meteo current-weather API.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// Client fetches current weather data for a structured request.
type Client interface {
	Fetch(ctx context.Context, req Request) (*Observation, error)
}

// BackoffConfig controls optional retry behaviour. MaxRetries 0 disables
// retries, which is the default.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// HTTPClient implements Client against the Open-Meteo forecast endpoint with
// a circuit breaker around the outbound call.
type HTTPClient struct {
	client  *http.Client
	baseURL string
	backoff BackoffConfig
	circuit *gobreaker.CircuitBreaker
}

// NewHTTPClient creates a provider client. baseURL defaults to the public
// Open-Meteo endpoint.
func NewHTTPClient(client *http.Client, baseURL string, backoff BackoffConfig) *HTTPClient {
	if client == nil {
		client = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = "https://api.open-meteo.com/v1/forecast"
	}
	if backoff.InitialInterval <= 0 {
		backoff.InitialInterval = 500 * time.Millisecond
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openmeteo",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &HTTPClient{client: client, baseURL: baseURL, backoff: backoff, circuit: cb}
}

// Fetch issues one GET for the request and decodes the response. The request
// is not reshaped beyond encoding; fields matching provider defaults are
// omitted from the query string.
func (c *HTTPClient) Fetch(ctx context.Context, req Request) (*Observation, error) {
	if len(req.Current) == 0 {
		return nil, fmt.Errorf("request carries no weather variables")
	}

	endpoint := c.baseURL + "?" + encodeQuery(req)

	var attempt int
	delay := c.backoff.InitialInterval
	for {
		obs, err := c.fetchOnce(ctx, endpoint)
		if err == nil {
			return obs, nil
		}
		if attempt >= c.backoff.MaxRetries || ctx.Err() != nil {
			return nil, err
		}

		log.Warn().Err(err).Int("attempt", attempt+1).Msg("weather fetch failed, retrying")
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		if c.backoff.MaxInterval > 0 {
			delay = time.Duration(math.Min(float64(delay*2), float64(c.backoff.MaxInterval)))
		} else {
			delay *= 2
		}
		attempt++
	}
}

func (c *HTTPClient) fetchOnce(ctx context.Context, endpoint string) (*Observation, error) {
	result, err := c.circuit.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("weather provider request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("weather provider returned status %d", resp.StatusCode)
		}

		var obs Observation
		if err := json.NewDecoder(resp.Body).Decode(&obs); err != nil {
			return nil, fmt.Errorf("decode weather response: %w", err)
		}
		return &obs, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*Observation), nil
}

// encodeQuery builds the provider query string. Latitude, longitude and the
// variable list are always present; optional fields appear only when they
// differ from the provider defaults, mirroring how the provider documents
// its API.
func encodeQuery(req Request) string {
	values := url.Values{}
	values.Set("latitude", formatCoord(req.Latitude))
	values.Set("longitude", formatCoord(req.Longitude))
	values.Set("current", strings.Join(req.Current, ","))

	if req.Elevation != nil {
		values.Set("elevation", strconv.FormatFloat(*req.Elevation, 'f', -1, 64))
	}
	if req.TemperatureUnit != "" && req.TemperatureUnit != "celsius" {
		values.Set("temperature_unit", req.TemperatureUnit)
	}
	if req.WindSpeedUnit != "" && req.WindSpeedUnit != "kmh" {
		values.Set("wind_speed_unit", req.WindSpeedUnit)
	}
	if req.PrecipitationUnit != "" && req.PrecipitationUnit != "mm" {
		values.Set("precipitation_unit", req.PrecipitationUnit)
	}
	if req.Timeformat != "" && req.Timeformat != "iso8601" {
		values.Set("timeformat", req.Timeformat)
	}
	if req.Timezone != "" && req.Timezone != "GMT" {
		values.Set("timezone", req.Timezone)
	}
	if req.CellSelection != "" && req.CellSelection != "land" {
		values.Set("cell_selection", req.CellSelection)
	}

	return values.Encode()
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
