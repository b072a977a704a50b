package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sync"

	"github.com/kelvins/geocoder"
	"github.com/sony/gobreaker"

	"citybrief/internal/info"
)

// OpenMeteoClient is the plain weather REST adapter. It sits first in the
// chain but only claims the weather topic, so every other topic starts at
// the generative-search provider.
//
// Open-Meteo itself needs no key, but turning an area name into coordinates
// goes through the Google geocoding API; without that key the adapter fails
// Unauthenticated.
type OpenMeteoClient struct {
	name        string
	baseURL     string
	airURL      string
	geocoderKey string
	client      *http.Client
	circuit     *gobreaker.CircuitBreaker

	mu     sync.Mutex
	coords map[string][2]float64 // area -> lat,lon; geocoding results are stable
}

// NewOpenMeteoClient creates the weather adapter.
func NewOpenMeteoClient(client *http.Client, geocoderKey string) *OpenMeteoClient {
	return &OpenMeteoClient{
		name:        "openmeteo",
		baseURL:     "https://api.open-meteo.com/v1/forecast",
		airURL:      "https://air-quality-api.open-meteo.com/v1/air-quality",
		geocoderKey: geocoderKey,
		client:      client,
		circuit:     newBreaker("openmeteo"),
		coords:      make(map[string][2]float64),
	}
}

func (c *OpenMeteoClient) Name() string { return c.name }

func (c *OpenMeteoClient) Supports(t info.Topic) bool { return t == info.TopicWeather }

func (c *OpenMeteoClient) FetchRaw(ctx context.Context, req info.Request) (string, error) {
	if c.geocoderKey == "" {
		return "", &info.ProviderError{
			Provider: c.name,
			Fail:     info.FailUnauthenticated,
			Err:      errors.New("geocoder api key not configured"),
		}
	}

	lat, lon, err := c.locate(req.Area)
	if err != nil {
		return "", &info.ProviderError{
			Provider: c.name,
			Fail:     info.FailUnavailable,
			Err:      fmt.Errorf("geocoding %q: %w", req.Area, err),
		}
	}

	values := url.Values{}
	values.Set("latitude", fmt.Sprintf("%f", lat))
	values.Set("longitude", fmt.Sprintf("%f", lon))
	values.Set("current", "temperature_2m,relative_humidity_2m,weather_code")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s?%s", c.baseURL, values.Encode()), nil)
	if err != nil {
		return "", &info.ProviderError{Provider: c.name, Fail: info.FailMalformed, Err: err}
	}

	resp, err := doRequest(c.name, c.client, c.circuit, httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var payload struct {
		Current struct {
			Temperature float64 `json:"temperature_2m"`
			Humidity    float64 `json:"relative_humidity_2m"`
			WeatherCode int     `json:"weather_code"`
		} `json:"current"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", &info.ProviderError{Provider: c.name, Fail: info.FailMalformed, Err: err}
	}

	// AQI comes from a separate endpoint; its failure degrades the field
	// rather than failing an otherwise good reading.
	aqi, err := c.fetchAQI(ctx, lat, lon)
	if err != nil {
		log.Printf("openmeteo: air quality fetch failed for %s: %v", req.Area, err)
		aqi = 0
	}

	reply, err := json.Marshal(info.Weather{
		Temp:      payload.Current.Temperature,
		Condition: string(mapWeatherCode(payload.Current.WeatherCode)),
		Humidity:  payload.Current.Humidity,
		AQI:       aqi,
	})
	if err != nil {
		return "", &info.ProviderError{Provider: c.name, Fail: info.FailMalformed, Err: err}
	}
	return string(reply), nil
}

// locate resolves an area name to coordinates, caching the answer.
func (c *OpenMeteoClient) locate(area string) (float64, float64, error) {
	c.mu.Lock()
	if ll, ok := c.coords[area]; ok {
		c.mu.Unlock()
		return ll[0], ll[1], nil
	}
	c.mu.Unlock()

	geocoder.ApiKey = c.geocoderKey
	loc, err := geocoder.Geocoding(geocoder.Address{City: area})
	if err != nil {
		return 0, 0, err
	}

	c.mu.Lock()
	c.coords[area] = [2]float64{loc.Latitude, loc.Longitude}
	c.mu.Unlock()
	return loc.Latitude, loc.Longitude, nil
}

func (c *OpenMeteoClient) fetchAQI(ctx context.Context, lat, lon float64) (float64, error) {
	values := url.Values{}
	values.Set("latitude", fmt.Sprintf("%f", lat))
	values.Set("longitude", fmt.Sprintf("%f", lon))
	values.Set("current", "us_aqi")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s?%s", c.airURL, values.Encode()), nil)
	if err != nil {
		return 0, err
	}

	resp, err := doRequest(c.name, c.client, c.circuit, httpReq)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var payload struct {
		Current struct {
			USAQI float64 `json:"us_aqi"`
		} `json:"current"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, err
	}
	return payload.Current.USAQI, nil
}

// mapWeatherCode normalizes Open-Meteo WMO weather codes (simplified).
func mapWeatherCode(code int) info.Condition {
	switch {
	case code == 0:
		return info.ConditionClear
	case code >= 1 && code <= 3:
		return info.ConditionCloudy
	case code >= 45 && code <= 48:
		return info.ConditionMist
	case (code >= 51 && code <= 67) || (code >= 80 && code <= 82):
		return info.ConditionRain
	case code >= 71 && code <= 77:
		return info.ConditionSnow
	case code >= 95:
		return info.ConditionStorm
	default:
		return info.ConditionUnknown
	}
}
