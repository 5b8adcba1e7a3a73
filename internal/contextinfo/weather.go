package contextinfo

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// ErrWeatherDisabled is returned when no weather API key is configured
var ErrWeatherDisabled = errors.New("weather lookups disabled")

// WeatherClient looks up current conditions on OpenWeatherMap
type WeatherClient struct {
	endpoint string
	apiKey   string
	city     string
	client   *http.Client
}

// NewWeatherClient creates a client; an empty apiKey disables it
func NewWeatherClient(endpoint, apiKey, city string, timeout time.Duration) *WeatherClient {
	return &WeatherClient{
		endpoint: endpoint,
		apiKey:   strings.TrimSpace(apiKey),
		city:     city,
		client:   &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether an API key is configured
func (w *WeatherClient) Enabled() bool {
	return w != nil && w.apiKey != ""
}

// Fetch returns the lowercased main condition and the rounded temperature
func (w *WeatherClient) Fetch(ctx context.Context) (*Weather, error) {
	if !w.Enabled() {
		return nil, ErrWeatherDisabled
	}

	q := url.Values{}
	q.Set("q", w.city)
	q.Set("appid", w.apiKey)
	q.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build weather request")
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetch weather")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read weather response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather api returned status %d", resp.StatusCode)
	}

	condition := gjson.GetBytes(body, "weather.0.main")
	temp := gjson.GetBytes(body, "main.temp")
	if !condition.Exists() || !temp.Exists() {
		return nil, errors.New("weather response missing condition or temperature")
	}

	return &Weather{
		Condition:    strings.ToLower(condition.String()),
		TemperatureC: int(math.Round(temp.Float())),
	}, nil
}
