package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"

	"github.com/i474232898/city-weather/internal/weather"
)

const (
	DefaultOpenWeatherBaseURL = "https://api.openweathermap.org/data/2.5"
	DefaultLanguage           = "en"

	// Units are fixed; there is no unit conversion setting.
	openWeatherUnits = "metric"
)

// OpenWeatherProvider implements weather.Client for OpenWeatherMap.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	lang    string
	client  *http.Client
}

// NewOpenWeatherProvider creates a provider. Empty baseURL or lang fall back to
// the defaults. A missing apiKey is not rejected here; the provider answers
// such requests with an error body that the pipeline classifies.
func NewOpenWeatherProvider(client *http.Client, apiKey, baseURL, lang string) *OpenWeatherProvider {
	if baseURL == "" {
		baseURL = DefaultOpenWeatherBaseURL
	}
	if lang == "" {
		lang = DefaultLanguage
	}
	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: baseURL,
		lang:    lang,
		client:  client,
	}
}

// Name identifies the provider in log lines.
func (p *OpenWeatherProvider) Name() string {
	return p.name
}

// Current fetches {base}/weather for city.
func (p *OpenWeatherProvider) Current(ctx context.Context, city string) (weather.CurrentConditions, error) {
	body, status, err := doRequest(ctx, p.client, p.requestBuilder("weather", city))
	if err != nil {
		return weather.CurrentConditions{}, err
	}

	var payload weather.CurrentConditions
	if err := json.Unmarshal(body, &payload); err != nil {
		return weather.CurrentConditions{}, fmt.Errorf("%w: %s: decode current conditions (status %d): %v", weather.ErrTransport, p.Name(), status, err)
	}
	return payload, nil
}

// Forecast fetches {base}/forecast for city and returns the first entry's pop.
func (p *OpenWeatherProvider) Forecast(ctx context.Context, city string) (*weather.ForecastSample, error) {
	body, status, err := doRequest(ctx, p.client, p.requestBuilder("forecast", city))
	if err != nil {
		return nil, err
	}

	var payload struct {
		List json.RawMessage `json:"list"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %s: decode forecast (status %d): %v", weather.ErrTransport, p.Name(), status, err)
	}

	sample := firstForecastSample(payload.List)
	if sample == nil {
		log.Printf("DEBUG: %s forecast for %q has no usable list entry", p.name, city)
	}
	return sample, nil
}

func (p *OpenWeatherProvider) requestBuilder(endpoint, city string) func(context.Context) (*http.Request, error) {
	return func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("q", city)
		values.Set("appid", p.apiKey)
		values.Set("units", openWeatherUnits)
		values.Set("lang", p.lang)

		u := fmt.Sprintf("%s/%s?%s", p.baseURL, endpoint, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}
}

// firstForecastSample tolerates a missing, empty or mis-shaped list.
func firstForecastSample(raw json.RawMessage) *weather.ForecastSample {
	if len(raw) == 0 {
		return nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil || len(entries) == 0 {
		return nil
	}

	var first struct {
		Pop *float64 `json:"pop"`
	}
	if err := json.Unmarshal(entries[0], &first); err != nil || first.Pop == nil {
		return nil
	}
	return &weather.ForecastSample{Pop: *first.Pop}
}
