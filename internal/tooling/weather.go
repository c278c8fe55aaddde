package tooling

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/hashicorp/go-retryablehttp"

	"opschat/internal/domain"
)

const openWeatherBaseURL = "https://api.openweathermap.org/data/2.5"

// CurrentWeatherInput is the argument struct for get_current_weather.
type CurrentWeatherInput struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// CurrentWeatherTool fetches current conditions from OpenWeatherMap.
type CurrentWeatherTool struct {
	apiKey  string
	baseURL string
	client  *retryablehttp.Client
}

// NewCurrentWeatherTool returns a weather tool authenticated with the given key.
func NewCurrentWeatherTool(apiKey string) *CurrentWeatherTool {
	return &CurrentWeatherTool{
		apiKey:  apiKey,
		baseURL: openWeatherBaseURL,
		client:  newHTTPClient(),
	}
}

func (t *CurrentWeatherTool) Name() string { return "get_current_weather" }

func (t *CurrentWeatherTool) Description() string {
	return "Get the current weather at given coordinates"
}

func (t *CurrentWeatherTool) Definition() string {
	return GenerateSchema(CurrentWeatherInput{})
}

func (t *CurrentWeatherTool) Call(ctx context.Context, args json.RawMessage) (*domain.ToolResult, error) {
	if err := ValidateAgainstSchema(args, t.Definition()); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidArguments, err)
	}
	var input CurrentWeatherInput
	if err := json.Unmarshal(args, &input); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidArguments, err)
	}

	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(input.Latitude, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(input.Longitude, 'f', -1, 64))
	q.Set("appid", t.apiKey)
	q.Set("units", "metric")

	body, err := doJSON(ctx, t.client, "GET", t.baseURL+"/weather?"+q.Encode(), nil, nil)
	if err != nil {
		return nil, err
	}
	return domain.NewSuccessResult(body), nil
}

// ForecastInput is the argument struct for get_forecast.
type ForecastInput struct {
	City string `json:"city"`
}

// ForecastTool fetches a 5-day forecast from OpenWeatherMap.
type ForecastTool struct {
	apiKey  string
	baseURL string
	client  *retryablehttp.Client
}

// NewForecastTool returns a forecast tool authenticated with the given key.
func NewForecastTool(apiKey string) *ForecastTool {
	return &ForecastTool{
		apiKey:  apiKey,
		baseURL: openWeatherBaseURL,
		client:  newHTTPClient(),
	}
}

func (t *ForecastTool) Name() string { return "get_forecast" }

func (t *ForecastTool) Description() string {
	return "Get 5-day weather forecast for a city"
}

func (t *ForecastTool) Definition() string {
	return GenerateSchema(ForecastInput{})
}

func (t *ForecastTool) Call(ctx context.Context, args json.RawMessage) (*domain.ToolResult, error) {
	if err := ValidateAgainstSchema(args, t.Definition()); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidArguments, err)
	}
	var input ForecastInput
	if err := json.Unmarshal(args, &input); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidArguments, err)
	}

	q := url.Values{}
	q.Set("q", input.City)
	q.Set("appid", t.apiKey)
	q.Set("units", "metric")

	body, err := doJSON(ctx, t.client, "GET", t.baseURL+"/forecast?"+q.Encode(), nil, nil)
	if err != nil {
		return nil, err
	}
	return domain.NewSuccessResult(body), nil
}
