package weather

import (
	"context"
	"errors"
)

// ErrTransport marks failures where the request could not be completed or its
// response could not be parsed. Provider clients wrap it with %w.
var ErrTransport = errors.New("weather transport failure")

// Client abstracts the weather data provider (OpenWeatherMap).
type Client interface {
	// Current fetches current conditions for a city. A decoded response with a
	// non-200 code is returned without error; the caller classifies it.
	Current(ctx context.Context, city string) (CurrentConditions, error)
	// Forecast fetches the first forecast sample for a city. A well-formed
	// response without a usable sample yields (nil, nil).
	Forecast(ctx context.Context, city string) (*ForecastSample, error)
}

// CitySource is anything that can notify the pipeline about city selections.
type CitySource interface {
	Subscribe(fn func(city string)) (unsubscribe func())
}

// Recorder receives every Ready view. Implemented by the in-memory history store.
type Recorder interface {
	Record(view View)
}
