package weather

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// CodeOK is the status code the provider reports for a successful lookup.
const CodeOK = 200

// Code is the provider's status code. The provider sends it as a number on
// success (200) and as a string on errors ("404"), so both are accepted.
type Code int

// UnmarshalJSON accepts a JSON number or a JSON string holding a number.
func (c *Code) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			// Unparseable codes are kept as zero, which is never CodeOK.
			*c = 0
			return nil
		}
		*c = Code(n)
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*c = Code(int(n))
	return nil
}

// Condition is one entry of the provider's weather-condition array.
type Condition struct {
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// CurrentConditions is the present-moment snapshot for a city.
// Optional numeric fields are nil when the provider omitted them.
type CurrentConditions struct {
	Code    Code         `json:"cod"`
	Message string       `json:"message,omitempty"`
	Name    string       `json:"name"`
	Dt      *int64       `json:"dt,omitempty"`       // unix seconds, UTC
	Offset  int64        `json:"timezone,omitempty"` // seconds east of UTC
	Weather []Condition  `json:"weather,omitempty"`
	Main    *MainReading `json:"main,omitempty"`
	Wind    *WindReading `json:"wind,omitempty"`
}

// MainReading is the "main" block of a current-conditions response.
type MainReading struct {
	Temp      *float64 `json:"temp"`
	FeelsLike *float64 `json:"feels_like"`
	Humidity  *float64 `json:"humidity"`
}

// WindReading is the "wind" block of a current-conditions response.
type WindReading struct {
	Speed *float64 `json:"speed"` // m/s
}

// Found reports whether the provider recognised the city.
func (c CurrentConditions) Found() bool {
	return c.Code == CodeOK
}

// ForecastSample is the near-term precipitation probability used for the rain figure.
type ForecastSample struct {
	Pop float64 `json:"pop"` // 0.0-1.0
}

// FetchState captures whether a fetch cycle is outstanding.
type FetchState string

const (
	StateIdle    FetchState = "idle"
	StateLoading FetchState = "loading"
	StateReady   FetchState = "ready"
	StateFailed  FetchState = "failed"
)

// FailureKind distinguishes the two failure classes of a Failed view.
type FailureKind string

const (
	FailureNone      FailureKind = ""
	FailureNotFound  FailureKind = "not_found"
	FailureTransport FailureKind = "transport"
)

// Display holds the formatted strings rendered for a Ready view.
type Display struct {
	City        string `json:"city"`
	Description string `json:"description"`
	Icon        string `json:"icon,omitempty"`
	IconURL     string `json:"iconUrl,omitempty"`
	Temperature string `json:"temperature"`
	FeelsLike   string `json:"feelsLike"`
	Humidity    string `json:"humidity"`
	Wind        string `json:"windKmh"`
	Rain        string `json:"rain"`
	Date        string `json:"date"`
}

// View is the renderable state published by the Pipeline.
// A View is never mutated after it is published.
type View struct {
	ID        string      `json:"id,omitempty"` // fetch cycle ID; empty while idle
	City      string      `json:"city"`
	State     FetchState  `json:"state"`
	Failure   FailureKind `json:"failure,omitempty"`
	Loading   bool        `json:"loading"`
	Message   string      `json:"message,omitempty"`
	Display   *Display    `json:"display,omitempty"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// IdleView is the view before any city has been selected.
func IdleView() View {
	return View{
		State:     StateIdle,
		Loading:   true,
		UpdatedAt: time.Now().UTC(),
	}
}
