package weather

import (
	"fmt"
	"math"
	"time"
)

const (
	placeholder        = "--"
	noDescription      = "No description"
	iconURLFormat      = "https://openweathermap.org/img/wn/%s@2x.png"
	displayDateLayout  = "Monday, January 2, 2006"
	metersPerSecToKmph = 3.6
)

// Derive maps a current-conditions snapshot and an optional forecast sample
// onto display strings. Missing fields degrade to fixed placeholders.
func Derive(cur CurrentConditions, fc *ForecastSample) Display {
	d := Display{
		City:        cur.Name,
		Description: noDescription,
		Temperature: FormatTemperature(temp(cur)),
		FeelsLike:   FormatFeelsLike(feelsLike(cur)),
		Humidity:    FormatHumidity(humidity(cur)),
		Wind:        FormatWind(windSpeed(cur)),
		Rain:        FormatRain(fc),
		Date:        FormatLocalDate(cur.Dt, cur.Offset),
	}

	if len(cur.Weather) > 0 {
		d.Description = cur.Weather[0].Description
		d.Icon = cur.Weather[0].Icon
		if d.Icon != "" {
			d.IconURL = fmt.Sprintf(iconURLFormat, d.Icon)
		}
	}

	return d
}

// FormatLocalDate renders dt shifted by the city's UTC offset as a long date.
func FormatLocalDate(dt *int64, offset int64) string {
	if dt == nil {
		return placeholder
	}
	return time.Unix(*dt+offset, 0).UTC().Format(displayDateLayout)
}

// FormatTemperature renders a temperature as whole degrees Celsius, e.g. "22°C".
func FormatTemperature(v *float64) string {
	if v == nil {
		return placeholder + "°C"
	}
	return fmt.Sprintf("%d°C", roundHalfUp(*v))
}

// FormatFeelsLike renders the feels-like temperature, e.g. "19°".
func FormatFeelsLike(v *float64) string {
	if v == nil {
		return placeholder + "°"
	}
	return fmt.Sprintf("%d°", roundHalfUp(*v))
}

// FormatHumidity renders humidity as a percent, e.g. "64%".
func FormatHumidity(v *float64) string {
	if v == nil {
		return placeholder + "%"
	}
	return fmt.Sprintf("%d%%", roundHalfUp(*v))
}

// FormatWind converts a speed in m/s to whole km/h, e.g. 5.0 -> "18".
func FormatWind(ms *float64) string {
	if ms == nil {
		return placeholder
	}
	return fmt.Sprintf("%d", roundHalfUp(*ms*metersPerSecToKmph))
}

// FormatRain renders the probability of precipitation as a percent, e.g. 0.42 -> "42%".
func FormatRain(fc *ForecastSample) string {
	if fc == nil {
		return placeholder + "%"
	}
	return fmt.Sprintf("%d%%", roundHalfUp(fc.Pop*100))
}

// roundHalfUp rounds to the nearest integer with ties going toward +Inf,
// so 2.5 -> 3 and -2.5 -> -2.
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

func temp(c CurrentConditions) *float64 {
	if c.Main == nil {
		return nil
	}
	return c.Main.Temp
}

func feelsLike(c CurrentConditions) *float64 {
	if c.Main == nil {
		return nil
	}
	return c.Main.FeelsLike
}

func humidity(c CurrentConditions) *float64 {
	if c.Main == nil {
		return nil
	}
	return c.Main.Humidity
}

func windSpeed(c CurrentConditions) *float64 {
	if c.Wind == nil {
		return nil
	}
	return c.Wind.Speed
}
