package httpapi

import (
	"bytes"
	"html/template"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/city-weather/internal/weather"
)

const (
	promptText  = "Enter a city to see the weather"
	loadingText = "Loading weather"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Weather</title>
{{- if .Refresh}}
<meta http-equiv="refresh" content="1">
{{- end}}
</head>
<body>
<form method="post" action="/city">
  <input type="text" name="city" placeholder="Enter city name" value="{{.City}}">
  <button type="submit">Search</button>
</form>
{{- if .Validation}}
<p class="validation">{{.Validation}}</p>
{{- end}}
{{- with .View}}
{{- if eq .State "idle"}}
<p class="status">{{$.Prompt}}</p>
{{- else if eq .Failure "not_found"}}
<div class="not-found">
  <div class="city-icon">&#127961;</div>
  <p>{{.Message}}</p>
</div>
{{- else if .Display}}
{{- with .Display}}
<div class="weather">
  <h1>{{.City}}</h1>
  <p class="description">{{.Description}}</p>
  {{- if .IconURL}}
  <img src="{{.IconURL}}" alt="weather icon">
  {{- end}}
  <p class="temperature">{{.Temperature}}</p>
  <dl>
    <dt>Humidity</dt><dd class="humidity">{{.Humidity}}</dd>
    <dt>Km/h Wind</dt><dd class="wind">{{.Wind}}</dd>
    <dt>Thermal Sensation</dt><dd class="feels-like">{{.FeelsLike}}</dd>
    <dt>Rain</dt><dd class="rain">{{.Rain}}</dd>
  </dl>
  <p class="date">{{.Date}}</p>
</div>
{{- end}}
{{- else}}
<p class="status">{{$.Loading}}</p>
{{- end}}
{{- end}}
</body>
</html>
`))

type pageData struct {
	City       string
	View       weather.View
	Validation string
	Prompt     string
	Loading    string
	Refresh    bool
}

// renderPage writes the HTML page for view. Transport failures fall through
// to the loading message, like a cycle that is still in flight.
func renderPage(c *fiber.Ctx, status int, city string, view weather.View, validation string) error {
	data := pageData{
		City:       city,
		View:       view,
		Validation: validation,
		Prompt:     promptText,
		Loading:    loadingText,
		Refresh:    view.State == weather.StateLoading,
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		log.Printf("ERROR: render page: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to render page")
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(status).Send(buf.Bytes())
}
