package httpapi

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/i474232898/city-weather/internal/selection"
	"github.com/i474232898/city-weather/internal/store"
	"github.com/i474232898/city-weather/internal/weather"
)

var validate = validator.New()

// ViewSource exposes the pipeline's published view.
type ViewSource interface {
	View() weather.View
}

// HistoryReader reads recorded lookups.
type HistoryReader interface {
	GetLatest(city string) (weather.View, error)
	GetRange(city string, from, to time.Time) ([]weather.View, error)
}

// ErrorHandler renders every error as {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// RegisterRoutes wires the page and API handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, sel *selection.Store, views ViewSource, history HistoryReader) {
	app.Get("/", func(c *fiber.Ctx) error {
		return renderPage(c, fiber.StatusOK, sel.City(), views.View(), "")
	})

	app.Post("/city", func(c *fiber.Ctx) error {
		req, err := parseCityRequest(c)
		if err == nil {
			err = sel.SetCity(req.City)
		}
		if err != nil {
			return renderPage(c, fiber.StatusUnprocessableEntity, sel.City(), views.View(), selection.ErrEmptyCity.Error())
		}
		return c.Redirect("/", fiber.StatusSeeOther)
	})

	v1 := app.Group("/api/v1")

	v1.Get("/city", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"city": sel.City()})
	})

	v1.Put("/city", func(c *fiber.Ctx) error {
		req, err := parseCityRequest(c)
		if err == nil {
			err = sel.SetCity(req.City)
		}
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, selection.ErrEmptyCity.Error())
		}
		return c.Status(fiber.StatusAccepted).JSON(views.View())
	})

	v1.Get("/weather", func(c *fiber.Ctx) error {
		return c.JSON(views.View())
	})

	v1.Get("/weather/history/latest", func(c *fiber.Ctx) error {
		city := strings.TrimSpace(c.Query("city"))
		if city == "" {
			return fiber.NewError(fiber.StatusBadRequest, "city query parameter is required")
		}

		view, err := history.GetLatest(city)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no weather lookups for city")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read weather history")
		}
		return c.JSON(view)
	})

	v1.Get("/weather/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		lookups, err := history.GetRange(req.City, req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no weather lookups for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read weather history")
		}

		return c.JSON(fiber.Map{
			"city":    req.City,
			"from":    req.From,
			"to":      req.To,
			"lookups": lookups,
		})
	})
}

// cityRequest is the body of a city submission, either a form or JSON.
type cityRequest struct {
	City string `json:"city" form:"city" validate:"required,max=100"`
}

func parseCityRequest(c *fiber.Ctx) (cityRequest, error) {
	var req cityRequest
	if err := c.BodyParser(&req); err != nil {
		return req, err
	}
	// Form values point into fasthttp's pooled buffer unless the app is Immutable.
	req.City = utils.CopyString(strings.TrimSpace(req.City))

	if err := validate.Struct(req); err != nil {
		return req, err
	}
	return req, nil
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	City string    `validate:"required"`
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	h.City = strings.TrimSpace(c.Query("city"))

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
