package httpapi

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"citybrief/internal/info"
	"citybrief/internal/transit"
)

var validate = validator.New()

// Resolver is the orchestration entry point the API exposes to consumers.
type Resolver interface {
	Resolve(ctx context.Context, topic info.Topic, area string) (info.Result, error)
}

// AreaController is the slice of the refresh driver the API needs.
type AreaController interface {
	SetArea(area string)
	Area() string
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, resolver Resolver, areas AreaController, lookup *transit.Lookup) {
	v1 := app.Group("/api/v1")

	v1.Get("/info/:topic", func(c *fiber.Ctx) error {
		topic, err := info.ParseTopic(c.Params("topic"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		req := infoQuery{Area: c.Query("area", areas.Area())}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		result, err := resolver.Resolve(c.UserContext(), topic, req.Area)
		if err != nil {
			var exhausted *info.AllProvidersFailedError
			if errors.As(err, &exhausted) {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"error":    true,
					"message":  "live data temporarily unavailable",
					"topic":    exhausted.Topic,
					"area":     exhausted.Area,
					"attempts": exhausted.Attempts,
				})
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to resolve topic")
		}

		return c.JSON(fiber.Map{
			"topic": topic,
			"area":  req.Area,
			"data":  result,
		})
	})

	v1.Put("/location", func(c *fiber.Ctx) error {
		var req locationBody
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		areas.SetArea(req.Area)
		return c.JSON(fiber.Map{"area": req.Area})
	})

	v1.Get("/transit/routes", func(c *fiber.Ctx) error {
		req := stopQuery{Stop: c.Query("stop")}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		return c.JSON(fiber.Map{
			"stop":   req.Stop,
			"routes": lookup.RoutesByStop(req.Stop),
		})
	})

	v1.Get("/transit/routes/:name", func(c *fiber.Ctx) error {
		route, ok := lookup.RouteByName(c.Params("name"))
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no such route")
		}
		return c.JSON(route)
	})
}

// infoQuery holds query parameters for the info endpoint.
type infoQuery struct {
	Area string `validate:"required"`
}

// locationBody is the payload for switching the tracked area.
type locationBody struct {
	Area string `json:"area" validate:"required"`
}

// stopQuery holds query parameters for the transit stop lookup.
type stopQuery struct {
	Stop string `validate:"required"`
}
