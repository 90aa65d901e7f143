package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lively-to/lively/internal/core/domain"
)

// ListResourcesHandler returns the static shelter/food-bank directory,
// optionally filtered by type and sorted by distance from a point.
// GET /api/resources?type=shelter&lat=43.65&lon=-79.38
func ListResourcesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		typ := domain.ResourceType(c.Query("type"))
		switch typ {
		case "", domain.ResourceShelter, domain.ResourceFoodBank:
		default:
			return errBadRequest(c, "type must be shelter or food_bank")
		}

		lat := c.QueryFloat("lat", 0)
		lon := c.QueryFloat("lon", 0)

		var resources []domain.LocationRecord
		if lat != 0 || lon != 0 {
			if !domain.ValidCoordinates(lat, lon) {
				return errBadRequest(c, "lat/lon out of range")
			}
			resources = deps.Resources.Nearest(c.UserContext(), domain.GeoPoint{Lat: lat, Lon: lon}, typ)
		} else {
			resources = deps.Resources.List(c.UserContext(), typ)
		}
		if resources == nil {
			resources = []domain.LocationRecord{}
		}

		c.Set("Cache-Control", "public, max-age=3600")
		return c.JSON(fiber.Map{
			"locations": resources,
			"count":     len(resources),
		})
	}
}
