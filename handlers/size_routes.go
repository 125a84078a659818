// handlers/size_routes.go
package handlers

import (
	"strconv"

	"mastersize-system/middleware"
	"mastersize-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupSizeRoutes(app *fiber.App, sizeService *services.SizeService, charts *services.ChartCatalog) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Post("/size/recommend", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			Brand         string `json:"brand" validate:"required"`
			ClothingType  string `json:"clothing_type" validate:"required"`
			FitPreference string `json:"fit_preference"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		if req.Brand == "" || req.ClothingType == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "brand and clothing_type are required"})
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		rec, err := sizeService.RecommendForUser(ctx, userID, req.Brand, req.ClothingType, services.ParseFitPreference(req.FitPreference))
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(fiber.Map{
			"brand":          req.Brand,
			"clothing_type":  req.ClothingType,
			"recommendation": rec,
		})
	})

	secured.Get("/size/history", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		limit, _ := strconv.Atoi(c.Query("limit", "20"))

		ctx, cancel := requestContext(c)
		defer cancel()

		rows, err := sizeService.History(ctx, userID, limit)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(rows)
	})

	// Brand menu is public reference data; gateway auth still applies.
	app.Get("/size/brands", func(c *fiber.Ctx) error {
		return c.JSON(charts.Brands())
	})
}
