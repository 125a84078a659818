// handlers/profile_routes.go
package handlers

import (
	"mastersize-system/middleware"
	"mastersize-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupProfileRoutes(app *fiber.App, userService *services.UserService, referralService *services.ReferralService, tokenService *services.TokenService) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	// Register the calling user. With a referral_code the registration
	// goes through the cascade engine's checks; without one it is a
	// plain idempotent create.
	secured.Post("/user/register", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			Username     *string `json:"username"`
			FirstName    *string `json:"first_name"`
			ReferralCode string  `json:"referral_code"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		if req.ReferralCode != "" {
			user, err := referralService.RegisterWithCode(ctx, userID, req.Username, req.FirstName, req.ReferralCode)
			if err != nil {
				return errorJSON(c, err)
			}
			return c.Status(fiber.StatusCreated).JSON(user)
		}

		user, created, err := userService.CreateIfAbsent(ctx, userID, req.Username, req.FirstName)
		if err != nil {
			return errorJSON(c, err)
		}
		status := fiber.StatusOK
		if created {
			status = fiber.StatusCreated
		}
		return c.Status(status).JSON(user)
	})

	secured.Get("/user/profile", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		ctx, cancel := requestContext(c)
		defer cancel()

		user, err := userService.GetByExternalID(ctx, userID)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(user)
	})

	secured.Get("/user/balance", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		ctx, cancel := requestContext(c)
		defer cancel()

		balance, err := tokenService.GetBalance(ctx, userID)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(fiber.Map{"msz_balance": balance})
	})

	secured.Put("/user/measurements", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req services.MeasurementUpdate
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		if err := userService.UpdateMeasurements(ctx, userID, req); err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(fiber.Map{"message": "measurements updated"})
	})

	secured.Post("/user/onboarding/complete", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		ctx, cancel := requestContext(c)
		defer cancel()

		result, err := userService.CompleteOnboarding(ctx, userID)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(result)
	})

	secured.Get("/user/referral", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		ctx, cancel := requestContext(c)
		defer cancel()

		stats, err := referralService.GetStats(ctx, userID)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(stats)
	})

	// Admin: pay the measurement-quality bonus after manual review.
	admin := app.Group("/s/admin", middleware.UserContextMiddleware())

	admin.Post("/quality-bonus", func(c *fiber.Ctx) error {
		var req struct {
			UserID string `json:"user_id" validate:"required"`
		}
		if err := c.BodyParser(&req); err != nil || req.UserID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		credited, err := userService.AwardQualityBonus(ctx, req.UserID)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(fiber.Map{
			"message":  "quality bonus credited",
			"user_id":  req.UserID,
			"credited": credited,
		})
	})
}
