// handlers/task_routes.go
package handlers

import (
	"time"

	"mastersize-system/middleware"
	"mastersize-system/models"
	"mastersize-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupTaskRoutes(app *fiber.App, taskService *services.TaskService) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Get("/tasks", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		ctx, cancel := requestContext(c)
		defer cancel()

		tasks, err := taskService.ListAvailable(ctx, userID)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(tasks)
	})

	secured.Post("/tasks/:id/complete", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		taskID := c.Params("id")

		ctx, cancel := requestContext(c)
		defer cancel()

		credited, err := taskService.Complete(ctx, userID, taskID)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(fiber.Map{
			"message":  "task completed",
			"task_id":  taskID,
			"credited": credited,
		})
	})

	// Admin: task catalog management
	admin := app.Group("/s/admin", middleware.UserContextMiddleware())

	admin.Post("/tasks", func(c *fiber.Ctx) error {
		var req struct {
			Name        string          `json:"name" validate:"required"`
			Description string          `json:"description"`
			RewardMSZ   int64           `json:"reward_msz" validate:"required,min=1"`
			Type        models.TaskType `json:"type"`
			ExpiresAt   *time.Time      `json:"expires_at"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		if req.Name == "" || req.RewardMSZ <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name and a positive reward_msz are required"})
		}
		if req.Type == "" {
			req.Type = models.TaskTypeSocial
		}

		task := models.Task{
			Name:        req.Name,
			Description: req.Description,
			RewardMSZ:   req.RewardMSZ,
			Type:        req.Type,
			IsActive:    true,
			ExpiresAt:   req.ExpiresAt,
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		if err := taskService.CreateTask(ctx, &task); err != nil {
			return errorJSON(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(task)
	})
}
