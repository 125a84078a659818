package handlers

import (
	"context"
	"errors"
	"time"

	"mastersize-system/services"

	"github.com/gofiber/fiber/v2"
)

// requestContext bounds every store call made on behalf of one request.
func requestContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), 10*time.Second)
}

// errorJSON maps service errors onto HTTP responses. Unmapped errors are
// treated as transient store failures: the caller may retry with backoff.
func errorJSON(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrChartNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrAlreadyCompleted),
		errors.Is(err, services.ErrAlreadyRegistered):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrTaskInactive),
		errors.Is(err, services.ErrProfileIncomplete),
		errors.Is(err, services.ErrInsufficientMeasurements),
		errors.Is(err, services.ErrSelfReferral),
		errors.Is(err, services.ErrInvalidReferralCode),
		errors.Is(err, services.ErrReferralCapReached):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "store unavailable, retry later",
			"cause": err.Error(),
		})
	}
}
