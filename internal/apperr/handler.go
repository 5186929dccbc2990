package apperr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const genericMessage = "unexpected server error"

// ErrorHandler renders every error as {"error": ...}. Dependency failures and
// unknown errors are logged with their cause and answered with a generic body.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var appErr *Error
	if errors.As(err, &appErr) {
		status := appErr.Kind.Status()
		if status >= fiber.StatusInternalServerError {
			zap.L().Error("request failed",
				zap.String("path", c.Path()),
				zap.String("kind", appErr.Kind.String()),
				zap.Error(err))
		}
		body := fiber.Map{"error": appErr.Message}
		if len(appErr.Fields) > 0 {
			body["fields"] = appErr.Fields
		}
		return c.Status(status).JSON(body)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
	}

	zap.L().Error("unexpected error", zap.String("path", c.Path()), zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": genericMessage})
}
