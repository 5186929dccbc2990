// Package feedback collects customer messages from the public site.
package feedback

import (
	"context"
	"strings"

	"luxverify-backend/internal/apperr"
	"luxverify-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Repository interface {
	CreateFeedback(ctx context.Context, entry *models.FeedbackEntry) error
	ListFeedback(ctx context.Context, limit int) ([]models.FeedbackEntry, error)
}

type CreateFeedbackRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email,max=254"`
	Message string `json:"message" validate:"required,max=2000"`
}

// POST /api/feedback
func CreateFeedbackHandler(repo Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateFeedbackRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("invalid request body", nil)
		}
		body.Name = strings.TrimSpace(body.Name)
		body.Email = strings.ToLower(strings.TrimSpace(body.Email))
		body.Message = strings.TrimSpace(body.Message)
		if err := apperr.ValidateStruct(&body, "invalid feedback"); err != nil {
			return err
		}

		entry := &models.FeedbackEntry{Name: body.Name, Email: body.Email, Message: body.Message}
		if err := repo.CreateFeedback(c.UserContext(), entry); err != nil {
			return apperr.Dependency(err, "could not save feedback")
		}
		zap.L().Info("feedback received", zap.Uint("feedback_id", entry.ID))
		return c.Status(fiber.StatusCreated).JSON(entry)
	}
}

// GET /api/admin/feedback?limit=
func ListFeedbackHandler(repo Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rows, err := repo.ListFeedback(c.UserContext(), c.QueryInt("limit", 100))
		if err != nil {
			return apperr.Dependency(err, "could not load feedback")
		}
		if rows == nil {
			rows = []models.FeedbackEntry{}
		}
		return c.JSON(rows)
	}
}
