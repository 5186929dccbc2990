// Package audit exposes the deletion trail written by product and batch
// deletes.
package audit

import (
	"context"

	"luxverify-backend/internal/apperr"
	"luxverify-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type HistoryRepository interface {
	ListDeleteHistory(ctx context.Context, limit int) ([]models.DeleteHistory, []models.DeleteBatch, error)
}

type DeleteHistoryResponse struct {
	Products []models.DeleteHistory `json:"products"`
	Batches  []models.DeleteBatch   `json:"batches"`
}

// GET /api/admin/delete-history?limit=200
func ListDeleteHistoryHandler(repo HistoryRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		products, batches, err := repo.ListDeleteHistory(c.UserContext(), c.QueryInt("limit", 200))
		if err != nil {
			return apperr.Dependency(err, "could not load delete history")
		}
		if products == nil {
			products = []models.DeleteHistory{}
		}
		if batches == nil {
			batches = []models.DeleteBatch{}
		}
		return c.JSON(DeleteHistoryResponse{Products: products, Batches: batches})
	}
}
