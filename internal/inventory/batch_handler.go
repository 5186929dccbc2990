package inventory

import (
	"luxverify-backend/internal/apperr"

	"github.com/gofiber/fiber/v2"
)

// POST /api/admin/batches
func CreateBatchHandler(svc *BatchService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateBatchInput
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("invalid request body", nil)
		}
		created, err := svc.Create(c.UserContext(), body)
		if err != nil {
			return err
		}

		res := toBatchResponse(created.Batch)
		for i := range res.Items {
			res.Items[i].RootKey = created.RootKeys[res.Items[i].UniqCode]
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// GET /api/admin/batches
func ListBatchesHandler(svc *BatchService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rows, err := svc.List(c.UserContext())
		if err != nil {
			return err
		}
		res := make([]BatchResponse, 0, len(rows))
		for _, row := range rows {
			res = append(res, toBatchSummaryResponse(row))
		}
		return c.JSON(res)
	}
}

// GET /api/admin/batches/:id
func GetBatchHandler(svc *BatchService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		b, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(toBatchResponse(b))
	}
}

// DELETE /api/admin/batches/:id
func DeleteBatchHandler(svc *BatchService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		res, err := svc.Delete(c.UserContext(), id, actor(c))
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// DELETE /api/admin/batches
func DeleteAllBatchesHandler(svc *BatchService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.DeleteAll(c.UserContext(), actor(c))
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}
