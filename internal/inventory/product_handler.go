package inventory

import (
	"luxverify-backend/internal/apperr"
	"luxverify-backend/internal/auth"
	"luxverify-backend/internal/store"

	"github.com/gofiber/fiber/v2"
)

func paramID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid id", map[string]string{"id": "must be a positive integer"})
	}
	return uint(id), nil
}

func actor(c *fiber.Ctx) string {
	if p, ok := auth.PrincipalFrom(c); ok {
		return p.Email
	}
	return "unknown"
}

// POST /api/admin/products
func CreateProductHandler(svc *ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateProductInput
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("invalid request body", nil)
		}
		p, err := svc.Create(c.UserContext(), body)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(toProductResponse(p))
	}
}

// GET /api/admin/products?q=&page=&per_page=
func ListProductsHandler(svc *ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f := store.ProductFilter{
			Query:   c.Query("q"),
			Page:    c.QueryInt("page", 1),
			PerPage: c.QueryInt("per_page", 50),
		}
		rows, total, err := svc.List(c.UserContext(), f)
		if err != nil {
			return err
		}

		res := ProductListResponse{
			Products: make([]ProductResponse, 0, len(rows)),
			Total:    total,
			Page:     f.Page,
			PerPage:  f.PerPage,
		}
		for i := range rows {
			res.Products = append(res.Products, toProductResponse(&rows[i]))
		}
		return c.JSON(res)
	}
}

// GET /api/admin/products/:id
func GetProductHandler(svc *ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		p, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(toProductResponse(p))
	}
}

// GET /api/admin/products/:id/scans?limit=
func ListProductScansHandler(svc *ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		logs, err := svc.Scans(c.UserContext(), id, c.QueryInt("limit", 100))
		if err != nil {
			return err
		}
		return c.JSON(logs)
	}
}

// DELETE /api/admin/products/:id
func DeleteProductHandler(svc *ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		p, err := svc.Delete(c.UserContext(), id, actor(c))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"message":     "product deleted",
			"id":          p.ID,
			"serial_code": p.SerialCode,
		})
	}
}
