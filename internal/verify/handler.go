package verify

import (
	"context"
	"errors"

	"luxverify-backend/internal/apperr"
	"luxverify-backend/internal/codegen"
	"luxverify-backend/internal/store"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const qrCacheControl = "public, max-age=86400"

type Verifier interface {
	Verify(ctx context.Context, code string, info store.ScanInfo) (*Result, error)
	VerifyRootKey(ctx context.Context, code, rootKey string) (bool, error)
	RenderQR(ctx context.Context, code string) ([]byte, error)
}

type RootKeyRequest struct {
	RootKey string `json:"root_key"`
}

// verifyFailure keeps the {verified, error} shape for every outcome of the
// public endpoints.
func verifyFailure(c *fiber.Ctx, err error) error {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		appErr = apperr.Dependency(err, "verification temporarily unavailable")
	}
	status := appErr.Kind.Status()
	if status >= fiber.StatusInternalServerError {
		zap.L().Error("verification failed", zap.String("code", c.Params("code")), zap.Error(err))
	}
	return c.Status(status).JSON(Result{Verified: false, Error: appErr.Message})
}

// GET /api/verify/:code
func VerifyHandler(svc Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.Verify(c.UserContext(), c.Params("code"), store.ScanInfo{
			IP:        c.IP(),
			UserAgent: c.Get(fiber.HeaderUserAgent),
		})
		if err != nil {
			return verifyFailure(c, err)
		}
		return c.JSON(res)
	}
}

// POST /api/verify/:code/root-key
func RootKeyHandler(svc Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RootKeyRequest
		if err := c.BodyParser(&body); err != nil {
			return verifyFailure(c, apperr.Validation("invalid request body", nil))
		}
		ok, err := svc.VerifyRootKey(c.UserContext(), c.Params("code"), body.RootKey)
		if err != nil {
			return verifyFailure(c, err)
		}
		if !ok {
			return c.JSON(Result{Verified: false, Error: "root key does not match"})
		}
		return c.JSON(Result{Verified: true})
	}
}

// GET /api/qr/:code
func QRImageHandler(svc Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		code := codegen.Normalize(c.Params("code"))
		if code == "" {
			return apperr.Validation("code is required", map[string]string{"code": "is required"})
		}

		png, err := svc.RenderQR(c.UserContext(), code)
		if err != nil {
			return err
		}

		etag := `"` + code + `"`
		c.Set(fiber.HeaderCacheControl, qrCacheControl)
		c.Set(fiber.HeaderETag, etag)
		if c.Get(fiber.HeaderIfNoneMatch) == etag {
			return c.SendStatus(fiber.StatusNotModified)
		}
		c.Set(fiber.HeaderContentType, "image/png")
		return c.Send(png)
	}
}
