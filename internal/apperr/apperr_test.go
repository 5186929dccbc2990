package apperr

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindStatus(t *testing.T) {
	assert.Equal(t, 400, KindValidation.Status())
	assert.Equal(t, 401, KindAuthorization.Status())
	assert.Equal(t, 404, KindNotFound.Status())
	assert.Equal(t, 409, KindConflict.Status())
	assert.Equal(t, 500, KindDependency.Status())
}

func TestKindOfThroughWrapping(t *testing.T) {
	cause := pkgerrors.New("connection refused")
	err := pkgerrors.Wrap(Dependency(cause, "storage unavailable"), "create product")

	assert.Equal(t, KindDependency, KindOf(err))
	assert.True(t, Is(err, KindDependency))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, Kind(0), KindOf(cause))
}

func errorBody(t *testing.T, app *fiber.App, path string) (int, map[string]interface{}) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil))
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	return resp.StatusCode, body
}

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/validation", func(c *fiber.Ctx) error {
		return Validation("invalid input", map[string]string{"email": "must be a valid email"})
	})
	app.Get("/dependency", func(c *fiber.Ctx) error {
		return Dependency(pkgerrors.New("dial tcp 10.0.0.5:5432: refused"), "database unavailable")
	})
	app.Get("/fiber", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot, "teapot")
	})
	app.Get("/plain", func(c *fiber.Ctx) error {
		return pkgerrors.New("secret internals")
	})

	status, body := errorBody(t, app, "/validation")
	assert.Equal(t, 400, status)
	assert.Equal(t, "invalid input", body["error"])
	assert.Equal(t, map[string]interface{}{"email": "must be a valid email"}, body["fields"])

	status, body = errorBody(t, app, "/dependency")
	assert.Equal(t, 500, status)
	assert.Equal(t, "database unavailable", body["error"])
	assert.NotContains(t, body["error"], "10.0.0.5")

	status, body = errorBody(t, app, "/fiber")
	assert.Equal(t, 418, status)
	assert.Equal(t, "teapot", body["error"])

	status, body = errorBody(t, app, "/plain")
	assert.Equal(t, 500, status)
	assert.Equal(t, genericMessage, body["error"])
}
