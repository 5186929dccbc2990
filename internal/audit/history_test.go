package audit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"luxverify-backend/internal/apperr"
	"luxverify-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHistory struct {
	products []models.DeleteHistory
	batches  []models.DeleteBatch
	err      error
	limit    int
}

func (f *fakeHistory) ListDeleteHistory(_ context.Context, limit int) ([]models.DeleteHistory, []models.DeleteBatch, error) {
	f.limit = limit
	return f.products, f.batches, f.err
}

func TestListDeleteHistory(t *testing.T) {
	repo := &fakeHistory{
		products: []models.DeleteHistory{{ID: 1, SerialCode: "SKA123456", DeletedBy: "admin@example.com", DeletedAt: time.Now()}},
	}
	app := fiber.New(fiber.Config{ErrorHandler: apperr.ErrorHandler})
	app.Get("/history", ListDeleteHistoryHandler(repo))

	resp, err := app.Test(httptest.NewRequest("GET", "/history?limit=5", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 5, repo.limit)

	var body map[string][]map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body["products"], 1)
	assert.Equal(t, "SKA123456", body["products"][0]["serial_code"])
	assert.NotNil(t, body["batches"])
	assert.Empty(t, body["batches"])
}

func TestListDeleteHistoryFailure(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: apperr.ErrorHandler})
	app.Get("/history", ListDeleteHistoryHandler(&fakeHistory{err: errors.New("db down")}))

	resp, err := app.Test(httptest.NewRequest("GET", "/history", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}
