package esg

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubTickers serves a fixed symbol list for any user.
type stubTickers struct {
	symbols []string
}

func (s *stubTickers) ListSymbols(_ context.Context, _ uuid.UUID) ([]string, error) {
	return s.symbols, nil
}

func esgApp(h *Handlers, userID uuid.UUID) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user", map[string]interface{}{"user_id": userID.String()})
		return c.Next()
	})
	app.Get("/api/get-esg-data", h.GetESGData)
	app.Get("/api/get-esg-data/:ticker", h.GetCompanyESGData)
	app.Get("/api/fetch-esg-peer-scores/:symbol", h.FetchPeerScores)
	return app
}

func TestGetESGData_PortfolioWide(t *testing.T) {
	svc, db := setupESGTest(t)
	apple := seedCompany(t, db, "AAPL", "3571", 1)
	seedMetric(t, db, apple.ID, 2023, 1, FieldESGScore, 0.72)

	h := &Handlers{Service: svc, Tickers: &stubTickers{symbols: []string{"AAPL", "NODATA"}}}
	app := esgApp(h, uuid.New())

	resp, err := app.Test(httptest.NewRequest("GET", "/api/get-esg-data", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	raw, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	data, _ := out["data"].(map[string]interface{})
	require.NotNil(t, data)
	companies, _ := data["companies"].([]interface{})
	require.Len(t, companies, 1, "unrated symbols are skipped")
	first, _ := companies[0].(map[string]interface{})
	assert.Equal(t, "AAPL", first["ticker"])
	assert.Equal(t, float64(72), first["overall_esg_score"])
}

func TestGetESGData_Unauthorized(t *testing.T) {
	svc, _ := setupESGTest(t)
	h := &Handlers{Service: svc, Tickers: &stubTickers{}}
	app := fiber.New()
	app.Get("/api/get-esg-data", h.GetESGData)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/get-esg-data", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestGetCompanyESGData_NotFound(t *testing.T) {
	svc, _ := setupESGTest(t)
	h := &Handlers{Service: svc}
	app := esgApp(h, uuid.New())

	resp, err := app.Test(httptest.NewRequest("GET", "/api/get-esg-data/NOPE", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
