package insights

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"terravest-backend/internal/account"
	"terravest-backend/internal/esg"
	"terravest-backend/internal/models"
	"terravest-backend/internal/portfolio"
)

// stubGenerator records the prompt and returns a canned answer.
type stubGenerator struct {
	prompt string
	answer string
	err    error
}

func (s *stubGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	s.prompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

type fixedPrices struct{ price decimal.Decimal }

func (f *fixedPrices) GetPrice(_ context.Context, _ string) (decimal.Decimal, error) {
	return f.price, nil
}

func setupInsightsTest(t *testing.T, gen Generator) (*Handlers, *gorm.DB, uuid.UUID) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.UserPreferences{}, &models.PortfolioStock{}, &models.ESGCompany{}, &models.ESGMetric{}))

	userID := uuid.New()
	amount := decimal.NewFromInt(1000)
	require.NoError(t, db.Create(&models.PortfolioStock{
		UserID:         userID,
		Symbol:         "AAPL",
		CompanyName:    "Apple Inc",
		Shares:         decimal.NewFromInt(10),
		AmountInvested: &amount,
	}).Error)

	h := &Handlers{
		Generator: gen,
		Portfolio: &portfolio.Service{
			DB:     db,
			Prices: &fixedPrices{price: decimal.NewFromInt(150)},
			ESG:    &esg.Store{DB: db},
		},
		Accounts: &account.Service{DB: db},
	}
	return h, db, userID
}

func sessionApp(userID uuid.UUID) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user", map[string]interface{}{"user_id": userID.String()})
		return c.Next()
	})
	return app
}

func TestAdvisor(t *testing.T) {
	gen := &stubGenerator{answer: "Diversify into renewables."}
	h, _, userID := setupInsightsTest(t, gen)
	app := sessionApp(userID)
	app.Post("/api/chatgpt-advisor", h.Advisor)

	body, _ := json.Marshal(map[string]string{"question": "How green is my portfolio?"})
	req := httptest.NewRequest("POST", "/api/chatgpt-advisor", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	raw, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	data, _ := out["data"].(map[string]interface{})
	assert.Equal(t, "Diversify into renewables.", data["answer"])

	// Holdings and the question both land in the prompt.
	assert.True(t, strings.Contains(gen.prompt, "Apple Inc"))
	assert.True(t, strings.Contains(gen.prompt, "How green is my portfolio?"))
}

func TestAdvisor_MissingQuestion(t *testing.T) {
	h, _, userID := setupInsightsTest(t, &stubGenerator{answer: "x"})
	app := sessionApp(userID)
	app.Post("/api/chatgpt-advisor", h.Advisor)

	body, _ := json.Marshal(map[string]string{"question": "  "})
	req := httptest.NewRequest("POST", "/api/chatgpt-advisor", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAdvisor_NotConfigured(t *testing.T) {
	h, _, userID := setupInsightsTest(t, nil)
	app := sessionApp(userID)
	app.Post("/api/chatgpt-advisor", h.Advisor)

	body, _ := json.Marshal(map[string]string{"question": "hello"})
	req := httptest.NewRequest("POST", "/api/chatgpt-advisor", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestAdvisor_GenerationFails(t *testing.T) {
	h, _, userID := setupInsightsTest(t, &stubGenerator{err: errors.New("model overloaded")})
	app := sessionApp(userID)
	app.Post("/api/chatgpt-advisor", h.Advisor)

	body, _ := json.Marshal(map[string]string{"question": "hello"})
	req := httptest.NewRequest("POST", "/api/chatgpt-advisor", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
}

func TestGenerateInsight(t *testing.T) {
	gen := &stubGenerator{answer: "Your portfolio leans green."}
	h, _, userID := setupInsightsTest(t, gen)

	// Saved preferences shape the prompt.
	_, err := h.Accounts.SavePreferences(context.Background(), userID, account.PreferencesInput{
		RiskLevel:          "moderate",
		InvestmentStrategy: "growth",
		TransparencyLevel:  "detailed",
	})
	require.NoError(t, err)

	app := sessionApp(userID)
	app.Post("/api/generate-esg-insight", h.GenerateInsight)

	req := httptest.NewRequest("POST", "/api/generate-esg-insight", nil)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	raw, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	data, _ := out["data"].(map[string]interface{})
	assert.Equal(t, "Your portfolio leans green.", data["insight"])

	assert.True(t, strings.Contains(gen.prompt, "Portfolio value: 1500"))
	assert.True(t, strings.Contains(gen.prompt, "moderate"))
	assert.True(t, strings.Contains(gen.prompt, "growth"))
}

func TestGenerateInsight_Unauthorized(t *testing.T) {
	h, _, _ := setupInsightsTest(t, &stubGenerator{answer: "x"})
	app := fiber.New()
	app.Post("/api/generate-esg-insight", h.GenerateInsight)

	req := httptest.NewRequest("POST", "/api/generate-esg-insight", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
