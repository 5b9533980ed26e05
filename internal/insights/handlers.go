package insights

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"terravest-backend/internal/account"
	"terravest-backend/internal/middleware"
	"terravest-backend/internal/pkg/response"
	"terravest-backend/internal/portfolio"
)

// Handlers bundles the AI advisor endpoints. The model is an opaque
// collaborator returning text; these handlers only assemble context.
type Handlers struct {
	Generator Generator
	Portfolio *portfolio.Service
	Accounts  *account.Service
}

// AdvisorRequest body.
type AdvisorRequest struct {
	Question string `json:"question"`
}

// Advisor POST /api/chatgpt-advisor: answer a free-form question with the
// user's holdings as context.
func (h *Handlers) Advisor(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	if h.Generator == nil {
		return response.Error(c, "AI advisor not configured", fiber.StatusServiceUnavailable, nil)
	}
	var req AdvisorRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Question) == "" {
		return response.Error(c, "question is required", fiber.StatusBadRequest, nil)
	}

	items, err := h.Portfolio.ListPortfolio(c.Context(), userID)
	if err != nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}

	var sb strings.Builder
	sb.WriteString("You are an ESG investment advisor. The user's portfolio:\n")
	for _, item := range items {
		fmt.Fprintf(&sb, "- %s (%s): %s shares\n", item.CompanyName, item.Symbol, item.Shares.String())
	}
	sb.WriteString("\nQuestion: ")
	sb.WriteString(req.Question)

	answer, err := h.Generator.GenerateContent(c.Context(), sb.String())
	if err != nil {
		log.Warn().Err(err).Msg("advisor generation failed")
		return response.Error(c, "Advisor unavailable", fiber.StatusBadGateway, nil)
	}
	return response.Success(c, "Advice generated successfully", fiber.Map{"answer": answer}, nil)
}

// GenerateInsight POST /api/generate-esg-insight: narrative summary of the
// user's dashboard, shaped by their saved preferences when present.
func (h *Handlers) GenerateInsight(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	if h.Generator == nil {
		return response.Error(c, "AI advisor not configured", fiber.StatusServiceUnavailable, nil)
	}

	dashboard, err := h.Portfolio.ComputeDashboard(c.Context(), userID)
	if err != nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}

	var sb strings.Builder
	sb.WriteString("Write a short narrative insight about this investment portfolio's ESG profile.\n")
	fmt.Fprintf(&sb, "Portfolio value: %s\n", dashboard.PortfolioValue.String())
	if dashboard.OverallESGScore != nil {
		fmt.Fprintf(&sb, "Overall ESG score: %d/100\n", *dashboard.OverallESGScore)
	}
	fmt.Fprintf(&sb, "Environmental: %d, Social: %d, Governance: %d\n",
		dashboard.ESGBreakdown.Environmental,
		dashboard.ESGBreakdown.Social,
		dashboard.ESGBreakdown.Governance)
	for _, holding := range dashboard.TopHoldings {
		fmt.Fprintf(&sb, "- %s (%s)\n", holding.CompanyName, holding.Symbol)
	}

	if prefs, err := h.Accounts.GetPreferences(c.Context(), userID); err == nil {
		fmt.Fprintf(&sb, "The user's risk level is %s and their strategy is %s.\n",
			prefs.RiskLevel, prefs.InvestmentStrategy)
		fmt.Fprintf(&sb, "Keep the tone for a %s audience.\n", prefs.TransparencyLevel)
	}

	insight, err := h.Generator.GenerateContent(c.Context(), sb.String())
	if err != nil {
		log.Warn().Err(err).Msg("insight generation failed")
		return response.Error(c, "Insight generation unavailable", fiber.StatusBadGateway, nil)
	}
	return response.Success(c, "Insight generated successfully", fiber.Map{"insight": insight}, nil)
}
