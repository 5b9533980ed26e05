package esg

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"terravest-backend/internal/middleware"
	"terravest-backend/internal/pkg/response"
)

// TickerLister supplies the symbols a user holds, so the portfolio-wide
// ESG view does not depend on the portfolio package directly.
type TickerLister interface {
	ListSymbols(ctx context.Context, userID uuid.UUID) ([]string, error)
}

// Handlers bundles ESG data endpoints.
type Handlers struct {
	Service *Service
	Tickers TickerLister
}

// GetESGData GET /api/get-esg-data: latest scores for every rated company
// in the caller's portfolio.
func (h *Handlers) GetESGData(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	symbols, err := h.Tickers.ListSymbols(c.Context(), userID)
	if err != nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	scores, err := h.Service.ScoresForTickers(c.Context(), symbols)
	if err != nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "ESG data fetched successfully", fiber.Map{"companies": scores}, nil)
}

// GetCompanyESGData GET /api/get-esg-data/:ticker
func (h *Handlers) GetCompanyESGData(c *fiber.Ctx) error {
	ticker := c.Params("ticker")
	if ticker == "" {
		return response.Error(c, "ticker is required", fiber.StatusBadRequest, nil)
	}
	data, err := h.Service.CompanyScoresByTicker(c.Context(), ticker)
	if err != nil {
		if err == ErrCompanyNotFound {
			return response.Error(c, err.Error(), fiber.StatusNotFound, nil)
		}
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "ESG data fetched successfully", data, nil)
}

// FetchPeerScores GET /api/fetch-esg-peer-scores/:symbol
func (h *Handlers) FetchPeerScores(c *fiber.Ctx) error {
	symbol := c.Params("symbol")
	if symbol == "" {
		return response.Error(c, "symbol is required", fiber.StatusBadRequest, nil)
	}
	peers, err := h.Service.PeerScoresBySymbol(c.Context(), symbol)
	if err != nil {
		if err == ErrCompanyNotFound {
			return response.Error(c, err.Error(), fiber.StatusNotFound, nil)
		}
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Peer scores fetched successfully", fiber.Map{"peers": peers}, nil)
}
