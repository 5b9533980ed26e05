package market

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"terravest-backend/internal/pkg/response"
)

// Handlers bundles market data endpoints (search, single quote, news).
type Handlers struct {
	Client *Client
	News   *NewsClient
}

// SearchCompany GET /api/search-company?query=
func (h *Handlers) SearchCompany(c *fiber.Ctx) error {
	query := c.Query("query")
	if query == "" {
		return response.Error(c, "query is required", fiber.StatusBadRequest, nil)
	}
	matches, err := h.Client.SearchSymbols(c.Context(), query)
	if err != nil {
		log.Warn().Err(err).Str("query", query).Msg("symbol search failed")
		return response.Error(c, "Symbol search failed", fiber.StatusBadGateway, nil)
	}
	return response.Success(c, "Symbols fetched successfully", fiber.Map{"matches": matches}, nil)
}

// GetStockPrice GET /api/get-stock-price?symbol=
func (h *Handlers) GetStockPrice(c *fiber.Ctx) error {
	symbol := c.Query("symbol")
	if symbol == "" {
		return response.Error(c, "symbol is required", fiber.StatusBadRequest, nil)
	}
	price, err := h.Client.GetPrice(c.Context(), symbol)
	if err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("price lookup failed")
		return response.Error(c, "Price lookup failed", fiber.StatusBadGateway, nil)
	}
	return response.Success(c, "Price fetched successfully", fiber.Map{
		"symbol": symbol,
		"price":  price,
	}, nil)
}

// FetchESGNews GET /api/fetch-esg-news?query=
func (h *Handlers) FetchESGNews(c *fiber.Ctx) error {
	articles, err := h.News.FetchESGNews(c.Context(), c.Query("query"))
	if err != nil {
		log.Warn().Err(err).Msg("news fetch failed")
		return response.Error(c, "News fetch failed", fiber.StatusBadGateway, nil)
	}
	return response.Success(c, "News fetched successfully", fiber.Map{"articles": articles}, nil)
}
