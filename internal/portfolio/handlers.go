package portfolio

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"terravest-backend/internal/middleware"
	"terravest-backend/internal/pkg/response"
)

// Handlers bundles portfolio endpoints.
type Handlers struct {
	Service *Service
}

// AddStock POST /api/add-stock
func (h *Handlers) AddStock(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	var in AddStockInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid JSON", fiber.StatusBadRequest, nil)
	}
	stock, err := h.Service.AddStock(c.Context(), userID, in)
	if err != nil {
		switch err {
		case ErrSymbolRequired, ErrSharesUnderivable:
			return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
		default:
			return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
		}
	}
	return response.SuccessCreated(c, "Stock added successfully", stock, nil)
}

// GetPortfolio GET /api/get-portfolio
func (h *Handlers) GetPortfolio(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	items, err := h.Service.ListPortfolio(c.Context(), userID)
	if err != nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Portfolio fetched successfully", fiber.Map{"stocks": items}, nil)
}

// RemoveStock DELETE /api/remove-stock/:id
func (h *Handlers) RemoveStock(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	stockID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid stock ID format (must be a valid UUID)", fiber.StatusBadRequest, nil)
	}
	if err := h.Service.RemoveStock(c.Context(), userID, stockID); err != nil {
		if err == ErrStockNotFound {
			return response.Error(c, err.Error(), fiber.StatusNotFound, nil)
		}
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Stock removed successfully", nil, nil)
}

// Dashboard GET /api/dashboard
func (h *Handlers) Dashboard(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	result, err := h.Service.ComputeDashboard(c.Context(), userID)
	if err != nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Dashboard computed successfully", result, fiber.Map{
		"excluded_holdings":  result.Diagnostics.ExcludedHoldings,
		"missing_companies":  result.Diagnostics.MissingCompanies,
		"failed_esg_lookups": result.Diagnostics.FailedESGLookups,
	})
}
