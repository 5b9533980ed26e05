package portfolio

import "errors"

var (
	ErrUserRequired      = errors.New("user_id is required")
	ErrSymbolRequired    = errors.New("symbol and company_name are required")
	ErrSharesUnderivable = errors.New("provide shares, or amount_invested and price_bought_at")
	ErrStockNotFound     = errors.New("Stock not found")
)
