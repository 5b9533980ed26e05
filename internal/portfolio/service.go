package portfolio

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"terravest-backend/internal/esg"
	"terravest-backend/internal/models"
)

// PriceSource is the live quote API. Calls may fail independently per
// symbol; the aggregator degrades instead of aborting.
type PriceSource interface {
	GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// Service encapsulates portfolio operations: holding CRUD and the
// dashboard aggregation over holdings, live prices, and the ESG dataset.
type Service struct {
	DB     *gorm.DB
	Prices PriceSource
	ESG    *esg.Store

	// PriceTimeout bounds each quote lookup so one stalled call cannot
	// hang a whole dashboard request.
	PriceTimeout time.Duration
}

// AddStockInput is the buy request body. Shares, or amount invested plus
// the price bought at, must be present; the missing one of shares/amount
// is derived from the other two.
type AddStockInput struct {
	Symbol         string           `json:"symbol"`
	CompanyName    string           `json:"company_name"`
	Shares         *decimal.Decimal `json:"shares"`
	AmountInvested *decimal.Decimal `json:"amount_invested"`
	PriceBoughtAt  *decimal.Decimal `json:"price_bought_at"`
}

// AddStock inserts a holding, or accumulates quantity and cost into the
// existing row on a repeat buy of the same symbol.
func (s *Service) AddStock(ctx context.Context, userID uuid.UUID, in AddStockInput) (*models.PortfolioStock, error) {
	if userID == uuid.Nil {
		return nil, ErrUserRequired
	}
	if in.Symbol == "" || in.CompanyName == "" {
		return nil, ErrSymbolRequired
	}

	shares, amount, price, err := deriveCost(in)
	if err != nil {
		return nil, err
	}

	var stock models.PortfolioStock
	err = s.DB.WithContext(ctx).
		Where("user_id = ? AND symbol = ?", userID, in.Symbol).
		First(&stock).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, err
	}

	if err == gorm.ErrRecordNotFound {
		stock = models.PortfolioStock{
			UserID:         userID,
			Symbol:         in.Symbol,
			CompanyName:    in.CompanyName,
			Shares:         shares,
			AmountInvested: amount,
			PriceBoughtAt:  price,
		}
		if err := s.DB.WithContext(ctx).Create(&stock).Error; err != nil {
			return nil, err
		}
		return &stock, nil
	}

	stock.Shares = stock.Shares.Add(shares)
	if amount != nil {
		newAmount := amount.Add(derefOrZero(stock.AmountInvested))
		stock.AmountInvested = &newAmount
		// Average cost across all buys.
		if stock.Shares.IsPositive() {
			avg := newAmount.DivRound(stock.Shares, 2)
			stock.PriceBoughtAt = &avg
		}
	}
	if err := s.DB.WithContext(ctx).Save(&stock).Error; err != nil {
		return nil, err
	}
	return &stock, nil
}

// deriveCost fills in the missing one of shares/amount from the other two.
func deriveCost(in AddStockInput) (decimal.Decimal, *decimal.Decimal, *decimal.Decimal, error) {
	shares := derefOrZero(in.Shares)
	amount := in.AmountInvested
	price := in.PriceBoughtAt

	switch {
	case in.Shares == nil || shares.IsZero():
		if amount == nil || price == nil || price.IsZero() {
			return decimal.Zero, nil, nil, ErrSharesUnderivable
		}
		shares = amount.DivRound(*price, 6)
	case amount == nil && price != nil:
		derived := shares.Mul(*price).Round(2)
		amount = &derived
	case amount == nil && price == nil:
		return decimal.Zero, nil, nil, ErrSharesUnderivable
	case price == nil:
		derived := amount.DivRound(shares, 2)
		price = &derived
	}
	if shares.IsNegative() {
		return decimal.Zero, nil, nil, ErrSharesUnderivable
	}
	return shares, amount, price, nil
}

// PortfolioItem is one holding with its live price attached; Price and
// Value are null when the quote lookup failed.
type PortfolioItem struct {
	models.PortfolioStock
	CurrentPrice *decimal.Decimal `json:"current_price"`
	CurrentValue *decimal.Decimal `json:"current_value"`
}

// ListPortfolio returns the user's holdings with live prices. Quote
// failures leave price fields null, they never fail the listing.
func (s *Service) ListPortfolio(ctx context.Context, userID uuid.UUID) ([]PortfolioItem, error) {
	if userID == uuid.Nil {
		return nil, ErrUserRequired
	}
	stocks, err := s.listStocks(ctx, userID)
	if err != nil {
		return nil, err
	}

	quotes := s.resolvePrices(ctx, stocks)
	items := make([]PortfolioItem, len(stocks))
	for i, st := range stocks {
		items[i] = PortfolioItem{PortfolioStock: st}
		if quotes[i].err == nil {
			price := quotes[i].price
			value := price.Mul(st.Shares)
			items[i].CurrentPrice = &price
			items[i].CurrentValue = &value
		}
	}
	return items, nil
}

// RemoveStock deletes one holding owned by the user.
func (s *Service) RemoveStock(ctx context.Context, userID, stockID uuid.UUID) error {
	if userID == uuid.Nil {
		return ErrUserRequired
	}
	res := s.DB.WithContext(ctx).
		Where("stock_id = ? AND user_id = ?", stockID, userID).
		Delete(&models.PortfolioStock{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStockNotFound
	}
	return nil
}

// ListSymbols returns the symbols the user holds, in insertion order.
func (s *Service) ListSymbols(ctx context.Context, userID uuid.UUID) ([]string, error) {
	if userID == uuid.Nil {
		return nil, ErrUserRequired
	}
	stocks, err := s.listStocks(ctx, userID)
	if err != nil {
		return nil, err
	}
	symbols := make([]string, len(stocks))
	for i, st := range stocks {
		symbols[i] = st.Symbol
	}
	return symbols, nil
}

func (s *Service) listStocks(ctx context.Context, userID uuid.UUID) ([]models.PortfolioStock, error) {
	var stocks []models.PortfolioStock
	if err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("added_at ASC").
		Find(&stocks).Error; err != nil {
		return nil, err
	}
	return stocks, nil
}

// quoteResult captures one price lookup outcome; failures stay local to
// the holding they belong to.
type quoteResult struct {
	price decimal.Decimal
	err   error
}

// resolvePrices fans out one quote lookup per holding. Each task records
// its own result and always returns nil so a failed lookup never cancels
// the sibling lookups; the only synchronization point is the final Wait.
func (s *Service) resolvePrices(ctx context.Context, stocks []models.PortfolioStock) []quoteResult {
	results := make([]quoteResult, len(stocks))
	g := new(errgroup.Group)
	for i, st := range stocks {
		i, st := i, st
		g.Go(func() error {
			callCtx := ctx
			if s.PriceTimeout > 0 {
				var cancel context.CancelFunc
				callCtx, cancel = context.WithTimeout(ctx, s.PriceTimeout)
				defer cancel()
			}
			price, err := s.Prices.GetPrice(callCtx, st.Symbol)
			results[i] = quoteResult{price: price, err: err}
			if err != nil {
				log.Warn().Err(err).Str("symbol", st.Symbol).Msg("price lookup failed, holding excluded from value")
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func derefOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
