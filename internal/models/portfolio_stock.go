package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PortfolioStock is one user's position in one traded symbol. At most one
// row exists per (user, symbol); repeat buys accumulate into it.
//
// Shares and at least one of AmountInvested/PriceBoughtAt are kept
// consistent: the add-stock path derives whichever of shares/amount is
// missing from the other two before insert.
type PortfolioStock struct {
	StockID        uuid.UUID        `gorm:"column:stock_id;type:uuid;primaryKey" json:"stock_id"`
	UserID         uuid.UUID        `gorm:"column:user_id;type:uuid;not null;index:idx_user_symbol,unique" json:"user_id"`
	Symbol         string           `gorm:"column:symbol;not null;index:idx_user_symbol,unique" json:"symbol"`
	CompanyName    string           `gorm:"column:company_name;not null" json:"company_name"`
	Shares         decimal.Decimal  `gorm:"column:shares;type:decimal(18,6);not null;default:0" json:"shares"`
	AmountInvested *decimal.Decimal `gorm:"column:amount_invested;type:decimal(12,2)" json:"amount_invested"`
	PriceBoughtAt  *decimal.Decimal `gorm:"column:price_bought_at;type:decimal(12,2)" json:"price_bought_at"`
	AddedAt        time.Time        `gorm:"column:added_at;autoCreateTime" json:"added_at"`
}

func (PortfolioStock) TableName() string {
	return "PortfolioStocks"
}

func (p *PortfolioStock) BeforeCreate(tx *gorm.DB) error {
	if p.StockID == uuid.Nil {
		p.StockID = uuid.New()
	}
	return nil
}
