package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is the aggregated holding of one instrument within one account.
// A stored position always has a strictly positive quantity.
//
// Decimal columns are stored as text so that a restored ledger carries
// exactly the digits the live one had. SQLite would coerce a numeric
// column to a float.
type Position struct {
	ID        uint   `gorm:"primaryKey" json:"-"`
	AccountID uint   `gorm:"not null;uniqueIndex:idx_positions_account_symbol" json:"-"`
	Symbol    string `gorm:"size:20;not null;uniqueIndex:idx_positions_account_symbol" json:"symbol"`
	Name      string `gorm:"size:200" json:"name"`

	Quantity    decimal.Decimal `gorm:"type:text;not null" json:"quantity"`
	AverageCost decimal.Decimal `gorm:"type:text;not null" json:"averageCost"`

	// Derived from the latest known price. Recomputed on every revaluation.
	CurrentPrice          decimal.Decimal `gorm:"type:text" json:"currentPrice"`
	MarketValue           decimal.Decimal `gorm:"type:text" json:"marketValue"`
	UnrealizedGain        decimal.Decimal `gorm:"type:text" json:"unrealizedGain"`
	UnrealizedGainPercent decimal.Decimal `gorm:"type:text" json:"unrealizedGainPercent"`

	UpdatedAt time.Time `json:"updatedAt"`
}

func (Position) TableName() string {
	return "positions"
}

var hundred = decimal.NewFromInt(100)

// Revalue recomputes the derived fields of p at the given price.
// Quantity and AverageCost are left untouched.
func (p *Position) Revalue(price decimal.Decimal) {
	p.CurrentPrice = price
	p.MarketValue = p.Quantity.Mul(price)
	p.UnrealizedGain = price.Sub(p.AverageCost).Mul(p.Quantity)
	if p.AverageCost.IsZero() {
		p.UnrealizedGainPercent = decimal.Zero
		return
	}
	p.UnrealizedGainPercent = price.Sub(p.AverageCost).Div(p.AverageCost).Mul(hundred)
}
