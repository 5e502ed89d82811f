package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account holds the cash side of a ledger. Each user owns exactly one
// account and the account shares the user's ID. Version grows with every
// committed buy or sell and guards against stale snapshot writes.
type Account struct {
	ID        uint            `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Balance   decimal.Decimal `gorm:"type:text;not null" json:"balance"`
	Version   uint64          `gorm:"not null;default:0" json:"version"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func (Account) TableName() string {
	return "accounts"
}
