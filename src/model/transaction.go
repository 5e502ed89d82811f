package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionKind string

const (
	TransactionBuy  TransactionKind = "buy"
	TransactionSell TransactionKind = "sell"
)

const TransactionStatusCompleted = "completed"

// Transaction is the immutable record of one executed buy or sell.
type Transaction struct {
	ID        string          `gorm:"primaryKey;size:36" json:"id"`
	AccountID uint            `gorm:"not null;index:idx_transactions_account_ts,priority:1" json:"-"`
	Kind      TransactionKind `gorm:"size:10;not null;column:kind" json:"type"`
	Symbol    string          `gorm:"size:20;not null;index" json:"symbol"`
	Name      string          `gorm:"size:200" json:"name"`
	Quantity  decimal.Decimal `gorm:"type:text;not null" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:text;not null" json:"price"`
	Total     decimal.Decimal `gorm:"type:text;not null" json:"total"`
	Timestamp time.Time       `gorm:"column:executed_at;not null;index:idx_transactions_account_ts,priority:2" json:"timestamp"`
	Status    string          `gorm:"size:20;not null;default:completed" json:"status"`
}

func (Transaction) TableName() string {
	return "transactions"
}
