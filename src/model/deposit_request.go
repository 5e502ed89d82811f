package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type RequestKind string

const (
	RequestDeposit    RequestKind = "deposit"
	RequestWithdrawal RequestKind = "withdrawal"
)

type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestCompleted RequestStatus = "completed"
	RequestRejected  RequestStatus = "rejected"
)

// Terminal reports whether no further transition is allowed from s.
func (s RequestStatus) Terminal() bool {
	return s == RequestCompleted || s == RequestRejected
}

const (
	DepositMethodManual    = "manual"
	DepositMethodAutomatic = "automatic"
)

const (
	CoinBTC       = "btc"
	CoinUSDTTRC20 = "usdttrc20"
)

// DepositRequest is an out-of-band request to move cash in or out of an
// account. It never changes the ledger balance by itself.
type DepositRequest struct {
	ID             string          `gorm:"primaryKey;size:36" json:"id"`
	AccountID      uint            `gorm:"not null;index" json:"accountId"`
	Kind           RequestKind     `gorm:"size:20;not null" json:"kind"`
	Amount         decimal.Decimal `gorm:"type:text;not null" json:"amount"`
	Method         string          `gorm:"size:20;not null" json:"method"`
	Coin           string          `gorm:"size:20" json:"coin,omitempty"`
	ProofReference string          `gorm:"size:500" json:"proofReference,omitempty"`
	Status         RequestStatus   `gorm:"size:20;not null;default:pending;index" json:"status"`
	Note           string          `gorm:"size:500" json:"note,omitempty"`
	VerifyBy       time.Time       `json:"verifyBy"`
	ResolvedAt     *time.Time      `json:"resolvedAt,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

func (DepositRequest) TableName() string {
	return "deposit_requests"
}
