package model

import "time"

// Exception is a failure worth keeping after the log lines are gone,
// such as a ledger snapshot that could not be written.
type Exception struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// Where the error happened
	Service string `gorm:"size:100;index" json:"service"` // e.g. "halalinvest"
	Module  string `gorm:"size:100;index" json:"module"`  // e.g. "snapshot_store"
	Method  string `gorm:"size:100" json:"method"`        // e.g. "Save"

	Message string `gorm:"type:text" json:"message"`
	Level   string `gorm:"size:20;index" json:"level"` // warn | error

	// JSON object with the identifiers involved, e.g. {"account_id":7}.
	Context string `gorm:"type:text" json:"context,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

func (Exception) TableName() string {
	return "exceptions"
}
