package repository

import (
	"context"
	"errors"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"halalinvest/src/database"
	"halalinvest/src/ledger"
	"halalinvest/src/model"
)

// AccountRepository persists ledger snapshots: the account balance, the
// full set of positions and the append-only transaction log.
type AccountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new repository instance using the main read/write database.
func NewAccountRepository() *AccountRepository {
	logger.WithField("component", "AccountRepository").
		Info("Creating new AccountRepository with MainDB")

	return &AccountRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
// Useful for tests or when using a specific session/transaction.
func (r *AccountRepository) WithDB(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// errStaleSnapshot aborts the save transaction without reporting a failure.
var errStaleSnapshot = errors.New("stored account is at the same or a newer version")

// Save writes snapshot in one transaction. A snapshot whose version is not
// newer than the stored account is skipped.
func (r *AccountRepository) Save(ctx context.Context, snapshot ledger.Snapshot) error {
	fields := map[string]interface{}{
		"repo":       "AccountRepository",
		"op":         "Save",
		"account_id": snapshot.AccountID,
		"version":    snapshot.Version,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := upsertAccount(tx, snapshot); err != nil {
			return err
		}

		if err := tx.Where("account_id = ?", snapshot.AccountID).
			Delete(&model.Position{}).Error; err != nil {
			return err
		}
		if len(snapshot.Positions) > 0 {
			positions := make([]model.Position, len(snapshot.Positions))
			for i, p := range snapshot.Positions {
				p.ID = 0
				p.AccountID = snapshot.AccountID
				positions[i] = p
			}
			if err := tx.Create(&positions).Error; err != nil {
				return err
			}
		}

		if len(snapshot.Transactions) > 0 {
			txs := make([]model.Transaction, len(snapshot.Transactions))
			for i, t := range snapshot.Transactions {
				t.AccountID = snapshot.AccountID
				txs[i] = t
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				CreateInBatches(&txs, 200).Error; err != nil {
				return err
			}
		}
		return nil
	})

	if errors.Is(err, errStaleSnapshot) {
		logger.WithFields(fields).Debug("Skipping stale account snapshot")
		return nil
	}
	if err != nil {
		logger.WithFields(fields).WithError(err).Error("Failed to save account snapshot")
		return err
	}

	logger.WithFields(fields).Debug("Account snapshot saved")
	return nil
}

func upsertAccount(tx *gorm.DB, snapshot ledger.Snapshot) error {
	res := tx.Model(&model.Account{}).
		Where("id = ? AND version < ?", snapshot.AccountID, snapshot.Version).
		Updates(map[string]interface{}{
			"balance":    snapshot.Balance,
			"version":    snapshot.Version,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := tx.Model(&model.Account{}).
		Where("id = ?", snapshot.AccountID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return errStaleSnapshot
	}

	return tx.Create(&model.Account{
		ID:      snapshot.AccountID,
		Balance: snapshot.Balance,
		Version: snapshot.Version,
	}).Error
}

// Load rebuilds the snapshot of one account.
// Returns (nil, nil) if the account is not found.
func (r *AccountRepository) Load(ctx context.Context, accountID uint) (*ledger.Snapshot, error) {
	fields := map[string]interface{}{
		"repo":       "AccountRepository",
		"op":         "Load",
		"account_id": accountID,
	}

	db := r.db.WithContext(ctx)

	var account model.Account
	if err := db.First(&account, accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WithFields(fields).Debug("Account not found")
			return nil, nil
		}
		logger.WithFields(fields).WithError(err).Error("Failed to fetch account")
		return nil, err
	}

	var positions []model.Position
	if err := db.Where("account_id = ?", accountID).
		Order("symbol ASC").
		Find(&positions).Error; err != nil {
		logger.WithFields(fields).WithError(err).Error("Failed to fetch positions")
		return nil, err
	}

	var txs []model.Transaction
	if err := db.Where("account_id = ?", accountID).
		Order("executed_at DESC, id DESC").
		Find(&txs).Error; err != nil {
		logger.WithFields(fields).WithError(err).Error("Failed to fetch transactions")
		return nil, err
	}

	return &ledger.Snapshot{
		AccountID:    account.ID,
		Version:      account.Version,
		Balance:      account.Balance,
		Positions:    positions,
		Transactions: txs,
		TakenAt:      account.UpdatedAt,
	}, nil
}
