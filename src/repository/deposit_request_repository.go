package repository

import (
	"context"
	"errors"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"halalinvest/src/database"
	"halalinvest/src/model"
)

// ErrStatusConflict means the request was not in the expected status.
var ErrStatusConflict = errors.New("deposit request status changed concurrently")

type DepositRequestRepository struct {
	db *gorm.DB
}

func NewDepositRequestRepository() *DepositRequestRepository {
	logger.WithField("component", "DepositRequestRepository").
		Info("Creating new DepositRequestRepository with MainDB")

	return &DepositRequestRepository{
		db: database.MainDB,
	}
}

func (r *DepositRequestRepository) WithDB(db *gorm.DB) *DepositRequestRepository {
	return &DepositRequestRepository{db: db}
}

func (r *DepositRequestRepository) Create(ctx context.Context, req *model.DepositRequest) error {
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":       "DepositRequestRepository",
			"op":         "Create",
			"account_id": req.AccountID,
		}).WithError(err).Error("Failed to create deposit request")
		return err
	}
	return nil
}

// FindByID returns (nil, nil) if the request is not found.
func (r *DepositRequestRepository) FindByID(ctx context.Context, id string) (*model.DepositRequest, error) {
	var req model.DepositRequest
	err := r.db.WithContext(ctx).First(&req, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// DepositRequestSearchOptions narrows Search. Empty Kind or Status
// match everything.
type DepositRequestSearchOptions struct {
	AccountID uint
	Kind      model.RequestKind
	Status    model.RequestStatus
	Limit     int
	Offset    int
}

// Search returns requests newest first.
func (r *DepositRequestRepository) Search(ctx context.Context, options DepositRequestSearchOptions) ([]model.DepositRequest, error) {
	query := r.db.WithContext(ctx).Model(&model.DepositRequest{})
	if options.AccountID != 0 {
		query = query.Where("account_id = ?", options.AccountID)
	}
	if options.Kind != "" {
		query = query.Where("kind = ?", options.Kind)
	}
	if options.Status != "" {
		query = query.Where("status = ?", options.Status)
	}
	query = query.Order("created_at DESC, id DESC")
	if options.Limit > 0 {
		query = query.Limit(options.Limit)
	}
	if options.Offset > 0 {
		query = query.Offset(options.Offset)
	}

	var out []model.DepositRequest
	if err := query.Find(&out).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "DepositRequestRepository",
			"op":   "Search",
		}).WithError(err).Error("Failed to search deposit requests")
		return nil, err
	}
	return out, nil
}

// Transition moves a request from one status to another. It fails with
// ErrStatusConflict when the stored status is no longer from.
func (r *DepositRequestRepository) Transition(ctx context.Context, id string, from, to model.RequestStatus, note string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.DepositRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":      to,
			"note":        note,
			"resolved_at": at,
			"updated_at":  at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStatusConflict
	}
	logger.WithFields(map[string]interface{}{
		"repo": "DepositRequestRepository",
		"op":   "Transition",
		"id":   id,
		"from": from,
		"to":   to,
	}).Info("Deposit request resolved")
	return nil
}
