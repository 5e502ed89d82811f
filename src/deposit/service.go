package deposit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"halalinvest/src/ledger"
	"halalinvest/src/model"
	"halalinvest/src/repository"
	"halalinvest/src/utils"
)

var (
	ErrAmountTooSmall    = errors.New("amount is below the minimum")
	ErrInvalidKind       = errors.New("unknown request kind")
	ErrInvalidMethod     = errors.New("unknown deposit method")
	ErrInvalidCoin       = errors.New("unsupported coin")
	ErrProofRequired     = errors.New("manual deposits need a proof of payment")
	ErrExceedsBalance    = errors.New("withdrawal exceeds available balance")
	ErrRequestNotFound   = errors.New("deposit request not found")
	ErrInvalidTransition = errors.New("request is no longer pending")
)

// Repository stores deposit and withdrawal requests.
type Repository interface {
	Create(ctx context.Context, req *model.DepositRequest) error
	FindByID(ctx context.Context, id string) (*model.DepositRequest, error)
	Search(ctx context.Context, options repository.DepositRequestSearchOptions) ([]model.DepositRequest, error)
	Transition(ctx context.Context, id string, from, to model.RequestStatus, note string, at time.Time) error
}

// LedgerOpener gives read access to an account's ledger.
type LedgerOpener interface {
	Open(ctx context.Context, accountID uint) (*ledger.Ledger, error)
}

var now = time.Now

// Service runs the request lifecycle pending -> completed | rejected.
// It only reads ledgers and never changes a balance.
type Service struct {
	repo    Repository
	ledgers LedgerOpener
	config  Config
}

func NewService(repo Repository, ledgers LedgerOpener) *Service {
	return &Service{repo: repo, ledgers: ledgers, config: GetConfig()}
}

// SubmitRequest is the caller supplied part of a new request.
type SubmitRequest struct {
	Kind           model.RequestKind `json:"kind"`
	Amount         decimal.Decimal   `json:"amount"`
	Method         string            `json:"method"`
	Coin           string            `json:"coin"`
	ProofReference string            `json:"proofReference"`
}

// Submit validates in and records a pending request.
func (s *Service) Submit(ctx context.Context, accountID uint, in SubmitRequest) (*model.DepositRequest, error) {
	method := strings.ToLower(strings.TrimSpace(in.Method))
	coin := strings.ToLower(strings.TrimSpace(in.Coin))
	proof := strings.TrimSpace(in.ProofReference)

	switch in.Kind {
	case model.RequestDeposit, model.RequestWithdrawal:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, in.Kind)
	}
	if in.Amount.LessThan(s.config.MinAmount) {
		return nil, fmt.Errorf("%w of %s", ErrAmountTooSmall, utils.FormatUSD(s.config.MinAmount))
	}
	if method != model.DepositMethodManual && method != model.DepositMethodAutomatic {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMethod, in.Method)
	}
	if coin != "" && coin != model.CoinBTC && coin != model.CoinUSDTTRC20 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCoin, in.Coin)
	}
	if in.Kind == model.RequestDeposit && method == model.DepositMethodManual && proof == "" {
		return nil, ErrProofRequired
	}

	if in.Kind == model.RequestWithdrawal {
		l, err := s.ledgers.Open(ctx, accountID)
		if err != nil {
			return nil, err
		}
		if balance := l.Balance(); in.Amount.GreaterThan(balance) {
			return nil, fmt.Errorf("%w: requested %s, available %s",
				ErrExceedsBalance, utils.FormatUSD(in.Amount), utils.FormatUSD(balance))
		}
	}

	created := now().UTC()
	req := &model.DepositRequest{
		ID:             uuid.NewString(),
		AccountID:      accountID,
		Kind:           in.Kind,
		Amount:         in.Amount,
		Method:         method,
		Coin:           coin,
		ProofReference: proof,
		Status:         model.RequestPending,
		VerifyBy:       created.Add(s.config.VerificationWindow),
		CreatedAt:      created,
		UpdatedAt:      created,
	}
	if err := s.repo.Create(ctx, req); err != nil {
		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"component":  "deposit",
		"op":         "Submit",
		"account_id": accountID,
		"kind":       req.Kind,
		"amount":     req.Amount.String(),
		"id":         req.ID,
	}).Info("Request submitted")
	return req, nil
}

// List returns the requests of one account, newest first.
func (s *Service) List(ctx context.Context, accountID uint, kind model.RequestKind, limit, offset int) ([]model.DepositRequest, error) {
	return s.repo.Search(ctx, repository.DepositRequestSearchOptions{
		AccountID: accountID,
		Kind:      kind,
		Limit:     limit,
		Offset:    offset,
	})
}

// Pending returns every request waiting for review.
func (s *Service) Pending(ctx context.Context, limit, offset int) ([]model.DepositRequest, error) {
	return s.repo.Search(ctx, repository.DepositRequestSearchOptions{
		Status: model.RequestPending,
		Limit:  limit,
		Offset: offset,
	})
}

// Complete marks a pending request as completed.
func (s *Service) Complete(ctx context.Context, id, note string) (*model.DepositRequest, error) {
	return s.resolve(ctx, id, model.RequestCompleted, note)
}

// Reject marks a pending request as rejected.
func (s *Service) Reject(ctx context.Context, id, note string) (*model.DepositRequest, error) {
	return s.resolve(ctx, id, model.RequestRejected, note)
}

func (s *Service) resolve(ctx context.Context, id string, to model.RequestStatus, note string) (*model.DepositRequest, error) {
	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("%w: %s", ErrRequestNotFound, id)
	}
	if req.Status.Terminal() {
		return nil, fmt.Errorf("%w: %s is %s", ErrInvalidTransition, id, req.Status)
	}

	at := now().UTC()
	if err := s.repo.Transition(ctx, id, model.RequestPending, to, note, at); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidTransition, id)
		}
		return nil, err
	}

	req.Status = to
	req.Note = note
	req.ResolvedAt = &at
	req.UpdatedAt = at
	return req, nil
}
