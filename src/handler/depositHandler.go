package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"halalinvest/src/auth"
	"halalinvest/src/deposit"
	"halalinvest/src/model"
)

const (
	defaultRequestLimit = 20
	maxRequestLimit     = 100
)

type depositService interface {
	Submit(ctx context.Context, accountID uint, in deposit.SubmitRequest) (*model.DepositRequest, error)
	List(ctx context.Context, accountID uint, kind model.RequestKind, limit, offset int) ([]model.DepositRequest, error)
	Pending(ctx context.Context, limit, offset int) ([]model.DepositRequest, error)
	Complete(ctx context.Context, id, note string) (*model.DepositRequest, error)
	Reject(ctx context.Context, id, note string) (*model.DepositRequest, error)
}

type requestResponse struct {
	Message string                `json:"message"`
	Request *model.DepositRequest `json:"request"`
}

// CreateDepositHandler records a pending deposit for the caller.
func CreateDepositHandler(svc depositService) http.HandlerFunc {
	return submitRequestHandler(svc, model.RequestDeposit, "Deposit request submitted successfully")
}

// CreateWithdrawalHandler records a pending withdrawal for the caller.
func CreateWithdrawalHandler(svc depositService) http.HandlerFunc {
	return submitRequestHandler(svc, model.RequestWithdrawal, "Withdrawal request submitted successfully")
}

func submitRequestHandler(svc depositService, kind model.RequestKind, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.GetUserFromContext(r.Context())
		if !ok || user == nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized", "")
			return
		}

		var payload deposit.SubmitRequest
		if err := decodeJSON(r, &payload); err != nil {
			logger.WithError(err).Warn("invalid deposit payload")
			writeError(w, http.StatusBadRequest, "Invalid payload", "")
			return
		}
		payload.Kind = kind

		req, err := svc.Submit(r.Context(), user.ID, payload)
		if err != nil {
			writeRequestError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, requestResponse{Message: message, Request: req})
	}
}

// ListDepositsHandler returns the caller's requests, optionally filtered
// with ?kind=deposit|withdrawal.
func ListDepositsHandler(svc depositService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.GetUserFromContext(r.Context())
		if !ok || user == nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized", "")
			return
		}

		page, limit, valid := pageParams(r, defaultRequestLimit, maxRequestLimit)
		if !valid {
			writeError(w, http.StatusBadRequest, "invalid page or limit", "")
			return
		}

		var kind model.RequestKind
		switch kindParam := strings.ToLower(r.URL.Query().Get("kind")); kindParam {
		case "", "all":
		case string(model.RequestDeposit), string(model.RequestWithdrawal):
			kind = model.RequestKind(kindParam)
		default:
			writeError(w, http.StatusBadRequest, "invalid kind", "")
			return
		}

		requests, err := svc.List(r.Context(), user.ID, kind, limit, (page-1)*limit)
		if err != nil {
			logger.WithError(err).Error("failed to list deposit requests")
			writeError(w, http.StatusInternalServerError, "Internal server error", "")
			return
		}
		if requests == nil {
			requests = []model.DepositRequest{}
		}
		writeJSON(w, http.StatusOK, requests)
	}
}

// PendingDepositsHandler lists every request awaiting review.
func PendingDepositsHandler(svc depositService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, limit, valid := pageParams(r, defaultRequestLimit, maxRequestLimit)
		if !valid {
			writeError(w, http.StatusBadRequest, "invalid page or limit", "")
			return
		}
		requests, err := svc.Pending(r.Context(), limit, (page-1)*limit)
		if err != nil {
			logger.WithError(err).Error("failed to list pending requests")
			writeError(w, http.StatusInternalServerError, "Internal server error", "")
			return
		}
		if requests == nil {
			requests = []model.DepositRequest{}
		}
		writeJSON(w, http.StatusOK, requests)
	}
}

type resolvePayload struct {
	Note string `json:"note"`
}

func CompleteDepositHandler(svc depositService) http.HandlerFunc {
	return resolveRequestHandler(svc.Complete, "Request completed")
}

func RejectDepositHandler(svc depositService) http.HandlerFunc {
	return resolveRequestHandler(svc.Reject, "Request rejected")
}

func resolveRequestHandler(resolve func(ctx context.Context, id, note string) (*model.DepositRequest, error), message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			writeError(w, http.StatusBadRequest, "missing request id", "")
			return
		}

		var payload resolvePayload
		if err := decodeJSON(r, &payload); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "Invalid payload", "")
			return
		}

		req, err := resolve(r.Context(), id, strings.TrimSpace(payload.Note))
		if err != nil {
			writeRequestError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, requestResponse{Message: message, Request: req})
	}
}

func writeRequestError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, deposit.ErrAmountTooSmall):
		writeError(w, http.StatusBadRequest, err.Error(), "amount_too_small")
	case errors.Is(err, deposit.ErrInvalidKind),
		errors.Is(err, deposit.ErrInvalidMethod),
		errors.Is(err, deposit.ErrInvalidCoin),
		errors.Is(err, deposit.ErrProofRequired):
		writeError(w, http.StatusBadRequest, err.Error(), "invalid_request")
	case errors.Is(err, deposit.ErrExceedsBalance):
		writeError(w, http.StatusUnprocessableEntity, err.Error(), "insufficient_funds")
	case errors.Is(err, deposit.ErrRequestNotFound):
		writeError(w, http.StatusNotFound, err.Error(), "not_found")
	case errors.Is(err, deposit.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error(), "invalid_transition")
	default:
		logger.WithError(err).Error("deposit request failed")
		writeError(w, http.StatusInternalServerError, "Internal server error", "")
	}
}
