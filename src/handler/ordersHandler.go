package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"halalinvest/src/ledger"
	"halalinvest/src/model"
)

type placeOrderPayload struct {
	Side     string           `json:"side"`
	Symbol   string           `json:"symbol"`
	Quantity decimal.Decimal  `json:"quantity"`
	Price    *decimal.Decimal `json:"price"`
}

type placeOrderResponse struct {
	Transaction model.Transaction `json:"transaction"`
	Balance     decimal.Decimal   `json:"balance"`
}

// PlaceOrderHandler executes a buy or sell against the caller's ledger.
// When price is omitted the order fills at the current catalog price.
func PlaceOrderHandler(ledgers ledgerOpener) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload placeOrderPayload
		if err := decodeJSON(r, &payload); err != nil {
			logger.WithError(err).Warn("invalid order payload")
			writeError(w, http.StatusBadRequest, "Invalid payload", "")
			return
		}

		side := model.TransactionKind(strings.ToLower(strings.TrimSpace(payload.Side)))
		if side != model.TransactionBuy && side != model.TransactionSell {
			writeError(w, http.StatusBadRequest, "side must be buy or sell", "invalid_side")
			return
		}
		symbol := strings.ToUpper(strings.TrimSpace(payload.Symbol))

		_, l, ok := openUserLedger(w, r, ledgers)
		if !ok {
			return
		}

		var price decimal.Decimal
		if payload.Price != nil {
			price = *payload.Price
		} else {
			inst, found := l.Instrument(symbol)
			if !found {
				writeOrderError(w, ledger.ErrUnknownInstrument)
				return
			}
			price = inst.Price
		}

		fill, err := l.Execute(r.Context(), side, symbol, payload.Quantity, price)
		if err != nil {
			writeOrderError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, placeOrderResponse{Transaction: fill.Transaction, Balance: fill.Balance})
	}
}

func writeOrderError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ledger.ErrInvalidSide), errors.Is(err, ledger.ErrInvalidQuantity), errors.Is(err, ledger.ErrInvalidPrice):
		status = http.StatusBadRequest
	case errors.Is(err, ledger.ErrUnknownInstrument):
		status = http.StatusNotFound
	case errors.Is(err, ledger.ErrInsufficientFunds), errors.Is(err, ledger.ErrInsufficientHoldings):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		logger.WithError(err).Error("failed to place order")
		writeError(w, status, "Internal server error", ledger.Reason(err))
		return
	}
	writeError(w, status, err.Error(), ledger.Reason(err))
}
