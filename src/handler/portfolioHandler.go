package handler

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"halalinvest/src/ledger"
	"halalinvest/src/model"
	"halalinvest/src/utils"
)

const (
	defaultTransactionLimit = 20
	maxTransactionLimit     = 100
	dashboardRecent         = 5
)

type balanceResponse struct {
	Balance   decimal.Decimal `json:"balance"`
	Formatted string          `json:"formatted"`
}

func BalanceHandler(ledgers ledgerOpener) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, l, ok := openUserLedger(w, r, ledgers)
		if !ok {
			return
		}
		balance := l.Balance()
		writeJSON(w, http.StatusOK, balanceResponse{Balance: balance, Formatted: utils.FormatUSD(balance)})
	}
}

// PositionsHandler lists the open positions valued at the latest prices.
func PositionsHandler(ledgers ledgerOpener) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, l, ok := openUserLedger(w, r, ledgers)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, l.Positions())
	}
}

type dashboardResponse struct {
	ledger.Summary
	FormattedBalance    string `json:"formattedBalance"`
	FormattedTotalValue string `json:"formattedTotalValue"`
	FormattedGain       string `json:"formattedUnrealizedGain"`
}

func DashboardHandler(ledgers ledgerOpener) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, l, ok := openUserLedger(w, r, ledgers)
		if !ok {
			return
		}
		summary := l.Summarize(dashboardRecent)
		if summary.RecentTransactions == nil {
			summary.RecentTransactions = []model.Transaction{}
		}
		writeJSON(w, http.StatusOK, dashboardResponse{
			Summary:             summary,
			FormattedBalance:    utils.FormatUSD(summary.Balance),
			FormattedTotalValue: utils.FormatUSD(summary.TotalValue),
			FormattedGain:       utils.FormatSignedUSD(summary.UnrealizedGain),
		})
	}
}

type transactionsResponse struct {
	Transactions []model.Transaction `json:"transactions"`
	Pagination   pagination          `json:"pagination"`
}

// TransactionsHandler pages through the caller's transaction log, newest
// first. Supports ?page, ?limit and ?type=buy|sell|all.
func TransactionsHandler(ledgers ledgerOpener) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, limit, valid := pageParams(r, defaultTransactionLimit, maxTransactionLimit)
		if !valid {
			writeError(w, http.StatusBadRequest, "invalid page or limit", "")
			return
		}

		var kind model.TransactionKind
		switch typeParam := strings.ToLower(r.URL.Query().Get("type")); typeParam {
		case "", "all":
		case string(model.TransactionBuy), string(model.TransactionSell):
			kind = model.TransactionKind(typeParam)
		default:
			writeError(w, http.StatusBadRequest, "invalid type", "")
			return
		}

		_, l, ok := openUserLedger(w, r, ledgers)
		if !ok {
			return
		}

		txs, total := l.Transactions(ledger.TransactionFilter{
			Kind:   kind,
			Offset: (page - 1) * limit,
			Limit:  limit,
		})
		writeJSON(w, http.StatusOK, transactionsResponse{
			Transactions: txs,
			Pagination: pagination{
				Page:  page,
				Limit: limit,
				Total: total,
				Pages: (total + limit - 1) / limit,
			},
		})
	}
}
