package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"halalinvest/src/model"
	"halalinvest/src/utils"
)

type referralLister interface {
	ListReferred(ctx context.Context, code string) ([]model.User, error)
}

type referralResponse struct {
	ReferralCode           string          `json:"referralCode"`
	ReferralLink           string          `json:"referralLink"`
	TotalReferrals         int             `json:"totalReferrals"`
	ActiveInvestors        int             `json:"activeInvestors"`
	TotalInvested          decimal.Decimal `json:"totalInvested"`
	FormattedTotalInvested string          `json:"formattedTotalInvested"`
}

// ReferralHandler reports who signed up with the caller's referral code.
// An active investor is a referred user holding at least one position, and
// total invested is the cost basis of those positions. Nothing is paid out.
func ReferralHandler(users referralLister, ledgers ledgerOpener) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _, ok := openUserLedger(w, r, ledgers)
		if !ok {
			return
		}

		referred, err := users.ListReferred(r.Context(), user.ReferralCode)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Internal server error", "")
			return
		}

		resp := referralResponse{
			ReferralCode:   user.ReferralCode,
			ReferralLink:   referralLink(r, user.ReferralCode),
			TotalReferrals: len(referred),
			TotalInvested:  decimal.Zero,
		}
		for _, u := range referred {
			l, err := ledgers.Open(r.Context(), u.ID)
			if err != nil {
				logger.WithError(err).WithFields(map[string]interface{}{
					"user_id":     user.ID,
					"referred_id": u.ID,
				}).Error("failed to open ledger of referred user")
				writeError(w, http.StatusInternalServerError, "Internal server error", "")
				return
			}
			summary := l.Summarize(0)
			if summary.PositionCount == 0 {
				continue
			}
			resp.ActiveInvestors++
			resp.TotalInvested = resp.TotalInvested.Add(summary.CostBasis)
		}
		resp.FormattedTotalInvested = utils.FormatUSD(resp.TotalInvested)

		writeJSON(w, http.StatusOK, resp)
	}
}

// referralLink points at the registration page of the host that served r.
func referralLink(r *http.Request, code string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}
	return fmt.Sprintf("%s://%s/register?ref=%s", scheme, r.Host, url.QueryEscape(code))
}
