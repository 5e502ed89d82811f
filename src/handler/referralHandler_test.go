package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"halalinvest/src/model"
)

func TestRegisterHandler_RecordsReferral(t *testing.T) {
	users := newFakeUsers()
	registry, _ := newTestRegistry("10")
	inviter := seedUser(t, users, "inviter@example.com", "password123", true)

	req := jsonRequest(t, http.MethodPost, "/api/register", model.RegisterPayload{
		FullName: "Fatima Ali",
		Email:    "fatima@example.com",
		UserName: "fatima",
		Password: "password123",
		Ref:      " " + inviter.ReferralCode + " ",
	})
	rr := httptest.NewRecorder()
	RegisterHandler(users, registry).ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp authResponse
	decodeBody(t, rr, &resp)
	assert.Equal(t, inviter.ReferralCode, resp.User.ReferredBy)
	assert.NotEmpty(t, resp.User.ReferralCode)
	assert.NotEqual(t, inviter.ReferralCode, resp.User.ReferralCode)
}

func TestReferralHandler(t *testing.T) {
	ctx := context.Background()
	users := newFakeUsers()
	registry, _ := newTestRegistry("2000")
	inviter := seedUser(t, users, "inviter@example.com", "password123", true)

	investor := &model.User{FullName: "Investor", Email: "investor@example.com", UserName: "investor", ReferredBy: inviter.ReferralCode, IsActive: true}
	require.NoError(t, users.Create(ctx, investor))
	idle := &model.User{FullName: "Idle", Email: "idle@example.com", UserName: "idle", ReferredBy: inviter.ReferralCode, IsActive: true}
	require.NoError(t, users.Create(ctx, idle))
	stranger := &model.User{FullName: "Stranger", Email: "stranger@example.com", UserName: "stranger", IsActive: true}
	require.NoError(t, users.Create(ctx, stranger))

	for _, u := range []*model.User{investor, stranger} {
		l, err := registry.Open(ctx, u.ID)
		require.NoError(t, err)
		_, err = l.Buy(ctx, "AAPL", d("2"), d("150"))
		require.NoError(t, err)
	}
	investorLedger, _ := registry.Get(investor.ID)
	_, err := investorLedger.Buy(ctx, "GOLD", d("0.5"), d("2000"))
	require.NoError(t, err)

	req := asUser(httptest.NewRequest(http.MethodGet, "http://invest.example.com/api/referral", nil), inviter)
	req.Header.Set("X-Forwarded-Proto", "https")
	rr := httptest.NewRecorder()
	ReferralHandler(users, registry).ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp referralResponse
	decodeBody(t, rr, &resp)
	assert.Equal(t, inviter.ReferralCode, resp.ReferralCode)
	assert.Equal(t, "https://invest.example.com/register?ref="+inviter.ReferralCode, resp.ReferralLink)
	assert.Equal(t, 2, resp.TotalReferrals)
	assert.Equal(t, 1, resp.ActiveInvestors)
	assert.Equal(t, "1300", resp.TotalInvested.String())
	assert.Equal(t, "$1,300.00", resp.FormattedTotalInvested)

	l, ok := registry.Get(inviter.ID)
	require.True(t, ok)
	assert.Equal(t, "2000", l.Balance().String(), "referral stats never move cash")
}

func TestReferralHandler_StoreError(t *testing.T) {
	users := newFakeUsers()
	registry, _ := newTestRegistry("10")
	inviter := seedUser(t, users, "inviter@example.com", "password123", true)
	users.err = errors.New("db down")

	rr := httptest.NewRecorder()
	ReferralHandler(users, registry).ServeHTTP(rr, asUser(httptest.NewRequest(http.MethodGet, "/api/referral", nil), inviter))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
