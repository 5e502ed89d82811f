package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"halalinvest/src/account"
	"halalinvest/src/catalog"
	"halalinvest/src/database"
	"halalinvest/src/deposit"
	"halalinvest/src/model"
	"halalinvest/src/repository"
	"halalinvest/src/store"
	"halalinvest/src/stream"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	config := database.Config{
		Driver:          "sqlite",
		DatabaseURLMain: ":memory:",
		GormLogLevel:    1,
		MaxOpenConns:    1,
		MaxIdleConns:    1,
	}
	db, err := database.Open(config)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, config))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func newTestApp(t *testing.T, db *gorm.DB) *App {
	t.Helper()
	c := catalog.New(catalog.Default())
	accounts := account.NewRegistry(c, repository.NewAccountRepository().WithDB(db),
		account.WithOpeningBalance(decimal.NewFromInt(1000)))
	return &App{
		Catalog:    c,
		Accounts:   accounts,
		Users:      repository.NewUserRepository().WithDB(db),
		Deposits:   deposit.NewService(repository.NewDepositRequestRepository().WithDB(db), accounts),
		Exceptions: repository.NewExceptionRepository().WithDB(db),
		Hub:        stream.NewHub(),
	}
}

type apiClient struct {
	t     *testing.T
	base  string
	token string
}

func (c *apiClient) do(method, path string, body interface{}, out interface{}) int {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, c.base+path, reader)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func register(t *testing.T, c *apiClient, email string) model.UserResponse {
	t.Helper()
	var resp struct {
		User  model.UserResponse `json:"user"`
		Token string             `json:"token"`
	}
	status := c.do(http.MethodPost, "/api/register", map[string]string{
		"fullName": "Test " + email,
		"email":    email,
		"username": email,
		"password": "password123",
	}, &resp)
	require.Equal(t, http.StatusCreated, status)
	c.token = resp.Token
	return resp.User
}

func TestHealthcheck(t *testing.T) {
	app := newTestApp(t, newTestDB(t))
	srv := httptest.NewServer(NewRouter(app, []string{"*"}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthcheck")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
}

func TestReferralFlow(t *testing.T) {
	srv := httptest.NewServer(NewRouter(newTestApp(t, newTestDB(t)), []string{"*"}))
	defer srv.Close()

	inviter := &apiClient{t: t, base: srv.URL}
	inviterUser := register(t, inviter, "inviter@example.com")
	require.NotEmpty(t, inviterUser.ReferralCode)

	invitee := &apiClient{t: t, base: srv.URL}
	var created struct {
		User  model.UserResponse `json:"user"`
		Token string             `json:"token"`
	}
	require.Equal(t, http.StatusCreated, invitee.do(http.MethodPost, "/api/register", map[string]string{
		"fullName": "Invitee",
		"email":    "invitee@example.com",
		"username": "invitee",
		"password": "password123",
		"ref":      strings.ToLower(inviterUser.ReferralCode),
	}, &created))
	assert.Equal(t, inviterUser.ReferralCode, created.User.ReferredBy)
	invitee.token = created.Token
	require.Equal(t, http.StatusCreated, invitee.do(http.MethodPost, "/api/orders",
		map[string]string{"side": "buy", "symbol": "AAPL", "quantity": "1", "price": "100"}, nil))

	var stats struct {
		ReferralCode    string `json:"referralCode"`
		ReferralLink    string `json:"referralLink"`
		TotalReferrals  int    `json:"totalReferrals"`
		ActiveInvestors int    `json:"activeInvestors"`
		TotalInvested   string `json:"totalInvested"`
	}
	require.Equal(t, http.StatusOK, inviter.do(http.MethodGet, "/api/referral", nil, &stats))
	assert.Equal(t, inviterUser.ReferralCode, stats.ReferralCode)
	assert.True(t, strings.HasSuffix(stats.ReferralLink, "/register?ref="+inviterUser.ReferralCode), stats.ReferralLink)
	assert.Equal(t, 1, stats.TotalReferrals)
	assert.Equal(t, 1, stats.ActiveInvestors)
	assert.Equal(t, "100", stats.TotalInvested)

	anonymous := &apiClient{t: t, base: srv.URL}
	assert.Equal(t, http.StatusUnauthorized, anonymous.do(http.MethodGet, "/api/referral", nil, nil))
}

func TestTradingFlowSurvivesRestart(t *testing.T) {
	db := newTestDB(t)
	srv := httptest.NewServer(NewRouter(newTestApp(t, db), []string{"*"}))
	defer srv.Close()

	client := &apiClient{t: t, base: srv.URL}
	assert.Equal(t, http.StatusUnauthorized, client.do(http.MethodGet, "/api/balance", nil, nil))

	user := register(t, client, "trader@example.com")

	var balance struct {
		Balance decimal.Decimal `json:"balance"`
	}
	require.Equal(t, http.StatusOK, client.do(http.MethodGet, "/api/balance", nil, &balance))
	assert.True(t, balance.Balance.Equal(decimal.NewFromInt(1000)))

	status := client.do(http.MethodPost, "/api/orders", map[string]string{
		"side": "buy", "symbol": "AAPL", "quantity": "3", "price": "100",
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	status = client.do(http.MethodPost, "/api/orders", map[string]string{
		"side": "sell", "symbol": "AAPL", "quantity": "5", "price": "100",
	}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	// A fresh application over the same database sees the committed state.
	restarted := httptest.NewServer(NewRouter(newTestApp(t, db), []string{"*"}))
	defer restarted.Close()
	client.base = restarted.URL

	require.Equal(t, http.StatusOK, client.do(http.MethodGet, "/api/balance", nil, &balance))
	assert.True(t, balance.Balance.Equal(decimal.NewFromInt(700)), "balance %s", balance.Balance)

	var positions []model.Position
	require.Equal(t, http.StatusOK, client.do(http.MethodGet, "/api/positions", nil, &positions))
	require.Len(t, positions, 1)
	assert.Equal(t, "AAPL", positions[0].Symbol)
	assert.True(t, positions[0].Quantity.Equal(decimal.NewFromInt(3)))

	var history struct {
		Transactions []model.Transaction `json:"transactions"`
	}
	require.Equal(t, http.StatusOK, client.do(http.MethodGet, "/api/transactions", nil, &history))
	require.Len(t, history.Transactions, 1)
	assert.Equal(t, model.TransactionBuy, history.Transactions[0].Kind)

	var profile struct {
		User model.UserResponse `json:"user"`
	}
	require.Equal(t, http.StatusOK, client.do(http.MethodGet, "/api/profile", nil, &profile))
	assert.Equal(t, user.ID, profile.User.ID)
}

func TestDepositWorkflowRequiresAdmin(t *testing.T) {
	db := newTestDB(t)
	srv := httptest.NewServer(NewRouter(newTestApp(t, db), []string{"*"}))
	defer srv.Close()

	client := &apiClient{t: t, base: srv.URL}
	register(t, client, "saver@example.com")

	var created struct {
		Request model.DepositRequest `json:"request"`
	}
	status := client.do(http.MethodPost, "/api/deposits", map[string]string{
		"amount": "25", "method": "manual", "coin": "btc", "proofReference": "tx-123",
	}, &created)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, model.RequestPending, created.Request.Status)

	path := "/api/deposits/" + created.Request.ID + "/complete"
	assert.Equal(t, http.StatusForbidden, client.do(http.MethodPost, path, nil, nil))

	admin := &apiClient{t: t, base: srv.URL}
	adminUser := register(t, admin, "admin@example.com")
	require.NoError(t, db.Model(&model.User{}).Where("id = ?", adminUser.ID).Update("is_admin", true).Error)

	assert.Equal(t, http.StatusOK, admin.do(http.MethodPost, path, map[string]string{"note": "ok"}, nil))
	assert.Equal(t, http.StatusConflict, admin.do(http.MethodPost, path, nil, nil))

	var exceptions []model.Exception
	require.Equal(t, http.StatusOK, admin.do(http.MethodGet, "/api/exceptions", nil, &exceptions))
	assert.Empty(t, exceptions)
	assert.Equal(t, http.StatusForbidden, client.do(http.MethodGet, "/api/exceptions", nil, nil))

	// Resolving a deposit never moves cash.
	var balance struct {
		Balance decimal.Decimal `json:"balance"`
	}
	require.Equal(t, http.StatusOK, client.do(http.MethodGet, "/api/balance", nil, &balance))
	assert.True(t, balance.Balance.Equal(decimal.NewFromInt(1000)))
}

func TestPricesWebsocket(t *testing.T) {
	app := newTestApp(t, newTestDB(t))
	srv := httptest.NewServer(NewRouter(app, []string{"*"}))
	defer srv.Close()
	defer app.Hub.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/prices"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return app.Hub.Clients() == 1 }, time.Second, 10*time.Millisecond)
	app.Hub.Publish([]model.Quote{app.Catalog.List()[0].Quote()})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg stream.PriceMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "prices", msg.Type)
	require.Len(t, msg.Quotes, 1)
	assert.Equal(t, "AAPL", msg.Quotes[0].Symbol)
}

func TestNewSnapshotStore(t *testing.T) {
	s, release, err := NewSnapshotStore(context.Background(), "memory")
	require.NoError(t, err)
	defer release()
	_, ok := s.(*store.Memory)
	assert.True(t, ok)

	s, _, err = NewSnapshotStore(context.Background(), "db")
	require.NoError(t, err)
	_, ok = s.(*store.Audited)
	assert.True(t, ok)

	_, _, err = NewSnapshotStore(context.Background(), "etcd")
	assert.Error(t, err)
}

func TestGetConfigDefaults(t *testing.T) {
	config := GetConfig()
	assert.Equal(t, "3000", config.Port)
	assert.Equal(t, 5*time.Second, config.ShutdownTimeout)
	assert.Equal(t, []string{"*"}, config.AllowedOrigins)
}
