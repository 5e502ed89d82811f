package trade

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"halalinvest/src/client"
)

func newTrade(t *testing.T, routes map[string]string) (*Trade, *bytes.Buffer, *[]map[string]interface{}) {
	t.Helper()
	var orders []map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/api/login" {
			_, _ = w.Write([]byte(`{"user":{"id":1},"token":"tok"}`))
			return
		}
		if r.URL.Path == "/api/orders" {
			var body map[string]interface{}
			_ = json.NewDecoder(r.Body).Decode(&body)
			orders = append(orders, body)
		}
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"not found"}`))
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	c := client.NewClient(srv.URL)
	_, err := c.Login(context.Background(), "demo@musliminvest.com", "password123")
	require.NoError(t, err)

	var out bytes.Buffer
	return &Trade{Client: c, Out: &out}, &out, &orders
}

func TestTradeBalance(t *testing.T) {
	tr, out, _ := newTrade(t, map[string]string{"/api/balance": `{"balance":"2450.5"}`})
	require.NoError(t, tr.Run(context.Background(), []string{"balance"}))
	assert.Equal(t, "Balance: $2,450.50\n", out.String())
}

func TestTradePositions(t *testing.T) {
	tr, out, _ := newTrade(t, map[string]string{
		"/api/positions": `[{"symbol":"AAPL","quantity":"10","averageCost":"150","currentPrice":"175.43","marketValue":"1754.3","unrealizedGain":"254.3","unrealizedGainPercent":"16.9533"}]`,
	})
	require.NoError(t, tr.Run(context.Background(), []string{"positions"}))
	assert.Contains(t, out.String(), "AAPL")
	assert.Contains(t, out.String(), "+$254.30 (16.95%)")
}

func TestTradeOrder(t *testing.T) {
	tr, out, orders := newTrade(t, map[string]string{
		"/api/orders": `{"transaction":{"id":"x","type":"buy","symbol":"AAPL","quantity":"2","price":"100","total":"200"},"balance":"800"}`,
	})
	require.NoError(t, tr.Run(context.Background(), []string{"buy", "aapl", "2", "100"}))

	require.Len(t, *orders, 1)
	assert.Equal(t, "buy", (*orders)[0]["side"])
	assert.Equal(t, "AAPL", (*orders)[0]["symbol"])
	assert.Equal(t, "BUY 2 AAPL @ $100.00 = $200.00, balance $800.00\n", out.String())
}

func TestTradeUsageErrors(t *testing.T) {
	tr, _, orders := newTrade(t, nil)

	assert.ErrorIs(t, tr.Run(context.Background(), nil), ErrUsage)
	assert.ErrorIs(t, tr.Run(context.Background(), []string{"short", "AAPL", "1"}), ErrUsage)
	assert.ErrorIs(t, tr.Run(context.Background(), []string{"buy", "AAPL"}), ErrUsage)
	assert.Error(t, tr.Run(context.Background(), []string{"sell", "AAPL", "lots"}))
	assert.Error(t, tr.Run(context.Background(), []string{"history", "0"}))
	assert.Empty(t, *orders)
}

func TestTradeSurfacesAPIErrors(t *testing.T) {
	tr, _, _ := newTrade(t, nil)
	err := tr.Run(context.Background(), []string{"history"})

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}
