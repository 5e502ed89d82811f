package client

// REST client for the halalinvest API. Used by the command line tools.

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"halalinvest/src/model"
)

const (
	defaultRetryAttempts   = 3
	defaultRetryBaseDelay  = 300 * time.Millisecond
	defaultRetryMaxBackoff = 3 * time.Second
)

var ErrNotLoggedIn = errors.New("client is not logged in")

// APIError is a non 2xx answer from the server.
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
	Reason  string `json:"reason,omitempty"`
}

func (e *APIError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Reason, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// isRetryableResp retries transport failures and 408/429/5xx answers, but
// only for GET requests so an order is never submitted twice.
func isRetryableResp(r *resty.Response, err error) bool {
	if r == nil || r.Request == nil || r.Request.Method != http.MethodGet {
		return false
	}
	if err != nil {
		return true
	}

	code := r.StatusCode()
	if code >= 500 && code <= 599 {
		return true
	}
	return code == http.StatusTooManyRequests || code == http.StatusRequestTimeout
}

type Client struct {
	baseURL string
	token   string
	http    *resty.Client
}

func NewClient(baseURL string) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = GetConfig().BaseURL
		logger.Warnf("No base URL provided, using default: %s", baseURL)
	}
	baseURL = strings.TrimRight(baseURL, "/")

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetHeader("Accept", "application/json").
		SetRetryCount(defaultRetryAttempts - 1).
		SetRetryWaitTime(defaultRetryBaseDelay).
		SetRetryMaxWaitTime(defaultRetryMaxBackoff).
		AddRetryCondition(isRetryableResp)

	return &Client{baseURL: baseURL, http: httpClient}
}

func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.http.R().SetContext(ctx).SetError(&APIError{})
	if c.token != "" {
		req.SetAuthToken(c.token)
	}
	return req
}

func checkResponse(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if resp.IsSuccess() {
		return nil
	}
	if apiErr, ok := resp.Error().(*APIError); ok && apiErr != nil && apiErr.Message != "" {
		apiErr.Status = resp.StatusCode()
		return apiErr
	}
	return &APIError{Status: resp.StatusCode(), Message: strings.TrimSpace(resp.String())}
}

type loginResponse struct {
	User      model.UserResponse `json:"user"`
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expiresAt"`
}

// Login exchanges credentials for a token used by every later call.
func (c *Client) Login(ctx context.Context, email, password string) (*model.UserResponse, error) {
	var out loginResponse
	resp, err := c.request(ctx).
		SetBody(model.LoginPayload{Email: email, Password: password}).
		SetResult(&out).
		Post("/api/login")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	c.token = out.Token
	return &out.User, nil
}

func (c *Client) authed(ctx context.Context) (*resty.Request, error) {
	if c.token == "" {
		return nil, ErrNotLoggedIn
	}
	return c.request(ctx), nil
}

func (c *Client) Instruments(ctx context.Context) ([]model.Instrument, error) {
	var out []model.Instrument
	resp, err := c.request(ctx).SetResult(&out).Get("/api/instruments")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Balance(ctx context.Context) (decimal.Decimal, error) {
	req, err := c.authed(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	var out struct {
		Balance decimal.Decimal `json:"balance"`
	}
	resp, err := req.SetResult(&out).Get("/api/balance")
	if err := checkResponse(resp, err); err != nil {
		return decimal.Zero, err
	}
	return out.Balance, nil
}

func (c *Client) Positions(ctx context.Context) ([]model.Position, error) {
	req, err := c.authed(ctx)
	if err != nil {
		return nil, err
	}
	var out []model.Position
	resp, err := req.SetResult(&out).Get("/api/positions")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return out, nil
}

// Order is a buy or sell instruction. A nil Price fills at the current
// catalog price.
type Order struct {
	Side     model.TransactionKind `json:"side"`
	Symbol   string                `json:"symbol"`
	Quantity decimal.Decimal       `json:"quantity"`
	Price    *decimal.Decimal      `json:"price,omitempty"`
}

type OrderResult struct {
	Transaction model.Transaction `json:"transaction"`
	Balance     decimal.Decimal   `json:"balance"`
}

func (c *Client) PlaceOrder(ctx context.Context, order Order) (*OrderResult, error) {
	req, err := c.authed(ctx)
	if err != nil {
		return nil, err
	}
	var out OrderResult
	resp, err := req.SetBody(order).SetResult(&out).Post("/api/orders")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

type TransactionPage struct {
	Transactions []model.Transaction `json:"transactions"`
	Pagination   struct {
		Page  int `json:"page"`
		Limit int `json:"limit"`
		Total int `json:"total"`
		Pages int `json:"pages"`
	} `json:"pagination"`
}

// Transactions fetches one page of history. kind may be empty, buy or sell.
func (c *Client) Transactions(ctx context.Context, page, limit int, kind string) (*TransactionPage, error) {
	req, err := c.authed(ctx)
	if err != nil {
		return nil, err
	}
	params := map[string]string{
		"page":  strconv.Itoa(page),
		"limit": strconv.Itoa(limit),
	}
	if kind != "" {
		params["type"] = kind
	}
	var out TransactionPage
	resp, err := req.SetQueryParams(params).SetResult(&out).Get("/api/transactions")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}
