package deposit

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"halalinvest/src/account"
	"halalinvest/src/catalog"
	"halalinvest/src/model"
	"halalinvest/src/repository"
	"halalinvest/src/store"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type memoryRepo struct {
	mu   sync.Mutex
	reqs map[string]model.DepositRequest
}

func newMemoryRepo() *memoryRepo { return &memoryRepo{reqs: make(map[string]model.DepositRequest)} }

func (m *memoryRepo) Create(_ context.Context, req *model.DepositRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reqs[req.ID] = *req
	return nil
}

func (m *memoryRepo) FindByID(_ context.Context, id string) (*model.DepositRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.reqs[id]
	if !ok {
		return nil, nil
	}
	return &req, nil
}

func (m *memoryRepo) Search(_ context.Context, options repository.DepositRequestSearchOptions) ([]model.DepositRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.DepositRequest
	for _, req := range m.reqs {
		if options.AccountID != 0 && req.AccountID != options.AccountID {
			continue
		}
		if options.Kind != "" && req.Kind != options.Kind {
			continue
		}
		if options.Status != "" && req.Status != options.Status {
			continue
		}
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryRepo) Transition(_ context.Context, id string, from, to model.RequestStatus, note string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.reqs[id]
	if !ok || req.Status != from {
		return repository.ErrStatusConflict
	}
	req.Status = to
	req.Note = note
	req.ResolvedAt = &at
	m.reqs[id] = req
	return nil
}

func newTestService(t *testing.T) (*Service, *account.Registry) {
	t.Helper()
	t.Setenv("DEPOSIT_MIN_AMOUNT", "10")
	t.Setenv("DEPOSIT_VERIFICATION_WINDOW", "24h")
	registry := account.NewRegistry(catalog.New(catalog.Default()), store.NewMemory(), account.WithOpeningBalance(d("100")))
	return NewService(newMemoryRepo(), registry), registry
}

func TestSubmitDeposit(t *testing.T) {
	oldNow := now
	fixed := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	now = func() time.Time { return fixed }
	t.Cleanup(func() { now = oldNow })

	s, registry := newTestService(t)
	ctx := context.Background()

	req, err := s.Submit(ctx, 1, SubmitRequest{
		Kind:           model.RequestDeposit,
		Amount:         d("50"),
		Method:         "Manual",
		Coin:           "BTC",
		ProofReference: "receipt-123.png",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RequestPending, req.Status)
	assert.Equal(t, model.DepositMethodManual, req.Method)
	assert.Equal(t, model.CoinBTC, req.Coin)
	assert.Equal(t, fixed.Add(24*time.Hour), req.VerifyBy)
	assert.NotEmpty(t, req.ID)

	_, opened := registry.Get(1)
	assert.False(t, opened, "deposits never touch the ledger")
}

func TestSubmitValidation(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   SubmitRequest
		want error
	}{
		{"below minimum", SubmitRequest{Kind: model.RequestDeposit, Amount: d("9.99"), Method: "automatic"}, ErrAmountTooSmall},
		{"missing amount", SubmitRequest{Kind: model.RequestDeposit, Method: "automatic"}, ErrAmountTooSmall},
		{"bad kind", SubmitRequest{Kind: "transfer", Amount: d("10"), Method: "automatic"}, ErrInvalidKind},
		{"bad method", SubmitRequest{Kind: model.RequestDeposit, Amount: d("10"), Method: "wire"}, ErrInvalidMethod},
		{"bad coin", SubmitRequest{Kind: model.RequestDeposit, Amount: d("10"), Method: "automatic", Coin: "doge"}, ErrInvalidCoin},
		{"manual without proof", SubmitRequest{Kind: model.RequestDeposit, Amount: d("10"), Method: "manual"}, ErrProofRequired},
		{"withdraw above balance", SubmitRequest{Kind: model.RequestWithdrawal, Amount: d("100.01"), Method: "automatic"}, ErrExceedsBalance},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Submit(ctx, 1, tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestSubmitWithdrawalKeepsBalance(t *testing.T) {
	s, registry := newTestService(t)
	ctx := context.Background()

	req, err := s.Submit(ctx, 1, SubmitRequest{Kind: model.RequestWithdrawal, Amount: d("100"), Method: "automatic", Coin: "usdttrc20"})
	require.NoError(t, err)
	assert.Equal(t, model.RequestWithdrawal, req.Kind)

	l, ok := registry.Get(1)
	require.True(t, ok)
	assert.True(t, d("100").Equal(l.Balance()))

	_, err = s.Complete(ctx, req.ID, "paid out")
	require.NoError(t, err)
	assert.True(t, d("100").Equal(l.Balance()), "completing a request does not move cash")
}

func TestLifecycle(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	submit := func() *model.DepositRequest {
		req, err := s.Submit(ctx, 1, SubmitRequest{Kind: model.RequestDeposit, Amount: d("25"), Method: "automatic"})
		require.NoError(t, err)
		return req
	}

	t.Run("complete", func(t *testing.T) {
		req := submit()
		done, err := s.Complete(ctx, req.ID, "")
		require.NoError(t, err)
		assert.Equal(t, model.RequestCompleted, done.Status)
		require.NotNil(t, done.ResolvedAt)

		_, err = s.Reject(ctx, req.ID, "too late")
		assert.ErrorIs(t, err, ErrInvalidTransition)
		_, err = s.Complete(ctx, req.ID, "")
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("reject", func(t *testing.T) {
		req := submit()
		rejected, err := s.Reject(ctx, req.ID, "proof unreadable")
		require.NoError(t, err)
		assert.Equal(t, model.RequestRejected, rejected.Status)
		assert.Equal(t, "proof unreadable", rejected.Note)

		_, err = s.Complete(ctx, req.ID, "")
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := s.Complete(ctx, "missing", "")
		assert.ErrorIs(t, err, ErrRequestNotFound)
	})
}

func TestListAndPending(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	first, err := s.Submit(ctx, 1, SubmitRequest{Kind: model.RequestDeposit, Amount: d("10"), Method: "automatic"})
	require.NoError(t, err)
	_, err = s.Submit(ctx, 2, SubmitRequest{Kind: model.RequestDeposit, Amount: d("10"), Method: "automatic"})
	require.NoError(t, err)
	_, err = s.Reject(ctx, first.ID, "")
	require.NoError(t, err)

	mine, err := s.List(ctx, 1, "", 0, 0)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, model.RequestRejected, mine[0].Status)

	pending, err := s.Pending(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, uint(2), pending[0].AccountID)
}
