package account

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"halalinvest/src/ledger"
)

// Store loads and saves ledger snapshots. Load returns (nil, nil) when
// the account has never been saved.
type Store interface {
	ledger.Sink
	Load(ctx context.Context, accountID uint) (*ledger.Snapshot, error)
}

// Registry keeps one live ledger per account and is the only place
// ledgers are created. It is safe for concurrent use.
type Registry struct {
	mu             sync.RWMutex
	ledgers        map[uint]*ledger.Ledger
	instruments    ledger.InstrumentSource
	store          Store
	openingBalance decimal.Decimal
}

type Option func(*Registry)

// WithOpeningBalance overrides the configured balance of new accounts.
func WithOpeningBalance(balance decimal.Decimal) Option {
	return func(r *Registry) { r.openingBalance = balance }
}

func NewRegistry(instruments ledger.InstrumentSource, store Store, opts ...Option) *Registry {
	r := &Registry{
		ledgers:        make(map[uint]*ledger.Ledger),
		instruments:    instruments,
		store:          store,
		openingBalance: GetConfig().OpeningBalance,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open returns the ledger of accountID, restoring it from the store or
// creating it with the opening balance on first use.
func (r *Registry) Open(ctx context.Context, accountID uint) (*ledger.Ledger, error) {
	if l, ok := r.Get(accountID); ok {
		return l, nil
	}

	snapshot, err := r.store.Load(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("load account %d: %w", accountID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.ledgers[accountID]; ok {
		return l, nil
	}

	var l *ledger.Ledger
	if snapshot != nil {
		l = ledger.Restore(*snapshot, r.instruments, ledger.WithSink(r.store))
		l.Revalue()
		logger.WithFields(map[string]interface{}{
			"component":  "account",
			"account_id": accountID,
			"version":    snapshot.Version,
		}).Debug("Restored ledger from snapshot")
	} else {
		l = ledger.New(accountID, r.openingBalance, r.instruments, ledger.WithSink(r.store))
		if err := r.store.Save(ctx, l.Snapshot()); err != nil {
			logger.WithFields(map[string]interface{}{
				"component":  "account",
				"account_id": accountID,
			}).WithError(err).Warn("Failed to persist new account")
		}
		logger.WithFields(map[string]interface{}{
			"component":  "account",
			"account_id": accountID,
			"balance":    r.openingBalance.String(),
		}).Info("Opened new account with welcome bonus")
	}
	r.ledgers[accountID] = l
	return l, nil
}

// Get returns an already open ledger.
func (r *Registry) Get(accountID uint) (*ledger.Ledger, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.ledgers[accountID]
	return l, ok
}

// RevalueAll revalues every open ledger and returns the number of
// positions updated.
func (r *Registry) RevalueAll() int {
	r.mu.RLock()
	ledgers := make([]*ledger.Ledger, 0, len(r.ledgers))
	for _, l := range r.ledgers {
		ledgers = append(ledgers, l)
	}
	r.mu.RUnlock()

	updated := 0
	for _, l := range ledgers {
		updated += l.Revalue()
	}
	return updated
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ledgers)
}
