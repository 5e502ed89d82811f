package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"halalinvest/src/model"
	"halalinvest/src/utils"
)

// InstrumentSource resolves a symbol to its current catalog entry.
type InstrumentSource interface {
	Lookup(symbol string) (model.Instrument, bool)
}

// Sink receives a full copy of the ledger after every committed order.
type Sink interface {
	Save(ctx context.Context, snapshot Snapshot) error
}

// Snapshot is a point-in-time copy of one account's ledger state.
type Snapshot struct {
	AccountID    uint                `json:"accountId"`
	Version      uint64              `json:"version"`
	Balance      decimal.Decimal     `json:"balance"`
	Positions    []model.Position    `json:"positions"`
	Transactions []model.Transaction `json:"transactions"`
	TakenAt      time.Time           `json:"takenAt"`
}

var (
	now              = time.Now
	newTransactionID = func() string { return uuid.Must(uuid.NewV7()).String() }
)

// Ledger owns the cash balance, the open positions and the transaction
// log of one account. Buy and Sell are the only operations that change
// the balance or the log. All methods are safe for concurrent use.
type Ledger struct {
	mu           sync.Mutex
	accountID    uint
	instruments  InstrumentSource
	balance      decimal.Decimal
	positions    map[string]*model.Position
	transactions []model.Transaction // most recent first
	version      uint64

	sink          Sink
	persistMu     sync.Mutex
	lastPersisted uint64
}

type Option func(*Ledger)

// WithSink makes the ledger hand a snapshot to sink after each commit.
func WithSink(sink Sink) Option {
	return func(l *Ledger) { l.sink = sink }
}

// New creates an empty ledger holding only the opening balance.
func New(accountID uint, openingBalance decimal.Decimal, instruments InstrumentSource, opts ...Option) *Ledger {
	l := &Ledger{
		accountID:   accountID,
		instruments: instruments,
		balance:     openingBalance,
		positions:   make(map[string]*model.Position),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Restore rebuilds a ledger from a stored snapshot. Transactions are
// re-sorted newest first and zero quantity positions are dropped.
func Restore(s Snapshot, instruments InstrumentSource, opts ...Option) *Ledger {
	l := New(s.AccountID, s.Balance, instruments, opts...)
	l.version = s.Version
	l.lastPersisted = s.Version
	for i := range s.Positions {
		p := s.Positions[i]
		if !p.Quantity.IsPositive() {
			continue
		}
		p.AccountID = s.AccountID
		l.positions[p.Symbol] = &p
	}
	l.transactions = make([]model.Transaction, len(s.Transactions))
	for i, tx := range s.Transactions {
		tx.AccountID = s.AccountID
		l.transactions[i] = tx
	}
	sort.SliceStable(l.transactions, func(i, j int) bool {
		return l.transactions[i].Timestamp.After(l.transactions[j].Timestamp)
	})
	return l
}

func (l *Ledger) AccountID() uint { return l.accountID }

// Fill is a committed order together with the cash balance it left behind.
type Fill struct {
	Transaction model.Transaction `json:"transaction"`
	Balance     decimal.Decimal   `json:"balance"`
}

// Execute places a buy or a sell. The returned balance is the one right
// after this order, even if other orders commit before Execute returns.
func (l *Ledger) Execute(ctx context.Context, kind model.TransactionKind, symbol string, quantity, price decimal.Decimal) (Fill, error) {
	var (
		op    string
		apply func(string, decimal.Decimal, decimal.Decimal) (model.Transaction, error)
	)
	switch kind {
	case model.TransactionBuy:
		op, apply = "Buy", l.buyLocked
	case model.TransactionSell:
		op, apply = "Sell", l.sellLocked
	default:
		return Fill{}, fmt.Errorf("%w: %q", ErrInvalidSide, kind)
	}

	l.mu.Lock()
	tx, err := apply(symbol, quantity, price)
	if err != nil {
		l.mu.Unlock()
		l.logRejection(op, symbol, quantity, price, err)
		return Fill{}, err
	}
	snapshot := l.snapshotLocked()
	l.mu.Unlock()

	l.persist(ctx, snapshot)
	return Fill{Transaction: tx, Balance: snapshot.Balance}, nil
}

// Buy debits quantity*price from the balance and adds quantity to the
// position in symbol, creating it if needed. The new average cost is the
// quantity weighted mean of the old cost and price.
func (l *Ledger) Buy(ctx context.Context, symbol string, quantity, price decimal.Decimal) (model.Transaction, error) {
	fill, err := l.Execute(ctx, model.TransactionBuy, symbol, quantity, price)
	return fill.Transaction, err
}

func (l *Ledger) buyLocked(symbol string, quantity, price decimal.Decimal) (model.Transaction, error) {
	if !quantity.IsPositive() {
		return model.Transaction{}, fmt.Errorf("%w: got %s", ErrInvalidQuantity, quantity)
	}
	if !price.IsPositive() {
		return model.Transaction{}, fmt.Errorf("%w: got %s", ErrInvalidPrice, price)
	}
	inst, ok := l.instruments.Lookup(symbol)
	if !ok {
		return model.Transaction{}, fmt.Errorf("%w: %s", ErrUnknownInstrument, symbol)
	}
	total := quantity.Mul(price)
	if total.GreaterThan(l.balance) {
		return model.Transaction{}, fmt.Errorf("%w: cost %s exceeds balance %s",
			ErrInsufficientFunds, utils.FormatUSD(total), utils.FormatUSD(l.balance))
	}

	ts := now()
	l.balance = l.balance.Sub(total)

	pos, exists := l.positions[symbol]
	if !exists {
		pos = &model.Position{
			AccountID:   l.accountID,
			Symbol:      symbol,
			Name:        inst.Name,
			Quantity:    quantity,
			AverageCost: price,
		}
		l.positions[symbol] = pos
	} else {
		newQty := pos.Quantity.Add(quantity)
		pos.AverageCost = pos.AverageCost.Mul(pos.Quantity).Add(total).Div(newQty)
		pos.Quantity = newQty
	}
	current := inst.Price
	if !current.IsPositive() {
		current = price
	}
	pos.Revalue(current)
	pos.UpdatedAt = ts

	return l.recordLocked(model.TransactionBuy, inst, quantity, price, total, ts), nil
}

// Sell credits quantity*price to the balance and removes quantity from the
// position in symbol. The position disappears when nothing is left. The
// average cost of what remains is unchanged.
func (l *Ledger) Sell(ctx context.Context, symbol string, quantity, price decimal.Decimal) (model.Transaction, error) {
	fill, err := l.Execute(ctx, model.TransactionSell, symbol, quantity, price)
	return fill.Transaction, err
}

func (l *Ledger) sellLocked(symbol string, quantity, price decimal.Decimal) (model.Transaction, error) {
	if !quantity.IsPositive() {
		return model.Transaction{}, fmt.Errorf("%w: got %s", ErrInvalidQuantity, quantity)
	}
	if !price.IsPositive() {
		return model.Transaction{}, fmt.Errorf("%w: got %s", ErrInvalidPrice, price)
	}
	inst, ok := l.instruments.Lookup(symbol)
	if !ok {
		return model.Transaction{}, fmt.Errorf("%w: %s", ErrUnknownInstrument, symbol)
	}
	pos, exists := l.positions[symbol]
	if !exists {
		return model.Transaction{}, fmt.Errorf("%w: no position in %s", ErrInsufficientHoldings, symbol)
	}
	if pos.Quantity.LessThan(quantity) {
		return model.Transaction{}, fmt.Errorf("%w: holding %s of %s, asked to sell %s",
			ErrInsufficientHoldings, pos.Quantity, symbol, quantity)
	}

	ts := now()
	total := quantity.Mul(price)
	l.balance = l.balance.Add(total)

	remaining := pos.Quantity.Sub(quantity)
	if remaining.IsZero() {
		delete(l.positions, symbol)
	} else {
		pos.Quantity = remaining
		pos.Revalue(price)
		pos.UpdatedAt = ts
	}

	return l.recordLocked(model.TransactionSell, inst, quantity, price, total, ts), nil
}

func (l *Ledger) recordLocked(kind model.TransactionKind, inst model.Instrument, quantity, price, total decimal.Decimal, ts time.Time) model.Transaction {
	tx := model.Transaction{
		ID:        newTransactionID(),
		AccountID: l.accountID,
		Kind:      kind,
		Symbol:    inst.Symbol,
		Name:      inst.Name,
		Quantity:  quantity,
		Price:     price,
		Total:     total,
		Timestamp: ts,
		Status:    model.TransactionStatusCompleted,
	}
	l.transactions = append([]model.Transaction{tx}, l.transactions...)
	l.version++
	return tx
}

// Revalue refreshes the derived fields of every position from the
// instrument source. A position whose instrument is missing or quoted at a
// non-positive price keeps its previous valuation. It returns the number
// of positions updated.
func (l *Ledger) Revalue() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	updated := 0
	for symbol, pos := range l.positions {
		inst, ok := l.instruments.Lookup(symbol)
		if !ok || !inst.Price.IsPositive() {
			continue
		}
		pos.Revalue(inst.Price)
		updated++
	}
	return updated
}

func (l *Ledger) Balance() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance
}

// Positions returns a copy of all open positions sorted by symbol.
func (l *Ledger) Positions() []model.Position {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.positionsLocked()
}

func (l *Ledger) positionsLocked() []model.Position {
	out := make([]model.Position, 0, len(l.positions))
	for _, pos := range l.positions {
		out = append(out, *pos)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Position returns the open position in symbol, if any.
func (l *Ledger) Position(symbol string) (model.Position, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	pos, ok := l.positions[symbol]
	if !ok {
		return model.Position{}, false
	}
	return *pos, true
}

// Instrument exposes the instrument source the ledger trades against.
func (l *Ledger) Instrument(symbol string) (model.Instrument, bool) {
	return l.instruments.Lookup(symbol)
}

// TransactionFilter selects a page of the transaction log.
// An empty Kind matches every transaction; a zero Limit means no limit.
type TransactionFilter struct {
	Kind   model.TransactionKind
	Offset int
	Limit  int
}

// Transactions returns the matching transactions newest first together
// with the total number of matches before paging.
func (l *Ledger) Transactions(filter TransactionFilter) ([]model.Transaction, int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	matched := make([]model.Transaction, 0, len(l.transactions))
	for _, tx := range l.transactions {
		if filter.Kind != "" && tx.Kind != filter.Kind {
			continue
		}
		matched = append(matched, tx)
	}
	total := len(matched)

	start := filter.Offset
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end := total
	if filter.Limit > 0 && start+filter.Limit < end {
		end = start + filter.Limit
	}
	return matched[start:end], total
}

// Summary aggregates the account for the dashboard.
type Summary struct {
	Balance            decimal.Decimal     `json:"balance"`
	MarketValue        decimal.Decimal     `json:"marketValue"`
	CostBasis          decimal.Decimal     `json:"costBasis"`
	UnrealizedGain     decimal.Decimal     `json:"unrealizedGain"`
	TotalValue         decimal.Decimal     `json:"totalValue"`
	PositionCount      int                 `json:"positionCount"`
	RecentTransactions []model.Transaction `json:"recentTransactions"`
}

// Summarize totals the current valuation along with the last recent
// transactions.
func (l *Ledger) Summarize(recent int) Summary {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := Summary{
		Balance:        l.balance,
		MarketValue:    decimal.Zero,
		CostBasis:      decimal.Zero,
		UnrealizedGain: decimal.Zero,
		PositionCount:  len(l.positions),
	}
	for _, pos := range l.positions {
		s.MarketValue = s.MarketValue.Add(pos.MarketValue)
		s.CostBasis = s.CostBasis.Add(pos.AverageCost.Mul(pos.Quantity))
		s.UnrealizedGain = s.UnrealizedGain.Add(pos.UnrealizedGain)
	}
	s.TotalValue = s.Balance.Add(s.MarketValue)

	if recent > len(l.transactions) {
		recent = len(l.transactions)
	}
	if recent > 0 {
		s.RecentTransactions = make([]model.Transaction, recent)
		copy(s.RecentTransactions, l.transactions[:recent])
	}
	return s
}

// Snapshot returns a deep copy of the committed state.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

func (l *Ledger) snapshotLocked() Snapshot {
	txs := make([]model.Transaction, len(l.transactions))
	copy(txs, l.transactions)
	return Snapshot{
		AccountID:    l.accountID,
		Version:      l.version,
		Balance:      l.balance,
		Positions:    l.positionsLocked(),
		Transactions: txs,
		TakenAt:      now(),
	}
}

// persist hands snapshot to the sink unless a newer one was already
// written. Failures are logged and never undo the in-memory commit.
func (l *Ledger) persist(ctx context.Context, snapshot Snapshot) {
	if l.sink == nil {
		return
	}
	l.persistMu.Lock()
	defer l.persistMu.Unlock()

	if snapshot.Version <= l.lastPersisted {
		logger.WithFields(map[string]interface{}{
			"component":  "ledger",
			"account_id": l.accountID,
			"version":    snapshot.Version,
			"persisted":  l.lastPersisted,
		}).Debug("Skipping stale snapshot")
		return
	}
	// The request that triggered the commit may already be gone.
	if err := l.sink.Save(context.WithoutCancel(ctx), snapshot); err != nil {
		logger.WithFields(map[string]interface{}{
			"component":  "ledger",
			"account_id": l.accountID,
			"version":    snapshot.Version,
		}).WithError(err).Warn("Failed to persist ledger snapshot")
		return
	}
	l.lastPersisted = snapshot.Version
}

func (l *Ledger) logRejection(op, symbol string, quantity, price decimal.Decimal, err error) {
	logger.WithFields(map[string]interface{}{
		"component":  "ledger",
		"op":         op,
		"account_id": l.accountID,
		"symbol":     symbol,
		"qty":        quantity.String(),
		"price":      price.String(),
		"reason":     Reason(err),
	}).Info("Order rejected")
}
