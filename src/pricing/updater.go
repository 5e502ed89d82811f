package pricing

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"halalinvest/src/catalog"
	"halalinvest/src/model"
)

// Revaluer refreshes every open ledger after the catalog moved.
type Revaluer interface {
	RevalueAll() int
}

// Publisher fans the latest quotes out to live subscribers.
type Publisher interface {
	Publish(quotes []model.Quote)
}

// RandomSource yields uniform values in [0, 1).
type RandomSource interface {
	Float64() float64
}

type globalRandom struct{}

func (globalRandom) Float64() float64 { return rand.Float64() }

var (
	minPrice = decimal.RequireFromString("0.01")
	hundred  = decimal.NewFromInt(100)
)

// Updater walks every catalog price by a bounded random step on a timer.
type Updater struct {
	catalog   *catalog.Catalog
	revaluer  Revaluer
	publisher Publisher
	random    RandomSource
	maxStep   decimal.Decimal
	period    time.Duration
}

type Option func(*Updater)

func WithPublisher(p Publisher) Option { return func(u *Updater) { u.publisher = p } }

func WithRandom(r RandomSource) Option { return func(u *Updater) { u.random = r } }

func WithPeriod(period time.Duration) Option { return func(u *Updater) { u.period = period } }

func WithMaxStepPercent(pct decimal.Decimal) Option {
	return func(u *Updater) { u.maxStep = pct }
}

// NewUpdater builds an updater from env config. revaluer may be nil when
// no ledger needs to follow the prices.
func NewUpdater(c *catalog.Catalog, revaluer Revaluer, opts ...Option) *Updater {
	config := GetConfig()
	u := &Updater{
		catalog:  c,
		revaluer: revaluer,
		random:   globalRandom{},
		maxStep:  decimal.NewFromFloat(config.MaxStepPercent),
		period:   config.Period,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Step moves one instrument by deltaPercent of its price. The price never
// drops below 0.01 and all quote fields are rounded to cents.
func Step(inst model.Instrument, deltaPercent decimal.Decimal) model.Instrument {
	priceChange := inst.Price.Mul(deltaPercent).Div(hundred)
	newPrice := inst.Price.Add(priceChange)
	if newPrice.LessThan(minPrice) {
		newPrice = minPrice
	}
	inst.Price = newPrice.Round(2)
	inst.ChangeAbsolute = priceChange.Round(2)
	inst.ChangePercent = deltaPercent.Round(2)
	return inst
}

func (u *Updater) delta() decimal.Decimal {
	r := u.random.Float64()
	return decimal.NewFromFloat(r*2 - 1).Mul(u.maxStep)
}

// Tick moves every price once, then revalues the ledgers and publishes
// the new quotes. It returns the updated instruments.
//
// A tick is atomic per ledger only. Between the catalog update and the
// revaluation a reader can see new quotes next to positions still valued
// at the previous tick.
func (u *Updater) Tick() []model.Instrument {
	updated := u.catalog.Update(func(inst model.Instrument) model.Instrument {
		return Step(inst, u.delta())
	})

	revalued := 0
	if u.revaluer != nil {
		revalued = u.revaluer.RevalueAll()
	}

	if u.publisher != nil {
		quotes := make([]model.Quote, 0, len(updated))
		for _, inst := range updated {
			quotes = append(quotes, inst.Quote())
		}
		u.publisher.Publish(quotes)
	}

	logger.WithFields(map[string]interface{}{
		"component":   "pricing",
		"instruments": len(updated),
		"positions":   revalued,
	}).Debug("price tick")

	return updated
}

// Start runs Tick every period until ctx is cancelled. Cancelling stops
// future ticks only; a tick in progress completes.
func (u *Updater) Start(ctx context.Context) error {
	if u.period <= 0 {
		return errors.New("price update period must be positive")
	}

	ticker := time.NewTicker(u.period)
	defer ticker.Stop()

	logger.WithField("period", u.period.String()).Info("price updater started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("price updater stopped")
			return nil

		case <-ticker.C:
			u.Tick()
		}
	}
}
