package pricefeed

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"halalinvest/src/catalog"
	"halalinvest/src/model"
	"halalinvest/src/pricing"
	"halalinvest/src/utils"
)

// PriceFeed runs the price updater against the catalog without a server
// and prints every tick.
type PriceFeed struct {
	Log    *logger.Entry
	Out    io.Writer
	Period time.Duration
	Ticks  int // 0 runs until ctx is cancelled

	mu      sync.Mutex
	printed int
}

func (p *PriceFeed) Start(ctx context.Context) error {
	c, err := catalog.Load()
	if err != nil {
		return err
	}
	return p.run(ctx, c)
}

func (p *PriceFeed) run(ctx context.Context, c *catalog.Catalog) error {
	opts := []pricing.Option{pricing.WithPublisher(p)}
	if p.Period > 0 {
		opts = append(opts, pricing.WithPeriod(p.Period))
	}
	updater := pricing.NewUpdater(c, nil, opts...)

	p.Log.WithField("instruments", c.Len()).Info("Starting price feed")

	if p.Ticks <= 0 {
		return updater.Start(ctx)
	}

	ticker := time.NewTicker(p.period())
	defer ticker.Stop()
	for i := 0; i < p.Ticks; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
		updater.Tick()
	}
	return nil
}

func (p *PriceFeed) period() time.Duration {
	if p.Period > 0 {
		return p.Period
	}
	return pricing.GetConfig().Period
}

// Publish implements pricing.Publisher.
func (p *PriceFeed) Publish(quotes []model.Quote) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.printed++

	fmt.Fprintf(p.Out, "tick %d\n", p.printed)
	for _, q := range quotes {
		fmt.Fprintf(p.Out, "  %-8s %12s %9s%%\n", q.Symbol, utils.FormatUSD(q.Price), signed(q.ChangePercent))
	}
}

func signed(pct decimal.Decimal) string {
	if pct.IsPositive() {
		return "+" + pct.StringFixed(2)
	}
	return pct.StringFixed(2)
}
