package trade

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"halalinvest/src/client"
	"halalinvest/src/model"
	"halalinvest/src/utils"
)

var ErrUsage = errors.New("usage: trade balance | positions | history [page] | buy|sell SYMBOL QUANTITY [PRICE]")

// Trade drives the API of a running server from the command line.
type Trade struct {
	Client *client.Client
	Out    io.Writer
}

func (t *Trade) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}

	switch strings.ToLower(args[0]) {
	case "balance":
		return t.balance(ctx)
	case "positions":
		return t.positions(ctx)
	case "history":
		page := 1
		if len(args) > 1 {
			p, err := strconv.Atoi(args[1])
			if err != nil || p < 1 {
				return fmt.Errorf("invalid page %q", args[1])
			}
			page = p
		}
		return t.history(ctx, page)
	case "buy", "sell":
		return t.order(ctx, model.TransactionKind(strings.ToLower(args[0])), args[1:])
	default:
		return ErrUsage
	}
}

func (t *Trade) balance(ctx context.Context) error {
	balance, err := t.Client.Balance(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(t.Out, "Balance: %s\n", utils.FormatUSD(balance))
	return err
}

func (t *Trade) positions(ctx context.Context) error {
	positions, err := t.Client.Positions(ctx)
	if err != nil {
		return err
	}
	if len(positions) == 0 {
		_, err = fmt.Fprintln(t.Out, "No open positions")
		return err
	}

	w := tabwriter.NewWriter(t.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tQTY\tAVG COST\tPRICE\tVALUE\tGAIN")
	for _, p := range positions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s (%s%%)\n",
			p.Symbol, p.Quantity.String(), utils.FormatUSD(p.AverageCost), utils.FormatUSD(p.CurrentPrice),
			utils.FormatUSD(p.MarketValue), utils.FormatSignedUSD(p.UnrealizedGain), p.UnrealizedGainPercent.StringFixed(2))
	}
	return w.Flush()
}

func (t *Trade) history(ctx context.Context, page int) error {
	result, err := t.Client.Transactions(ctx, page, 20, "")
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(t.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tTYPE\tSYMBOL\tQTY\tPRICE\tTOTAL")
	for _, tx := range result.Transactions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			tx.Timestamp.Format("2006-01-02 15:04:05"), tx.Kind, tx.Symbol, tx.Quantity.String(),
			utils.FormatUSD(tx.Price), utils.FormatUSD(tx.Total))
	}
	fmt.Fprintf(w, "page %d of %d (%d transactions)\n", result.Pagination.Page, result.Pagination.Pages, result.Pagination.Total)
	return w.Flush()
}

func (t *Trade) order(ctx context.Context, side model.TransactionKind, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return ErrUsage
	}
	quantity, err := decimal.NewFromString(args[1])
	if err != nil {
		return fmt.Errorf("invalid quantity %q", args[1])
	}
	order := client.Order{Side: side, Symbol: strings.ToUpper(args[0]), Quantity: quantity}
	if len(args) == 3 {
		price, err := decimal.NewFromString(args[2])
		if err != nil {
			return fmt.Errorf("invalid price %q", args[2])
		}
		order.Price = &price
	}

	result, err := t.Client.PlaceOrder(ctx, order)
	if err != nil {
		return err
	}
	tx := result.Transaction
	_, err = fmt.Fprintf(t.Out, "%s %s %s @ %s = %s, balance %s\n",
		strings.ToUpper(string(tx.Kind)), tx.Quantity.String(), tx.Symbol,
		utils.FormatUSD(tx.Price), utils.FormatUSD(tx.Total), utils.FormatUSD(result.Balance))
	return err
}
