package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"halalinvest/cmd/pricefeed"
	"halalinvest/cmd/trade"
	"halalinvest/src/client"
	"halalinvest/src/database"
	"halalinvest/src/server"
)

var Version string

func main() {
	_ = godotenv.Load()

	app := cli.NewApp()
	app.Name = "halalinvest"
	app.Usage = "The halalinvest command line interface"
	app.Version = Version

	app.Commands = []cli.Command{
		serveCMD,
		priceFeedCMD,
		tradeCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	serveCMD = cli.Command{
		Name:      "serve",
		Usage:     "run the API server",
		Action:    serveAction,
		ArgsUsage: "",
		Flags: []cli.Flag{
			cli.StringFlag{Name: "port", Usage: "listen port, overrides PORT"},
		},
		Description: `Migrate the database and serve the HTTP API with the live price updater`,
	}
	priceFeedCMD = cli.Command{
		Name:      "pricefeed",
		Usage:     "print simulated price ticks",
		Action:    priceFeedAction,
		ArgsUsage: "",
		Flags: []cli.Flag{
			cli.IntFlag{Name: "ticks", Usage: "number of ticks, 0 runs until interrupted"},
			cli.DurationFlag{Name: "period", Usage: "time between ticks, overrides PRICE_UPDATE_PERIOD"},
		},
		Description: `Run the price updater over the instrument catalog without a server`,
	}
	tradeCMD = cli.Command{
		Name:        "trade",
		Usage:       "trade against a running server",
		Action:      tradeAction,
		ArgsUsage:   "balance | positions | history [page] | buy|sell SYMBOL QUANTITY [PRICE]",
		Flags:       []cli.Flag{},
		Description: `Log in with HALALINVEST_EMAIL / HALALINVEST_PASSWORD and run one account command`,
	}
)

func serveAction(c *cli.Context) error {
	logrus.Info("Starting serve CMD")

	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	server.StartServer(c.String("port"))
	return nil
}

func priceFeedAction(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	feed := &pricefeed.PriceFeed{
		Log:    logrus.WithField("cmd", "pricefeed"),
		Out:    os.Stdout,
		Period: c.Duration("period"),
		Ticks:  c.Int("ticks"),
	}
	if err := feed.Start(ctx); err != nil {
		logrus.WithError(err).Error("Starting pricefeed cmd")
		return err
	}
	return nil
}

func tradeAction(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config := client.GetConfig()
	api := client.NewClient(config.BaseURL)
	if _, err := api.Login(ctx, config.Email, config.Password); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	t := &trade.Trade{Client: api, Out: os.Stdout}
	return t.Run(ctx, c.Args())
}
