package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	logger "github.com/sirupsen/logrus"

	"halalinvest/src/account"
	"halalinvest/src/catalog"
	"halalinvest/src/deposit"
	"halalinvest/src/pricing"
	"halalinvest/src/repository"
	"halalinvest/src/store"
	"halalinvest/src/stream"
)

// NewSnapshotStore returns the ledger snapshot store selected by kind
// (db, redis or memory) and a func releasing its resources. Failures of
// the db and redis stores are recorded in the exceptions table.
func NewSnapshotStore(ctx context.Context, kind string) (account.Store, func(), error) {
	exceptions := repository.NewExceptionRepository()
	switch strings.ToLower(kind) {
	case "", "db":
		return store.NewAudited(repository.NewAccountRepository(), exceptions, "db_snapshot_store"), func() {}, nil
	case "redis":
		client, err := store.NewRedisClient(ctx)
		if err != nil {
			return nil, nil, err
		}
		snapshots := store.NewAudited(store.NewRedisSnapshotStore(client), exceptions, "redis_snapshot_store")
		return snapshots, func() { _ = client.Close() }, nil
	case "memory":
		return store.NewMemory(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown SNAPSHOT_STORE %q", kind)
	}
}

// NewApp wires the catalog, ledgers and request workflow. The database
// must be initialised first.
func NewApp(ctx context.Context) (*App, func(), error) {
	c, err := catalog.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load catalog: %w", err)
	}

	snapshots, release, err := NewSnapshotStore(ctx, account.GetConfig().SnapshotStore)
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot store: %w", err)
	}

	accounts := account.NewRegistry(c, snapshots)
	app := &App{
		Catalog:    c,
		Accounts:   accounts,
		Users:      repository.NewUserRepository(),
		Deposits:   deposit.NewService(repository.NewDepositRequestRepository(), accounts),
		Exceptions: repository.NewExceptionRepository(),
		Hub:        stream.NewHub(),
	}
	return app, release, nil
}

func StartServer(port string) {
	config := GetConfig()
	if port == "" {
		port = config.Port
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, release, err := NewApp(ctx)
	if err != nil {
		logger.WithError(err).Fatal("Failed to build application")
	}
	defer release()

	// Price updater
	updater := pricing.NewUpdater(app.Catalog, app.Accounts, pricing.WithPublisher(app.Hub))
	go func() {
		if err := updater.Start(ctx); err != nil {
			logger.WithError(err).Error("Price updater stopped")
		}
	}()

	// Server setup
	addr := ":" + port
	srv := &http.Server{
		Addr:    addr,
		Handler: NewRouter(app, config.AllowedOrigins),
	}

	// Start server in goroutine
	go func() {
		logger.Infof("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server crashed")
		}
	}()

	// Shutdown on SIGINT or SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down gracefully...")
	cancel()
	app.Hub.Close()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Shutdown error")
	}
}
