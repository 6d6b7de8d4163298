// Package server wires configuration, storage, services and the HTTP API
// into a runnable application and handles graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/ecoportal/internal/logging"
	"github.com/dmitrijs2005/ecoportal/internal/server/auth"
	"github.com/dmitrijs2005/ecoportal/internal/server/config"
	"github.com/dmitrijs2005/ecoportal/internal/server/httpapi"
	"github.com/dmitrijs2005/ecoportal/internal/server/metrics"
	"github.com/dmitrijs2005/ecoportal/internal/server/objectstore"
	"github.com/dmitrijs2005/ecoportal/internal/server/records"
	"github.com/dmitrijs2005/ecoportal/internal/server/records/airtable"
	"github.com/dmitrijs2005/ecoportal/internal/server/records/memory"
	"github.com/dmitrijs2005/ecoportal/internal/server/records/postgres"
	"github.com/dmitrijs2005/ecoportal/internal/server/repositories/ledger"
	"github.com/dmitrijs2005/ecoportal/internal/server/repositories/users"
	"github.com/dmitrijs2005/ecoportal/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	server *httpapi.Server
	close  func() error
}

// OpenRecordStore returns the record store selected by c.RecordStore and a
// function releasing its resources.
func OpenRecordStore(ctx context.Context, c *config.Config) (records.Store, func() error, error) {
	noop := func() error { return nil }

	switch c.RecordStore {
	case config.StoreAirtable:
		return airtable.New(airtable.Config{
			Endpoint: c.AirtableEndpoint,
			BaseID:   c.AirtableBaseID,
			APIKey:   c.AirtableAPIKey,
			Timeout:  c.AirtableTimeout,
		}), noop, nil
	case config.StorePostgres:
		db, err := postgres.Open(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("db init error: %w", err)
		}
		if err := postgres.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("db migration error: %w", err)
		}
		return postgres.NewStore(db), db.Close, nil
	case config.StoreMemory:
		return memory.New(), noop, nil
	default:
		return nil, nil, errors.New("unknown record store " + c.RecordStore)
	}
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)
	return newApp(ctx, c, logger)
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if c.UsesFallbackSecret() {
		logger.Warn(ctx, "SESSION_SECRET is not set, signing sessions with the development secret")
	}
	if c.S3Bucket == "" {
		logger.Warn(ctx, "AWS_S3_BUCKET is not set, uploads will fail")
	}

	store, closeStore, err := OpenRecordStore(ctx, c)
	if err != nil {
		return nil, err
	}

	objects, err := objectstore.New(ctx, objectstore.Config{
		Bucket:          c.S3Bucket,
		Region:          c.S3Region,
		AccessKeyID:     c.S3AccessKeyID,
		SecretAccessKey: c.S3SecretAccessKey,
		BaseEndpoint:    c.S3BaseEndpoint,
	})
	if err != nil {
		_ = closeStore()
		return nil, fmt.Errorf("object store init error: %w", err)
	}

	policy := auth.DefaultPolicy
	userRepo := users.NewRecordsRepository(store, c.AirtableUsersTable, policy, nil)
	ledgerRepo := ledger.NewRecordsRepository(store, c.AirtableLedgerTable)

	issuer := auth.NewIssuer([]byte(c.SessionSecret), 0, nil)
	authService := services.NewAuthService(userRepo, issuer, auth.NewHasher(c.BcryptCost), policy, logger, nil)
	uploadService := services.NewUploadService(objects, ledgerRepo, logger, nil)

	srv := httpapi.NewServer(c.Addr, logger, authService, uploadService, metrics.New("ecoportal"), httpapi.Options{
		SecureCookies: c.IsProduction(),
		MaxUploadSize: c.MaxUploadSize,
	})

	return &App{config: c, logger: logger, server: srv, close: closeStore}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...",
		"environment", app.config.Environment,
		"record_store", app.config.RecordStore,
	)

	app.initSignalHandler(cancelFunc)

	err := app.server.Run(ctx)
	if cerr := app.close(); cerr != nil {
		app.logger.Error(ctx, "closing record store failed", "error", cerr)
	}
	return err
}
