// Package server initializes and runs the platform backend: database,
// HTTP API, background sweepers, and graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/genesisio/genesisio/internal/logging"
	"github.com/genesisio/genesisio/internal/server/blobs"
	"github.com/genesisio/genesisio/internal/server/codes"
	"github.com/genesisio/genesisio/internal/server/config"
	"github.com/genesisio/genesisio/internal/server/httpapi"
	"github.com/genesisio/genesisio/internal/server/mailer"
	"github.com/genesisio/genesisio/internal/server/metrics"
	"github.com/genesisio/genesisio/internal/server/refreshtokens"
	"github.com/genesisio/genesisio/internal/server/shared/db"
	"github.com/genesisio/genesisio/internal/server/users"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config       *config.Config
	logger       logging.Logger
	userService  *users.Service
	blobService  *blobs.Service
	codeRegistry *codes.Registry
	sweeper      *refreshtokens.Sweeper
	metrics      *metrics.Metrics
}

func NewApp(c *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	m := metrics.New()

	rm, err := db.NewPostgresRepositoryManager(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	registry := codes.NewRegistry(logger, m, c.CodeTTL, c.CodeSweepInterval)
	sweeper := refreshtokens.NewSweeper(rm.RefreshTokens(), logger, m, c.SweepInterval)

	us := users.NewService(rm.Users(), rm.RefreshTokens(), registry, mailer.Log{Logger: logger}, m, logger, c)
	bs := blobs.NewService(c)

	return &App{
		config:       c,
		logger:       logger,
		userService:  us,
		blobService:  bs,
		codeRegistry: registry,
		sweeper:      sweeper,
		metrics:      m,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	mux := http.NewServeMux()
	handler := httpapi.NewHandler(app.logger, app.userService, app.blobService, app.metrics, app.config)
	handler.Register(mux)

	srv := &http.Server{Addr: app.config.EndpointAddr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(shutdownCtx, "http shutdown error", "error", err)
		}
	}()

	app.logger.Info(ctx, "http server listening", "addr", app.config.EndpointAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.sweeper.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.codeRegistry.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()
}
