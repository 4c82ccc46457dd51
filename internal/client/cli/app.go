// Package cli implements the interactive shell for the Genesisio client.
package cli

import (
	"bufio"
	"context"
	"log/slog"
	"os"

	"github.com/genesisio/genesisio/internal/client/api"
	"github.com/genesisio/genesisio/internal/client/config"
	"github.com/genesisio/genesisio/internal/client/session"
	"github.com/genesisio/genesisio/internal/logging"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	controller *session.Controller
	reader     *bufio.Reader
}

func NewApp(c *config.Config) (*App, error) {

	ctx := context.Background()

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	kv := session.NewFileStore(c.SessionFilePath)
	tokens := session.Open(ctx, logger, c.DatabasePath, kv)

	apiClient := api.NewClient(c.ServerEndpointAddr)
	controller := session.NewController(apiClient, tokens, kv, logger, c)

	return &App{
		config:     c,
		logger:     logger,
		controller: controller,
		reader:     bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) isLoggedIn() bool {
	return a.controller.State() == session.StateLoggedIn
}

func (a *App) Run(ctx context.Context) {
	a.Root(ctx)
}
