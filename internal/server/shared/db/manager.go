// Package db wires repositories to a shared database handle and runs the
// embedded migrations.
package db

import (
	"context"
	"database/sql"

	"github.com/genesisio/genesisio/internal/server/refreshtokens"
	"github.com/genesisio/genesisio/internal/server/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context) error
	Conn() *sql.DB
	Users() users.Repository
	RefreshTokens() refreshtokens.Repository
}
