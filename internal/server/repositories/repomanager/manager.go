package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/totpgate/internal/dbx"
	"github.com/dmitrijs2005/totpgate/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/totpgate/internal/server/repositories/secrets"
	"github.com/dmitrijs2005/totpgate/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/totpgate/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to either a *sql.DB or a
// *sql.Tx, so services can run the same code inside and outside transactions.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Secrets(db dbx.DBTX) secrets.Repository
	Sessions(db dbx.DBTX) sessions.Repository
}
