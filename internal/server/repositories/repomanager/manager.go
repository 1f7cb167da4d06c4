package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/moi/internal/dbx"
	"github.com/dmitrijs2005/moi/internal/server/repositories/files"
	"github.com/dmitrijs2005/moi/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/moi/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to either the pool or a
// transaction, so services can run several repositories in one dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Files(db dbx.DBTX) files.Repository
}
