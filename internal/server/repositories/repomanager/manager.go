package repomanager

import (
	"context"
	"database/sql"

	"github.com/YousefAdel777/chatter-backend-sub000/internal/dbx"
	"github.com/YousefAdel777/chatter-backend-sub000/internal/server/repositories/refreshtokens"
	"github.com/YousefAdel777/chatter-backend-sub000/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}
