package repomanager

import (
	"context"
	"database/sql"

	"github.com/ordermeow/ordermeow/internal/dbx"
	"github.com/ordermeow/ordermeow/internal/server/repositories/orders"
	"github.com/ordermeow/ordermeow/internal/server/repositories/refreshtokens"
	"github.com/ordermeow/ordermeow/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Orders(db dbx.DBTX) orders.Repository
}
