package pgsql

import (
	portsrepo "github.com/anvko/shop_admin_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		UserRepo:        newPgxUserRepository(dbPool),
		CredentialRepo:  newPgxCredentialRepository(dbPool),
		AccountLinkRepo: newPgxAccountLinkRepository(dbPool),
		SessionRepo:     newPgxSessionRepository(dbPool),
	}
}
