package adminctl

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/moi/internal/dbx"
	"github.com/dmitrijs2005/moi/internal/server/auth"
	"github.com/dmitrijs2005/moi/internal/server/config"
	"github.com/dmitrijs2005/moi/internal/server/models"
	"github.com/dmitrijs2005/moi/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/moi/internal/server/services"
)

type postgresBackend struct {
	db    *sql.DB
	rm    repomanager.RepositoryManager
	users *services.UserService
}

// OpenPostgres returns an Opener for the database configured in cfg.
func OpenPostgres(cfg *config.Config) Opener {
	return func(ctx context.Context) (Backend, error) {
		db, err := dbx.Open(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		rm := repomanager.NewPostgresRepositoryManager()
		hasher := auth.NewPasswordHasher(cfg.BcryptCost, 1)
		return &postgresBackend{db: db, rm: rm, users: services.NewUserService(db, rm, hasher)}, nil
	}
}

func (b *postgresBackend) Migrate(ctx context.Context) error {
	return b.rm.RunMigrations(ctx, b.db)
}

func (b *postgresBackend) CreateSuperuser(ctx context.Context, email, password string) (*models.User, error) {
	return b.users.CreateSuperuser(ctx, email, password)
}

func (b *postgresBackend) Close() error {
	return b.db.Close()
}
