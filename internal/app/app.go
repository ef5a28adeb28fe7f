// Package app wires configuration, storage adapters and services into a
// running application. Command-line tools build an App, use the service
// they need, and Close it; nothing here starts listening by itself.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lexwatch/lexwatch-backend/internal/adapter/postgres"
	accountrepo "github.com/lexwatch/lexwatch-backend/internal/adapter/postgres/account"
	auditrepo "github.com/lexwatch/lexwatch-backend/internal/adapter/postgres/audit"
	"github.com/lexwatch/lexwatch-backend/internal/adapter/postgres/foldertree"
	configrepo "github.com/lexwatch/lexwatch-backend/internal/adapter/postgres/ownerconfig"
	"github.com/lexwatch/lexwatch-backend/internal/adapter/redislock"
	"github.com/lexwatch/lexwatch-backend/internal/config"
	"github.com/lexwatch/lexwatch-backend/internal/service/editlock"
	"github.com/lexwatch/lexwatch-backend/internal/service/folders"
	"github.com/lexwatch/lexwatch-backend/internal/service/identity"
	"github.com/lexwatch/lexwatch-backend/internal/service/ownerconfig"
	"github.com/lexwatch/lexwatch-backend/internal/service/permission"
	"github.com/lexwatch/lexwatch-backend/internal/service/selection"
)

// App holds every long-lived dependency of the subsystem.
type App struct {
	Cfg  *config.Config
	Log  *slog.Logger
	Pool *pgxpool.Pool

	Locks *redislock.Store

	Identity    *identity.Service
	Permissions *permission.Service
	EditLocks   *editlock.Service
	Configs     *ownerconfig.Service
	Folders     *folders.Service
	Selection   *selection.Service
}

// New connects to PostgreSQL and Redis and assembles the service graph.
// On error nothing is left open.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	locks, err := redislock.New(cfg.Redis.URL, cfg.Redis.DialTimeout)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	accounts := accountrepo.New(pool)
	configs := configrepo.New(pool)
	tree := foldertree.New(pool)
	audit := auditrepo.New(pool)
	tx := postgres.NewTxManager(pool)

	identitySvc := identity.NewService(logger, accounts)
	gate, err := permission.NewService()
	if err != nil {
		pool.Close()
		_ = locks.Close()
		return nil, fmt.Errorf("build permission gate: %w", err)
	}
	lockSvc := editlock.NewService(logger, locks, gate, audit, cfg.Lock, cfg.Audit)
	configSvc := ownerconfig.NewService(logger, identitySvc, configs, accounts, lockSvc, gate, audit, cfg.Audit)
	folderSvc := folders.NewService(logger, identitySvc, tree, configs, lockSvc, gate, audit, tx, cfg.Audit)
	selectionSvc := selection.NewService(logger, identitySvc, configs, accounts, audit, cfg.Plans, cfg.Audit)

	return &App{
		Cfg:         cfg,
		Log:         logger,
		Pool:        pool,
		Locks:       locks,
		Identity:    identitySvc,
		Permissions: gate,
		EditLocks:   lockSvc,
		Configs:     configSvc,
		Folders:     folderSvc,
		Selection:   selectionSvc,
	}, nil
}

// Close releases the database pool and the Redis client.
func (a *App) Close() error {
	a.Pool.Close()
	if err := a.Locks.Close(); err != nil {
		return fmt.Errorf("close redis client: %w", err)
	}
	return nil
}
