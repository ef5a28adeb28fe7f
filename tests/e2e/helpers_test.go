//go:build e2e

package e2e_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/lexwatch/lexwatch-backend/internal/adapter/postgres"
	accountrepo "github.com/lexwatch/lexwatch-backend/internal/adapter/postgres/account"
	auditrepo "github.com/lexwatch/lexwatch-backend/internal/adapter/postgres/audit"
	"github.com/lexwatch/lexwatch-backend/internal/adapter/postgres/foldertree"
	configrepo "github.com/lexwatch/lexwatch-backend/internal/adapter/postgres/ownerconfig"
	"github.com/lexwatch/lexwatch-backend/internal/adapter/postgres/testhelper"
	"github.com/lexwatch/lexwatch-backend/internal/adapter/redislock"
	"github.com/lexwatch/lexwatch-backend/internal/config"
	"github.com/lexwatch/lexwatch-backend/internal/service/editlock"
	"github.com/lexwatch/lexwatch-backend/internal/service/folders"
	"github.com/lexwatch/lexwatch-backend/internal/service/identity"
	"github.com/lexwatch/lexwatch-backend/internal/service/ownerconfig"
	"github.com/lexwatch/lexwatch-backend/internal/service/permission"
	"github.com/lexwatch/lexwatch-backend/internal/service/selection"
)

// testServices is the full service graph over a real database and a
// miniredis lock store, wired the same way the composition root wires it.
type testServices struct {
	Pool *pgxpool.Pool

	Identity  *identity.Service
	EditLocks *editlock.Service
	Configs   *ownerconfig.Service
	Folders   *folders.Service
	Selection *selection.Service
}

func setupServices(t *testing.T) *testServices {
	t.Helper()

	pool := testhelper.SetupTestDB(t)

	mr := miniredis.RunT(t)
	store := redislock.NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = store.Close() })

	logger := slog.Default()
	lockCfg := config.LockConfig{
		HeartbeatTimeout: 10 * time.Minute,
		AbsoluteTimeout:  30 * time.Minute,
	}
	auditCfg := config.AuditConfig{HistoryPerEntity: 200, WriteTimeout: time.Second}
	plansCfg := config.PlansConfig{
		FreeMaxTags: 10, FreeMaxSources: 5,
		ProMaxTags: 100, ProMaxSources: 50,
	}

	accounts := accountrepo.New(pool)
	configs := configrepo.New(pool)
	tree := foldertree.New(pool)
	audit := auditrepo.New(pool)
	tx := postgres.NewTxManager(pool)

	identitySvc := identity.NewService(logger, accounts)
	gate, err := permission.NewService()
	require.NoError(t, err)
	lockSvc := editlock.NewService(logger, store, gate, audit, lockCfg, auditCfg)

	return &testServices{
		Pool:      pool,
		Identity:  identitySvc,
		EditLocks: lockSvc,
		Configs:   ownerconfig.NewService(logger, identitySvc, configs, accounts, lockSvc, gate, audit, auditCfg),
		Folders:   folders.NewService(logger, identitySvc, tree, configs, lockSvc, gate, audit, tx, auditCfg),
		Selection: selection.NewService(logger, identitySvc, configs, accounts, audit, plansCfg, auditCfg),
	}
}

func ptrInt64(v int64) *int64 { return &v }

// requireVersion asserts the owner's stored configuration version.
func requireVersion(t *testing.T, ts *testServices, ownerID uuid.UUID, want int64) {
	t.Helper()

	var got int64
	err := ts.Pool.QueryRow(t.Context(),
		`SELECT version FROM owner_configs WHERE owner_id = $1`, ownerID,
	).Scan(&got)
	require.NoError(t, err)
	require.Equal(t, want, got)
}
