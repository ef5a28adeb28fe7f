// Package ownerconfig implements the versioned configuration store using
// PostgreSQL. An owner's configuration is a single row, so a mutation plus
// its version increment is one atomic UPDATE: no multi-statement
// transaction is needed for the optimistic-concurrency check itself.
package ownerconfig

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/lexwatch/lexwatch-backend/internal/adapter/postgres"
	"github.com/lexwatch/lexwatch-backend/internal/domain"
)

// Repo provides owner configuration persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
	sb   squirrel.StatementBuilderType
}

// New creates a new owner configuration repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{
		pool: pool,
		sb:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

const getSQL = `
SELECT owner_id, tags, coverage, range_filters, version, updated_at
FROM owner_configs
WHERE owner_id = $1`

const currentVersionSQL = `
SELECT version FROM owner_configs WHERE owner_id = $1`

const ensureSQL = `
INSERT INTO owner_configs (owner_id, tags, coverage, range_filters, version, updated_at)
VALUES ($1, '{}'::jsonb, '{"government_sources": [], "regulator_sources": []}'::jsonb, '{}', 1, now())
ON CONFLICT (owner_id) DO NOTHING`

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// Get returns the owner's configuration. Tag values are normalized at this
// boundary: whatever historical shape is stored, callers only ever see
// domain.TagDefinition variants.
func (r *Repo) Get(ctx context.Context, ownerID uuid.UUID) (*domain.OwnerConfig, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var (
		cfg         domain.OwnerConfig
		tagsRaw     []byte
		coverageRaw []byte
	)
	err := q.QueryRow(ctx, getSQL, ownerID).Scan(
		&cfg.OwnerID, &tagsRaw, &coverageRaw, &cfg.RangeFilters, &cfg.Version, &cfg.UpdatedAt,
	)
	if err != nil {
		return nil, postgres.MapError(err, "owner_config", ownerID)
	}

	var rawTags map[string]json.RawMessage
	if err := json.Unmarshal(tagsRaw, &rawTags); err != nil {
		return nil, fmt.Errorf("owner_config %s: unmarshal tags: %w", ownerID, err)
	}
	cfg.Tags, err = domain.NormalizeTagSet(rawTags)
	if err != nil {
		return nil, fmt.Errorf("owner_config %s: %w", ownerID, err)
	}

	if err := json.Unmarshal(coverageRaw, &cfg.Coverage); err != nil {
		return nil, fmt.Errorf("owner_config %s: unmarshal coverage: %w", ownerID, err)
	}

	return &cfg, nil
}

// CurrentVersion returns the version stamp without loading the config body.
func (r *Repo) CurrentVersion(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var version int64
	if err := q.QueryRow(ctx, currentVersionSQL, ownerID).Scan(&version); err != nil {
		return 0, postgres.MapError(err, "owner_config", ownerID)
	}
	return version, nil
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Ensure creates an empty configuration row at version 1 if none exists.
// Idempotent; safe to call on every resolution of a new owner.
func (r *Repo) Ensure(ctx context.Context, ownerID uuid.UUID) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	if _, err := q.Exec(ctx, ensureSQL, ownerID); err != nil {
		return postgres.MapError(err, "owner_config", ownerID)
	}
	return nil
}

// UpdateCAS applies a partial update and increments the version stamp in
// one atomic UPDATE. When expectedVersion is non-nil the write only
// proceeds if the stored version still matches; a mismatch yields
// domain.VersionConflictError carrying the version actually stored. A nil
// expectedVersion applies the patch unconditionally (the individual-account
// path, where no concurrent multi-editor scenario exists).
func (r *Repo) UpdateCAS(ctx context.Context, ownerID uuid.UUID, patch domain.ConfigPatch, expectedVersion *int64) (int64, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	update := r.sb.Update("owner_configs").
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"owner_id": ownerID}).
		Suffix("RETURNING version")

	if patch.Tags != nil {
		tagsJSON, err := json.Marshal(patch.Tags)
		if err != nil {
			return 0, fmt.Errorf("owner_config %s: marshal tags: %w", ownerID, err)
		}
		update = update.Set("tags", tagsJSON)
	}
	if patch.Coverage != nil {
		coverageJSON, err := json.Marshal(patch.Coverage)
		if err != nil {
			return 0, fmt.Errorf("owner_config %s: marshal coverage: %w", ownerID, err)
		}
		update = update.Set("coverage", coverageJSON)
	}
	if patch.RangeFilters != nil {
		update = update.Set("range_filters", patch.RangeFilters)
	}
	if expectedVersion != nil {
		update = update.Where(squirrel.Eq{"version": *expectedVersion})
	}

	sql, args, err := update.ToSql()
	if err != nil {
		return 0, fmt.Errorf("owner_config %s: build update: %w", ownerID, err)
	}

	var newVersion int64
	err = q.QueryRow(ctx, sql, args...).Scan(&newVersion)
	if err == nil {
		return newVersion, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, postgres.MapError(err, "owner_config", ownerID)
	}

	return 0, r.conflictOrMissing(ctx, ownerID)
}

// BumpVersionCAS increments the version stamp without touching the config
// body. Folder-tree mutations run it inside their transaction so the tree
// shares the owner's version axis.
func (r *Repo) BumpVersionCAS(ctx context.Context, ownerID uuid.UUID, expectedVersion *int64) (int64, error) {
	return r.UpdateCAS(ctx, ownerID, domain.ConfigPatch{}, expectedVersion)
}

// conflictOrMissing distinguishes a stale expected version from a vanished
// row after a zero-row CAS update.
func (r *Repo) conflictOrMissing(ctx context.Context, ownerID uuid.UUID) error {
	current, err := r.CurrentVersion(ctx, ownerID)
	if err != nil {
		// Row is gone entirely. Reported as not found so callers do not
		// retry a write that can never succeed.
		return err
	}
	return &domain.VersionConflictError{CurrentVersion: current}
}
