// Package account implements the Account repository using PostgreSQL.
// It serves identity resolution lookups (direct structure link, legacy-id
// fallback, company-name fallback) and the two account-level mutations:
// personal tag selection and member role changes.
package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/lexwatch/lexwatch-backend/internal/adapter/postgres"
	"github.com/lexwatch/lexwatch-backend/internal/domain"
)

// Repo provides account persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new account repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const accountColumns = `
    id, kind, email, company_name, company_structure_id, role,
    legacy_member_ids, selected_tag_names, plan_name, created_at, updated_at`

const getByIDSQL = `
SELECT` + accountColumns + `
FROM accounts
WHERE id = $1`

const getStructureByIDSQL = `
SELECT` + accountColumns + `
FROM accounts
WHERE id = $1 AND kind = 'COMPANY_STRUCTURE'`

const getStructureByNameSQL = `
SELECT` + accountColumns + `
FROM accounts
WHERE kind = 'COMPANY_STRUCTURE' AND lower(company_name) = lower($1)
ORDER BY created_at
LIMIT 1`

const getStructureByLegacyMemberIDSQL = `
SELECT` + accountColumns + `
FROM accounts
WHERE kind = 'COMPANY_STRUCTURE' AND $1 = ANY(legacy_member_ids)
LIMIT 1`

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByID returns an account by primary key.
// Returns domain.ErrNotFound if no such account exists.
func (r *Repo) GetByID(ctx context.Context, accountID uuid.UUID) (*domain.Account, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)
	return scanAccount(q.QueryRow(ctx, getByIDSQL, accountID), "account", accountID)
}

// GetStructureByID returns a company structure by primary key. A matching
// account of a different kind still yields domain.ErrNotFound: resolution
// must never mistake a member record for its structure.
func (r *Repo) GetStructureByID(ctx context.Context, structureID uuid.UUID) (*domain.Account, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)
	return scanAccount(q.QueryRow(ctx, getStructureByIDSQL, structureID), "company_structure", structureID)
}

// GetStructureByName returns the oldest company structure whose name
// matches case-insensitively. This is the last-resort correlation used for
// member records that predate the direct structure link.
func (r *Repo) GetStructureByName(ctx context.Context, name string) (*domain.Account, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	row := q.QueryRow(ctx, getStructureByNameSQL, name)
	acc, err := scanAccountRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("company_structure %q: %w", name, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("company_structure %q: %w", name, err)
	}
	return acc, nil
}

// GetStructureByLegacyMemberID returns the structure that absorbed the
// given account id during migration, if any.
func (r *Repo) GetStructureByLegacyMemberID(ctx context.Context, memberID uuid.UUID) (*domain.Account, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)
	return scanAccount(q.QueryRow(ctx, getStructureByLegacyMemberIDSQL, memberID), "company_structure", memberID)
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// UpdateSelectedTags replaces the account's personal tag selection.
func (r *Repo) UpdateSelectedTags(ctx context.Context, accountID uuid.UUID, names []string) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	if names == nil {
		names = []string{}
	}
	tag, err := q.Exec(ctx,
		`UPDATE accounts SET selected_tag_names = $2, updated_at = now() WHERE id = $1`,
		accountID, names,
	)
	if err != nil {
		return postgres.MapError(err, "account", accountID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account %s: %w", accountID, domain.ErrNotFound)
	}
	return nil
}

// UpdateRole changes a company member's permission tier.
// Returns domain.ErrNotFound if the account is not a company member.
func (r *Repo) UpdateRole(ctx context.Context, memberID uuid.UUID, role domain.Role) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx,
		`UPDATE accounts SET role = $2, updated_at = now()
		 WHERE id = $1 AND kind = 'COMPANY_MEMBER'`,
		memberID, string(role),
	)
	if err != nil {
		return postgres.MapError(err, "account", memberID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account %s: %w", memberID, domain.ErrNotFound)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Scanning
// ---------------------------------------------------------------------------

func scanAccount(row pgx.Row, entity string, id uuid.UUID) (*domain.Account, error) {
	acc, err := scanAccountRow(row)
	if err != nil {
		return nil, postgres.MapError(err, entity, id)
	}
	return acc, nil
}

func scanAccountRow(row pgx.Row) (*domain.Account, error) {
	var (
		acc       domain.Account
		kind      string
		role      *string
		createdAt time.Time
		updatedAt time.Time
	)
	err := row.Scan(
		&acc.ID, &kind, &acc.Email, &acc.CompanyName, &acc.CompanyStructureID,
		&role, &acc.LegacyMemberIDs, &acc.SelectedTagNames, &acc.PlanName,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	acc.Kind = domain.AccountKind(kind)
	if role != nil {
		acc.Role = domain.Role(*role)
	}
	acc.CreatedAt = createdAt
	acc.UpdatedAt = updatedAt
	return &acc, nil
}
