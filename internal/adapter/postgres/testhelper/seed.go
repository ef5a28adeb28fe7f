package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lexwatch/lexwatch-backend/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedIndividual creates an individual account with an empty owner config
// at version 1. Returns the filled domain.Account.
func SeedIndividual(t *testing.T, pool *pgxpool.Pool) domain.Account {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	now := time.Now().UTC().Truncate(time.Microsecond)
	email := "individual-" + suffix + "@example.com"
	acc := domain.Account{
		ID:        uuid.New(),
		Kind:      domain.AccountKindIndividual,
		Email:     &email,
		PlanName:  "pro",
		CreatedAt: now,
		UpdatedAt: now,
	}

	insertAccount(t, pool, ctx, acc)
	ensureConfig(t, pool, ctx, acc.ID)
	return acc
}

// SeedStructure creates a company structure account (no personal email) with
// the given legacy member ids and an empty owner config at version 1.
func SeedStructure(t *testing.T, pool *pgxpool.Pool, legacyIDs ...uuid.UUID) domain.Account {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	now := time.Now().UTC().Truncate(time.Microsecond)
	name := "Acme Legal " + suffix
	acc := domain.Account{
		ID:              uuid.New(),
		Kind:            domain.AccountKindCompanyStructure,
		CompanyName:     &name,
		LegacyMemberIDs: legacyIDs,
		PlanName:        "enterprise",
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	insertAccount(t, pool, ctx, acc)
	ensureConfig(t, pool, ctx, acc.ID)
	return acc
}

// SeedMember creates a company member linked to the structure with the
// given role. Members do not own a config row; the structure does.
func SeedMember(t *testing.T, pool *pgxpool.Pool, structure domain.Account, role domain.Role) domain.Account {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	now := time.Now().UTC().Truncate(time.Microsecond)
	email := "member-" + suffix + "@example.com"
	acc := domain.Account{
		ID:                 uuid.New(),
		Kind:               domain.AccountKindCompanyMember,
		Email:              &email,
		CompanyName:        structure.CompanyName,
		CompanyStructureID: &structure.ID,
		Role:               role,
		PlanName:           structure.PlanName,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	insertAccount(t, pool, ctx, acc)
	return acc
}

func insertAccount(t *testing.T, pool *pgxpool.Pool, ctx context.Context, acc domain.Account) {
	t.Helper()

	var role *string
	if acc.Role != "" {
		r := string(acc.Role)
		role = &r
	}
	legacy := acc.LegacyMemberIDs
	if legacy == nil {
		legacy = []uuid.UUID{}
	}
	selected := acc.SelectedTagNames
	if selected == nil {
		selected = []string{}
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO accounts
		   (id, kind, email, company_name, company_structure_id, role,
		    legacy_member_ids, selected_tag_names, plan_name, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		acc.ID, string(acc.Kind), acc.Email, acc.CompanyName, acc.CompanyStructureID,
		role, legacy, selected, acc.PlanName, acc.CreatedAt, acc.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: insert account: %v", err)
	}
}

func ensureConfig(t *testing.T, pool *pgxpool.Pool, ctx context.Context, ownerID uuid.UUID) {
	t.Helper()

	_, err := pool.Exec(ctx,
		`INSERT INTO owner_configs (owner_id, tags, coverage, range_filters, version, updated_at)
		 VALUES ($1, '{}'::jsonb, '{"government_sources": [], "regulator_sources": []}'::jsonb, '{}', 1, now())
		 ON CONFLICT (owner_id) DO NOTHING`,
		ownerID,
	)
	if err != nil {
		t.Fatalf("testhelper: ensure owner config: %v", err)
	}
}

// SeedFolder inserts a folder row for the owner and returns it.
func SeedFolder(t *testing.T, pool *pgxpool.Pool, ownerID uuid.UUID, name string, parentID *uuid.UUID, createdBy uuid.UUID) domain.Folder {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	f := domain.Folder{
		ID:        uuid.New(),
		Name:      name,
		ParentID:  parentID,
		CreatedAt: now,
		CreatedBy: createdBy,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO folders (id, owner_id, name, parent_id, created_at, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		f.ID, ownerID, f.Name, f.ParentID, f.CreatedAt, f.CreatedBy,
	)
	if err != nil {
		t.Fatalf("testhelper: insert folder: %v", err)
	}
	return f
}
