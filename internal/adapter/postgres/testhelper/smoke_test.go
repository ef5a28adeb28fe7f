package testhelper

import (
	"context"
	"testing"
)

func TestSetupTestDB_Smoke(t *testing.T) {
	pool := SetupTestDB(t)

	acc := SeedIndividual(t, pool)

	var version int64
	err := pool.QueryRow(
		context.Background(),
		`SELECT version FROM owner_configs WHERE owner_id = $1`,
		acc.ID,
	).Scan(&version)
	if err != nil {
		t.Fatalf("expected owner config in DB, got error: %v", err)
	}

	if version != 1 {
		t.Fatalf("expected fresh config at version 1, got %d", version)
	}
}
