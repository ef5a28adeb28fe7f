package foldertree_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lexwatch/lexwatch-backend/internal/adapter/postgres/foldertree"
	"github.com/lexwatch/lexwatch-backend/internal/adapter/postgres/testhelper"
	"github.com/lexwatch/lexwatch-backend/internal/domain"
)

func newRepo(t *testing.T) (*foldertree.Repo, *pgxpool.Pool) {
	t.Helper()
	pool := testhelper.SetupTestDB(t)
	return foldertree.New(pool), pool
}

func newFolder(name string, parentID *uuid.UUID, createdBy uuid.UUID) domain.Folder {
	return domain.Folder{
		ID:        uuid.New(),
		Name:      name,
		ParentID:  parentID,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
		CreatedBy: createdBy,
	}
}

func TestRepo_LoadTree_Empty(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	acc := testhelper.SeedIndividual(t, pool)

	tree, err := repo.LoadTree(ctx, acc.ID)
	if err != nil {
		t.Fatalf("LoadTree: unexpected error: %v", err)
	}

	if tree.OwnerID != acc.ID {
		t.Errorf("OwnerID mismatch: got %s, want %s", tree.OwnerID, acc.ID)
	}
	if tree.Version != 1 {
		t.Errorf("Version: got %d, want 1", tree.Version)
	}
	if len(tree.Folders) != 0 || len(tree.Assignments) != 0 {
		t.Errorf("empty owner should load empty tree: %d folders, %d assignments",
			len(tree.Folders), len(tree.Assignments))
	}
}

func TestRepo_LoadTree_UnknownOwner(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)

	_, err := repo.LoadTree(context.Background(), uuid.New())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestRepo_InsertFolder_And_LoadTree(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	acc := testhelper.SeedIndividual(t, pool)

	root := newFolder("Compliance", nil, acc.ID)
	if err := repo.InsertFolder(ctx, acc.ID, root); err != nil {
		t.Fatalf("InsertFolder root: %v", err)
	}
	child := newFolder("Privacy", &root.ID, acc.ID)
	if err := repo.InsertFolder(ctx, acc.ID, child); err != nil {
		t.Fatalf("InsertFolder child: %v", err)
	}

	tree, err := repo.LoadTree(ctx, acc.ID)
	if err != nil {
		t.Fatalf("LoadTree: %v", err)
	}

	if len(tree.Folders) != 2 {
		t.Fatalf("folders: got %d, want 2", len(tree.Folders))
	}
	gotChild, ok := tree.Folders[child.ID]
	if !ok {
		t.Fatalf("child folder missing from tree")
	}
	if gotChild.ParentID == nil || *gotChild.ParentID != root.ID {
		t.Errorf("child parent: got %v, want %s", gotChild.ParentID, root.ID)
	}
	if gotChild.Name != "Privacy" {
		t.Errorf("child name: got %q", gotChild.Name)
	}
}

func TestRepo_InsertFolder_DanglingParent(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	acc := testhelper.SeedIndividual(t, pool)

	missing := uuid.New()
	err := repo.InsertFolder(ctx, acc.ID, newFolder("Orphan", &missing, acc.ID))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("dangling parent should map to ErrNotFound, got: %v", err)
	}
}

func TestRepo_RenameFolder(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	acc := testhelper.SeedIndividual(t, pool)
	f := testhelper.SeedFolder(t, pool, acc.ID, "Old Name", nil, acc.ID)

	if err := repo.RenameFolder(ctx, acc.ID, f.ID, "New Name"); err != nil {
		t.Fatalf("RenameFolder: %v", err)
	}

	tree, err := repo.LoadTree(ctx, acc.ID)
	if err != nil {
		t.Fatalf("LoadTree: %v", err)
	}
	if got := tree.Folders[f.ID].Name; got != "New Name" {
		t.Errorf("name after rename: got %q", got)
	}
}

func TestRepo_RenameFolder_NotFound(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	acc := testhelper.SeedIndividual(t, pool)

	err := repo.RenameFolder(ctx, acc.ID, uuid.New(), "Whatever")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestRepo_MoveFolder(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	acc := testhelper.SeedIndividual(t, pool)
	a := testhelper.SeedFolder(t, pool, acc.ID, "A", nil, acc.ID)
	b := testhelper.SeedFolder(t, pool, acc.ID, "B", nil, acc.ID)

	if err := repo.MoveFolder(ctx, acc.ID, b.ID, &a.ID); err != nil {
		t.Fatalf("MoveFolder under A: %v", err)
	}
	tree, err := repo.LoadTree(ctx, acc.ID)
	if err != nil {
		t.Fatalf("LoadTree: %v", err)
	}
	if got := tree.Folders[b.ID].ParentID; got == nil || *got != a.ID {
		t.Errorf("B parent: got %v, want %s", got, a.ID)
	}

	// Back to the root.
	if err := repo.MoveFolder(ctx, acc.ID, b.ID, nil); err != nil {
		t.Fatalf("MoveFolder to root: %v", err)
	}
	tree, err = repo.LoadTree(ctx, acc.ID)
	if err != nil {
		t.Fatalf("LoadTree: %v", err)
	}
	if got := tree.Folders[b.ID].ParentID; got != nil {
		t.Errorf("B parent after move to root: got %v, want nil", got)
	}
}

func TestRepo_DeleteFolder_UnfilesAssignments(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	acc := testhelper.SeedIndividual(t, pool)
	f := testhelper.SeedFolder(t, pool, acc.ID, "Doomed", nil, acc.ID)

	if err := repo.SetAssignment(ctx, acc.ID, "GDPR", &f.ID); err != nil {
		t.Fatalf("SetAssignment: %v", err)
	}

	if err := repo.DeleteFolder(ctx, acc.ID, f.ID); err != nil {
		t.Fatalf("DeleteFolder: %v", err)
	}

	tree, err := repo.LoadTree(ctx, acc.ID)
	if err != nil {
		t.Fatalf("LoadTree: %v", err)
	}
	if _, ok := tree.Folders[f.ID]; ok {
		t.Errorf("folder still present after delete")
	}
	folderID, ok := tree.Assignments["GDPR"]
	if !ok {
		t.Fatalf("assignment should survive folder deletion")
	}
	if folderID != nil {
		t.Errorf("assignment should be unfiled, got folder %s", *folderID)
	}
}

func TestRepo_DeleteFolder_NotFound(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	acc := testhelper.SeedIndividual(t, pool)

	err := repo.DeleteFolder(ctx, acc.ID, uuid.New())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestRepo_SetAssignment_Upsert(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	acc := testhelper.SeedIndividual(t, pool)
	a := testhelper.SeedFolder(t, pool, acc.ID, "A", nil, acc.ID)
	b := testhelper.SeedFolder(t, pool, acc.ID, "B", nil, acc.ID)

	if err := repo.SetAssignment(ctx, acc.ID, "GDPR", &a.ID); err != nil {
		t.Fatalf("SetAssignment A: %v", err)
	}
	// Refiling the same tag moves it, no duplicate row.
	if err := repo.SetAssignment(ctx, acc.ID, "GDPR", &b.ID); err != nil {
		t.Fatalf("SetAssignment B: %v", err)
	}

	tree, err := repo.LoadTree(ctx, acc.ID)
	if err != nil {
		t.Fatalf("LoadTree: %v", err)
	}
	if len(tree.Assignments) != 1 {
		t.Fatalf("assignments: got %d, want 1", len(tree.Assignments))
	}
	if got := tree.Assignments["GDPR"]; got == nil || *got != b.ID {
		t.Errorf("GDPR filed under %v, want %s", got, b.ID)
	}
}

func TestRepo_DeleteAssignment_Idempotent(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	acc := testhelper.SeedIndividual(t, pool)

	if err := repo.SetAssignment(ctx, acc.ID, "GDPR", nil); err != nil {
		t.Fatalf("SetAssignment: %v", err)
	}
	if err := repo.DeleteAssignment(ctx, acc.ID, "GDPR"); err != nil {
		t.Fatalf("DeleteAssignment: %v", err)
	}
	// Second delete is a no-op.
	if err := repo.DeleteAssignment(ctx, acc.ID, "GDPR"); err != nil {
		t.Fatalf("DeleteAssignment again: %v", err)
	}

	tree, err := repo.LoadTree(ctx, acc.ID)
	if err != nil {
		t.Fatalf("LoadTree: %v", err)
	}
	if len(tree.Assignments) != 0 {
		t.Errorf("assignments should be empty, got %v", tree.Assignments)
	}
}
