// Package foldertree implements folder and tag-assignment persistence using
// PostgreSQL. The tree is loaded as a whole: folder counts per owner are
// small (tens, not thousands), and the services validate structural rules
// against an in-memory snapshot before writing.
package foldertree

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/lexwatch/lexwatch-backend/internal/adapter/postgres"
	"github.com/lexwatch/lexwatch-backend/internal/domain"
)

// Repo provides folder tree persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new folder tree repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const listFoldersSQL = `
SELECT id, name, parent_id, created_at, created_by
FROM folders
WHERE owner_id = $1
ORDER BY created_at`

const listAssignmentsSQL = `
SELECT tag_name, folder_id
FROM tag_assignments
WHERE owner_id = $1`

const treeVersionSQL = `
SELECT version FROM owner_configs WHERE owner_id = $1`

const insertFolderSQL = `
INSERT INTO folders (id, owner_id, name, parent_id, created_at, created_by)
VALUES ($1, $2, $3, $4, $5, $6)`

const renameFolderSQL = `
UPDATE folders SET name = $3 WHERE owner_id = $1 AND id = $2`

const moveFolderSQL = `
UPDATE folders SET parent_id = $3 WHERE owner_id = $1 AND id = $2`

const deleteFolderSQL = `
DELETE FROM folders WHERE owner_id = $1 AND id = $2`

const unfileFolderAssignmentsSQL = `
UPDATE tag_assignments SET folder_id = NULL WHERE owner_id = $1 AND folder_id = $2`

const upsertAssignmentSQL = `
INSERT INTO tag_assignments (owner_id, tag_name, folder_id, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (owner_id, tag_name) DO UPDATE SET folder_id = EXCLUDED.folder_id, updated_at = now()`

const deleteAssignmentSQL = `
DELETE FROM tag_assignments WHERE owner_id = $1 AND tag_name = $2`

// LoadTree reads the owner's folders, tag assignments and current version
// stamp into one snapshot.
func (r *Repo) LoadTree(ctx context.Context, ownerID uuid.UUID) (*domain.FolderTree, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tree := domain.NewFolderTree(ownerID)

	if err := q.QueryRow(ctx, treeVersionSQL, ownerID).Scan(&tree.Version); err != nil {
		return nil, postgres.MapError(err, "owner_config", ownerID)
	}

	rows, err := q.Query(ctx, listFoldersSQL, ownerID)
	if err != nil {
		return nil, postgres.MapError(err, "folder", ownerID)
	}
	defer rows.Close()
	for rows.Next() {
		var f domain.Folder
		if err := rows.Scan(&f.ID, &f.Name, &f.ParentID, &f.CreatedAt, &f.CreatedBy); err != nil {
			return nil, postgres.MapError(err, "folder", ownerID)
		}
		tree.Folders[f.ID] = f
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, "folder", ownerID)
	}

	assignRows, err := q.Query(ctx, listAssignmentsSQL, ownerID)
	if err != nil {
		return nil, postgres.MapError(err, "tag_assignment", ownerID)
	}
	defer assignRows.Close()
	for assignRows.Next() {
		var (
			tagName  string
			folderID *uuid.UUID
		)
		if err := assignRows.Scan(&tagName, &folderID); err != nil {
			return nil, postgres.MapError(err, "tag_assignment", ownerID)
		}
		tree.Assignments[tagName] = folderID
	}
	if err := assignRows.Err(); err != nil {
		return nil, postgres.MapError(err, "tag_assignment", ownerID)
	}

	return tree, nil
}

// InsertFolder persists a new folder. Structural validation happens in the
// service against the loaded snapshot.
func (r *Repo) InsertFolder(ctx context.Context, ownerID uuid.UUID, f domain.Folder) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	_, err := q.Exec(ctx, insertFolderSQL, f.ID, ownerID, f.Name, f.ParentID, f.CreatedAt, f.CreatedBy)
	if err != nil {
		return postgres.MapError(err, "folder", f.ID)
	}
	return nil
}

// RenameFolder updates the folder's display name.
func (r *Repo) RenameFolder(ctx context.Context, ownerID, folderID uuid.UUID, name string) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx, renameFolderSQL, ownerID, folderID, name)
	if err != nil {
		return postgres.MapError(err, "folder", folderID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("folder %s: %w", folderID, domain.ErrNotFound)
	}
	return nil
}

// MoveFolder reparents the folder. A nil parent moves it to the root.
func (r *Repo) MoveFolder(ctx context.Context, ownerID, folderID uuid.UUID, parentID *uuid.UUID) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx, moveFolderSQL, ownerID, folderID, parentID)
	if err != nil {
		return postgres.MapError(err, "folder", folderID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("folder %s: %w", folderID, domain.ErrNotFound)
	}
	return nil
}

// DeleteFolder removes the folder row and moves any tag assignments filed
// under it back to the root.
func (r *Repo) DeleteFolder(ctx context.Context, ownerID, folderID uuid.UUID) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	if _, err := q.Exec(ctx, unfileFolderAssignmentsSQL, ownerID, folderID); err != nil {
		return postgres.MapError(err, "tag_assignment", folderID)
	}

	tag, err := q.Exec(ctx, deleteFolderSQL, ownerID, folderID)
	if err != nil {
		return postgres.MapError(err, "folder", folderID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("folder %s: %w", folderID, domain.ErrNotFound)
	}
	return nil
}

// SetAssignment files a tag under a folder, or at the root when folderID is
// nil. Upserts so refiling an already-filed tag is a single statement.
func (r *Repo) SetAssignment(ctx context.Context, ownerID uuid.UUID, tagName string, folderID *uuid.UUID) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	if _, err := q.Exec(ctx, upsertAssignmentSQL, ownerID, tagName, folderID); err != nil {
		return postgres.MapError(err, "tag_assignment", ownerID)
	}
	return nil
}

// DeleteAssignment removes the tag's filing entirely. Idempotent.
func (r *Repo) DeleteAssignment(ctx context.Context, ownerID uuid.UUID, tagName string) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	if _, err := q.Exec(ctx, deleteAssignmentSQL, ownerID, tagName); err != nil {
		return postgres.MapError(err, "tag_assignment", ownerID)
	}
	return nil
}
