package folders

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lexwatch/lexwatch-backend/internal/domain"
	"github.com/lexwatch/lexwatch-backend/internal/service/permission"
)

// DeleteFolder removes an empty folder. Folders that still have children
// or tag assignments must be emptied first.
func (s *Service) DeleteFolder(ctx context.Context, account domain.Account, input DeleteFolderInput) error {
	if err := input.Validate(); err != nil {
		return err
	}

	owner, tree, err := s.begin(ctx, account, permission.OpDeleteFolder)
	if err != nil {
		return err
	}

	folder, ok := tree.Folders[input.FolderID]
	if !ok {
		return fmt.Errorf("folder %s: %w", input.FolderID, domain.ErrNotFound)
	}
	if tree.HasChildren(folder.ID) {
		return domain.NewValidationError("folder_id", "folder still contains subfolders")
	}
	if tree.IsAssigned(folder.ID) {
		return domain.NewValidationError("folder_id", "folder still contains tag assignments")
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.configs.BumpVersionCAS(txCtx, owner.OwnerID, expectedFor(owner, input.ExpectedVersion)); err != nil {
			return err
		}
		if err := s.tree.DeleteFolder(txCtx, owner.OwnerID, folder.ID); err != nil {
			return fmt.Errorf("delete folder: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.InfoContext(ctx, "folder deleted",
		slog.String("owner_id", owner.OwnerID.String()),
		slog.String("folder_id", folder.ID.String()),
	)

	s.logAudit(ctx, owner, account.ID, &folder.ID, domain.AuditActionDelete, map[string]any{
		"name": folder.Name,
	})

	return nil
}
