package folders

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lexwatch/lexwatch-backend/internal/domain"
	"github.com/lexwatch/lexwatch-backend/internal/service/permission"
)

// MoveFolder reparents a folder (nil = to the root). The move is rejected
// if the destination sits inside the folder's own subtree.
func (s *Service) MoveFolder(ctx context.Context, account domain.Account, input MoveFolderInput) error {
	if err := input.Validate(); err != nil {
		return err
	}

	owner, tree, err := s.begin(ctx, account, permission.OpMoveFolder)
	if err != nil {
		return err
	}

	folder, ok := tree.Folders[input.FolderID]
	if !ok {
		return fmt.Errorf("folder %s: %w", input.FolderID, domain.ErrNotFound)
	}
	if input.NewParentID != nil {
		if _, ok := tree.Folders[*input.NewParentID]; !ok {
			return domain.NewValidationError("new_parent_id", "target parent does not exist")
		}
	}
	if tree.WouldCycle(folder.ID, input.NewParentID) {
		return domain.NewValidationError("new_parent_id", "move would create a cycle")
	}
	if tree.SiblingNameTaken(folder.Name, input.NewParentID, folder.ID) {
		return domain.NewValidationError("new_parent_id", fmt.Sprintf("folder %q already exists at destination", folder.Name))
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.configs.BumpVersionCAS(txCtx, owner.OwnerID, expectedFor(owner, input.ExpectedVersion)); err != nil {
			return err
		}
		if err := s.tree.MoveFolder(txCtx, owner.OwnerID, folder.ID, input.NewParentID); err != nil {
			return fmt.Errorf("move folder: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.InfoContext(ctx, "folder moved",
		slog.String("owner_id", owner.OwnerID.String()),
		slog.String("folder_id", folder.ID.String()),
	)

	changes := map[string]any{"name": folder.Name}
	if input.NewParentID != nil {
		changes["new_parent_id"] = input.NewParentID.String()
	}
	s.logAudit(ctx, owner, account.ID, &folder.ID, domain.AuditActionMove, changes)

	return nil
}
