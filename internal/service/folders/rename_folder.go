package folders

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lexwatch/lexwatch-backend/internal/domain"
	"github.com/lexwatch/lexwatch-backend/internal/service/permission"
)

// RenameFolder changes a folder's display name. Uniqueness is checked
// against the current siblings, excluding the folder itself.
func (s *Service) RenameFolder(ctx context.Context, account domain.Account, input RenameFolderInput) error {
	if err := input.Validate(); err != nil {
		return err
	}

	owner, tree, err := s.begin(ctx, account, permission.OpRenameFolder)
	if err != nil {
		return err
	}

	folder, ok := tree.Folders[input.FolderID]
	if !ok {
		return fmt.Errorf("folder %s: %w", input.FolderID, domain.ErrNotFound)
	}

	name := strings.TrimSpace(input.NewName)
	if tree.SiblingNameTaken(name, folder.ParentID, folder.ID) {
		return domain.NewValidationError("new_name", fmt.Sprintf("folder %q already exists here", name))
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.configs.BumpVersionCAS(txCtx, owner.OwnerID, expectedFor(owner, input.ExpectedVersion)); err != nil {
			return err
		}
		if err := s.tree.RenameFolder(txCtx, owner.OwnerID, folder.ID, name); err != nil {
			return fmt.Errorf("rename folder: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.InfoContext(ctx, "folder renamed",
		slog.String("owner_id", owner.OwnerID.String()),
		slog.String("folder_id", folder.ID.String()),
	)

	s.logAudit(ctx, owner, account.ID, &folder.ID, domain.AuditActionRename, map[string]any{
		"name": map[string]any{"old": folder.Name, "new": name},
	})

	return nil
}
