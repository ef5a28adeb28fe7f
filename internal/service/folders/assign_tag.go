package folders

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lexwatch/lexwatch-backend/internal/domain"
	"github.com/lexwatch/lexwatch-backend/internal/service/permission"
)

// AssignTag files a tag under a folder, or unfiles it when FolderID is nil.
// The tag must exist in the owner's configuration; a tag can sit in at most
// one folder, so assigning again simply moves it.
func (s *Service) AssignTag(ctx context.Context, account domain.Account, input AssignTagInput) error {
	if err := input.Validate(); err != nil {
		return err
	}

	owner, tree, err := s.begin(ctx, account, permission.OpAssignTag)
	if err != nil {
		return err
	}

	cfg, err := s.configs.Get(ctx, owner.OwnerID)
	if err != nil {
		return err
	}
	if _, ok := cfg.Tags[input.TagName]; !ok {
		return domain.NewValidationError("tag_name", fmt.Sprintf("tag %q is not defined", input.TagName))
	}
	if input.FolderID != nil {
		if _, ok := tree.Folders[*input.FolderID]; !ok {
			return domain.NewValidationError("folder_id", "folder does not exist")
		}
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.configs.BumpVersionCAS(txCtx, owner.OwnerID, expectedFor(owner, input.ExpectedVersion)); err != nil {
			return err
		}
		if err := s.tree.SetAssignment(txCtx, owner.OwnerID, input.TagName, input.FolderID); err != nil {
			return fmt.Errorf("assign tag: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.InfoContext(ctx, "tag filed",
		slog.String("owner_id", owner.OwnerID.String()),
		slog.String("tag_name", input.TagName),
	)

	changes := map[string]any{"tag_name": input.TagName}
	if input.FolderID != nil {
		changes["folder_id"] = input.FolderID.String()
	}
	s.logAudit(ctx, owner, account.ID, input.FolderID, domain.AuditActionAssign, changes)

	return nil
}
