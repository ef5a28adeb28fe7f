package folders

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lexwatch/lexwatch-backend/internal/domain"
	"github.com/lexwatch/lexwatch-backend/internal/service/permission"
)

// CreateFolder inserts a new folder under the given parent (nil = root).
func (s *Service) CreateFolder(ctx context.Context, account domain.Account, input CreateFolderInput) (*domain.Folder, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	owner, tree, err := s.begin(ctx, account, permission.OpCreateFolder)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)

	if input.ParentID != nil {
		if _, ok := tree.Folders[*input.ParentID]; !ok {
			return nil, domain.NewValidationError("parent_id", "parent folder does not exist")
		}
	}
	if tree.SiblingNameTaken(name, input.ParentID, uuid.Nil) {
		return nil, domain.NewValidationError("name", fmt.Sprintf("folder %q already exists here", name))
	}

	folder := domain.Folder{
		ID:        uuid.New(),
		Name:      name,
		ParentID:  input.ParentID,
		CreatedAt: time.Now().UTC(),
		CreatedBy: account.ID,
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.configs.BumpVersionCAS(txCtx, owner.OwnerID, expectedFor(owner, input.ExpectedVersion)); err != nil {
			return err
		}
		if err := s.tree.InsertFolder(txCtx, owner.OwnerID, folder); err != nil {
			return fmt.Errorf("insert folder: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "folder created",
		slog.String("owner_id", owner.OwnerID.String()),
		slog.String("folder_id", folder.ID.String()),
		slog.String("name", name),
	)

	s.logAudit(ctx, owner, account.ID, &folder.ID, domain.AuditActionCreate, map[string]any{
		"name": name,
	})

	return &folder, nil
}
