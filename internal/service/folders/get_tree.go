package folders

import (
	"context"

	"github.com/lexwatch/lexwatch-backend/internal/domain"
)

// TreeView is a folder tree snapshot together with its derived per-folder
// tag counts.
type TreeView struct {
	Tree   *domain.FolderTree
	Counts domain.FolderCounts
	Owner  domain.OwnerRef
}

// GetTree returns the caller's folder tree. Reads take no lock and need no
// edit permission; every member of a company sees the shared tree.
func (s *Service) GetTree(ctx context.Context, account domain.Account) (*TreeView, error) {
	owner, err := s.identity.Resolve(ctx, account)
	if err != nil {
		return nil, err
	}

	if err := s.configs.Ensure(ctx, owner.OwnerID); err != nil {
		return nil, err
	}

	tree, err := s.tree.LoadTree(ctx, owner.OwnerID)
	if err != nil {
		return nil, err
	}

	return &TreeView{
		Tree:   tree,
		Counts: tree.Counts(),
		Owner:  owner,
	}, nil
}
