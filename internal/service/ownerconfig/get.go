package ownerconfig

import (
	"context"
	"fmt"

	"github.com/lexwatch/lexwatch-backend/internal/domain"
)

// ConfigView is a resolved configuration plus where it came from, so the
// client can label shared company state as such.
type ConfigView struct {
	Config *domain.OwnerConfig
	Owner  domain.OwnerRef
}

// GetConfig resolves the account's effective owner and returns that owner's
// configuration, creating an empty one at version 1 on first touch.
func (s *Service) GetConfig(ctx context.Context, account domain.Account) (*ConfigView, error) {
	owner, err := s.identity.Resolve(ctx, account)
	if err != nil {
		return nil, err
	}

	if err := s.configs.Ensure(ctx, owner.OwnerID); err != nil {
		return nil, fmt.Errorf("ensure config: %w", err)
	}

	cfg, err := s.configs.Get(ctx, owner.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("get config: %w", err)
	}

	return &ConfigView{Config: cfg, Owner: owner}, nil
}
