package editlock

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/lexwatch/lexwatch-backend/internal/domain"
)

// Heartbeat renews the caller's lease. Returns domain.ErrNotFound when the
// caller does not hold the lock, whether it lapsed or someone took it over;
// the client reacts the same way either way, by re-acquiring.
func (s *Service) Heartbeat(ctx context.Context, owner domain.OwnerRef, key string, holderID uuid.UUID) (domain.EditLock, error) {
	now := s.now().UTC()

	current, err := s.store.Get(ctx, owner.OwnerID, key)
	if err != nil {
		return domain.EditLock{}, fmt.Errorf("heartbeat: %w", err)
	}
	if current.HolderID != holderID {
		return domain.EditLock{}, fmt.Errorf("heartbeat: lock %s/%s held by another account: %w",
			owner.OwnerID, key, domain.ErrNotFound)
	}
	if current.Abandoned(now, s.cfg.HeartbeatTimeout, s.cfg.AbsoluteTimeout) {
		// A lapsed lease is gone even for its own holder. Going quiet past
		// the idle window or the session ceiling means re-acquiring, not
		// resuming; anyone may have taken the section over in between.
		return domain.EditLock{}, fmt.Errorf("heartbeat: lock %s/%s session lapsed: %w",
			owner.OwnerID, key, domain.ErrNotFound)
	}

	current.LastHeartbeatAt = now
	if err := s.store.Put(ctx, *current, s.remainingTTL(*current)); err != nil {
		return domain.EditLock{}, fmt.Errorf("heartbeat: %w", err)
	}
	return *current, nil
}

// List returns the active leases within one owner context.
func (s *Service) List(ctx context.Context, owner domain.OwnerRef) ([]domain.EditLock, error) {
	locks, err := s.store.List(ctx, owner.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("list locks: %w", err)
	}
	return locks, nil
}
