package editlock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/lexwatch/lexwatch-backend/internal/domain"
)

// Acquire grants or refreshes an edit lease on one section of the owner's
// configuration. Re-entrant: the current holder gets its heartbeat
// refreshed instead of a denial. A lease whose holder went quiet past the
// heartbeat timeout, or that outlived the absolute ceiling, is taken over.
func (s *Service) Acquire(ctx context.Context, owner domain.OwnerRef, key string, holderID uuid.UUID) (domain.EditLock, error) {
	now := s.now().UTC()

	current, err := s.store.Get(ctx, owner.OwnerID, key)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return domain.EditLock{}, fmt.Errorf("get lock: %w", err)
	}

	if err == nil {
		switch {
		case current.Abandoned(now, s.cfg.HeartbeatTimeout, s.cfg.AbsoluteTimeout):
			// Lapsed lease, the holder's own included: a holder returning
			// past the absolute ceiling starts a fresh session too.
			if current.HolderID != holderID {
				s.log.WarnContext(ctx, "taking over abandoned lock",
					slog.String("owner_id", owner.OwnerID.String()),
					slog.String("key", key),
					slog.String("previous_holder", current.HolderID.String()),
					slog.Duration("idle_for", current.IdleFor(now)),
					slog.Duration("held_for", current.HeldFor(now)),
				)
			}

		case current.HolderID == holderID:
			// Re-entrant refresh.
			current.LastHeartbeatAt = now
			if err := s.store.Put(ctx, *current, s.remainingTTL(*current)); err != nil {
				return domain.EditLock{}, fmt.Errorf("refresh lock: %w", err)
			}
			return *current, nil

		default:
			return domain.EditLock{}, &domain.LockDeniedError{
				HolderID: current.HolderID,
				Since:    current.AcquiredAt,
			}
		}
	}

	lock := domain.EditLock{
		OwnerID:         owner.OwnerID,
		Key:             key,
		HolderID:        holderID,
		AcquiredAt:      now,
		LastHeartbeatAt: now,
	}
	if err := s.store.Put(ctx, lock, s.cfg.AbsoluteTimeout); err != nil {
		return domain.EditLock{}, fmt.Errorf("put lock: %w", err)
	}

	s.log.InfoContext(ctx, "lock acquired",
		slog.String("owner_id", owner.OwnerID.String()),
		slog.String("key", key),
		slog.String("holder_id", holderID.String()),
	)

	return lock, nil
}
