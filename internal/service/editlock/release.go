package editlock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/lexwatch/lexwatch-backend/internal/domain"
	"github.com/lexwatch/lexwatch-backend/internal/service/permission"
)

// Release gives up the caller's lease. Idempotent: releasing a lock that
// already lapsed, or that another account took over, is a no-op. Only
// infrastructure failures surface as errors.
func (s *Service) Release(ctx context.Context, owner domain.OwnerRef, key string, holderID uuid.UUID) error {
	current, err := s.store.Get(ctx, owner.OwnerID, key)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("release: %w", err)
	}
	if current.HolderID != holderID {
		// Someone else holds it now; their lease is not ours to break.
		return nil
	}

	if err := s.store.Delete(ctx, owner.OwnerID, key); err != nil {
		return fmt.Errorf("release: %w", err)
	}

	s.log.InfoContext(ctx, "lock released",
		slog.String("owner_id", owner.OwnerID.String()),
		slog.String("key", key),
		slog.String("holder_id", holderID.String()),
	)
	return nil
}

// ForceRelease breaks another account's lease. Admin-only; the broken
// lease is recorded in the audit trail so the evicted editor's support
// ticket has an answer.
func (s *Service) ForceRelease(ctx context.Context, actor domain.Account, owner domain.OwnerRef, key string) error {
	if err := s.gate.Require(actor, permission.OpForceUnlock); err != nil {
		return err
	}

	current, err := s.store.Get(ctx, owner.OwnerID, key)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("force release: %w", err)
	}

	if err := s.store.Delete(ctx, owner.OwnerID, key); err != nil {
		return fmt.Errorf("force release: %w", err)
	}

	s.log.WarnContext(ctx, "lock force released",
		slog.String("owner_id", owner.OwnerID.String()),
		slog.String("key", key),
		slog.String("evicted_holder", current.HolderID.String()),
		slog.String("actor_id", actor.ID.String()),
	)

	s.logAudit(ctx, domain.AuditRecord{
		ID:         uuid.New(),
		ActorID:    actor.ID,
		OwnerID:    owner.OwnerID,
		EntityType: domain.EntityTypeEditLock,
		Action:     domain.AuditActionForceUnlock,
		Changes: map[string]any{
			"key":            key,
			"evicted_holder": current.HolderID.String(),
		},
		CreatedAt: s.now().UTC(),
	})

	return nil
}
