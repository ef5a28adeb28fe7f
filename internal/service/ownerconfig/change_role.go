package ownerconfig

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lexwatch/lexwatch-backend/internal/domain"
	"github.com/lexwatch/lexwatch-backend/internal/service/permission"
)

// ChangeMemberRole sets a company member's permission tier. Admin-only.
func (s *Service) ChangeMemberRole(ctx context.Context, actor domain.Account, memberID uuid.UUID, newRole domain.Role) error {
	if !newRole.IsValid() {
		return domain.NewValidationError("role", fmt.Sprintf("unknown role %q", newRole))
	}
	if memberID == actor.ID {
		return domain.NewValidationError("member_id", "cannot change own role")
	}

	if err := s.gate.Require(actor, permission.OpChangeMemberRole); err != nil {
		return err
	}

	owner, err := s.identity.Resolve(ctx, actor)
	if err != nil {
		return err
	}
	if owner.Source != domain.ConfigSourceCompany {
		return fmt.Errorf("actor %s has no company context: %w", actor.ID, domain.ErrForbidden)
	}

	member, err := s.accounts.GetByID(ctx, memberID)
	if err != nil {
		return fmt.Errorf("load member: %w", err)
	}
	if !member.IsMember() {
		return domain.NewValidationError("member_id", "not a company member account")
	}

	memberOwner, err := s.identity.Resolve(ctx, *member)
	if err != nil {
		return err
	}
	if memberOwner.OwnerID != owner.OwnerID {
		// Admins only manage members of their own structure.
		return fmt.Errorf("member %s belongs to a different company: %w", memberID, domain.ErrForbidden)
	}

	previousRole := member.Role
	if err := s.accounts.UpdateRole(ctx, memberID, newRole); err != nil {
		return fmt.Errorf("update role: %w", err)
	}

	s.log.InfoContext(ctx, "member role changed",
		slog.String("owner_id", owner.OwnerID.String()),
		slog.String("actor_id", actor.ID.String()),
		slog.String("member_id", memberID.String()),
		slog.String("role", newRole.String()),
	)

	s.logAudit(ctx, domain.AuditRecord{
		ID:         uuid.New(),
		ActorID:    actor.ID,
		OwnerID:    owner.OwnerID,
		EntityType: domain.EntityTypeAccount,
		EntityID:   &memberID,
		Action:     domain.AuditActionRoleChange,
		Changes: map[string]any{
			"role": map[string]any{"old": previousRole.String(), "new": newRole.String()},
		},
		CreatedAt: time.Now().UTC(),
	})

	return nil
}
