package selection

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lexwatch/lexwatch-backend/internal/domain"
)

// UpdateSelection replaces the account's personal tag subscription. This is
// a personal write, not a shared-configuration write: it needs no role, no
// edit lease and no version stamp, regardless of who owns the tags.
func (s *Service) UpdateSelection(ctx context.Context, account domain.Account, names []string) error {
	cleaned := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			return domain.NewValidationError("names", "blank tag name")
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		cleaned = append(cleaned, name)
	}

	limits := s.plans.Limits(account.PlanName)
	if !limits.Unlimited() && len(cleaned) > limits.MaxTags {
		return domain.NewValidationError("names",
			fmt.Sprintf("plan allows at most %d tags, got %d", limits.MaxTags, len(cleaned)))
	}

	owner, tags, err := s.available(ctx, account)
	if err != nil {
		return err
	}
	for _, name := range cleaned {
		if _, ok := tags[name]; !ok {
			return domain.NewValidationError("names", fmt.Sprintf("tag %q is not defined", name))
		}
	}
	sort.Strings(cleaned)

	if err := s.accounts.UpdateSelectedTags(ctx, account.ID, cleaned); err != nil {
		return fmt.Errorf("update selected tags: %w", err)
	}

	s.log.InfoContext(ctx, "selection updated",
		slog.String("account_id", account.ID.String()),
		slog.Int("count", len(cleaned)),
	)

	s.logAudit(ctx, owner, account, cleaned)

	return nil
}

func (s *Service) logAudit(ctx context.Context, owner domain.OwnerRef, account domain.Account, names []string) {
	record := domain.AuditRecord{
		ID:         uuid.New(),
		ActorID:    account.ID,
		OwnerID:    owner.OwnerID,
		EntityType: domain.EntityTypeSelection,
		EntityID:   &account.ID,
		Action:     domain.AuditActionUpdate,
		Changes:    map[string]any{"selected": names},
		CreatedAt:  time.Now().UTC(),
	}

	detached := context.WithoutCancel(ctx)
	go func() {
		auditCtx, cancel := context.WithTimeout(detached, s.aud.WriteTimeout)
		defer cancel()
		if err := s.audit.Log(auditCtx, record); err != nil {
			s.log.WarnContext(auditCtx, "audit write failed",
				slog.String("account_id", account.ID.String()),
				slog.Any("error", err),
			)
			return
		}
		if err := s.audit.Trim(auditCtx, record.OwnerID, record.EntityType, s.aud.HistoryPerEntity); err != nil {
			s.log.WarnContext(auditCtx, "audit trim failed",
				slog.String("account_id", account.ID.String()),
				slog.Any("error", err),
			)
		}
	}()
}
