// Package editlock implements advisory edit locks over owner-scoped
// configuration. A lock warns other editors away from a section; it is
// not a hard mutual exclusion, the version check on write is. Expiry is
// lazy: nobody renews or reaps a lock until someone else wants it.
package editlock

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lexwatch/lexwatch-backend/internal/config"
	"github.com/lexwatch/lexwatch-backend/internal/domain"
	"github.com/lexwatch/lexwatch-backend/internal/service/permission"
)

type lockStore interface {
	Get(ctx context.Context, ownerID uuid.UUID, key string) (*domain.EditLock, error)
	Put(ctx context.Context, lock domain.EditLock, ttl time.Duration) error
	Delete(ctx context.Context, ownerID uuid.UUID, key string) error
	List(ctx context.Context, ownerID uuid.UUID) ([]domain.EditLock, error)
	ListAll(ctx context.Context) ([]domain.EditLock, error)
}

type permissionGate interface {
	Require(account domain.Account, op permission.Operation) error
}

type auditLogger interface {
	Log(ctx context.Context, record domain.AuditRecord) error
}

// Service manages edit lock sessions.
type Service struct {
	store lockStore
	gate  permissionGate
	audit auditLogger
	cfg   config.LockConfig
	aud   config.AuditConfig
	log   *slog.Logger

	now func() time.Time
}

// NewService creates a new edit lock service.
func NewService(
	log *slog.Logger,
	store lockStore,
	gate permissionGate,
	audit auditLogger,
	cfg config.LockConfig,
	aud config.AuditConfig,
) *Service {
	return &Service{
		store: store,
		gate:  gate,
		audit: audit,
		cfg:   cfg,
		aud:   aud,
		log:   log.With("service", "editlock"),
		now:   time.Now,
	}
}

// remainingTTL is how long the lock may still live under the absolute
// session ceiling.
func (s *Service) remainingTTL(lock domain.EditLock) time.Duration {
	return s.cfg.AbsoluteTimeout - s.now().Sub(lock.AcquiredAt)
}

// logAudit appends an audit record on a detached context. A failing audit
// write never fails the operation that produced it.
func (s *Service) logAudit(ctx context.Context, record domain.AuditRecord) {
	detached := context.WithoutCancel(ctx)
	go func() {
		auditCtx, cancel := context.WithTimeout(detached, s.aud.WriteTimeout)
		defer cancel()
		if err := s.audit.Log(auditCtx, record); err != nil {
			s.log.WarnContext(auditCtx, "audit write failed",
				slog.String("entity_type", record.EntityType.String()),
				slog.String("action", record.Action.String()),
				slog.Any("error", err),
			)
		}
	}()
}
