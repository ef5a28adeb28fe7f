// Package ownerconfig exposes the versioned shared configuration: custom
// tag definitions, legal-source coverage and range filters. Every mutation
// goes through the optimistic version check; enterprise writers also hold
// an advisory edit lease while a section is open in their UI.
package ownerconfig

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/lexwatch/lexwatch-backend/internal/config"
	"github.com/lexwatch/lexwatch-backend/internal/domain"
	"github.com/lexwatch/lexwatch-backend/internal/service/permission"
)

type resolver interface {
	Resolve(ctx context.Context, account domain.Account) (domain.OwnerRef, error)
}

type configRepo interface {
	Get(ctx context.Context, ownerID uuid.UUID) (*domain.OwnerConfig, error)
	Ensure(ctx context.Context, ownerID uuid.UUID) error
	UpdateCAS(ctx context.Context, ownerID uuid.UUID, patch domain.ConfigPatch, expectedVersion *int64) (int64, error)
}

type accountRepo interface {
	GetByID(ctx context.Context, accountID uuid.UUID) (*domain.Account, error)
	UpdateRole(ctx context.Context, memberID uuid.UUID, role domain.Role) error
}

type locker interface {
	Acquire(ctx context.Context, owner domain.OwnerRef, key string, holderID uuid.UUID) (domain.EditLock, error)
}

type permissionGate interface {
	Require(account domain.Account, op permission.Operation) error
}

type auditLogger interface {
	Log(ctx context.Context, record domain.AuditRecord) error
	Trim(ctx context.Context, ownerID uuid.UUID, entityType domain.EntityType, keep int) error
}

// Service provides owner configuration operations.
type Service struct {
	identity resolver
	configs  configRepo
	accounts accountRepo
	locks    locker
	gate     permissionGate
	audit    auditLogger
	aud      config.AuditConfig
	log      *slog.Logger
}

// NewService creates a new owner configuration service.
func NewService(
	log *slog.Logger,
	identity resolver,
	configs configRepo,
	accounts accountRepo,
	locks locker,
	gate permissionGate,
	audit auditLogger,
	aud config.AuditConfig,
) *Service {
	return &Service{
		identity: identity,
		configs:  configs,
		accounts: accounts,
		locks:    locks,
		gate:     gate,
		audit:    audit,
		aud:      aud,
		log:      log.With("service", "ownerconfig"),
	}
}

// logAudit appends an audit record and trims the entity's history, both on
// a detached context. Best effort: a failing audit write never fails the
// mutation it describes.
func (s *Service) logAudit(ctx context.Context, record domain.AuditRecord) {
	detached := context.WithoutCancel(ctx)
	go func() {
		auditCtx, cancel := context.WithTimeout(detached, s.aud.WriteTimeout)
		defer cancel()

		if err := s.audit.Log(auditCtx, record); err != nil {
			s.log.WarnContext(auditCtx, "audit write failed",
				slog.String("owner_id", record.OwnerID.String()),
				slog.String("action", record.Action.String()),
				slog.Any("error", err),
			)
			return
		}
		if err := s.audit.Trim(auditCtx, record.OwnerID, record.EntityType, s.aud.HistoryPerEntity); err != nil {
			s.log.WarnContext(auditCtx, "audit trim failed",
				slog.String("owner_id", record.OwnerID.String()),
				slog.Any("error", err),
			)
		}
	}()
}
