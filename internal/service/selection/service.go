// Package selection maps an account's personal tag subscription onto the
// tag set its owner actually defines. The two drift apart: company admins
// rename and delete tags without consulting every member, so a member's
// stored selection routinely references tags that no longer exist. The
// resolver reconciles the two on every read instead of chasing selections
// on each tag edit.
package selection

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/lexwatch/lexwatch-backend/internal/config"
	"github.com/lexwatch/lexwatch-backend/internal/domain"
)

type resolver interface {
	Resolve(ctx context.Context, account domain.Account) (domain.OwnerRef, error)
}

type configRepo interface {
	Get(ctx context.Context, ownerID uuid.UUID) (*domain.OwnerConfig, error)
	Ensure(ctx context.Context, ownerID uuid.UUID) error
}

type accountRepo interface {
	UpdateSelectedTags(ctx context.Context, accountID uuid.UUID, names []string) error
}

type auditLogger interface {
	Log(ctx context.Context, record domain.AuditRecord) error
	Trim(ctx context.Context, ownerID uuid.UUID, entityType domain.EntityType, keep int) error
}

// Service resolves and updates personal tag selections.
type Service struct {
	identity resolver
	configs  configRepo
	accounts accountRepo
	audit    auditLogger
	plans    config.PlansConfig
	aud      config.AuditConfig
	log      *slog.Logger
}

// NewService creates a new selection service.
func NewService(
	log *slog.Logger,
	identity resolver,
	configs configRepo,
	accounts accountRepo,
	audit auditLogger,
	plans config.PlansConfig,
	aud config.AuditConfig,
) *Service {
	return &Service{
		identity: identity,
		configs:  configs,
		accounts: accounts,
		audit:    audit,
		plans:    plans,
		aud:      aud,
		log:      log.With("service", "selection"),
	}
}

// available loads the owner's tag set for the account.
func (s *Service) available(ctx context.Context, account domain.Account) (domain.OwnerRef, map[string]domain.TagDefinition, error) {
	owner, err := s.identity.Resolve(ctx, account)
	if err != nil {
		return domain.OwnerRef{}, nil, err
	}
	if err := s.configs.Ensure(ctx, owner.OwnerID); err != nil {
		return domain.OwnerRef{}, nil, err
	}
	cfg, err := s.configs.Get(ctx, owner.OwnerID)
	if err != nil {
		return domain.OwnerRef{}, nil, err
	}
	return owner, cfg.Tags, nil
}
