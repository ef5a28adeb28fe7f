// Package folders manages the owner's folder hierarchy for organizing tag
// definitions. Structural rules are validated against an in-memory snapshot
// of the tree; the write itself runs in one transaction together with the
// owner's version bump, since the folder tree shares the configuration's
// version axis.
package folders

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lexwatch/lexwatch-backend/internal/config"
	"github.com/lexwatch/lexwatch-backend/internal/domain"
	"github.com/lexwatch/lexwatch-backend/internal/service/permission"
)

type treeRepo interface {
	LoadTree(ctx context.Context, ownerID uuid.UUID) (*domain.FolderTree, error)
	InsertFolder(ctx context.Context, ownerID uuid.UUID, f domain.Folder) error
	RenameFolder(ctx context.Context, ownerID, folderID uuid.UUID, name string) error
	MoveFolder(ctx context.Context, ownerID, folderID uuid.UUID, parentID *uuid.UUID) error
	DeleteFolder(ctx context.Context, ownerID, folderID uuid.UUID) error
	SetAssignment(ctx context.Context, ownerID uuid.UUID, tagName string, folderID *uuid.UUID) error
}

type configRepo interface {
	Get(ctx context.Context, ownerID uuid.UUID) (*domain.OwnerConfig, error)
	Ensure(ctx context.Context, ownerID uuid.UUID) error
	BumpVersionCAS(ctx context.Context, ownerID uuid.UUID, expectedVersion *int64) (int64, error)
}

type resolver interface {
	Resolve(ctx context.Context, account domain.Account) (domain.OwnerRef, error)
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

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service provides folder tree operations.
type Service struct {
	identity resolver
	tree     treeRepo
	configs  configRepo
	locks    locker
	gate     permissionGate
	audit    auditLogger
	tx       txManager
	aud      config.AuditConfig
	log      *slog.Logger
}

// NewService creates a new folder tree service.
func NewService(
	log *slog.Logger,
	identity resolver,
	tree treeRepo,
	configs configRepo,
	locks locker,
	gate permissionGate,
	audit auditLogger,
	tx txManager,
	aud config.AuditConfig,
) *Service {
	return &Service{
		identity: identity,
		tree:     tree,
		configs:  configs,
		locks:    locks,
		gate:     gate,
		audit:    audit,
		tx:       tx,
		aud:      aud,
		log:      log.With("service", "folders"),
	}
}

// begin runs the shared preamble of every folder mutation: resolve the
// owner, check the permission, take the folders lease for company scopes,
// make sure the config row exists, and load the tree snapshot the
// validation will run against.
func (s *Service) begin(ctx context.Context, account domain.Account, op permission.Operation) (domain.OwnerRef, *domain.FolderTree, error) {
	owner, err := s.identity.Resolve(ctx, account)
	if err != nil {
		return domain.OwnerRef{}, nil, err
	}

	if err := s.gate.Require(account, op); err != nil {
		return domain.OwnerRef{}, nil, err
	}

	if owner.Source == domain.ConfigSourceCompany {
		if _, err := s.locks.Acquire(ctx, owner, domain.LockKeyFolders, account.ID); err != nil {
			return domain.OwnerRef{}, nil, err
		}
	}

	if err := s.configs.Ensure(ctx, owner.OwnerID); err != nil {
		return domain.OwnerRef{}, nil, err
	}

	tree, err := s.tree.LoadTree(ctx, owner.OwnerID)
	if err != nil {
		return domain.OwnerRef{}, nil, err
	}

	return owner, tree, nil
}

// expectedFor is nil for individual owners (unconditional write).
func expectedFor(owner domain.OwnerRef, expectedVersion *int64) *int64 {
	if owner.Source == domain.ConfigSourceIndividual {
		return nil
	}
	return expectedVersion
}

// logAudit appends an audit record and trims the entity's history on a
// detached context. Best effort only.
func (s *Service) logAudit(ctx context.Context, owner domain.OwnerRef, actorID uuid.UUID, entityID *uuid.UUID, action domain.AuditAction, changes map[string]any) {
	record := domain.AuditRecord{
		ID:         uuid.New(),
		ActorID:    actorID,
		OwnerID:    owner.OwnerID,
		EntityType: domain.EntityTypeFolder,
		EntityID:   entityID,
		Action:     action,
		Changes:    changes,
		CreatedAt:  time.Now().UTC(),
	}

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
