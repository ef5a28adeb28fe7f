// Package identity resolves which record owns an account's shared
// configuration: the account itself, or a company structure reached
// through a direct link, a legacy member link, or a company-name match.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/lexwatch/lexwatch-backend/internal/domain"
)

type accountRepo interface {
	GetByID(ctx context.Context, accountID uuid.UUID) (*domain.Account, error)
	GetStructureByID(ctx context.Context, structureID uuid.UUID) (*domain.Account, error)
	GetStructureByName(ctx context.Context, companyName string) (*domain.Account, error)
	GetStructureByLegacyMemberID(ctx context.Context, memberID uuid.UUID) (*domain.Account, error)
}

// Service resolves effective configuration owners.
type Service struct {
	accounts accountRepo
	log      *slog.Logger
}

// NewService creates a new identity resolution service.
func NewService(log *slog.Logger, accounts accountRepo) *Service {
	return &Service{
		accounts: accounts,
		log:      log.With("service", "identity"),
	}
}

// Resolve determines the effective owner of the account's shared
// configuration. First match wins: direct structure link, the account being
// a structure itself, company-name lookup, legacy member back-link, and
// finally the account itself. A dangling structure reference degrades to
// individual scope with a warning instead of failing the request.
func (s *Service) Resolve(ctx context.Context, account domain.Account) (domain.OwnerRef, error) {
	if account.CompanyStructureID != nil {
		structure, err := s.accounts.GetStructureByID(ctx, *account.CompanyStructureID)
		if err == nil {
			return domain.CompanyOwner(structure.ID, structure.LegacyMemberIDs), nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return domain.OwnerRef{}, fmt.Errorf("resolve structure by id: %w", err)
		}
		// Dangling reference. Lose the enterprise context gracefully
		// rather than failing every request of this account.
		s.log.WarnContext(ctx, "degraded resolution: linked company structure not found",
			slog.String("account_id", account.ID.String()),
			slog.String("structure_id", account.CompanyStructureID.String()),
		)
		return domain.IndividualOwner(account.ID), nil
	}

	if account.IsStructure() {
		return domain.CompanyOwner(account.ID, account.LegacyMemberIDs), nil
	}

	if account.CompanyName != nil {
		structure, err := s.accounts.GetStructureByName(ctx, *account.CompanyName)
		if err == nil {
			return domain.CompanyOwner(structure.ID, structure.LegacyMemberIDs), nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return domain.OwnerRef{}, fmt.Errorf("resolve structure by name: %w", err)
		}
		// No structure carries this name (yet); fall through.
	}

	structure, err := s.accounts.GetStructureByLegacyMemberID(ctx, account.ID)
	if err == nil {
		return domain.CompanyOwner(structure.ID, structure.LegacyMemberIDs), nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.OwnerRef{}, fmt.Errorf("resolve structure by legacy member id: %w", err)
	}

	return domain.IndividualOwner(account.ID), nil
}

// ResolveByID loads the account and resolves its owner in one call.
func (s *Service) ResolveByID(ctx context.Context, accountID uuid.UUID) (domain.Account, domain.OwnerRef, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return domain.Account{}, domain.OwnerRef{}, fmt.Errorf("load account: %w", err)
	}

	owner, err := s.Resolve(ctx, *account)
	if err != nil {
		return domain.Account{}, domain.OwnerRef{}, err
	}
	return *account, owner, nil
}
