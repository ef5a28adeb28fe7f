package ownerconfig

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lexwatch/lexwatch-backend/internal/domain"
	"github.com/lexwatch/lexwatch-backend/internal/service/permission"
)

// maxTagNameLen caps tag display names.
const maxTagNameLen = 120

// UpdateInput carries a partial configuration update.
type UpdateInput struct {
	Patch domain.ConfigPatch

	// ExpectedVersion is the version the client last saw. nil asks for an
	// unconditional write; company-scoped writers should always send it.
	ExpectedVersion *int64

	// LockKey is the configuration section this edit belongs to. Empty
	// defaults to the global lock.
	LockKey string
}

// Validate checks all fields and collects all errors.
func (i UpdateInput) Validate() error {
	var errs []domain.FieldError

	if i.Patch.IsEmpty() {
		errs = append(errs, domain.FieldError{Field: "patch", Message: "at least one section must be provided"})
	}
	for name, def := range i.Patch.Tags {
		if strings.TrimSpace(name) == "" {
			errs = append(errs, domain.FieldError{Field: "tags", Message: "tag name required"})
			continue
		}
		if len(name) > maxTagNameLen {
			errs = append(errs, domain.FieldError{Field: "tags", Message: fmt.Sprintf("tag %q: name too long", name)})
		}
		if !def.Kind.IsValid() {
			errs = append(errs, domain.FieldError{Field: "tags", Message: fmt.Sprintf("tag %q: unknown kind %q", name, def.Kind)})
		}
		if def.Kind == domain.TagKindImpact && def.Impact == nil {
			errs = append(errs, domain.FieldError{Field: "tags", Message: fmt.Sprintf("tag %q: impact payload required", name)})
		}
	}
	if i.ExpectedVersion != nil && *i.ExpectedVersion < 1 {
		errs = append(errs, domain.FieldError{Field: "expected_version", Message: "must be >= 1"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// operations maps the patched sections to their permission checks.
func (i UpdateInput) operations() []permission.Operation {
	var ops []permission.Operation
	if i.Patch.Tags != nil {
		ops = append(ops, permission.OpUpdateTags)
	}
	if i.Patch.Coverage != nil {
		ops = append(ops, permission.OpUpdateCoverage)
	}
	if i.Patch.RangeFilters != nil {
		ops = append(ops, permission.OpUpdateRanges)
	}
	return ops
}

// Update applies a partial configuration update under the optimistic
// version check. Company-scoped writes hold the section's edit lease
// (re-entrant, released when the editing session ends, not per call) and
// pass the expected version through; the individual path writes
// unconditionally. The result is the new version stamp.
func (s *Service) Update(ctx context.Context, account domain.Account, input UpdateInput) (int64, error) {
	if err := input.Validate(); err != nil {
		return 0, err
	}

	owner, err := s.identity.Resolve(ctx, account)
	if err != nil {
		return 0, err
	}

	for _, op := range input.operations() {
		if err := s.gate.Require(account, op); err != nil {
			return 0, err
		}
	}

	expectedVersion := input.ExpectedVersion
	if owner.Source == domain.ConfigSourceIndividual {
		// No concurrent multi-editor scenario for personal data.
		expectedVersion = nil
	} else {
		lockKey := input.LockKey
		if lockKey == "" {
			lockKey = domain.LockKeyGlobal
		}
		if _, err := s.locks.Acquire(ctx, owner, lockKey, account.ID); err != nil {
			return 0, err
		}
	}

	if err := s.configs.Ensure(ctx, owner.OwnerID); err != nil {
		return 0, fmt.Errorf("ensure config: %w", err)
	}

	newVersion, err := s.configs.UpdateCAS(ctx, owner.OwnerID, input.Patch, expectedVersion)
	if err != nil {
		return 0, err
	}

	s.log.InfoContext(ctx, "config updated",
		slog.String("owner_id", owner.OwnerID.String()),
		slog.String("actor_id", account.ID.String()),
		slog.Int64("version", newVersion),
	)

	s.logAudit(ctx, domain.AuditRecord{
		ID:         uuid.New(),
		ActorID:    account.ID,
		OwnerID:    owner.OwnerID,
		EntityType: domain.EntityTypeOwnerConfig,
		EntityID:   &owner.OwnerID,
		Action:     domain.AuditActionUpdate,
		Changes:    describePatch(input.Patch, newVersion),
		CreatedAt:  time.Now().UTC(),
	})

	return newVersion, nil
}

// describePatch summarizes what the patch touched for the audit trail.
func describePatch(patch domain.ConfigPatch, newVersion int64) map[string]any {
	changes := map[string]any{"version": newVersion}
	if patch.Tags != nil {
		names := make([]string, 0, len(patch.Tags))
		for name := range patch.Tags {
			names = append(names, name)
		}
		changes["tags"] = names
	}
	if patch.Coverage != nil {
		changes["coverage"] = map[string]any{
			"government_sources": len(patch.Coverage.GovernmentSources),
			"regulator_sources":  len(patch.Coverage.RegulatorSources),
		}
	}
	if patch.RangeFilters != nil {
		changes["range_filters"] = len(patch.RangeFilters)
	}
	return changes
}
