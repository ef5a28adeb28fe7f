package domain

import (
	"time"

	"github.com/google/uuid"
)

// ConfigSource tells the caller whether the configuration it received is
// personal or shared company state.
type ConfigSource string

const (
	ConfigSourceIndividual ConfigSource = "INDIVIDUAL"
	ConfigSourceCompany    ConfigSource = "COMPANY"
)

func (s ConfigSource) String() string { return string(s) }

// OwnerRef is the result of identity resolution: the record that actually
// stores a piece of configuration, plus every id historically associated
// with it.
type OwnerRef struct {
	// OwnerID is the account that owns the configuration (the individual
	// account itself, or the company structure).
	OwnerID uuid.UUID

	// TargetIDs is OwnerID plus any legacy member ids absorbed into the
	// owner during migration. Lookups that match documents by owner should
	// match any of these.
	TargetIDs []uuid.UUID

	Source ConfigSource
}

// IndividualOwner returns an OwnerRef scoped to a single personal account.
func IndividualOwner(accountID uuid.UUID) OwnerRef {
	return OwnerRef{
		OwnerID:   accountID,
		TargetIDs: []uuid.UUID{accountID},
		Source:    ConfigSourceIndividual,
	}
}

// CompanyOwner returns an OwnerRef scoped to a company structure, folding
// in its legacy member ids.
func CompanyOwner(structureID uuid.UUID, legacyIDs []uuid.UUID) OwnerRef {
	targets := make([]uuid.UUID, 0, len(legacyIDs)+1)
	targets = append(targets, structureID)
	targets = append(targets, legacyIDs...)
	return OwnerRef{
		OwnerID:   structureID,
		TargetIDs: targets,
		Source:    ConfigSourceCompany,
	}
}

// LegalCoverage lists the legal sources an owner monitors.
type LegalCoverage struct {
	GovernmentSources []string `json:"government_sources"`
	RegulatorSources  []string `json:"regulator_sources"`
}

// OwnerConfig is the shared mutable configuration of one owner. Version is
// the optimistic-concurrency stamp: it starts at 1 and increments by exactly
// one on every committed mutation, including folder-tree mutations (the
// folder tree shares the owner's version axis).
type OwnerConfig struct {
	OwnerID      uuid.UUID
	Tags         map[string]TagDefinition
	Coverage     LegalCoverage
	RangeFilters []string
	Version      int64
	UpdatedAt    time.Time
}

// ConfigPatch is a partial update to an OwnerConfig. Nil fields are left
// untouched by the write.
type ConfigPatch struct {
	Tags         map[string]TagDefinition
	Coverage     *LegalCoverage
	RangeFilters []string
}

// IsEmpty reports whether the patch carries no change at all.
func (p ConfigPatch) IsEmpty() bool {
	return p.Tags == nil && p.Coverage == nil && p.RangeFilters == nil
}
