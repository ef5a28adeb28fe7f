package domain

import (
	"time"

	"github.com/google/uuid"
)

// AccountKind distinguishes the three record shapes stored in the accounts
// table. The kind is an explicit tag so downstream code never has to infer
// it from the presence or absence of fields.
type AccountKind string

const (
	// AccountKindIndividual is a standalone subscriber owning its own
	// configuration.
	AccountKindIndividual AccountKind = "INDIVIDUAL"
	// AccountKindCompanyMember is a person attached to a company structure.
	AccountKindCompanyMember AccountKind = "COMPANY_MEMBER"
	// AccountKindCompanyStructure is the shared record holding the canonical
	// configuration for all members of an organization. It has no personal
	// email and never logs in by itself.
	AccountKindCompanyStructure AccountKind = "COMPANY_STRUCTURE"
)

func (k AccountKind) String() string { return string(k) }

func (k AccountKind) IsValid() bool {
	switch k {
	case AccountKindIndividual, AccountKindCompanyMember, AccountKindCompanyStructure:
		return true
	}
	return false
}

// Role is the permission tier of a company member. It is only meaningful
// for AccountKindCompanyMember records.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleEdit  Role = "EDIT"
	RoleRead  Role = "READ"
)

func (r Role) String() string { return string(r) }

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleEdit, RoleRead:
		return true
	}
	return false
}

// Account is one record in the accounts table: an individual subscriber,
// a company member, or a company structure, tagged by Kind.
type Account struct {
	ID   uuid.UUID
	Kind AccountKind

	// Email is nil for company structures.
	Email *string

	// CompanyName is the fallback correlation key used when a member record
	// predates the direct CompanyStructureID link.
	CompanyName *string

	// CompanyStructureID is the direct back-reference from a member to its
	// structure. Only set for AccountKindCompanyMember.
	CompanyStructureID *uuid.UUID

	// Role is the member's permission tier; zero value for other kinds.
	Role Role

	// LegacyMemberIDs lists older individual account ids absorbed into this
	// structure during migration. Only populated for company structures.
	LegacyMemberIDs []uuid.UUID

	// SelectedTagNames is the account's personal subset filter over the
	// owner's tag set, independent of who owns the tags.
	SelectedTagNames []string

	// PlanName keys into the plan-limit lookup.
	PlanName string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsStructure reports whether the account is itself a company structure.
func (a *Account) IsStructure() bool {
	return a.Kind == AccountKindCompanyStructure
}

// IsMember reports whether the account belongs to a company structure.
func (a *Account) IsMember() bool {
	return a.Kind == AccountKindCompanyMember
}
