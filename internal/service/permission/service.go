// Package permission decides whether an account may run a mutating
// operation on its effective owner's configuration.
package permission

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/lexwatch/lexwatch-backend/internal/domain"
)

// Operation is a mutating operation subject to the permission rules.
type Operation string

const (
	OpUpdateTags       Operation = "UPDATE_TAGS"
	OpUpdateCoverage   Operation = "UPDATE_COVERAGE"
	OpUpdateRanges     Operation = "UPDATE_RANGES"
	OpAssignTag        Operation = "ASSIGN_TAG"
	OpCreateFolder     Operation = "CREATE_FOLDER"
	OpRenameFolder     Operation = "RENAME_FOLDER"
	OpMoveFolder       Operation = "MOVE_FOLDER"
	OpDeleteFolder     Operation = "DELETE_FOLDER"
	OpChangeMemberRole Operation = "CHANGE_MEMBER_ROLE"
	OpForceUnlock      Operation = "FORCE_UNLOCK"
	OpUpdateSelection  Operation = "UPDATE_SELECTION"
)

func (o Operation) String() string { return string(o) }

// rbacModel is a role-per-subject RBAC model: a request carries the
// member's role and the operation, the g relation folds the role
// hierarchy in. The model and policies are embedded so the gate has no
// files to deploy or reload.
const rbacModel = `
[request_definition]
r = sub, act

[policy_definition]
p = sub, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.act == p.act
`

// Tag, coverage and assignment edits are open to editors; structural
// folder changes, role changes and lock breaking are admin territory.
var (
	editorOps = []Operation{OpUpdateTags, OpUpdateCoverage, OpUpdateRanges, OpAssignTag}
	adminOps  = []Operation{OpCreateFolder, OpRenameFolder, OpMoveFolder, OpDeleteFolder, OpChangeMemberRole, OpForceUnlock}
)

func policyRules() [][]string {
	rules := make([][]string, 0, len(editorOps)+len(adminOps))
	for _, op := range editorOps {
		rules = append(rules, []string{domain.RoleEdit.String(), op.String()})
	}
	for _, op := range adminOps {
		rules = append(rules, []string{domain.RoleAdmin.String(), op.String()})
	}
	return rules
}

// Service is the permission gate. It holds one in-memory enforcer built
// at construction; evaluation is lock-free reads after that.
type Service struct {
	enforcer *casbin.Enforcer
}

// NewService builds the permission gate and loads its policy set.
func NewService() (*Service, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("permission: parse model: %w", err)
	}
	enf, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("permission: init enforcer: %w", err)
	}
	// Admins inherit every editor permission on top of their own.
	if _, err := enf.AddGroupingPolicy(domain.RoleAdmin.String(), domain.RoleEdit.String()); err != nil {
		return nil, fmt.Errorf("permission: load role hierarchy: %w", err)
	}
	if _, err := enf.AddPolicies(policyRules()); err != nil {
		return nil, fmt.Errorf("permission: load policies: %w", err)
	}
	return &Service{enforcer: enf}, nil
}

// Allowed reports whether the account may run the operation.
func (s *Service) Allowed(account domain.Account, op Operation) bool {
	// The selection is personal state, never shared; everyone manages
	// their own.
	if op == OpUpdateSelection {
		return true
	}

	switch account.Kind {
	case domain.AccountKindIndividual:
		// Individuals always mutate their own data freely.
		return true
	case domain.AccountKindCompanyStructure:
		// A structure record acting directly is the company itself.
		return true
	case domain.AccountKindCompanyMember:
		if !account.Role.IsValid() {
			return false
		}
		ok, err := s.enforcer.Enforce(account.Role.String(), op.String())
		if err != nil {
			return false
		}
		return ok
	default:
		return false
	}
}

// Require returns a wrapped domain.ErrForbidden when the account may not
// run the operation, nil otherwise. Denials are plain results; nothing in
// the pipeline treats them as fatal.
func (s *Service) Require(account domain.Account, op Operation) error {
	if s.Allowed(account, op) {
		return nil
	}
	return fmt.Errorf("account %s role %s operation %s: %w",
		account.ID, account.Role, op, domain.ErrForbidden)
}
