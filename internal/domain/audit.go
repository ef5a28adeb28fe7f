package domain

import (
	"time"

	"github.com/google/uuid"
)

// EntityType identifies the kind of domain entity (used in audit logs).
type EntityType string

const (
	EntityTypeOwnerConfig EntityType = "OWNER_CONFIG"
	EntityTypeFolder      EntityType = "FOLDER"
	EntityTypeEditLock    EntityType = "EDIT_LOCK"
	EntityTypeSelection   EntityType = "SELECTION"
	EntityTypeAccount     EntityType = "ACCOUNT"
)

func (t EntityType) String() string { return string(t) }

func (t EntityType) IsValid() bool {
	switch t {
	case EntityTypeOwnerConfig, EntityTypeFolder, EntityTypeEditLock,
		EntityTypeSelection, EntityTypeAccount:
		return true
	}
	return false
}

// AuditAction identifies what happened to the entity.
type AuditAction string

const (
	AuditActionCreate      AuditAction = "CREATE"
	AuditActionUpdate      AuditAction = "UPDATE"
	AuditActionDelete      AuditAction = "DELETE"
	AuditActionMove        AuditAction = "MOVE"
	AuditActionRename      AuditAction = "RENAME"
	AuditActionAssign      AuditAction = "ASSIGN"
	AuditActionForceUnlock AuditAction = "FORCE_UNLOCK"
	AuditActionRoleChange  AuditAction = "ROLE_CHANGE"
)

func (a AuditAction) String() string { return string(a) }

// AuditRecord logs one mutation of shared state. The audit trail is
// best-effort: it is appended on a side channel and a failure to record it
// never fails the primary mutation.
type AuditRecord struct {
	ID         uuid.UUID
	ActorID    uuid.UUID
	OwnerID    uuid.UUID
	EntityType EntityType
	EntityID   *uuid.UUID
	Action     AuditAction
	Changes    map[string]any
	CreatedAt  time.Time
}
