package domain

import (
	"time"

	"github.com/google/uuid"
)

// LockKeyGlobal is the whole-configuration lock scope. Finer scopes are
// "tag:<name>" for a single tag and LockKeyFolders for the folder tree.
const (
	LockKeyGlobal  = "global"
	LockKeyFolders = "folders"
)

// TagLockKey returns the lock scope for editing a single tag.
func TagLockKey(tagName string) string {
	return "tag:" + tagName
}

// EditLock is an advisory, timeout-based mutual-exclusion lease over one
// editable unit of an owner's configuration. It is not enforced by the
// storage engine: every mutation entry point must acquire it before
// writing. Expiry is evaluated lazily at the next acquire attempt; a holder
// that vanishes simply stops heartbeating and its lease lapses.
type EditLock struct {
	OwnerID         uuid.UUID
	Key             string
	HolderID        uuid.UUID
	AcquiredAt      time.Time
	LastHeartbeatAt time.Time
}

// HeldFor returns the total age of the lease.
func (l *EditLock) HeldFor(now time.Time) time.Duration {
	return now.Sub(l.AcquiredAt)
}

// IdleFor returns the time since the last heartbeat.
func (l *EditLock) IdleFor(now time.Time) time.Duration {
	return now.Sub(l.LastHeartbeatAt)
}

// Abandoned reports whether the lease may be reclaimed by another account:
// either the holder stopped heartbeating for longer than idleTimeout, or
// the lease exceeded its absolute lifetime.
func (l *EditLock) Abandoned(now time.Time, idleTimeout, absoluteTimeout time.Duration) bool {
	return l.IdleFor(now) >= idleTimeout || l.HeldFor(now) >= absoluteTimeout
}
