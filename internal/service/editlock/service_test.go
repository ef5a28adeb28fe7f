package editlock

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/lexwatch/lexwatch-backend/internal/adapter/redislock"
	"github.com/lexwatch/lexwatch-backend/internal/config"
	"github.com/lexwatch/lexwatch-backend/internal/domain"
	"github.com/lexwatch/lexwatch-backend/internal/service/permission"
)

type mockAuditLogger struct {
	LogFunc func(ctx context.Context, record domain.AuditRecord) error
}

func (m *mockAuditLogger) Log(ctx context.Context, record domain.AuditRecord) error {
	if m.LogFunc != nil {
		return m.LogFunc(ctx, record)
	}
	return nil
}

// testClock lets tests move the service's notion of time forward without
// sleeping.
type testClock struct {
	current time.Time
}

func (c *testClock) Now() time.Time          { return c.current }
func (c *testClock) Advance(d time.Duration) { c.current = c.current.Add(d) }

func newTestService(t *testing.T, audit *mockAuditLogger) (*Service, *testClock) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := redislock.NewWithClient(client)
	t.Cleanup(func() { store.Close() })

	if audit == nil {
		audit = &mockAuditLogger{}
	}

	gate, err := permission.NewService()
	if err != nil {
		t.Fatalf("build gate: %v", err)
	}

	svc := NewService(
		slog.Default(),
		store,
		gate,
		audit,
		config.LockConfig{
			HeartbeatTimeout: 10 * time.Minute,
			AbsoluteTimeout:  30 * time.Minute,
		},
		config.AuditConfig{WriteTimeout: time.Second},
	)

	clock := &testClock{current: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
	svc.now = clock.Now
	return svc, clock
}

func companyOwner() domain.OwnerRef {
	return domain.CompanyOwner(uuid.New(), nil)
}

// ===========================================================================
// Acquire
// ===========================================================================

func TestAcquire_Fresh(t *testing.T) {
	t.Parallel()
	svc, clock := newTestService(t, nil)
	ctx := context.Background()

	owner := companyOwner()
	holder := uuid.New()

	lock, err := svc.Acquire(ctx, owner, domain.LockKeyGlobal, holder)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lock.HolderID != holder {
		t.Errorf("HolderID: got %s, want %s", lock.HolderID, holder)
	}
	if !lock.AcquiredAt.Equal(clock.Now()) {
		t.Errorf("AcquiredAt: got %v, want %v", lock.AcquiredAt, clock.Now())
	}
}

func TestAcquire_ReentrantRefreshesHeartbeat(t *testing.T) {
	t.Parallel()
	svc, clock := newTestService(t, nil)
	ctx := context.Background()

	owner := companyOwner()
	holder := uuid.New()

	first, err := svc.Acquire(ctx, owner, domain.LockKeyGlobal, holder)
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	clock.Advance(5 * time.Minute)

	second, err := svc.Acquire(ctx, owner, domain.LockKeyGlobal, holder)
	if err != nil {
		t.Fatalf("re-entrant acquire must succeed, got: %v", err)
	}
	if !second.AcquiredAt.Equal(first.AcquiredAt) {
		t.Errorf("re-entry must keep the original AcquiredAt: got %v, want %v",
			second.AcquiredAt, first.AcquiredAt)
	}
	if !second.LastHeartbeatAt.After(first.LastHeartbeatAt) {
		t.Errorf("re-entry must refresh the heartbeat")
	}
}

func TestAcquire_DeniedWhileHolderActive(t *testing.T) {
	t.Parallel()
	svc, clock := newTestService(t, nil)
	ctx := context.Background()

	owner := companyOwner()
	holder := uuid.New()

	granted, err := svc.Acquire(ctx, owner, domain.LockKeyGlobal, holder)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	clock.Advance(9 * time.Minute) // inside the heartbeat window

	_, err = svc.Acquire(ctx, owner, domain.LockKeyGlobal, uuid.New())
	var denied *domain.LockDeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("expected LockDeniedError, got: %v", err)
	}
	if denied.HolderID != holder {
		t.Errorf("denied holder: got %s, want %s", denied.HolderID, holder)
	}
	if !denied.Since.Equal(granted.AcquiredAt) {
		t.Errorf("denied since: got %v, want %v", denied.Since, granted.AcquiredAt)
	}
	if !errors.Is(err, domain.ErrLockDenied) {
		t.Errorf("denial should unwrap to ErrLockDenied")
	}
}

func TestAcquire_TakeoverAfterHeartbeatTimeout(t *testing.T) {
	t.Parallel()
	svc, clock := newTestService(t, nil)
	ctx := context.Background()

	owner := companyOwner()
	stale := uuid.New()

	if _, err := svc.Acquire(ctx, owner, domain.LockKeyGlobal, stale); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	clock.Advance(10 * time.Minute) // holder went quiet for the full window

	newHolder := uuid.New()
	lock, err := svc.Acquire(ctx, owner, domain.LockKeyGlobal, newHolder)
	if err != nil {
		t.Fatalf("takeover must succeed, got: %v", err)
	}
	if lock.HolderID != newHolder {
		t.Errorf("HolderID after takeover: got %s, want %s", lock.HolderID, newHolder)
	}
	if !lock.AcquiredAt.Equal(clock.Now()) {
		t.Errorf("takeover must start a fresh lease")
	}
}

func TestAcquire_TakeoverAfterAbsoluteTimeout(t *testing.T) {
	t.Parallel()
	svc, clock := newTestService(t, nil)
	ctx := context.Background()

	owner := companyOwner()
	stale := uuid.New()

	if _, err := svc.Acquire(ctx, owner, domain.LockKeyGlobal, stale); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	// Keep heartbeating but exceed the 30m session ceiling.
	for i := 0; i < 6; i++ {
		clock.Advance(5 * time.Minute)
		if i < 5 {
			if _, err := svc.Heartbeat(ctx, owner, domain.LockKeyGlobal, stale); err != nil {
				t.Fatalf("heartbeat #%d: %v", i, err)
			}
		}
	}

	lock, err := svc.Acquire(ctx, owner, domain.LockKeyGlobal, uuid.New())
	if err != nil {
		t.Fatalf("acquire after absolute timeout must succeed, got: %v", err)
	}
	if lock.HolderID == stale {
		t.Errorf("lease must change hands after the absolute ceiling")
	}
}

func TestAcquire_IndependentKeys(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	owner := companyOwner()

	if _, err := svc.Acquire(ctx, owner, domain.TagLockKey("GDPR"), uuid.New()); err != nil {
		t.Fatalf("acquire tag lock: %v", err)
	}
	// A different section is free.
	if _, err := svc.Acquire(ctx, owner, domain.LockKeyFolders, uuid.New()); err != nil {
		t.Fatalf("folders lock should be independent, got: %v", err)
	}
}

// ===========================================================================
// Heartbeat
// ===========================================================================

func TestHeartbeat_NotHolder(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	owner := companyOwner()

	if _, err := svc.Acquire(ctx, owner, domain.LockKeyGlobal, uuid.New()); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	_, err := svc.Heartbeat(ctx, owner, domain.LockKeyGlobal, uuid.New())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("foreign heartbeat should be ErrNotFound, got: %v", err)
	}
}

func TestHeartbeat_LapsedAfterIdleWindow(t *testing.T) {
	t.Parallel()
	svc, clock := newTestService(t, nil)
	ctx := context.Background()

	owner := companyOwner()
	holder := uuid.New()

	first, err := svc.Acquire(ctx, owner, domain.LockKeyGlobal, holder)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	// The holder goes quiet past the 10m idle window; the lease is gone
	// even for them, heartbeats cannot resurrect it.
	clock.Advance(11 * time.Minute)

	_, err = svc.Heartbeat(ctx, owner, domain.LockKeyGlobal, holder)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("heartbeat past the idle window should be ErrNotFound, got: %v", err)
	}

	// The stalled holder starts over with a fresh session.
	second, err := svc.Acquire(ctx, owner, domain.LockKeyGlobal, holder)
	if err != nil {
		t.Fatalf("re-acquire: %v", err)
	}
	if !second.AcquiredAt.After(first.AcquiredAt) {
		t.Errorf("re-acquire must start a new session: got %v, want after %v",
			second.AcquiredAt, first.AcquiredAt)
	}
}

func TestHeartbeat_NoLock(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t, nil)

	_, err := svc.Heartbeat(context.Background(), companyOwner(), domain.LockKeyGlobal, uuid.New())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

// ===========================================================================
// Release
// ===========================================================================

func TestRelease_Idempotent(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	owner := companyOwner()
	holder := uuid.New()

	if _, err := svc.Acquire(ctx, owner, domain.LockKeyGlobal, holder); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	if err := svc.Release(ctx, owner, domain.LockKeyGlobal, holder); err != nil {
		t.Fatalf("release: %v", err)
	}
	// Releasing again, or releasing something never held, is a no-op.
	if err := svc.Release(ctx, owner, domain.LockKeyGlobal, holder); err != nil {
		t.Fatalf("double release: %v", err)
	}
	if err := svc.Release(ctx, owner, domain.LockKeyFolders, holder); err != nil {
		t.Fatalf("release of never-held lock: %v", err)
	}

	// The section is free again.
	if _, err := svc.Acquire(ctx, owner, domain.LockKeyGlobal, uuid.New()); err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
}

func TestRelease_DoesNotBreakForeignLease(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	owner := companyOwner()
	holder := uuid.New()

	if _, err := svc.Acquire(ctx, owner, domain.LockKeyGlobal, holder); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	// A stranger's release is silently ignored.
	if err := svc.Release(ctx, owner, domain.LockKeyGlobal, uuid.New()); err != nil {
		t.Fatalf("foreign release should be a no-op, got: %v", err)
	}

	_, err := svc.Acquire(ctx, owner, domain.LockKeyGlobal, uuid.New())
	if !errors.Is(err, domain.ErrLockDenied) {
		t.Fatalf("lease must survive a foreign release, got: %v", err)
	}
}

// ===========================================================================
// ForceRelease
// ===========================================================================

func TestForceRelease_AdminBreaksLease(t *testing.T) {
	t.Parallel()

	audited := make(chan domain.AuditRecord, 1)
	audit := &mockAuditLogger{
		LogFunc: func(ctx context.Context, record domain.AuditRecord) error {
			audited <- record
			return nil
		},
	}
	svc, _ := newTestService(t, audit)
	ctx := context.Background()

	owner := companyOwner()
	holder := uuid.New()
	admin := domain.Account{ID: uuid.New(), Kind: domain.AccountKindCompanyMember, Role: domain.RoleAdmin}

	if _, err := svc.Acquire(ctx, owner, domain.LockKeyGlobal, holder); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	if err := svc.ForceRelease(ctx, admin, owner, domain.LockKeyGlobal); err != nil {
		t.Fatalf("force release: %v", err)
	}

	if _, err := svc.Acquire(ctx, owner, domain.LockKeyGlobal, uuid.New()); err != nil {
		t.Fatalf("section should be free after force release, got: %v", err)
	}

	select {
	case rec := <-audited:
		if rec.Action != domain.AuditActionForceUnlock {
			t.Errorf("audit action: got %s", rec.Action)
		}
		if rec.ActorID != admin.ID {
			t.Errorf("audit actor: got %s", rec.ActorID)
		}
	case <-time.After(time.Second):
		t.Errorf("force release should be audited")
	}
}

func TestForceRelease_EditorForbidden(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	owner := companyOwner()
	editor := domain.Account{ID: uuid.New(), Kind: domain.AccountKindCompanyMember, Role: domain.RoleEdit}

	if _, err := svc.Acquire(ctx, owner, domain.LockKeyGlobal, uuid.New()); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	err := svc.ForceRelease(ctx, editor, owner, domain.LockKeyGlobal)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got: %v", err)
	}
}

func TestForceRelease_NoLock(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t, nil)

	admin := domain.Account{ID: uuid.New(), Kind: domain.AccountKindCompanyMember, Role: domain.RoleAdmin}
	if err := svc.ForceRelease(context.Background(), admin, companyOwner(), domain.LockKeyGlobal); err != nil {
		t.Fatalf("force release of absent lock should be a no-op, got: %v", err)
	}
}

// ===========================================================================
// Sweep
// ===========================================================================

func TestSweep_RemovesOnlyAbandoned(t *testing.T) {
	t.Parallel()
	svc, clock := newTestService(t, nil)
	ctx := context.Background()

	ownerA := companyOwner()
	ownerB := companyOwner()
	fresh := uuid.New()

	if _, err := svc.Acquire(ctx, ownerA, domain.LockKeyGlobal, uuid.New()); err != nil {
		t.Fatalf("acquire A: %v", err)
	}

	clock.Advance(15 * time.Minute) // A is now idle past the heartbeat window

	if _, err := svc.Acquire(ctx, ownerB, domain.LockKeyFolders, fresh); err != nil {
		t.Fatalf("acquire B: %v", err)
	}

	removed, err := svc.Sweep(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed: got %d, want 1", removed)
	}

	// B's lease survived.
	if _, err := svc.Heartbeat(ctx, ownerB, domain.LockKeyFolders, fresh); err != nil {
		t.Errorf("fresh lease must survive the sweep, got: %v", err)
	}
}
