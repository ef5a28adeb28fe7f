package editlock

import (
	"context"
	"fmt"
	"log/slog"
)

// Sweep deletes every abandoned lease across all owners and returns how
// many were removed. Lazy expiry already keeps acquisition correct without
// it; the sweep only keeps lock listings tidy for operators, so it runs
// from a cron binary rather than an in-process daemon.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	locks, err := s.store.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("sweep: %w", err)
	}

	now := s.now().UTC()
	removed := 0
	for _, lock := range locks {
		if !lock.Abandoned(now, s.cfg.HeartbeatTimeout, s.cfg.AbsoluteTimeout) {
			continue
		}
		if err := s.store.Delete(ctx, lock.OwnerID, lock.Key); err != nil {
			return removed, fmt.Errorf("sweep %s/%s: %w", lock.OwnerID, lock.Key, err)
		}
		removed++
		s.log.InfoContext(ctx, "abandoned lock swept",
			slog.String("owner_id", lock.OwnerID.String()),
			slog.String("key", lock.Key),
			slog.String("holder_id", lock.HolderID.String()),
			slog.Duration("idle_for", lock.IdleFor(now)),
		)
	}

	return removed, nil
}
