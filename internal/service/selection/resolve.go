package selection

import (
	"context"
	"log/slog"
	"sort"

	"github.com/lexwatch/lexwatch-backend/internal/domain"
)

// Selection is the reconciled view of an account's tag subscription.
type Selection struct {
	// Selected is the account's stored selection intersected with the
	// owner's current tag set, sorted by name.
	Selected []string

	// Available is every tag the owner currently defines, keyed by name.
	Available map[string]domain.TagDefinition

	// DroppedCount is how many stored names no longer resolve to a tag.
	// Surfaced for observability; dropped names are not an error.
	DroppedCount int
}

// AvailableNames returns the available tag names sorted for stable output.
func (s *Selection) AvailableNames() []string {
	return sortedTagNames(s.Available)
}

func sortedTagNames(tags map[string]domain.TagDefinition) []string {
	names := make([]string, 0, len(tags))
	for name := range tags {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveSelection reconciles the account's stored tag names against the
// owner's current tag set. An empty result after filtering fails open to
// every available tag: a member whose whole selection was renamed away
// keeps receiving alerts rather than silently receiving none.
func (s *Service) ResolveSelection(ctx context.Context, account domain.Account) (*Selection, error) {
	_, tags, err := s.available(ctx, account)
	if err != nil {
		return nil, err
	}

	selected := make([]string, 0, len(account.SelectedTagNames))
	dropped := 0
	for _, name := range account.SelectedTagNames {
		if _, ok := tags[name]; ok {
			selected = append(selected, name)
		} else {
			dropped++
		}
	}
	sort.Strings(selected)

	if len(selected) == 0 {
		selected = append(selected, sortedTagNames(tags)...)
	}

	if dropped > 0 {
		s.log.InfoContext(ctx, "stale selection entries dropped",
			slog.String("account_id", account.ID.String()),
			slog.Int("dropped", dropped),
		)
	}

	return &Selection{
		Selected:     selected,
		Available:    tags,
		DroppedCount: dropped,
	}, nil
}
