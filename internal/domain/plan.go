package domain

// PlanLimits caps list lengths per subscription plan. Consumed read-only by
// the selection service; the billing system that assigns plans lives
// outside this codebase.
type PlanLimits struct {
	MaxTags    int
	MaxSources int
}

// Unlimited reports whether the plan carries no tag cap.
func (l PlanLimits) Unlimited() bool {
	return l.MaxTags <= 0
}
