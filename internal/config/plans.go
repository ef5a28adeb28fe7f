package config

import (
	"strings"

	"github.com/lexwatch/lexwatch-backend/internal/domain"
)

// Plan names recognized by the limits lookup. Billing assigns these; this
// subsystem only reads them.
const (
	PlanFree       = "free"
	PlanPro        = "pro"
	PlanEnterprise = "enterprise"
)

// Limits returns the caps for a plan name. Unknown or empty plan names get
// the free-plan caps, the conservative default.
func (p PlansConfig) Limits(planName string) domain.PlanLimits {
	switch strings.ToLower(strings.TrimSpace(planName)) {
	case PlanPro:
		return domain.PlanLimits{MaxTags: p.ProMaxTags, MaxSources: p.ProMaxSources}
	case PlanEnterprise:
		return domain.PlanLimits{MaxTags: p.EnterpriseMaxTags, MaxSources: p.EnterpriseMaxSources}
	default:
		return domain.PlanLimits{MaxTags: p.FreeMaxTags, MaxSources: p.FreeMaxSources}
	}
}
