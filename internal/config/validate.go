package config

import (
	"fmt"
	"strings"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.Redis.URL, "redis://") && !strings.HasPrefix(c.Redis.URL, "rediss://") {
		return fmt.Errorf("redis.url must start with redis:// or rediss:// (got %q)", c.Redis.URL)
	}

	if c.Lock.HeartbeatTimeout <= 0 {
		return fmt.Errorf("lock.heartbeat_timeout must be > 0 (got %v)", c.Lock.HeartbeatTimeout)
	}
	if c.Lock.AbsoluteTimeout < c.Lock.HeartbeatTimeout {
		return fmt.Errorf("lock.absolute_timeout (%v) must be >= lock.heartbeat_timeout (%v)",
			c.Lock.AbsoluteTimeout, c.Lock.HeartbeatTimeout)
	}

	if c.Audit.HistoryPerEntity < 0 {
		return fmt.Errorf("audit.history_per_entity must be >= 0 (got %d)", c.Audit.HistoryPerEntity)
	}

	if err := c.Plans.validate(); err != nil {
		return fmt.Errorf("plans: %w", err)
	}

	return nil
}

func (p *PlansConfig) validate() error {
	caps := map[string]int{
		"free_max_tags":          p.FreeMaxTags,
		"free_max_sources":       p.FreeMaxSources,
		"pro_max_tags":           p.ProMaxTags,
		"pro_max_sources":        p.ProMaxSources,
		"enterprise_max_tags":    p.EnterpriseMaxTags,
		"enterprise_max_sources": p.EnterpriseMaxSources,
	}
	for name, v := range caps {
		if v < 0 {
			return fmt.Errorf("%s must be >= 0 (got %d)", name, v)
		}
	}
	return nil
}
